package models

import "time"

// EventType names a moderation event pushed to connected moderators
type EventType string

const (
	EventSubmitted EventType = "feedback.submitted"
	EventApproved  EventType = "feedback.approved"
	EventRejected  EventType = "feedback.rejected"
)

// ModerationEvent announces a change to a feedback record
type ModerationEvent struct {
	Type       EventType   `json:"type"`
	FeedbackID string      `json:"feedback_id"`
	State      ReviewState `json:"state"`
	Flags      []string    `json:"flagged_categories,omitempty"`
	At         time.Time   `json:"at"`
}

// NewModerationEvent builds an event describing f's current state
func NewModerationEvent(t EventType, f *Feedback) ModerationEvent {
	return ModerationEvent{
		Type:       t,
		FeedbackID: f.ID,
		State:      f.State(),
		Flags:      append([]string(nil), f.FlaggedCategories...),
		At:         time.Now().UTC(),
	}
}
