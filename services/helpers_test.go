package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"feedback-moderation-server/models"
	"feedback-moderation-server/repository"
)

var errProviderDown = errors.New("provider down")

type stubClassifier struct {
	result *models.ModerationResult
	err    error
	calls  atomic.Int32
}

func (s *stubClassifier) AnalyzeText(context.Context, string) (*models.ModerationResult, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func safeClassifier() *stubClassifier {
	return &stubClassifier{result: Evaluate([]CategorySeverity{
		{Category: "Hate", Severity: 0},
		{Category: "Violence", Severity: 0},
	}, 4)}
}

func unsafeClassifier(category string, severity int) *stubClassifier {
	return &stubClassifier{result: Evaluate([]CategorySeverity{
		{Category: category, Severity: severity},
		{Category: "Sexual", Severity: 0},
	}, 4)}
}

type stubAnalyzer struct {
	sentiment    models.Sentiment
	phrases      []string
	language     string
	sentimentErr error
	phrasesErr   error
	languageErr  error

	sentimentCalls atomic.Int32
	phrasesCalls   atomic.Int32
	languageCalls  atomic.Int32
}

func positiveAnalyzer() *stubAnalyzer {
	return &stubAnalyzer{
		sentiment: models.Sentiment{Score: 0.97, Category: models.SentimentPositive},
		phrases:   []string{"product", "expectations"},
		language:  "English",
	}
}

func (s *stubAnalyzer) AnalyzeSentiment(context.Context, string) (models.Sentiment, error) {
	s.sentimentCalls.Add(1)
	return s.sentiment, s.sentimentErr
}

func (s *stubAnalyzer) ExtractKeyPhrases(context.Context, string) ([]string, error) {
	s.phrasesCalls.Add(1)
	return s.phrases, s.phrasesErr
}

func (s *stubAnalyzer) DetectLanguage(context.Context, string) (string, error) {
	s.languageCalls.Add(1)
	return s.language, s.languageErr
}

func (s *stubAnalyzer) totalCalls() int32 {
	return s.sentimentCalls.Load() + s.phrasesCalls.Load() + s.languageCalls.Load()
}

// countingRepo wraps the memory repository with write counters and
// injectable write failures
type countingRepo struct {
	*repository.MemoryFeedbackRepository

	mu          sync.Mutex
	creates     int
	updates     int
	failCreates int
	failUpdates int
	failErr     error
	// commitFailed stores the record before reporting a failed create
	commitFailed bool
}

func newCountingRepo() *countingRepo {
	return &countingRepo{
		MemoryFeedbackRepository: repository.NewMemoryFeedbackRepository(),
		failErr:                  repository.ErrRateLimited,
	}
}

func (r *countingRepo) Create(ctx context.Context, f *models.Feedback) (*models.Feedback, error) {
	r.mu.Lock()
	r.creates++
	fail := r.failCreates > 0
	if fail {
		r.failCreates--
	}
	r.mu.Unlock()
	if fail {
		if r.commitFailed {
			if _, err := r.MemoryFeedbackRepository.Create(ctx, f); err != nil {
				return nil, err
			}
		}
		return nil, r.failErr
	}
	return r.MemoryFeedbackRepository.Create(ctx, f)
}

func (r *countingRepo) Update(ctx context.Context, f *models.Feedback) (*models.Feedback, error) {
	r.mu.Lock()
	r.updates++
	fail := r.failUpdates > 0
	if fail {
		r.failUpdates--
	}
	r.mu.Unlock()
	if fail {
		return nil, r.failErr
	}
	return r.MemoryFeedbackRepository.Update(ctx, f)
}

func (r *countingRepo) writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.creates + r.updates
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.ModerationEvent
}

func (p *recordingPublisher) Publish(e models.ModerationEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []models.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

var testOptions = PipelineOptions{MinLength: 10, MaxLength: 1000, StoreRetryDelay: 5 * time.Millisecond}

func newTestFeedbackService(t *testing.T, repo repository.FeedbackRepository, c SafetyClassifier, a TextAnalyzer, events EventPublisher) *FeedbackService {
	return NewFeedbackService(repo, c, a, events, testOptions, zaptest.NewLogger(t))
}

func newTestReviewService(t *testing.T, repo repository.FeedbackRepository, a TextAnalyzer, events EventPublisher) *ReviewService {
	return NewReviewService(repo, a, events, 5*time.Millisecond, zaptest.NewLogger(t))
}

// seedPending stores an unsafe record that skipped enrichment
func seedPending(t *testing.T, repo repository.FeedbackRepository, id string) *models.Feedback {
	t.Helper()
	f := &models.Feedback{
		ID:             id,
		Content:        "content awaiting a moderator " + id,
		SubmissionTime: time.Now().UTC(),
	}
	Decide(Evaluate([]CategorySeverity{{Category: "Violence", Severity: 4}}, 4)).Apply(f)
	stored, err := repo.Create(context.Background(), f)
	if err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
	return stored
}
