package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"feedback-moderation-server/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const subscriptionKeyHeader = "Ocp-Apim-Subscription-Key"

// providerClient is the HTTP plumbing shared by the analysis providers
type providerClient struct {
	name     string
	endpoint string
	apiKey   string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
}

func newProviderClient(name, endpoint, apiKey string, timeout time.Duration, log *zap.Logger) providerClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return providerClient{
		name:     name,
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
		breaker:  newBreaker(name, log),
	}
}

// newBreaker opens after five consecutive failures and probes again after 30s
func newBreaker(name string, log *zap.Logger) *gobreaker.CircuitBreaker {
	metrics.BreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			log.Warn("provider circuit breaker changed state",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// post sends body as JSON and returns the raw response body of a 2xx reply
func (p *providerClient) post(ctx context.Context, path string, body interface{}) ([]byte, error) {
	out, err := p.breaker.Execute(func() (interface{}, error) {
		return p.do(ctx, path, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s: %v", ErrProviderUnavailable, p.name, err)
		}
		return nil, err
	}
	return out.([]byte), nil
}

func (p *providerClient) do(ctx context.Context, path string, body interface{}) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(subscriptionKeyHeader, p.apiKey)

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		metrics.ProviderLatency.WithLabelValues(p.name, "error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: %s: %v", ErrProviderUnavailable, p.name, err)
	}
	defer resp.Body.Close()
	metrics.ProviderLatency.WithLabelValues(p.name, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read body: %v", ErrProviderUnavailable, p.name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %d: %s", ErrProviderUnavailable, p.name, resp.StatusCode, truncate(data, 200))
	}
	return data, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
