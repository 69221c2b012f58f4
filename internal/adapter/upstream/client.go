package upstream

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/event-impact-service/internal/domain"
	"github.com/couchcryptid/event-impact-service/internal/observability"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 16 << 20

// Client fetches the raw event-impact payload from the analytics backend.
// It implements pipeline.Fetcher.
type Client struct {
	url        string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an event-impact client. A zero timeout leaves the request
// bounded only by ctx.
func NewClient(url string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Fetch issues one GET to the endpoint and decodes the body. Every failure is
// returned as a *FetchFailure; Fetch never retries.
func (c *Client) Fetch(ctx context.Context) (domain.Payload, error) {
	start := time.Now()
	payload, err := c.fetch(ctx)
	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())

	outcome := "success"
	if err != nil {
		outcome = string(failureKind(err))
	}
	c.metrics.FetchRequests.WithLabelValues(outcome).Inc()

	if err != nil {
		return domain.Payload{}, err
	}
	c.logger.Debug("event impact fetched",
		"url", c.url,
		"results", len(payload.AlignedResults),
		"duration", time.Since(start),
	)
	return payload, nil
}

func (c *Client) fetch(ctx context.Context) (domain.Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return domain.Payload{}, &FetchFailure{Kind: FailureTransport, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Payload{}, &FetchFailure{Kind: FailureTransport, Err: fmt.Errorf("event impact request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return domain.Payload{}, &FetchFailure{Kind: FailureTransport, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Payload{}, &FetchFailure{
			Kind:       FailureStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("upstream error: status %d: %s", resp.StatusCode, truncate(body, 256)),
		}
	}

	payload, err := domain.DecodePayload(body)
	if err != nil {
		return domain.Payload{}, &FetchFailure{Kind: FailureDecode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return payload, nil
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
