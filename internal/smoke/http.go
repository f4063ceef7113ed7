package smoke

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gsbelarus/tetrisbot/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(config *Config) *HTTPClient {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if config.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed test servers
	}
	return &HTTPClient{
		client: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
	}
}

// Get performs a GET request tagged with requestID.
func (c *HTTPClient) Get(ctx context.Context, url, requestID string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if requestID != "" {
		req.Header.Set(requestIDHeader, requestID)
	}
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitAll sends submissions concurrently using a worker pool. Every
// response must be 200 with the fixed acknowledgement body, valid or not.
func submitAll(ctx context.Context, config *Config, subs []Submission, stats *Stats) {
	log := logger.Get()
	log.Info(ctx, "sending submissions", logger.Int("count", len(subs)), logger.Int("workers", config.Workers))

	client := newHTTPClient(config)

	var sent, acked, failed atomic.Int64

	subChan := make(chan Submission, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for range config.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range subChan {
				sent.Add(1)
				if err := submitOne(ctx, client, config.BaseURL, stats.RunID, sub); err != nil {
					failed.Add(1)
					if config.Verbose {
						log.Warn(ctx, "submission failed", logger.String("id", sub.ID), logger.Error(err))
					}
					continue
				}
				acked.Add(1)
			}
		}()
	}

	go func() {
		defer close(subChan)
		for _, sub := range subs {
			select {
			case <-ctx.Done():
				return
			case subChan <- sub:
			}
		}
	}()

	wg.Wait()

	stats.Sent = int(sent.Load())
	stats.Acknowledged = int(acked.Load())
	stats.Failed = int(failed.Load())

	log.Info(ctx, "submissions completed",
		logger.Int("acknowledged", stats.Acknowledged),
		logger.Int("failed", stats.Failed),
	)
}

// submitOne sends a single submission and checks the acknowledgement.
func submitOne(ctx context.Context, client *HTTPClient, baseURL, runID string, sub Submission) error {
	start := time.Now()
	resp, err := client.Get(ctx, baseURL+sub.String(), runID+"/"+sub.ID)
	if err != nil {
		return err
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("status %d after %s", resp.StatusCode, time.Since(start))
	}
	if string(body) != SubmitAck {
		return fmt.Errorf("unexpected body %q", body)
	}
	return nil
}
