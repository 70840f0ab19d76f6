package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// maxErrorBody caps how much of a failed response is quoted in the error.
const maxErrorBody = 512

// HTTP fetches the dataset from a static URL, such as the frontend's public
// data directory or an object-store link.
type HTTP struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTP creates an HTTP source with the given request timeout.
func NewHTTP(url string, timeout time.Duration, logger *slog.Logger) *HTTP {
	return &HTTP{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Open issues a GET and returns the response body on 200.
func (h *HTTP) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dataset request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("dataset endpoint error: status %d: %s", resp.StatusCode, body)
	}

	h.logger.Debug("dataset response received", "url", h.url, "content_length", resp.ContentLength)
	return resp.Body, nil
}

// Name returns the URL.
func (h *HTTP) Name() string { return h.url }
