package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/lumo-engine/internal/pkg/apperr"
	"github.com/yungbote/lumo-engine/internal/pkg/httpx"
	"github.com/yungbote/lumo-engine/internal/platform/logger"
)

// Response is the transport-level result of one platform call.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

type Client struct {
	httpc     *http.Client
	baseURL   string
	authToken string
	log       *logger.Logger
}

func NewClient(baseURL, authToken string, timeout time.Duration, baseLog *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpc:     &http.Client{Timeout: timeout},
		baseURL:   strings.TrimRight(baseURL, "/"),
		authToken: authToken,
		log:       baseLog.With("client", "RemoteClient"),
	}
}

// Do issues one request against the platform. Transport-level failures come
// back as TransientNetworkError: the server-side effect of a timed-out
// request is unknown, so it must be retried idempotently, never
// assumed-failed.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, headers map[string]string, body []byte) (*Response, error) {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, apperr.Transient(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, apperr.Transient(err)
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: respBody}, nil
}

// classifyStatus maps a server response onto the outbox outcome taxonomy.
// Auth failures are treated as retryable: the platform token is refreshed
// out-of-band and the write must not be lost in the meantime. Retryable
// rejections carry the server's Retry-After pacing when it sent one.
func classifyStatus(resp *Response) error {
	status := resp.Status
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperr.Transient(fmt.Errorf("auth rejected (status %d)", status))
	}
	rejection := apperr.Permanent(status, "")
	if !httpx.IsRetryableError(rejection) {
		return rejection
	}
	return &apperr.TransientNetworkError{
		Err:        fmt.Errorf("server busy (status %d)", status),
		RetryAfter: httpx.RetryAfterDuration(resp.Header, 0, 5*time.Minute),
	}
}
