// Package clients talks to the checkout collaborators over JSON/HTTP.
// Each collaborator has one base URL and one fixed route per operation.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

const maxBodyBytes = 1 << 20

// Options tune retries and the circuit breaker of a Client.
type Options struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// BreakerFailures consecutive transient failures open the breaker for BreakerTimeout.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

func DefaultOptions() Options {
	return Options{
		MaxRetries:      2,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
	}
}

type Client struct {
	Name    string
	BaseURL *url.URL
	HTTP    *http.Client

	opts    Options
	breaker *gobreaker.CircuitBreaker[[]byte]
}

func NewClient(name string, baseURL string, httpClient *http.Client, opts Options) *Client {
	u, err := url.Parse(baseURL)
	if err != nil {
		// Fail fast: config error
		panic(fmt.Sprintf("invalid %s base url %q: %v", name, baseURL, err))
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	failures := opts.BreakerFailures
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return failures > 0 && counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !transient(err)
		},
	})
	return &Client{Name: name, BaseURL: u, HTTP: httpClient, opts: opts, breaker: cb}
}

// BreakerState reports the breaker state, e.g. for health output.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// DoJSON sends in (if non-nil) as JSON and decodes the response into out (if
// non-nil). Transient failures are retried; 4xx responses are returned as
// *StatusError without retry.
func (c *Client) DoJSON(ctx context.Context, method, path string, headers http.Header, in, out interface{}) error {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", c.Name, err)
		}
		payload = b
	}
	// path is already escaped; JoinPath keeps any prefix on the base URL
	u := c.BaseURL.JoinPath(path)

	var body []byte
	op := func() error {
		b, err := c.breaker.Execute(func() ([]byte, error) {
			return c.roundTrip(ctx, method, u.String(), path, payload, headers)
		})
		if err != nil {
			if ctx.Err() != nil || !transient(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		body = b
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.opts.InitialInterval
	eb.MaxInterval = c.opts.MaxInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, c.opts.MaxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return err
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s %s %s: decode response: %w", c.Name, method, path, err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, target, path string, payload []byte, headers http.Header) ([]byte, error) {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return nil, err
	}
	for k, vv := range headers {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s %s: %w", c.Name, method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%s %s %s: read body: %w", c.Name, method, path, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &StatusError{
			Collaborator: c.Name,
			Method:       method,
			Path:         path,
			StatusCode:   resp.StatusCode,
			Message:      bodyMessage(body),
		}
	}
	return body, nil
}

// transient reports whether a retry might succeed.
func transient(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}

// bodyMessage extracts {"message": ...} or {"error": ...} from an error body.
func bodyMessage(body []byte) string {
	var m struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &m); err != nil {
		return ""
	}
	if m.Message != "" {
		return m.Message
	}
	return m.Error
}
