// internal/adapters/portal/client.go
package portal

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"family_trip/internal/adapters/observability"
	"family_trip/internal/domain"
)

// Client talks to the employer portal. It implements every provider port the
// trip engine needs: catalog, policy, pricing, last selection, review and
// submission.
type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("portal API key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

var (
	ErrNotFound     = fmt.Errorf("portal: %w", domain.ErrNotFound)
	ErrUnauthorized = fmt.Errorf("portal: %w", domain.ErrUnauthorized)
	ErrForbidden    = fmt.Errorf("portal: forbidden: %w", domain.ErrUnauthorized)
)

const maxAttempts = 4

func (c *Client) getFirst(ctx context.Context, op string, urls []string, out any) error {
	var last error
	for _, u := range urls {
		if err := c.get(ctx, op, u, out); err != nil {
			if errors.Is(err, ErrNotFound) {
				last = err
				continue
			}
			return err
		}
		return nil
	}
	if last != nil {
		return last
	}
	return errors.New("portal: no candidate URL succeeded")
}

// get performs a rate-limited GET and decodes the JSON body into out.
// 429 and transient 5xx are retried, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, op, url string, out any) error {
	return c.do(ctx, op, http.MethodGet, url, nil, out, retryableGET)
}

// post sends body as JSON. Review and submit are not idempotent on the portal
// side, so only 429 (request never admitted) is retried.
func (c *Client) post(ctx context.Context, op, url string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return c.do(ctx, op, http.MethodPost, url, b, out, retryablePOST)
}

func retryableGET(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func retryablePOST(status int) bool { return status == http.StatusTooManyRequests }

func (c *Client) do(ctx context.Context, op, method, url string, body []byte, out any, retryable func(int) bool) error {
	start := time.Now()
	status := 0
	defer func() { observability.ObserveExternal("portal", op, status, time.Since(start)) }()

	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		var rdr io.Reader
		if body != nil {
			rdr = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, rdr)
		if err != nil {
			return err
		}
		req.Header.Set("X-API-Key", c.key)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "family-trip/1.0")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			// a POST that may have reached the portal is not replayed
			if method == http.MethodGet && i < maxAttempts-1 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		status = resp.StatusCode

		switch {
		case resp.StatusCode == http.StatusNoContent:
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			dec := json.NewDecoder(resp.Body)
			dec.UseNumber()
			err := dec.Decode(out)
			resp.Body.Close()
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err

		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound

		case resp.StatusCode == http.StatusUnauthorized:
			resp.Body.Close()
			return ErrUnauthorized

		case resp.StatusCode == http.StatusForbidden:
			resp.Body.Close()
			return ErrForbidden

		case retryable(resp.StatusCode):
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("portal: remote %d", resp.StatusCode)
			if i < maxAttempts-1 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("portal: bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return lastErr
}

// sleepCtx waits for d or returns false early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). 0 if absent or invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
