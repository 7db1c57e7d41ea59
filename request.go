package quill

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

// maxAuthRetries bounds how many times a call may be re-sent after a token
// refresh. The counter makes the no-infinite-loop guarantee structural: even
// a backend that always answers 401 produces at most one refresh+retry.
const maxAuthRetries = 1

// apiCall describes one request through the pipeline.
type apiCall struct {
	operation string
	method    string
	path      string
	query     url.Values
	body      any

	// auth attaches the bearer header and arms the 401 refresh+retry cycle.
	auth bool

	// skipRefresh suppresses the refresh cycle even on 401. Set on the
	// refresh call itself and on logout, which must not revive a session it
	// is tearing down.
	skipRefresh bool
}

// do executes an API call with the session contract applied: bearer header,
// proactive refresh of an expired JWT, one silent refresh+retry on 401, and
// typed errors for everything the pipeline cannot resolve itself.
func (c *Client) do(ctx context.Context, call apiCall, out any) error {
	if call.auth && !call.skipRefresh {
		if err := c.refreshIfExpired(ctx); err != nil {
			c.recordAPICall(call.operation, false)
			return err
		}
	}

	for refreshed := 0; ; refreshed++ {
		status, body, err := c.send(ctx, call)
		if err != nil {
			c.recordAPICall(call.operation, false)
			return &TransportError{Op: call.operation, Err: err}
		}

		switch {
		case status >= 200 && status < 300:
			c.recordAPICall(call.operation, true)
			if out == nil || len(body) == 0 {
				return nil
			}
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("%s: decode response: %w", call.operation, err)
			}
			return nil

		case status == http.StatusUnauthorized && call.auth && !call.skipRefresh:
			if refreshed >= maxAuthRetries {
				// 401 survived a fresh token: the session is unrecoverable.
				c.recordAPICall(call.operation, false)
				if clearErr := c.store.Clear(); clearErr != nil {
					slog.Warn("token clear failed", slog.Any("error", clearErr))
				}
				slog.Warn("401 after refresh, session torn down", slog.String("operation", call.operation))
				return fmt.Errorf("%s: %w", call.operation, ErrUnauthorized)
			}
			slog.Debug("401, refreshing session", slog.String("operation", call.operation))
			if _, err := c.refreshTokens(ctx); err != nil {
				c.recordAPICall(call.operation, false)
				return fmt.Errorf("%s: %w", call.operation, err)
			}
			continue

		default:
			c.recordAPICall(call.operation, false)
			return apiErrorFrom(status, body)
		}
	}
}

// send performs a single HTTP attempt and returns the status and body.
func (c *Client) send(ctx context.Context, call apiCall) (int, []byte, error) {
	u := c.cfg.BaseURL + call.path
	if len(call.query) > 0 {
		u += "?" + call.query.Encode()
	}

	var payload io.Reader
	if call.body != nil {
		raw, err := json.Marshal(call.body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode body: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, call.method, u, payload)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if call.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Public calls never depend on token presence; auth calls attach the
	// bearer header only when a token is actually stored.
	if call.auth {
		if tok, err := c.store.Get(); err == nil && tok != nil && tok.AccessToken != "" {
			typ := tok.TokenType
			if typ == "" {
				typ = "Bearer"
			}
			req.Header.Set("Authorization", typ+" "+tok.AccessToken)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}
