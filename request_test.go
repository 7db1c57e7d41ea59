package quill

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestClient wires a client against an httptest server with an in-memory
// token store.
func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(ClientConfig{BaseURL: srv.URL})
	return c, srv
}

func setTokens(t *testing.T, c *Client, access, refresh string) {
	t.Helper()
	require.NoError(t, c.Store().Set(AuthTokens{AccessToken: access, RefreshToken: refresh, TokenType: "Bearer"}))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestRefreshRetryScenario(t *testing.T) {
	// A call made with a stale access token gets one silent refresh+retry;
	// the caller never observes the 401.
	var refreshCalls, postCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "R1", body.RefreshToken)
		writeJSON(w, 200, AuthTokens{AccessToken: "T2", RefreshToken: "R2", TokenType: "Bearer"})
	})
	mux.HandleFunc("GET /posts/p1", func(w http.ResponseWriter, r *http.Request) {
		postCalls.Add(1)
		switch r.Header.Get("Authorization") {
		case "Bearer T2":
			writeJSON(w, 200, Post{ID: "p1", Text: "hello"})
		default:
			writeJSON(w, 401, map[string]string{"detail": "token expired"})
		}
	})

	c, _ := newTestClient(t, mux)
	setTokens(t, c, "T1", "R1")

	p, err := c.GetPost(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, "p1", p.ID)
	require.Equal(t, int32(1), refreshCalls.Load())
	require.Equal(t, int32(2), postCalls.Load())

	tok, err := c.Store().Get()
	require.NoError(t, err)
	require.Equal(t, "T2", tok.AccessToken)
	require.Equal(t, "R2", tok.RefreshToken)
}

func TestSecond401IsTerminal(t *testing.T) {
	// A backend that keeps answering 401 after a successful refresh must not
	// loop: one refresh, one retry, then Unauthorized with the session gone.
	var refreshCalls, postCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		writeJSON(w, 200, AuthTokens{AccessToken: "T2", RefreshToken: "R2"})
	})
	mux.HandleFunc("GET /posts/p1", func(w http.ResponseWriter, r *http.Request) {
		postCalls.Add(1)
		writeJSON(w, 401, map[string]string{"detail": "nope"})
	})

	c, _ := newTestClient(t, mux)
	setTokens(t, c, "T1", "R1")

	_, err := c.GetPost(context.Background(), "p1")
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Equal(t, int32(1), refreshCalls.Load())
	require.Equal(t, int32(2), postCalls.Load())

	tok, err := c.Store().Get()
	require.NoError(t, err)
	require.Nil(t, tok)
}

func TestSkipRefreshNeverRefreshes(t *testing.T) {
	var refreshCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		writeJSON(w, 200, AuthTokens{AccessToken: "T2", RefreshToken: "R2"})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 401, map[string]string{"detail": "expired"})
	})

	c, _ := newTestClient(t, mux)
	setTokens(t, c, "T1", "R1")

	require.NoError(t, c.Logout(context.Background()))
	require.Equal(t, int32(0), refreshCalls.Load())
	require.False(t, c.Authenticated())
}

func TestPublicCallSendsNoBearer(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /posts/explore", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, 200, FeedPage{Page: 1})
	})

	c, _ := newTestClient(t, mux)
	setTokens(t, c, "T1", "R1")

	require.NoError(t, c.Explore().LoadFirst(context.Background()))
	require.Empty(t, gotAuth)
}

func TestRequestIDHeader(t *testing.T) {
	ids := map[string]bool{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /posts/p1", func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		require.NotEmpty(t, id)
		ids[id] = true
		writeJSON(w, 200, Post{ID: "p1"})
	})

	c, _ := newTestClient(t, mux)
	_, err := c.GetPost(context.Background(), "p1")
	require.NoError(t, err)
	_, err = c.GetPost(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, ids, 2, "each request carries a distinct id")
}

func TestTypedErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /posts/missing", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 404, map[string]string{"detail": "post not found"})
	})
	mux.HandleFunc("POST /posts", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 422, map[string]any{
			"detail": "validation failed",
			"errors": map[string]string{"text": "must not be empty"},
		})
	})
	mux.HandleFunc("GET /posts/p1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 500, map[string]string{"message": "database on fire"})
	})

	c, _ := newTestClient(t, mux)
	ctx := context.Background()

	_, err := c.GetPost(ctx, "missing")
	require.True(t, IsNotFound(err))

	_, err = c.CreatePost(ctx, "")
	require.True(t, IsValidation(err))
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, "must not be empty", ae.Fields["text"])

	_, err = c.GetPost(ctx, "p1")
	require.True(t, IsServerError(err))
	require.ErrorAs(t, err, &ae)
	require.Equal(t, "database on fire", ae.Message)
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // nothing listening

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	_, err := c.GetPost(context.Background(), "p1")

	var te *TransportError
	require.True(t, errors.As(err, &te))
}

func TestMetricsHook(t *testing.T) {
	calls := map[string][]bool{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /posts/p1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, Post{ID: "p1"})
	})
	mux.HandleFunc("GET /posts/bad", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 500, nil)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c := NewClient(ClientConfig{
		BaseURL: srv.URL,
		MetricsHook: func(operation string, success bool) {
			calls[operation] = append(calls[operation], success)
		},
	})

	_, _ = c.GetPost(context.Background(), "p1")
	_, _ = c.GetPost(context.Background(), "bad")

	require.Equal(t, []bool{true, false}, calls["GetPost"])
}
