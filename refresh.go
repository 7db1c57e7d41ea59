package quill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// refreshTokens exchanges the stored refresh token for a new pair.
//
// Concurrent callers are collapsed into a single HTTP call and share its
// result; duplicate refresh calls would let the backend's token rotation
// invalidate the first caller's new refresh token. The singleflight group
// forgets the key only once the call settles, so a refresh triggered after
// one completes issues a fresh call.
//
// A backend rejection clears the store entirely — the session is considered
// unrecoverable and is not retried. A transport failure leaves the stored
// pair intact so a flaky network does not log the user out.
func (c *Client) refreshTokens(ctx context.Context) (*AuthTokens, error) {
	v, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		tok, err := c.store.Get()
		if err != nil {
			return nil, fmt.Errorf("refresh: %w", err)
		}
		if tok == nil || tok.RefreshToken == "" {
			return nil, ErrUnauthenticated
		}

		var fresh AuthTokens
		call := apiCall{
			operation:   "Refresh",
			method:      http.MethodPost,
			path:        refreshPath,
			body:        map[string]string{"refresh_token": tok.RefreshToken},
			skipRefresh: true,
		}
		if err := c.do(ctx, call, &fresh); err != nil {
			var te *TransportError
			if errors.As(err, &te) {
				return nil, fmt.Errorf("refresh: %w", err)
			}
			if clearErr := c.store.Clear(); clearErr != nil {
				slog.Warn("token clear failed", slog.Any("error", clearErr))
			}
			slog.Warn("refresh rejected, session cleared", slog.Any("error", err))
			return nil, fmt.Errorf("refresh rejected: %v: %w", err, ErrUnauthorized)
		}

		if err := c.store.Set(fresh); err != nil {
			return nil, fmt.Errorf("refresh: store tokens: %w", err)
		}
		slog.Debug("session refreshed")
		return &fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*AuthTokens), nil
}

// refreshIfExpired refreshes proactively when the stored access token is a
// JWT already past (or within RefreshLeeway of) its expiry, saving the
// guaranteed 401 round trip.
func (c *Client) refreshIfExpired(ctx context.Context) error {
	if !c.tokenNeedsRefresh() {
		return nil
	}
	slog.Debug("access token expired, refreshing proactively")
	_, err := c.refreshTokens(ctx)
	return err
}

// tokenNeedsRefresh inspects the stored access token's exp claim without
// verifying the signature; the backend stays the authority on validity.
// Opaque (non-JWT) tokens always pass.
func (c *Client) tokenNeedsRefresh() bool {
	tok, err := c.store.Get()
	if err != nil || tok == nil || tok.AccessToken == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok.AccessToken, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Until(exp.Time) < c.cfg.RefreshLeeway
}
