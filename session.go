package quill

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pquerna/otp/totp"
)

// Credentials are the inputs to Login. Either Email or Username identifies
// the account. TOTPSecret is optional; when set, a one-time code is generated
// and sent as the otp_code second factor.
type Credentials struct {
	Email      string
	Username   string
	Password   string
	TOTPSecret string
}

type loginResponse struct {
	User   *User      `json:"user"`
	Tokens AuthTokens `json:"tokens"`
}

// Login authenticates against the backend and stores the returned token pair.
func (c *Client) Login(ctx context.Context, creds Credentials) (*User, error) {
	payload := map[string]string{"password": creds.Password}
	if creds.Email != "" {
		payload["email"] = creds.Email
	} else {
		payload["username"] = creds.Username
	}
	if creds.TOTPSecret != "" {
		code, err := totp.GenerateCode(creds.TOTPSecret, time.Now())
		if err != nil {
			return nil, fmt.Errorf("login: totp: %w", err)
		}
		payload["otp_code"] = code
	}

	var resp loginResponse
	call := apiCall{operation: "Login", method: http.MethodPost, path: loginPath, body: payload}
	if err := c.do(ctx, call, &resp); err != nil {
		return nil, err
	}
	if err := c.store.Set(resp.Tokens); err != nil {
		return nil, fmt.Errorf("login: store tokens: %w", err)
	}
	slog.Info("logged in")
	return resp.User, nil
}

// Logout revokes the session server-side (best effort) and clears the stored
// tokens regardless of the response. The call is marked skip-refresh so a
// dying session is never refreshed on its way out.
func (c *Client) Logout(ctx context.Context) error {
	call := apiCall{operation: "Logout", method: http.MethodPost, path: logoutPath, auth: true, skipRefresh: true}
	err := c.do(ctx, call, nil)
	if clearErr := c.store.Clear(); clearErr != nil {
		return fmt.Errorf("logout: %w", clearErr)
	}
	if err != nil {
		slog.Debug("logout call failed, tokens cleared anyway", slog.Any("error", err))
	}
	slog.Info("logged out")
	return nil
}

// Authenticated reports whether the store holds a non-empty access token.
func (c *Client) Authenticated() bool {
	tok, err := c.store.Get()
	return err == nil && tok != nil && tok.AccessToken != ""
}
