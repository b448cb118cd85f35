package groupmeet

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

const authPath = "/api/auth"

// sessionRequest is the descriptor every session-bound call uses.
func sessionRequest(method string, body any) RequestOptions {
	return RequestOptions{Method: method, Body: body, WithCredentials: true}
}

// Auth manages the cookie session.
type Auth struct {
	client *Client
}

// NewAuth creates an Auth over client.
func NewAuth(client *Client) *Auth {
	return &Auth{client: client}
}

// Me returns the logged-in account. A missing session is a 401 APIError.
func (a *Auth) Me(ctx context.Context) (AuthUser, error) {
	return Fetch[AuthUser](ctx, a.client, authPath+"/me", sessionRequest(http.MethodGet, nil))
}

// Login starts a session. When no anti-forgery cookie is present yet, a
// preflight GET of /me lets the backend issue one.
func (a *Auth) Login(ctx context.Context, req LoginRequest) (AuthUser, error) {
	if a.client.xsrfToken() == "" {
		if _, err := a.Me(ctx); err != nil && !IsUnauthenticated(err) {
			a.client.logger.Debug("login preflight failed", zap.Error(err))
		}
	}
	return Fetch[AuthUser](ctx, a.client, authPath+"/login", sessionRequest(http.MethodPost, req))
}

// Logout ends the session.
func (a *Auth) Logout(ctx context.Context) error {
	_, err := Fetch[MessageResponse](ctx, a.client, authPath+"/logout", sessionRequest(http.MethodPost, nil))
	return err
}

// Register creates an account.
func (a *Auth) Register(ctx context.Context, req RegistrationRequest) (AuthUser, error) {
	return Fetch[AuthUser](ctx, a.client, authPath+"/register", sessionRequest(http.MethodPost, req))
}

// ForgotPassword asks the backend to mail a reset link.
func (a *Auth) ForgotPassword(ctx context.Context, email string) (MessageResponse, error) {
	return Fetch[MessageResponse](ctx, a.client, authPath+"/forgot-password",
		sessionRequest(http.MethodPost, map[string]string{"email": email}))
}

// ResetPassword sets a new password using the mailed token.
func (a *Auth) ResetPassword(ctx context.Context, token, newPassword string) (MessageResponse, error) {
	return Fetch[MessageResponse](ctx, a.client, authPath+"/reset-password",
		sessionRequest(http.MethodPost, map[string]string{"token": token, "newPassword": newPassword}))
}
