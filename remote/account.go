package remote

import (
	"context"
	"net/http"

	"github.com/rpupo63/unified-personal-site-frontend/models"
)

func (c *Client) GetUser(ctx context.Context, creds Credentials) (models.User, error) {
	var user models.User
	err := c.doJSON(ctx, creds, call{http.MethodGet, "/api/user", "/api/user"}, nil, &user)
	return user, err
}

func (c *Client) UpdateUser(ctx context.Context, creds Credentials, update models.ProfileUpdate) (models.User, error) {
	var user models.User
	err := c.doJSON(ctx, creds, call{http.MethodPut, "/api/user", "/api/user"}, update, &user)
	return user, err
}

func (c *Client) LoginHistory(ctx context.Context, creds Credentials) ([]models.LoginSession, error) {
	var sessions []models.LoginSession
	err := c.doJSON(ctx, creds, call{http.MethodGet, "/api/user/login-history", "/api/user/login-history"}, nil, &sessions)
	return sessions, err
}

// LogoutSession signs out one of the account's other sessions.
func (c *Client) LogoutSession(ctx context.Context, creds Credentials, sessionID string) error {
	body := map[string]string{"sessionId": sessionID}
	return c.doJSON(ctx, creds, call{http.MethodPost, "/api/logout-session", "/api/logout-session"}, body, nil)
}

func (c *Client) EnableTwoFactor(ctx context.Context, creds Credentials) (models.TwoFactorSetup, error) {
	var setup models.TwoFactorSetup
	err := c.doJSON(ctx, creds, call{http.MethodPost, "/api/2fa/enable", "/api/2fa/enable"}, struct{}{}, &setup)
	return setup, err
}

func (c *Client) VerifyTwoFactor(ctx context.Context, creds Credentials, code string) (models.TwoFactorStatus, error) {
	var status models.TwoFactorStatus
	err := c.doJSON(ctx, creds, call{http.MethodPost, "/api/2fa/verify", "/api/2fa/verify"}, models.TwoFactorCode{Code: code}, &status)
	return status, err
}

func (c *Client) DisableTwoFactor(ctx context.Context, creds Credentials, code string) (models.TwoFactorStatus, error) {
	var status models.TwoFactorStatus
	err := c.doJSON(ctx, creds, call{http.MethodPost, "/api/2fa/disable", "/api/2fa/disable"}, models.TwoFactorCode{Code: code}, &status)
	return status, err
}

func (c *Client) GetEmailPreferences(ctx context.Context, creds Credentials) (models.EmailPreferences, error) {
	var prefs models.EmailPreferences
	err := c.doJSON(ctx, creds, call{http.MethodGet, "/api/email-preferences", "/api/email-preferences"}, nil, &prefs)
	return prefs, err
}

func (c *Client) UpdateEmailPreferences(ctx context.Context, creds Credentials, prefs models.EmailPreferences) (models.EmailPreferences, error) {
	var updated models.EmailPreferences
	err := c.doJSON(ctx, creds, call{http.MethodPut, "/api/email-preferences", "/api/email-preferences"}, prefs, &updated)
	return updated, err
}

// ResetEmailPreferences removes stored preferences; the API falls back to its defaults.
func (c *Client) ResetEmailPreferences(ctx context.Context, creds Credentials) error {
	return c.doJSON(ctx, creds, call{http.MethodDelete, "/api/email-preferences", "/api/email-preferences"}, nil, nil)
}
