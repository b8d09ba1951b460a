package api

import (
	"context"
	"net/url"
	"time"
)

// Profile is the authenticated user's identity as the service reports it.
type Profile struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges a username and password for a bearer token.
// The endpoint expects form-encoded credentials, not JSON.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	values := url.Values{}
	values.Set("username", username)
	values.Set("password", password)

	var tok tokenResponse
	if err := c.postForm(ctx, "/api/auth/login", values, &tok); err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// Register creates an account. It does not establish a session; callers
// chain a Login afterwards.
func (c *Client) Register(ctx context.Context, email, username, password string) error {
	body := map[string]string{
		"email":    email,
		"username": username,
		"password": password,
	}
	return c.postJSON(ctx, "/api/auth/register", body, nil)
}

// GoogleLogin exchanges a Google ID token for a local bearer token.
func (c *Client) GoogleLogin(ctx context.Context, idToken string) (string, error) {
	var tok tokenResponse
	if err := c.postJSON(ctx, "/api/auth/google", map[string]string{"id_token": idToken}, &tok); err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// GetProfile fetches the profile for the current credential.
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.get(ctx, "/api/user/profile", &p); err != nil {
		return nil, err
	}
	return &p, nil
}
