package backend

import (
	"context"
	"net/http"
	"time"
)

// User is the account shape returned by the auth endpoints.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuthData carries the user plus a fresh token pair. The refresh token is
// long-lived and only ever sent back to the refresh endpoint.
type AuthData struct {
	User         User   `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Register creates an account and returns the initial token pair.
func (c *Client) Register(ctx context.Context, email, password, name string) (*AuthData, error) {
	if email == "" || password == "" {
		return nil, &APIError{Kind: KindValidation, Message: "email and password are required"}
	}

	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}{Email: email, Password: password, Name: name}

	env, err := c.do(ctx, http.MethodPost, "/api/auth/register", nil, body)
	if err != nil {
		return nil, err
	}
	var data AuthData
	if err := decodeData(env, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthData, error) {
	if email == "" || password == "" {
		return nil, &APIError{Kind: KindValidation, Message: "email and password are required"}
	}

	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	env, err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, body)
	if err != nil {
		return nil, err
	}
	var data AuthData
	if err := decodeData(env, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Logout invalidates the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	return err
}

// RefreshToken trades a refresh token for a new token pair.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*AuthData, error) {
	if refreshToken == "" {
		return nil, &APIError{Kind: KindValidation, Message: "refresh token is required"}
	}

	body := struct {
		RefreshToken string `json:"refreshToken"`
	}{RefreshToken: refreshToken}

	env, err := c.do(ctx, http.MethodPost, "/api/auth/refresh", nil, body)
	if err != nil {
		return nil, err
	}
	var data AuthData
	if err := decodeData(env, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Profile returns the authenticated user's account.
func (c *Client) Profile(ctx context.Context) (*User, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/auth/profile", nil, nil)
	if err != nil {
		return nil, err
	}
	var user User
	if err := decodeData(env, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
