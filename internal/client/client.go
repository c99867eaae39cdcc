// Package client is a Go client for the Retro API. It owns the cookie-based
// credential transport and the bounded retry behavior around expired
// sessions: at most one silent re-login per 401 and at most one replay of an
// idempotent GET after a network failure.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// Credentials is what the client replays a login with after a 401.
type Credentials struct {
	Username string
	Password string
}

// CredentialSource supplies credentials for silent re-login. Returning
// false means no re-login is attempted.
type CredentialSource func() (Credentials, bool)

// APIError is a non-2xx response decoded into the server's message shape.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      CredentialSource
	retryDelay time.Duration
}

type Option func(*Client)

// WithCredentialSource enables the single silent re-login on 401.
func WithCredentialSource(src CredentialSource) Option {
	return func(c *Client) { c.creds = src }
}

// WithRetryDelay sets the pause before the single GET retry after a
// network failure.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func New(baseURL string, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		retryDelay: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do runs one request through the retry pipeline. The body is marshaled
// once up front so every replay sends identical bytes.
func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, err
		}
	}

	resp, err := c.send(ctx, method, path, payload)

	// One retry after a network failure, GETs only.
	if err != nil {
		if method != http.MethodGet {
			return nil, err
		}
		select {
		case <-time.After(c.retryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		resp, err = c.send(ctx, method, path, payload)
		if err != nil {
			return nil, err
		}
	}

	// One silent re-login after a 401, then one replay.
	if resp.StatusCode == http.StatusUnauthorized && c.creds != nil && path != "/auth/login" {
		creds, ok := c.creds()
		if !ok {
			return resp, nil
		}
		resp.Body.Close()

		loginBody, _ := json.Marshal(map[string]string{
			"username": creds.Username,
			"password": creds.Password,
		})
		loginResp, err := c.send(ctx, http.MethodPost, "/auth/login", loginBody)
		if err != nil {
			return nil, err
		}
		loginResp.Body.Close()
		if loginResp.StatusCode != http.StatusOK {
			return nil, &APIError{Status: http.StatusUnauthorized, Message: "session expired"}
		}

		return c.send(ctx, method, path, payload)
	}

	return resp, nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

// call runs a request and decodes a 2xx response into out (when non-nil),
// or returns the server's error message as an *APIError.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Message: "request failed"}
		var msg struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &msg) == nil && msg.Message != "" {
			apiErr.Message = msg.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// User mirrors the server's public profile payload.
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	FavoriteMovies []int     `json:"favoriteMovies"`
	IsAdmin        bool      `json:"isAdmin"`
	CreatedAt      time.Time `json:"createdAt"`
}

type userEnvelope struct {
	User User `json:"user"`
}

// Favorites is the response of a favorite toggle.
type Favorites struct {
	FavoriteMovies []int `json:"favoriteMovies"`
	IsFavorite     bool  `json:"isFavorite"`
}

type SignupParams struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type ProfileUpdateParams struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

func (c *Client) Signup(ctx context.Context, params SignupParams) (*User, error) {
	var env userEnvelope
	if err := c.call(ctx, http.MethodPost, "/auth/signup", params, &env); err != nil {
		return nil, err
	}
	return &env.User, nil
}

func (c *Client) Login(ctx context.Context, username, password string) (*User, error) {
	var env userEnvelope
	body := map[string]string{"username": username, "password": password}
	if err := c.call(ctx, http.MethodPost, "/auth/login", body, &env); err != nil {
		return nil, err
	}
	return &env.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var env userEnvelope
	if err := c.call(ctx, http.MethodGet, "/auth/me", nil, &env); err != nil {
		return nil, err
	}
	return &env.User, nil
}

func (c *Client) UpdateProfile(ctx context.Context, params ProfileUpdateParams) (*User, error) {
	var env userEnvelope
	if err := c.call(ctx, http.MethodPut, "/auth/profile", params, &env); err != nil {
		return nil, err
	}
	return &env.User, nil
}

func (c *Client) ToggleFavorite(ctx context.Context, movieID int) (*Favorites, error) {
	var favs Favorites
	path := fmt.Sprintf("/auth/favorites/%d", movieID)
	if err := c.call(ctx, http.MethodPost, path, nil, &favs); err != nil {
		return nil, err
	}
	return &favs, nil
}

// TopRatedMovies returns the upstream page payload as raw JSON.
func (c *Client) TopRatedMovies(ctx context.Context, page int) (json.RawMessage, error) {
	var raw json.RawMessage
	path := fmt.Sprintf("/api/movies/top-rated?page=%d", page)
	if err := c.call(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) Movie(ctx context.Context, id int) (json.RawMessage, error) {
	var raw json.RawMessage
	path := fmt.Sprintf("/api/movies/%d", id)
	if err := c.call(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
