package client

import (
	"context"
	"sync"
)

// Session caches the current user on the client side. It is an explicit,
// injectable object so tests can run isolated instances; it is never a
// package-level singleton.
//
// Login, Signup, Logout and profile mutations update the cache from their
// own response payloads. Load refreshes it from the who-am-I endpoint.
type Session struct {
	client *Client

	mu   sync.RWMutex
	user *User
}

func NewSession(c *Client) *Session {
	return &Session{client: c}
}

// Load asks the server who the current cookie belongs to. Any failure,
// including a network failure, just means "not authenticated".
func (s *Session) Load(ctx context.Context) {
	user, err := s.client.Me(ctx)
	if err != nil {
		s.set(nil)
		return
	}
	s.set(user)
}

func (s *Session) Login(ctx context.Context, username, password string) (*User, error) {
	user, err := s.client.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	s.set(user)
	return user, nil
}

func (s *Session) Signup(ctx context.Context, params SignupParams) (*User, error) {
	user, err := s.client.Signup(ctx, params)
	if err != nil {
		return nil, err
	}
	s.set(user)
	return user, nil
}

func (s *Session) Logout(ctx context.Context) error {
	err := s.client.Logout(ctx)
	s.set(nil)
	return err
}

func (s *Session) UpdateProfile(ctx context.Context, params ProfileUpdateParams) (*User, error) {
	user, err := s.client.UpdateProfile(ctx, params)
	if err != nil {
		return nil, err
	}
	s.set(user)
	return user, nil
}

// ToggleFavorite updates the cached favorite set from the toggle response.
func (s *Session) ToggleFavorite(ctx context.Context, movieID int) (*Favorites, error) {
	favs, err := s.client.ToggleFavorite(ctx, movieID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.user != nil {
		s.user.FavoriteMovies = favs.FavoriteMovies
	}
	s.mu.Unlock()

	return favs, nil
}

// CurrentUser returns a copy of the cached user, or nil when not
// authenticated.
func (s *Session) CurrentUser() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

func (s *Session) set(user *User) {
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
}
