package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ne3mer/retro/internal/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeUser(w http.ResponseWriter, username string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"user": map[string]any{
			"id":             "9f9d1a9e-0000-0000-0000-000000000001",
			"username":       username,
			"email":          username + "@example.com",
			"favoriteMovies": []int{},
		},
	})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

func TestSession_LoadFailureMeansLoggedOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusUnauthorized, "No authentication token found")
	}))
	defer server.Close()

	session := client.NewSession(client.New(server.URL))
	session.Load(context.Background())

	assert.False(t, session.Authenticated())
	assert.Nil(t, session.CurrentUser())
}

func TestSession_LoadNetworkFailureIsNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // Nothing is listening anymore.

	session := client.NewSession(client.New(server.URL, client.WithRetryDelay(time.Millisecond)))
	session.Load(context.Background())

	assert.False(t, session.Authenticated())
}

func TestSession_LoginPopulatesCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/login" {
			http.SetCookie(w, &http.Cookie{Name: "token", Value: "session-token", Path: "/"})
			writeUser(w, "neo")
			return
		}
		writeMessage(w, http.StatusNotFound, "Route not found")
	}))
	defer server.Close()

	session := client.NewSession(client.New(server.URL))
	user, err := session.Login(context.Background(), "neo", "secretpw")
	require.NoError(t, err)

	assert.Equal(t, "neo", user.Username)
	assert.True(t, session.Authenticated())
	assert.Equal(t, "neo", session.CurrentUser().Username)
}

func TestSession_LogoutClearsCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			writeUser(w, "neo")
		case "/auth/logout":
			writeMessage(w, http.StatusOK, "Logged out successfully")
		}
	}))
	defer server.Close()

	session := client.NewSession(client.New(server.URL))
	_, err := session.Login(context.Background(), "neo", "secretpw")
	require.NoError(t, err)
	require.True(t, session.Authenticated())

	require.NoError(t, session.Logout(context.Background()))
	assert.False(t, session.Authenticated())
}

func TestSession_ToggleFavoriteUpdatesCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			writeUser(w, "neo")
		case "/auth/favorites/27205":
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"favoriteMovies": []int{27205},
				"isFavorite":     true,
			})
		}
	}))
	defer server.Close()

	session := client.NewSession(client.New(server.URL))
	_, err := session.Login(context.Background(), "neo", "secretpw")
	require.NoError(t, err)

	favs, err := session.ToggleFavorite(context.Background(), 27205)
	require.NoError(t, err)
	assert.True(t, favs.IsFavorite)
	assert.Equal(t, []int{27205}, session.CurrentUser().FavoriteMovies)
}

// On a 401 the client may re-login exactly once and replay the request once.
func TestClient_SilentReloginOn401(t *testing.T) {
	var loginCalls, meCalls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			atomic.AddInt32(&loginCalls, 1)
			http.SetCookie(w, &http.Cookie{Name: "token", Value: "fresh-token", Path: "/"})
			writeUser(w, "neo")
		case "/auth/me":
			atomic.AddInt32(&meCalls, 1)
			if cookie, err := r.Cookie("token"); err == nil && cookie.Value == "fresh-token" {
				writeUser(w, "neo")
				return
			}
			writeMessage(w, http.StatusUnauthorized, "Token expired")
		}
	}))
	defer server.Close()

	c := client.New(server.URL, client.WithCredentialSource(func() (client.Credentials, bool) {
		return client.Credentials{Username: "neo", Password: "secretpw"}, true
	}))

	user, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "neo", user.Username)
	assert.Equal(t, int32(1), atomic.LoadInt32(&loginCalls), "exactly one silent re-login")
	assert.Equal(t, int32(2), atomic.LoadInt32(&meCalls), "exactly one replay")
}

func TestClient_401WithoutCredentialSource(t *testing.T) {
	var meCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&meCalls, 1)
		writeMessage(w, http.StatusUnauthorized, "Token expired")
	}))
	defer server.Close()

	c := client.New(server.URL)
	_, err := c.Me(context.Background())

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&meCalls), "no retry without credentials")
}

// When re-login succeeds but the replay still comes back 401, the client
// gives up rather than looping.
func TestClient_NoSecondReloginAfterReplay(t *testing.T) {
	var loginCalls, meCalls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			atomic.AddInt32(&loginCalls, 1)
			writeUser(w, "neo")
		case "/auth/me":
			atomic.AddInt32(&meCalls, 1)
			writeMessage(w, http.StatusUnauthorized, "Token expired")
		}
	}))
	defer server.Close()

	c := client.New(server.URL, client.WithCredentialSource(func() (client.Credentials, bool) {
		return client.Credentials{Username: "neo", Password: "secretpw"}, true
	}))

	_, err := c.Me(context.Background())

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&loginCalls), "re-login happens once, never twice")
	assert.Equal(t, int32(2), atomic.LoadInt32(&meCalls))
}

// A GET whose connection dies is retried once after the fixed delay.
func TestClient_GetRetriesOnceOnNetworkFailure(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		writeUser(w, "neo")
	}))
	defer server.Close()

	c := client.New(server.URL, client.WithRetryDelay(10*time.Millisecond))

	user, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "neo", user.Username)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestClient_PostDoesNotRetryOnNetworkFailure(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		hj, ok := w.(http.Hijacker)
		require.True(t, ok)
		conn, _, err := hj.Hijack()
		require.NoError(t, err)
		conn.Close()
	}))
	defer server.Close()

	c := client.New(server.URL, client.WithRetryDelay(10*time.Millisecond))

	err := c.Logout(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts), "non-idempotent requests are never replayed")
}
