package domain

import "errors"

// Auth errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already in use")
)

// Post errors
var (
	ErrPostNotFound = errors.New("post not found")
	ErrNotAuthor    = errors.New("user is not the author of this post")
)

// Upstream movie service errors
var (
	ErrMovieUpstream = errors.New("movie service unavailable")
	ErrMovieNotFound = errors.New("movie not found")
)
