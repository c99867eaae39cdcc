package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ne3mer/retro/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	// ToggleFavorite flips movieID membership in the user's favorite set
	// inside a single row-locked transaction and returns the updated user
	// plus the new membership state.
	ToggleFavorite(ctx context.Context, userID uuid.UUID, movieID int) (*domain.User, bool, error)
}

type PostFilter struct {
	Category string
	Tag      string
	Search   string
	Page     int
	Limit    int
}

type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	List(ctx context.Context, filter PostFilter) ([]*domain.Post, int64, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*domain.Post, error)
	// ListCategories returns the distinct non-empty categories in use,
	// sorted alphabetically.
	ListCategories(ctx context.Context) ([]string, error)
	// ListTags returns the deduplicated union of all post tags, sorted
	// alphabetically.
	ListTags(ctx context.Context) ([]string, error)
	Update(ctx context.Context, post *domain.Post) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type Repositories struct {
	User UserRepository
	Post PostRepository
}
