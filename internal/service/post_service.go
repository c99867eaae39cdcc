package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/ne3mer/retro/internal/domain"
	"github.com/ne3mer/retro/internal/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrPostNotFound = domain.ErrPostNotFound
	ErrNotAuthor    = domain.ErrNotAuthor
)

type PostService struct {
	postRepo  repository.PostRepository
	sanitizer *bluemonday.Policy
}

func NewPostService(postRepo repository.PostRepository) *PostService {
	return &PostService{
		postRepo:  postRepo,
		sanitizer: bluemonday.UGCPolicy(),
	}
}

type CreatePostInput struct {
	Title    string
	Content  string
	Tags     []string
	Category string
}

type UpdatePostInput struct {
	Title    *string
	Content  *string
	Tags     []string
	Category *string
}

func (s *PostService) Create(ctx context.Context, authorID uuid.UUID, input CreatePostInput) (*domain.Post, error) {
	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, _ := json.Marshal(tags)

	post := &domain.Post{
		ID:        uuid.New(),
		AuthorID:  authorID,
		Title:     input.Title,
		Content:   s.sanitizer.Sanitize(input.Content),
		Tags:      datatypes.JSON(tagsJSON),
		Category:  input.Category,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	return s.GetByID(ctx, post.ID)
}

func (s *PostService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return post, nil
}

type PostPage struct {
	Posts       []*domain.Post
	Total       int64
	TotalPages  int
	CurrentPage int
}

func (s *PostService) List(ctx context.Context, filter repository.PostFilter) (*PostPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 10
	}

	posts, total, err := s.postRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))

	return &PostPage{
		Posts:       posts,
		Total:       total,
		TotalPages:  totalPages,
		CurrentPage: filter.Page,
	}, nil
}

func (s *PostService) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*domain.Post, error) {
	return s.postRepo.ListByAuthor(ctx, authorID)
}

// Categories returns the distinct categories posts have been filed under.
func (s *PostService) Categories(ctx context.Context) ([]string, error) {
	return s.postRepo.ListCategories(ctx)
}

// Tags returns every tag in use, deduplicated and sorted.
func (s *PostService) Tags(ctx context.Context) ([]string, error) {
	return s.postRepo.ListTags(ctx)
}

// Update applies only the provided fields. Only the author may update a post.
func (s *PostService) Update(ctx context.Context, userID, postID uuid.UUID, input UpdatePostInput) (*domain.Post, error) {
	post, err := s.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != userID {
		return nil, ErrNotAuthor
	}

	if input.Title != nil && *input.Title != "" {
		post.Title = *input.Title
	}
	if input.Content != nil && *input.Content != "" {
		post.Content = s.sanitizer.Sanitize(*input.Content)
	}
	if input.Tags != nil {
		tagsJSON, _ := json.Marshal(input.Tags)
		post.Tags = datatypes.JSON(tagsJSON)
	}
	if input.Category != nil && *input.Category != "" {
		post.Category = *input.Category
	}
	post.UpdatedAt = time.Now()

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Delete removes a post. Only the author may delete it.
func (s *PostService) Delete(ctx context.Context, userID, postID uuid.UUID) error {
	post, err := s.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != userID {
		return ErrNotAuthor
	}
	return s.postRepo.Delete(ctx, postID)
}
