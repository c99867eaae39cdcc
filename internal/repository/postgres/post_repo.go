package postgres

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/google/uuid"
	"github.com/ne3mer/retro/internal/domain"
	"github.com/ne3mer/retro/internal/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *postRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *domain.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	var post domain.Post
	err := r.db.WithContext(ctx).Preload("Author").First(&post, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, filter repository.PostFilter) ([]*domain.Post, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Post{})

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Tag != "" {
		query = query.Where("tags::text LIKE ?", "%\""+filter.Tag+"\"%")
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR content ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []*domain.Post
	err := query.Preload("Author").
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset((filter.Page - 1) * filter.Limit).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*domain.Post, error) {
	var posts []*domain.Post
	err := r.db.WithContext(ctx).Preload("Author").
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) ListCategories(ctx context.Context) ([]string, error) {
	categories := []string{}
	err := r.db.WithContext(ctx).Model(&domain.Post{}).
		Distinct("category").
		Where("category <> ''").
		Order("category").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *postRepository) ListTags(ctx context.Context) ([]string, error) {
	var rows []datatypes.JSON
	err := r.db.WithContext(ctx).Model(&domain.Post{}).Pluck("tags", &rows).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, raw := range rows {
		if len(raw) == 0 {
			continue
		}
		var tags []string
		if err := json.Unmarshal(raw, &tags); err != nil {
			continue
		}
		for _, tag := range tags {
			seen[tag] = true
		}
	}

	unique := make([]string, 0, len(seen))
	for tag := range seen {
		unique = append(unique, tag)
	}
	sort.Strings(unique)
	return unique, nil
}

func (r *postRepository) Update(ctx context.Context, post *domain.Post) error {
	return r.db.WithContext(ctx).Save(post).Error
}

func (r *postRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Post{}, "id = ?", id).Error
}
