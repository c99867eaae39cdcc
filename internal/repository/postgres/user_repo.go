package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/ne3mer/retro/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *userRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "username = ?", username).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// ToggleFavorite performs the read-modify-write of the favorite set under a
// row lock so two simultaneous toggles for the same user cannot drop one.
func (r *userRepository) ToggleFavorite(ctx context.Context, userID uuid.UUID, movieID int) (*domain.User, bool, error) {
	var user domain.User
	var isFavorite bool

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&user, "id = ?", userID).Error; err != nil {
			return err
		}

		ids := user.FavoriteIDs()
		next := make([]int, 0, len(ids)+1)
		for _, id := range ids {
			if id != movieID {
				next = append(next, id)
			}
		}
		if len(next) == len(ids) {
			next = append(next, movieID)
			isFavorite = true
		}
		user.SetFavoriteIDs(next)

		return tx.Model(&user).Update("favorite_movies", user.FavoriteMovies).Error
	})
	if err != nil {
		return nil, false, err
	}

	return &user, isFavorite, nil
}
