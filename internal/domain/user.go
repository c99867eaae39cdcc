package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type User struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Username       string         `json:"username" gorm:"uniqueIndex;not null"`
	Email          string         `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash   string         `json:"-" gorm:"not null"`
	Name           string         `json:"name"`
	FavoriteMovies datatypes.JSON `json:"favoriteMovies"`
	IsAdmin        bool           `json:"isAdmin" gorm:"default:false"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// FavoriteIDs decodes the stored favorite-movie ids. Missing or empty
// column decodes to an empty slice, never nil.
func (u *User) FavoriteIDs() []int {
	ids := []int{}
	if len(u.FavoriteMovies) > 0 {
		json.Unmarshal(u.FavoriteMovies, &ids)
	}
	return ids
}

// SetFavoriteIDs replaces the stored favorite-movie ids.
func (u *User) SetFavoriteIDs(ids []int) {
	raw, _ := json.Marshal(ids)
	u.FavoriteMovies = datatypes.JSON(raw)
}

// HasFavorite reports whether movieID is in the user's favorite set.
func (u *User) HasFavorite(movieID int) bool {
	for _, id := range u.FavoriteIDs() {
		if id == movieID {
			return true
		}
	}
	return false
}
