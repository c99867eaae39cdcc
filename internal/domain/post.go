package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Post struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	AuthorID  uuid.UUID      `json:"authorId" gorm:"type:uuid;not null;index"`
	Author    *User          `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Title     string         `json:"title" gorm:"not null"`
	Content   string         `json:"content" gorm:"not null"`
	Tags      datatypes.JSON `json:"tags"`
	Category  string         `json:"category" gorm:"index"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}
