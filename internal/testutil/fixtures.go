package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ne3mer/retro/internal/domain"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	username string
	email    string
	password string
	name     string
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	suffix := uuid.New().String()[:8]
	return &UserBuilder{
		username: fmt.Sprintf("testuser_%s", suffix),
		email:    fmt.Sprintf("testuser_%s@example.com", suffix),
		password: "testpassword123",
		name:     "Test User",
	}
}

// WithUsername sets the username
func (b *UserBuilder) WithUsername(username string) *UserBuilder {
	b.username = username
	return b
}

// WithEmail sets the email
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// WithName sets the display name
func (b *UserBuilder) WithName(name string) *UserBuilder {
	b.name = name
	return b
}

// Build creates the user in the database and returns the user with the raw password
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     b.username,
		Email:        b.email,
		PasswordHash: string(hashedPassword),
		Name:         b.name,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	user.SetFavoriteIDs([]int{})

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// UserEnvelope matches the API's {user} response shape
type UserEnvelope struct {
	User struct {
		ID             string `json:"id"`
		Username       string `json:"username"`
		Email          string `json:"email"`
		Name           string `json:"name"`
		FavoriteMovies []int  `json:"favoriteMovies"`
		IsAdmin        bool   `json:"isAdmin"`
	} `json:"user"`
}

// BuildAndAuthenticate creates a user via the signup endpoint and returns
// the user plus the session cookie the server set.
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, *http.Cookie) {
	t.Helper()

	reqBody := map[string]string{
		"username": b.username,
		"email":    b.email,
		"password": b.password,
		"name":     b.name,
	}
	body, _ := json.Marshal(reqBody)

	resp, err := http.Post(ts.BaseURL()+"/auth/signup", "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("failed to sign up user: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected signup status code: %d", resp.StatusCode)
	}

	var env UserEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	var sessionCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "token" {
			sessionCookie = c
		}
	}
	if sessionCookie == nil || sessionCookie.Value == "" {
		t.Fatal("signup did not set a session cookie")
	}

	userID, _ := uuid.Parse(env.User.ID)
	user := &domain.User{
		ID:       userID,
		Username: env.User.Username,
		Email:    env.User.Email,
		Name:     env.User.Name,
	}

	return user, sessionCookie
}

// PostBuilder creates test posts with a builder pattern
type PostBuilder struct {
	author   *domain.User
	title    string
	content  string
	tags     []string
	category string
}

// NewPostBuilder creates a new PostBuilder with default values
func NewPostBuilder() *PostBuilder {
	return &PostBuilder{
		title:    fmt.Sprintf("Test Post %s", uuid.New().String()[:8]),
		content:  "Some test content",
		tags:     []string{"test"},
		category: "general",
	}
}

// WithAuthor sets the post author
func (b *PostBuilder) WithAuthor(user *domain.User) *PostBuilder {
	b.author = user
	return b
}

// WithTitle sets the title
func (b *PostBuilder) WithTitle(title string) *PostBuilder {
	b.title = title
	return b
}

// WithContent sets the content
func (b *PostBuilder) WithContent(content string) *PostBuilder {
	b.content = content
	return b
}

// WithTags sets the tags
func (b *PostBuilder) WithTags(tags []string) *PostBuilder {
	b.tags = tags
	return b
}

// WithCategory sets the category
func (b *PostBuilder) WithCategory(category string) *PostBuilder {
	b.category = category
	return b
}

// Build creates the post in the database
func (b *PostBuilder) Build(t *testing.T, db *gorm.DB) *domain.Post {
	t.Helper()

	if b.author == nil {
		user, _ := NewUserBuilder().Build(t, db)
		b.author = user
	}

	tagsJSON, _ := json.Marshal(b.tags)
	post := &domain.Post{
		ID:        uuid.New(),
		AuthorID:  b.author.ID,
		Title:     b.title,
		Content:   b.content,
		Tags:      datatypes.JSON(tagsJSON),
		Category:  b.category,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := db.Create(post).Error; err != nil {
		t.Fatalf("failed to create post: %v", err)
	}

	return post
}

// AuthenticatedRequest creates an HTTP request carrying the session cookie
func AuthenticatedRequest(t *testing.T, method, url string, body interface{}, cookie *http.Cookie) *http.Request {
	t.Helper()

	var bodyReader *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	} else {
		bodyReader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	return req
}

// BearerRequest creates an HTTP request using the Authorization header
// fallback instead of the cookie.
func BearerRequest(t *testing.T, method, url string, body interface{}, token string) *http.Request {
	t.Helper()

	req := AuthenticatedRequest(t, method, url, body, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}
