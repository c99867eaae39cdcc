package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ne3mer/retro/internal/api/middleware"
	"github.com/ne3mer/retro/internal/api/response"
	"github.com/ne3mer/retro/internal/config"
	"github.com/ne3mer/retro/internal/domain"
	"github.com/ne3mer/retro/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
	postService *service.PostService
	cfg         *config.Config
}

func NewAuthHandler(authService *service.AuthService, postService *service.PostService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authService: authService, postService: postService, cfg: cfg}
}

type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"max=100"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Name  *string `json:"name" validate:"omitempty,max=100"`
	Email *string `json:"email" validate:"omitempty,email"`
}

// UserPayload is the public profile: everything safe to hand a client,
// never the password hash.
type UserPayload struct {
	ID             string         `json:"id"`
	Username       string         `json:"username"`
	Email          string         `json:"email"`
	Name           string         `json:"name"`
	FavoriteMovies []int          `json:"favoriteMovies"`
	IsAdmin        bool           `json:"isAdmin"`
	CreatedAt      time.Time      `json:"createdAt"`
	Posts          []*domain.Post `json:"posts,omitempty"`
}

type UserResponse struct {
	User UserPayload `json:"user"`
}

type FavoritesResponse struct {
	FavoriteMovies []int `json:"favoriteMovies"`
	IsFavorite     bool  `json:"isFavorite"`
}

func publicProfile(u *domain.User) UserPayload {
	return UserPayload{
		ID:             u.ID.String(),
		Username:       u.Username,
		Email:          u.Email,
		Name:           u.Name,
		FavoriteMovies: u.FavoriteIDs(),
		IsAdmin:        u.IsAdmin,
		CreatedAt:      u.CreatedAt,
	}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.authService.Signup(r.Context(), service.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			response.Error(w, http.StatusConflict, "User already exists")
			return
		}
		slog.Error("signup failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "Error creating user")
		return
	}

	middleware.SetSessionCookie(w, h.cfg, result.Token)
	response.JSON(w, http.StatusCreated, UserResponse{User: publicProfile(result.User)})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.authService.Login(r.Context(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		// One message for unknown user and wrong password, so account
		// existence never leaks.
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Error(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		slog.Error("login failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "Error logging in")
		return
	}

	middleware.SetSessionCookie(w, h.cfg, result.Token)
	response.JSON(w, http.StatusOK, UserResponse{User: publicProfile(result.User)})
}

// Logout clears the cookie only; tokens are stateless and stay valid until
// their natural expiry.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearSessionCookie(w, h.cfg)
	response.JSON(w, http.StatusOK, response.Message{Message: "Logged out successfully"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.Error(w, http.StatusNotFound, "User not found")
			return
		}
		slog.Error("me lookup failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "Error fetching user")
		return
	}

	payload := publicProfile(user)
	if posts, err := h.postService.ListByAuthor(r.Context(), user.ID); err != nil {
		// Profile still goes out, just without the authored posts.
		slog.Error("me posts lookup failed", "error", err, "userId", user.ID)
	} else {
		payload.Posts = posts
	}

	response.JSON(w, http.StatusOK, UserResponse{User: payload})
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req UpdateProfileRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.authService.UpdateProfile(r.Context(), identity.UserID, service.ProfileUpdateInput{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.Error(w, http.StatusNotFound, "User not found")
		case errors.Is(err, service.ErrEmailTaken):
			response.Error(w, http.StatusConflict, "Email already in use")
		default:
			slog.Error("profile update failed", "error", err)
			response.Error(w, http.StatusInternalServerError, "Error updating profile")
		}
		return
	}

	response.JSON(w, http.StatusOK, UserResponse{User: publicProfile(user)})
}

func (h *AuthHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	movieID, err := strconv.Atoi(chi.URLParam(r, "movieId"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid movie id")
		return
	}

	user, isFavorite, err := h.authService.ToggleFavorite(r.Context(), identity.UserID, movieID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.Error(w, http.StatusNotFound, "User not found")
			return
		}
		slog.Error("favorite toggle failed", "error", err, "movieId", movieID)
		response.Error(w, http.StatusInternalServerError, "Error toggling favorite")
		return
	}

	response.JSON(w, http.StatusOK, FavoritesResponse{
		FavoriteMovies: user.FavoriteIDs(),
		IsFavorite:     isFavorite,
	})
}
