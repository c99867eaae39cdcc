package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/ne3mer/retro/internal/api/middleware"
	"github.com/ne3mer/retro/internal/api/response"
	"github.com/ne3mer/retro/internal/domain"
	"github.com/ne3mer/retro/internal/repository"
	"github.com/ne3mer/retro/internal/service"
)

type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

type CreatePostRequest struct {
	Title    string   `json:"title" validate:"required,max=200"`
	Content  string   `json:"content" validate:"required"`
	Tags     []string `json:"tags"`
	Category string   `json:"category" validate:"max=50"`
}

type UpdatePostRequest struct {
	Title    *string  `json:"title" validate:"omitempty,max=200"`
	Content  *string  `json:"content"`
	Tags     []string `json:"tags"`
	Category *string  `json:"category" validate:"omitempty,max=50"`
}

type PostListResponse struct {
	Posts       []*domain.Post `json:"posts"`
	TotalPages  int            `json:"totalPages"`
	CurrentPage int            `json:"currentPage"`
	Total       int64          `json:"total"`
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.PostFilter{
		Category: q.Get("category"),
		Tag:      q.Get("tag"),
		Search:   q.Get("search"),
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	page, err := h.postService.List(r.Context(), filter)
	if err != nil {
		slog.Error("post list failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "Error fetching posts")
		return
	}

	response.JSON(w, http.StatusOK, PostListResponse{
		Posts:       page.Posts,
		TotalPages:  page.TotalPages,
		CurrentPage: page.CurrentPage,
		Total:       page.Total,
	})
}

// ListMine returns the authenticated user's posts, newest first.
func (h *PostHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	posts, err := h.postService.ListByAuthor(r.Context(), identity.UserID)
	if err != nil {
		slog.Error("user post list failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "Error fetching user posts")
		return
	}

	response.JSON(w, http.StatusOK, posts)
}

// Categories enumerates the categories in use, for filter pickers.
func (h *PostHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.postService.Categories(r.Context())
	if err != nil {
		slog.Error("category list failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "Error fetching categories")
		return
	}

	response.JSON(w, http.StatusOK, categories)
}

// Tags enumerates every tag in use, deduplicated and sorted.
func (h *PostHandler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.postService.Tags(r.Context())
	if err != nil {
		slog.Error("tag list failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "Error fetching tags")
		return
	}

	response.JSON(w, http.StatusOK, tags)
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid post id")
		return
	}

	post, err := h.postService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			response.Error(w, http.StatusNotFound, "Post not found")
			return
		}
		slog.Error("post fetch failed", "error", err, "postId", id)
		response.Error(w, http.StatusInternalServerError, "Error fetching post")
		return
	}

	response.JSON(w, http.StatusOK, post)
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreatePostRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	post, err := h.postService.Create(r.Context(), identity.UserID, service.CreatePostInput{
		Title:    req.Title,
		Content:  req.Content,
		Tags:     req.Tags,
		Category: req.Category,
	})
	if err != nil {
		slog.Error("post create failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "Error creating post")
		return
	}

	response.JSON(w, http.StatusCreated, post)
}

func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid post id")
		return
	}

	var req UpdatePostRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	post, err := h.postService.Update(r.Context(), identity.UserID, id, service.UpdatePostInput{
		Title:    req.Title,
		Content:  req.Content,
		Tags:     req.Tags,
		Category: req.Category,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			response.Error(w, http.StatusNotFound, "Post not found")
		case errors.Is(err, service.ErrNotAuthor):
			response.Error(w, http.StatusForbidden, "Not authorized to update this post")
		default:
			slog.Error("post update failed", "error", err, "postId", id)
			response.Error(w, http.StatusInternalServerError, "Error updating post")
		}
		return
	}

	response.JSON(w, http.StatusOK, post)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid post id")
		return
	}

	if err := h.postService.Delete(r.Context(), identity.UserID, id); err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			response.Error(w, http.StatusNotFound, "Post not found")
		case errors.Is(err, service.ErrNotAuthor):
			response.Error(w, http.StatusForbidden, "Not authorized to delete this post")
		default:
			slog.Error("post delete failed", "error", err, "postId", id)
			response.Error(w, http.StatusInternalServerError, "Error deleting post")
		}
		return
	}

	response.JSON(w, http.StatusOK, response.Message{Message: "Post deleted successfully"})
}
