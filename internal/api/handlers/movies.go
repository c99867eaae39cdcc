package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ne3mer/retro/internal/api/response"
	"github.com/ne3mer/retro/internal/config"
	"github.com/ne3mer/retro/internal/domain"
	"github.com/ne3mer/retro/internal/service"
)

type MovieHandler struct {
	movieService *service.MovieService
	cfg          *config.Config
}

func NewMovieHandler(movieService *service.MovieService, cfg *config.Config) *MovieHandler {
	return &MovieHandler{movieService: movieService, cfg: cfg}
}

func (h *MovieHandler) TopRated(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			page = parsed
		}
	}

	body, err := h.movieService.TopRated(r.Context(), page)
	if err != nil {
		slog.Error("top-rated fetch failed", "error", err, "page", page)
		response.Error(w, http.StatusInternalServerError, h.upstreamMessage("Error fetching movies", err))
		return
	}

	response.Raw(w, http.StatusOK, body)
}

func (h *MovieHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid movie id")
		return
	}

	body, err := h.movieService.GetMovie(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrMovieNotFound) {
			response.Error(w, http.StatusNotFound, "Movie not found")
			return
		}
		slog.Error("movie detail fetch failed", "error", err, "movieId", id)
		response.Error(w, http.StatusInternalServerError, h.upstreamMessage("Error fetching movie details", err))
		return
	}

	response.Raw(w, http.StatusOK, body)
}

// upstreamMessage keeps upstream failure detail out of production responses.
func (h *MovieHandler) upstreamMessage(generic string, err error) string {
	if h.cfg.IsProduction() {
		return generic
	}
	return fmt.Sprintf("%s: %v", generic, err)
}
