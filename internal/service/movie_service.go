package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ne3mer/retro/internal/cache"
	"github.com/ne3mer/retro/internal/config"
	"github.com/ne3mer/retro/internal/domain"
)

const (
	topRatedCacheTTL = 10 * time.Minute
	detailCacheTTL   = time.Hour
)

// MovieService proxies the upstream movie-metadata API. Responses are passed
// through unmodified; an optional redis cache sits in front of the upstream.
type MovieService struct {
	cfg        *config.Config
	cache      *cache.Cache
	httpClient *http.Client
}

func NewMovieService(cfg *config.Config, c *cache.Cache) *MovieService {
	return &MovieService{
		cfg:   cfg,
		cache: c,
		httpClient: &http.Client{
			Timeout: cfg.MovieTimeout,
		},
	}
}

// TopRated returns the upstream top-rated page unmodified.
func (s *MovieService) TopRated(ctx context.Context, page int) (json.RawMessage, error) {
	if page < 1 {
		page = 1
	}

	key := fmt.Sprintf("movies:top-rated:%d", page)
	var cached json.RawMessage
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	body, err := s.fetch(ctx, "/movie/top_rated", url.Values{"page": {fmt.Sprint(page)}})
	if err != nil {
		return nil, err
	}

	// Cache failures never fail the request.
	_ = s.cache.Set(ctx, key, json.RawMessage(body), topRatedCacheTTL)
	return body, nil
}

// GetMovie returns the upstream detail payload (with credits and videos
// appended) unmodified.
func (s *MovieService) GetMovie(ctx context.Context, id int) (json.RawMessage, error) {
	key := fmt.Sprintf("movies:detail:%d", id)
	var cached json.RawMessage
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	body, err := s.fetch(ctx, fmt.Sprintf("/movie/%d", id), url.Values{
		"append_to_response": {"credits,videos"},
	})
	if err != nil {
		return nil, err
	}

	_ = s.cache.Set(ctx, key, json.RawMessage(body), detailCacheTTL)
	return body, nil
}

func (s *MovieService) fetch(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	params.Set("api_key", s.cfg.TMDBAPIKey)
	reqURL := fmt.Sprintf("%s%s?%s", s.cfg.TMDBBaseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMovieUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrMovieNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: upstream status %d", domain.ErrMovieUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMovieUpstream, err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: malformed upstream response", domain.ErrMovieUpstream)
	}

	return body, nil
}
