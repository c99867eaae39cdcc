package service

import (
	"github.com/ne3mer/retro/internal/cache"
	"github.com/ne3mer/retro/internal/config"
	"github.com/ne3mer/retro/internal/repository"
)

type Services struct {
	Auth  *AuthService
	Movie *MovieService
	Post  *PostService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, movieCache *cache.Cache) *Services {
	return &Services{
		Auth:  NewAuthService(repos.User, cfg),
		Movie: NewMovieService(cfg, movieCache),
		Post:  NewPostService(repos.Post),
	}
}
