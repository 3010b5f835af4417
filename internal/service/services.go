package service

import (
	"log/slog"

	"github.com/taskhive/taskhive-backend/internal/auth"
	"github.com/taskhive/taskhive-backend/internal/config"
	"github.com/taskhive/taskhive-backend/internal/notify"
	"github.com/taskhive/taskhive-backend/internal/repository"
)

type Services struct {
	Auth *AuthService
}

func NewServices(repos *repository.Repositories, notifier notify.Notifier, log *slog.Logger, cfg *config.Config) *Services {
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	issuer := auth.NewTokenIssuer(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	return &Services{
		Auth: NewAuthService(repos, hasher, issuer, notifier, log, cfg),
	}
}
