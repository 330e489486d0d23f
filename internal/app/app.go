package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/templui/ecoscan/internal/config"
	"github.com/templui/ecoscan/internal/db"
	"github.com/templui/ecoscan/internal/repository"
	"github.com/templui/ecoscan/internal/service"
	"github.com/templui/ecoscan/internal/session"
	"github.com/templui/ecoscan/internal/storage"
)

type App struct {
	Cfg             *config.Config
	DB              *sqlx.DB
	AuthService     *service.AuthService
	EmailService    *service.EmailService
	ActivityService *service.ActivityService
	LandingService  *service.LandingService
	OAuthProviders  service.OAuthProviders
}

func New(cfg *config.Config) (*App, error) {
	// Database with migrations applied
	database, err := db.Open(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	tokenRepository := repository.NewTokenRepository(database)
	sessionRepository := repository.NewSessionRepository(database)
	kvRepository := repository.NewKVRepository(database)

	// Archive for exports and quarantined logs
	archive, err := storage.New(cfg)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Services
	broker := session.NewBroker()
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	authService := service.NewAuthService(
		userRepository,
		tokenRepository,
		sessionRepository,
		emailService,
		broker,
		cfg.JWTSecret,
		cfg.SecureCookies(),
		cfg.JWTExpiry,
		cfg.TokenEmailVerifyExpiry,
	)
	activityStore := repository.NewActivityStore(kvRepository, archive)
	activityService := service.NewActivityService(activityStore, archive, cfg.ActivityStorageKey)

	return &App{
		Cfg:             cfg,
		DB:              database,
		AuthService:     authService,
		EmailService:    emailService,
		ActivityService: activityService,
		LandingService:  service.NewLandingService(cfg.ContentPath),
		OAuthProviders:  service.NewOAuthProviders(cfg),
	}, nil
}

func (a *App) Close() error {
	return db.Close(a.DB)
}
