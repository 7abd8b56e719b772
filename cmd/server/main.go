package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/socialposts/backend/internal/handlers"
	"github.com/anonto42/socialposts/backend/internal/repositories"
	"github.com/anonto42/socialposts/backend/internal/router"
	"github.com/anonto42/socialposts/backend/internal/token"
	"github.com/anonto42/socialposts/backend/internal/validators"
	"github.com/anonto42/socialposts/backend/pkg/config"
	"github.com/anonto42/socialposts/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	config.SetupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDB(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB()

	postRepo := repositories.NewMongoPostRepository(db.Database)
	if err := postRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create post indexes: %v", err)
	}

	var userRepo repositories.UserRepository
	switch cfg.UserStore {
	case config.UserStorePostgres:
		userRepo = repositories.NewPostgresUserRepository(db.Postgres)
	default:
		mongoUsers := repositories.NewMongoUserRepository(db.Database)
		if err := mongoUsers.EnsureIndexes(ctx); err != nil {
			log.Fatalf("Failed to create user indexes: %v", err)
		}
		userRepo = mongoUsers
	}

	deps := router.Dependencies{
		Users:  userRepo,
		Posts:  postRepo,
		Tokens: token.NewService(token.Config{Secret: []byte(cfg.JWTSecret), TTL: cfg.TokenTTL}),
	}
	if cfg.FirebaseCredentialsPath != "" {
		firebaseAuth, err := firebase.NewAuthClient(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
		deps.FirebaseAuth = firebaseAuth
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.ErrorHandler

	config.SetupMiddleware(e)
	router.SetupRoutes(e, deps)

	go func() {
		log.Infof("Listening on :%s", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Graceful shutdown failed: %v", err)
	}
}
