package router

import (
	"github.com/anonto42/socialposts/backend/internal/handlers"
	"github.com/anonto42/socialposts/backend/internal/middleware"
	"github.com/anonto42/socialposts/backend/internal/repositories"
	"github.com/anonto42/socialposts/backend/internal/token"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// Dependencies are the collaborators the routes are built from.
type Dependencies struct {
	Users        repositories.UserRepository
	Posts        repositories.PostRepository
	Tokens       *token.Service
	FirebaseAuth handlers.IDTokenVerifier // nil disables /api/auth/firebase
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	e.GET("/health", handlers.HealthCheck)

	guard := middleware.JWTAuthMiddleware(deps.Tokens)
	api := e.Group("/api")

	// Login is public, the current-user lookup is guarded per route
	authHandler := handlers.NewAuthHandler(deps.Users, deps.Tokens, deps.FirebaseAuth)
	authHandler.RegisterAuthRoutes(api.Group("/auth"), guard)
	log.Debug("Auth routes configured.")

	userHandler := handlers.NewUserHandler(deps.Users, deps.Tokens)
	userHandler.RegisterUserRoutes(api.Group("/users"))
	log.Debug("User routes configured.")

	posts := api.Group("/posts", guard)

	postHandler := handlers.NewPostHandler(deps.Posts, deps.Users)
	postHandler.RegisterPostRoutes(posts)

	likeHandler := handlers.NewLikeHandler(deps.Posts)
	likeHandler.RegisterLikeRoutes(posts)

	commentHandler := handlers.NewCommentHandler(deps.Posts, deps.Users)
	commentHandler.RegisterCommentRoutes(posts)
	log.Debug("Post routes configured.")
}
