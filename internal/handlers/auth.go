package handlers

import (
	"context"
	"errors"
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/socialposts/backend/internal/middleware"
	"github.com/anonto42/socialposts/backend/internal/models"
	"github.com/anonto42/socialposts/backend/internal/repositories"
	"github.com/anonto42/socialposts/backend/internal/validators"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const invalidCredentials = "Invalid Credentials"

// TokenIssuer issues a signed token for a user id.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// IDTokenVerifier verifies Firebase ID tokens. *auth.Client satisfies it.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	tokens         TokenIssuer
	firebaseAuth   IDTokenVerifier
}

// NewAuthHandler creates a new AuthHandler. firebaseAuth may be nil, in which
// case federated login is not offered.
func NewAuthHandler(userRepo repositories.UserRepository, tokens TokenIssuer, firebaseAuth IDTokenVerifier) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		tokens:         tokens,
		firebaseAuth:   firebaseAuth,
	}
}

// RegisterAuthRoutes registers authentication-related routes. guard protects
// the current-user lookup only.
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group, guard echo.MiddlewareFunc) {
	g.GET("", h.GetCurrentUser, guard)
	g.POST("", h.Login)
	if h.firebaseAuth != nil {
		g.POST("/firebase", h.FirebaseLogin)
	}
}

// GetCurrentUser returns the authenticated user without the password hash.
func (h *AuthHandler) GetCurrentUser(c echo.Context) error {
	user, err := h.userRepository.GetUserByID(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Login checks email and password and returns a token. An unknown email and
// a wrong password produce the same response.
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload(err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, validators.Single(invalidCredentials))
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			log.WithError(err).WithField("user_id", user.ID).Warn("stored password hash is unusable")
		}
		return echo.NewHTTPError(http.StatusBadRequest, validators.Single(invalidCredentials))
	}

	return h.respondWithToken(c, http.StatusOK, user.ID)
}

// FirebaseLogin exchanges a Firebase ID token for a local token. Only users
// already registered under the token's email may log in this way, and the
// email must be verified by Firebase.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req models.FirebaseLoginRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload(err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	idToken, err := h.firebaseAuth.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, validators.Single(invalidCredentials)).SetInternal(err)
	}

	email, _ := idToken.Claims["email"].(string)
	verified, _ := idToken.Claims["email_verified"].(bool)
	if email == "" || !verified {
		return echo.NewHTTPError(http.StatusBadRequest, validators.Single(invalidCredentials))
	}

	user, err := h.userRepository.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, validators.Single(invalidCredentials))
		}
		return err
	}

	return h.respondWithToken(c, http.StatusOK, user.ID)
}

func (h *AuthHandler) respondWithToken(c echo.Context, status int, userID string) error {
	t, err := h.tokens.Issue(userID)
	if err != nil {
		return err
	}
	return c.JSON(status, models.TokenResponse{Token: t})
}
