package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/anonto42/socialposts/backend/internal/middleware"
	"github.com/anonto42/socialposts/backend/internal/models"
	"github.com/anonto42/socialposts/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository // author name and avatar are copied onto the post
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postRepo repositories.PostRepository, userRepo repositories.UserRepository) *PostHandler {
	return &PostHandler{
		postRepository: postRepo,
		userRepository: userRepo,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("", h.CreatePost)
	g.GET("", h.GetPosts)
	g.GET("/:id", h.GetPost)
	g.DELETE("/:id", h.DeletePost)
}

// CreatePost creates a new post
func (h *PostHandler) CreatePost(c echo.Context) error {
	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload(err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByID(ctx, middleware.UserID(c))
	if err != nil {
		return fmt.Errorf("load post author: %w", err)
	}

	post := &models.Post{
		Text:     req.Text,
		Name:     user.Name,
		Avatar:   user.Avatar,
		UserID:   user.ID,
		Likes:    []models.Like{},
		Comments: []models.Comment{},
	}
	if err := h.postRepository.CreatePost(ctx, post); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, post)
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return postLookupError(err)
	}
	return c.JSON(http.StatusOK, post)
}

// GetPosts retrieves every post, newest first
func (h *PostHandler) GetPosts(c echo.Context) error {
	posts, err := h.postRepository.GetAllPosts(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, posts)
}

// DeletePost deletes a post owned by the caller
func (h *PostHandler) DeletePost(c echo.Context) error {
	ctx := c.Request().Context()
	postID := c.Param("id")

	existingPost, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return postLookupError(err)
	}

	if existingPost.UserID != middleware.UserID(c) {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authorized")
	}

	if err := h.postRepository.DeletePost(ctx, postID); err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return postLookupError(err)
		}
		return err
	}

	return c.JSON(http.StatusOK, models.MessageResponse{Msg: "Post removed"})
}
