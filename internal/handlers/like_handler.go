package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/socialposts/backend/internal/middleware"
	"github.com/anonto42/socialposts/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	postRepository repositories.PostRepository
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(postRepo repositories.PostRepository) *LikeHandler {
	return &LikeHandler{postRepository: postRepo}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.PUT("/like/:id", h.LikePost)
	g.PUT("/unlike/:id", h.UnlikePost)
}

// LikePost adds the caller's like to the front of the post's likes
func (h *LikeHandler) LikePost(c echo.Context) error {
	ctx := c.Request().Context()
	postID := c.Param("id")
	userID := middleware.UserID(c)

	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return postLookupError(err)
	}
	if post.HasLike(userID) {
		return echo.NewHTTPError(http.StatusBadRequest, "Post already liked")
	}

	likes, err := h.postRepository.AddLike(ctx, postID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrAlreadyLiked) {
			return echo.NewHTTPError(http.StatusBadRequest, "Post already liked")
		}
		return postLookupError(err)
	}

	return c.JSON(http.StatusOK, likes)
}

// UnlikePost removes the caller's like
func (h *LikeHandler) UnlikePost(c echo.Context) error {
	ctx := c.Request().Context()
	postID := c.Param("id")
	userID := middleware.UserID(c)

	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return postLookupError(err)
	}
	if !post.HasLike(userID) {
		return echo.NewHTTPError(http.StatusBadRequest, "Post has not yet been liked")
	}

	likes, err := h.postRepository.RemoveLike(ctx, postID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotLiked) {
			return echo.NewHTTPError(http.StatusBadRequest, "Post has not yet been liked")
		}
		return postLookupError(err)
	}

	return c.JSON(http.StatusOK, likes)
}
