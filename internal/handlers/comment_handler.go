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

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository // commenter name and avatar are copied onto the comment
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(postRepo repositories.PostRepository, userRepo repositories.UserRepository) *CommentHandler {
	return &CommentHandler{
		postRepository: postRepo,
		userRepository: userRepo,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/comment/:id", h.CreateComment)
	g.DELETE("/comment/:id/:comment_id", h.DeleteComment)
}

// CreateComment adds a comment to the front of a post's comments
func (h *CommentHandler) CreateComment(c echo.Context) error {
	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload(err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	postID := c.Param("id")

	user, err := h.userRepository.GetUserByID(ctx, middleware.UserID(c))
	if err != nil {
		return fmt.Errorf("load comment author: %w", err)
	}

	comment := &models.Comment{
		Text:   req.Text,
		Name:   user.Name,
		Avatar: user.Avatar,
		UserID: user.ID,
	}
	comments, err := h.postRepository.AddComment(ctx, postID, comment)
	if err != nil {
		return postLookupError(err)
	}

	return c.JSON(http.StatusOK, comments)
}

// DeleteComment removes one comment, provided the caller wrote it
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	ctx := c.Request().Context()
	postID := c.Param("id")
	commentID := c.Param("comment_id")
	userID := middleware.UserID(c)

	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return postLookupError(err)
	}

	comment, ok := post.FindComment(commentID)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Comment does not exist")
	}
	if comment.UserID != userID {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authorized")
	}

	comments, err := h.postRepository.RemoveComment(ctx, postID, commentID, userID)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrCommentNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Comment does not exist")
		case errors.Is(err, repositories.ErrNotCommentAuthor):
			return echo.NewHTTPError(http.StatusUnauthorized, "User not authorized")
		default:
			return postLookupError(err)
		}
	}

	return c.JSON(http.StatusOK, comments)
}
