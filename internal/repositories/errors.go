package repositories

import "errors"

// Store errors. Implementations wrap these so callers can match with errors.Is.
var (
	ErrInvalidID        = errors.New("invalid id")
	ErrPostNotFound     = errors.New("post not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailTaken       = errors.New("email already registered")
	ErrAlreadyLiked     = errors.New("post already liked")
	ErrNotLiked         = errors.New("post not liked")
	ErrCommentNotFound  = errors.New("comment not found")
	ErrNotCommentAuthor = errors.New("comment belongs to another user")
)
