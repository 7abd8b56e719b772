package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is a social post stored in MongoDB with its likes and comments
// embedded, both kept newest-first.
type Post struct {
	ID       primitive.ObjectID `json:"_id" bson:"_id"`
	Text     string             `json:"text" bson:"text"`
	Name     string             `json:"name" bson:"name"`     // author name, copied at creation
	Avatar   string             `json:"avatar" bson:"avatar"` // author avatar, copied at creation
	UserID   string             `json:"user" bson:"user"`
	Likes    []Like             `json:"likes" bson:"likes"`
	Comments []Comment          `json:"comments" bson:"comments"`
	Date     time.Time          `json:"date" bson:"date"`
}

// Like records that a user liked a post. A user appears at most once.
type Like struct {
	UserID string `json:"user" bson:"user"`
}

// Comment is embedded in Post.Comments.
type Comment struct {
	ID     primitive.ObjectID `json:"_id" bson:"_id"`
	Text   string             `json:"text" bson:"text"`
	Name   string             `json:"name" bson:"name"`
	Avatar string             `json:"avatar" bson:"avatar"`
	UserID string             `json:"user" bson:"user"`
	Date   time.Time          `json:"date" bson:"date"`
}

// HasLike reports whether userID already liked the post.
func (p *Post) HasLike(userID string) bool {
	for _, l := range p.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

// FindComment returns the comment with the given hex id.
func (p *Post) FindComment(commentID string) (*Comment, bool) {
	for i := range p.Comments {
		if p.Comments[i].ID.Hex() == commentID {
			return &p.Comments[i], true
		}
	}
	return nil, false
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Text string `json:"text" validate:"required"`
}

// ValidationMessages maps post fields to their error messages.
func (CreatePostRequest) ValidationMessages() map[string]string {
	return map[string]string{"text": "Text is required"}
}

// CreateCommentRequest defines the request body for commenting on a post
type CreateCommentRequest struct {
	Text string `json:"text" validate:"required"`
}

// ValidationMessages maps comment fields to their error messages.
func (CreateCommentRequest) ValidationMessages() map[string]string {
	return map[string]string{"text": "Text is required"}
}

// MessageResponse is a plain {"msg": ...} body.
type MessageResponse struct {
	Msg string `json:"msg"`
}
