package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the credential record. The same shape is stored in MongoDB and,
// when USER_STORE=postgres, in PostgreSQL.
type User struct {
	ID       string    `json:"_id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	Name     string    `json:"name" bson:"name" gorm:"not null"`
	Email    string    `json:"email" bson:"email" gorm:"uniqueIndex;not null"`
	Password string    `json:"-" bson:"password" gorm:"not null"` // bcrypt hash, never serialized
	Avatar   string    `json:"avatar" bson:"avatar"`
	Date     time.Time `json:"date" bson:"date"`
}

// BeforeCreate assigns a UUID primary key and the registration date for rows
// created through GORM.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Date.IsZero() {
		u.Date = time.Now().UTC()
	}
	return nil
}

// CreateUserRequest is the registration payload.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// ValidationMessages maps registration fields to their error messages.
func (CreateUserRequest) ValidationMessages() map[string]string {
	return map[string]string{
		"name":     "Name is required",
		"email":    "Please include a valid email",
		"password": "Please enter a password with 6 or more characters",
	}
}

// LoginRequest is the email/password login payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ValidationMessages maps login fields to their error messages.
func (LoginRequest) ValidationMessages() map[string]string {
	return map[string]string{
		"email":    "Please include a valid email",
		"password": "Password is required",
	}
}

// FirebaseLoginRequest exchanges a Firebase ID token for a local token.
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// TokenResponse is returned by every successful login or registration.
type TokenResponse struct {
	Token string `json:"token"`
}
