package users

import (
	"strconv"
	"time"

	"github.com/dmitrijs2005/eeye/internal/server/auth"
)

// Defaults for newly registered users.
const (
	DefaultRole              = "user"
	DefaultSubscriptionLevel = "free"
)

type User struct {
	ID                int64
	Email             string
	HashedPassword    string
	Role              string
	SubscriptionLevel string
	IsActive          bool
	CreatedAt         time.Time
}

// Principal returns the token subject for u. The numeric ID is carried as
// its decimal string.
func (u *User) Principal() auth.Principal {
	return auth.Principal{
		ID:                strconv.FormatInt(u.ID, 10),
		Email:             auth.Ptr(u.Email),
		Role:              auth.Ptr(u.Role),
		SubscriptionLevel: auth.Ptr(u.SubscriptionLevel),
		IsActive:          auth.Ptr(u.IsActive),
	}
}

// RegisterRequest is the input of Service.Register.
type RegisterRequest struct {
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,min=8,max=1024"`
}

// LoginRequest is the input of Service.Login.
type LoginRequest struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string
	TokenType   string
}
