package models

import (
	"time"

	"github.com/dgrijalva/jwt-go"
)

// User mirrors the identity provider's subject record. ID is the provider
// subject claim, a string, and is what favorites/scenarios reference.
type User struct {
	ID             string    `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"unique;not null" json:"username"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-" gorm:"column:hashed_password"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Claims is the JWT claim set carried by identity tokens. Subject holds the
// user id.
type Claims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.StandardClaims
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
