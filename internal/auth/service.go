// Package auth is a thin wrapper around the external identity concern: a
// users table with hashed passwords, HS256 identity tokens, and a cookie
// session store. It is not a protocol implementation.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/coindeck/coindeck/internal/models"
	"github.com/coindeck/coindeck/internal/storage"
)

// ErrInvalidCredentials is returned when a login fails for any reason; the
// caller cannot tell a missing user from a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service authenticates users and issues identity tokens
type Service struct {
	store     storage.Storage
	secretKey []byte
	tokenTTL  time.Duration
}

// NewService creates an auth service using the given storage and signing key
func NewService(store storage.Storage, secretKey []byte) *Service {
	return &Service{
		store:     store,
		secretKey: secretKey,
		tokenTTL:  60 * time.Minute,
	}
}

// Authenticate verifies user credentials and returns the user if valid
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Register creates a user with a bcrypt-hashed password and a generated
// subject id
func (s *Service) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:             uuid.NewString(),
		Username:       username,
		Email:          email,
		HashedPassword: string(hashedPassword),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// IssueToken creates an HS256 identity token carrying the user's claims
func (s *Service) IssueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &models.Claims{
		Username: user.Username,
		Email:    user.Email,
		StandardClaims: jwt.StandardClaims{
			Subject:   user.ID,
			ExpiresAt: now.Add(s.tokenTTL).Unix(),
			IssuedAt:  now.Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// ParseToken verifies an identity token and returns its claims
func (s *Service) ParseToken(tokenString string) (*models.Claims, error) {
	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secretKey, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}
	return claims, nil
}
