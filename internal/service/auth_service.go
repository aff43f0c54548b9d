package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mansoorceksport/metafit/internal/domain"
)

// ErrInvalidIdentityToken is returned when the identity provider rejects a token
var ErrInvalidIdentityToken = errors.New("invalid identity token")

// FirebaseAuthClient defines the interface for Firebase Auth operations
// This allows mocking for tests
type FirebaseAuthClient interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthService exchanges identity-provider tokens for service tokens
type AuthService struct {
	authClient FirebaseAuthClient
	jwtSecret  string
	tokenTTL   time.Duration
}

func NewAuthService(authClient FirebaseAuthClient, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		authClient: authClient,
		jwtSecret:  jwtSecret,
		tokenTTL:   tokenTTL,
	}
}

// ExchangeResponse is returned to the client after a successful exchange
type ExchangeResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"` // seconds
	UserID    string `json:"user_id"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
}

// Exchange verifies a Firebase ID token and issues a service JWT for its subject
func (s *AuthService) Exchange(ctx context.Context, firebaseToken string) (*ExchangeResponse, error) {
	token, err := s.authClient.VerifyIDToken(ctx, firebaseToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIdentityToken, err)
	}

	email, _ := token.Claims["email"].(string)
	name, _ := token.Claims["name"].(string)
	if name == "" {
		name = email
	}

	signed, err := s.GenerateMetafitToken(token.UID, email, name)
	if err != nil {
		return nil, err
	}

	return &ExchangeResponse{
		Token:     signed,
		ExpiresIn: int64(s.tokenTTL.Seconds()),
		UserID:    token.UID,
		Email:     email,
		Name:      name,
	}, nil
}

// GenerateMetafitToken creates a JWT token with custom claims
func (s *AuthService) GenerateMetafitToken(userID, email, name string) (string, error) {
	now := time.Now()
	claims := domain.MetafitClaims{
		UserID: userID,
		Email:  email,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}
