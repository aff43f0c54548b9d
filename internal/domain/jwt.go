package domain

import (
	"github.com/golang-jwt/jwt/v5"
)

// MetafitClaims represents custom JWT claims issued after identity exchange
type MetafitClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}
