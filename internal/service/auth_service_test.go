package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mansoorceksport/metafit/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFirebase struct {
	tokens map[string]*auth.Token
}

func (f *fakeFirebase) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	tok, ok := f.tokens[idToken]
	if !ok {
		return nil, errors.New("ID token has expired")
	}
	return tok, nil
}

func TestAuthService_Exchange(t *testing.T) {
	firebase := &fakeFirebase{tokens: map[string]*auth.Token{
		"good": {UID: "fb-uid-1", Claims: map[string]interface{}{"email": "ana@example.com", "name": "Ana"}},
		"no-name": {UID: "fb-uid-2", Claims: map[string]interface{}{"email": "bo@example.com"}},
	}}
	svc := NewAuthService(firebase, "test-secret", time.Hour)

	resp, err := svc.Exchange(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "fb-uid-1", resp.UserID)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims := &domain.MetafitClaims{}
	parsed, err := jwt.ParseWithClaims(resp.Token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, "fb-uid-1", claims.UserID)
	assert.Equal(t, "Ana", claims.Name)
	assert.Equal(t, "ana@example.com", claims.Email)

	resp, err = svc.Exchange(context.Background(), "no-name")
	require.NoError(t, err)
	assert.Equal(t, "bo@example.com", resp.Name)

	_, err = svc.Exchange(context.Background(), "forged")
	assert.ErrorIs(t, err, ErrInvalidIdentityToken)
}
