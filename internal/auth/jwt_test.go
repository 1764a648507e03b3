package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfsentry/rfsentry/internal/auth"
)

func TestTokenService_IssueAndValidate(t *testing.T) {
	svc := auth.NewTokenService(auth.TokenConfig{SigningKey: "test-signing-key"})

	token, err := svc.Issue("op-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	operatorID, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "op-1", operatorID)
}

func TestTokenService_Validate_WrongKey(t *testing.T) {
	issuer := auth.NewTokenService(auth.TokenConfig{SigningKey: "key-a"})
	validator := auth.NewTokenService(auth.TokenConfig{SigningKey: "key-b"})

	token, err := issuer.Issue("op-1")
	require.NoError(t, err)

	_, err = validator.Validate(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenService_Validate_Garbage(t *testing.T) {
	svc := auth.NewTokenService(auth.TokenConfig{SigningKey: "test-signing-key"})

	_, err := svc.Validate("not-a-token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenService_Validate_WrongAudience(t *testing.T) {
	issuer := auth.NewTokenService(auth.TokenConfig{SigningKey: "k", Audience: "other-api"})
	validator := auth.NewTokenService(auth.TokenConfig{SigningKey: "k"})

	token, err := issuer.Issue("op-1")
	require.NoError(t, err)

	_, err = validator.Validate(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
