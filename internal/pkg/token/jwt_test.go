package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/domain"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewService("segredo", time.Hour)

	signed, err := svc.GenerateToken(domain.User{ID: "u-1", Role: domain.RoleCustomer})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, domain.RoleCustomer, claims.Role)
}

func TestValidate_WrongKey(t *testing.T) {
	signed, err := NewService("a", time.Hour).GenerateToken(domain.User{ID: "u-1", Role: domain.RoleAdmin})
	require.NoError(t, err)

	_, err = NewService("b", time.Hour).ValidateToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_Expired(t *testing.T) {
	svc := NewService("segredo", time.Minute)
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	signed, err := svc.GenerateToken(domain.User{ID: "u-1", Role: domain.RoleAdmin})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
