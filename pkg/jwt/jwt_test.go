package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	id := uuid.New()

	token, err := m.GenerateToken(Subject{
		UserID:         id,
		Email:          "admin@example.com",
		Name:           "Primary Administrator",
		RoleCode:       "ADMIN",
		IsPrimaryAdmin: true,
		Privileges:     []string{"product:view"},
		TokenVersion:   "v1",
	})
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "ADMIN", claims.RoleCode)
	assert.True(t, claims.IsPrimaryAdmin)
	assert.Equal(t, "v1", claims.TokenVersion)
	assert.Equal(t, []string{"product:view"}, claims.Privileges)
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	token, err := NewManager("one", time.Hour).GenerateToken(Subject{UserID: uuid.New()})
	require.NoError(t, err)

	_, err = NewManager("two", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpired(t *testing.T) {
	m := NewManager("secret", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := m.GenerateToken(Subject{UserID: uuid.New()})
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateEmpty(t *testing.T) {
	_, err := NewManager("secret", time.Hour).ValidateToken("")
	assert.ErrorIs(t, err, ErrMissingToken)
}
