package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhive-dev/taskhive/internal/models"
	"github.com/taskhive-dev/taskhive/internal/types"
)

func initTestSecret(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	require.NoError(t, InitJWTSecret())
}

func TestInitJWTSecretRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	assert.Error(t, InitJWTSecret())
}

func TestAccessTokenRoundTrip(t *testing.T) {
	initTestSecret(t)

	teamID := "team-1"
	user := models.User{
		Name:   "Evan",
		Email:  "evan@example.com",
		Role:   types.RoleEmployee,
		TeamID: &teamID,
	}
	user.ID = "user-1"

	token, err := GenerateAccessToken(user)
	require.NoError(t, err)

	claims, err := VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "evan@example.com", claims.Email)
	assert.Equal(t, types.RoleEmployee, claims.Role)
	require.NotNil(t, claims.TeamID)
	assert.Equal(t, teamID, *claims.TeamID)
}

func TestAccessTokenWithoutTeam(t *testing.T) {
	initTestSecret(t)

	user := models.User{Name: "Morgan", Email: "morgan@example.com", Role: types.RoleManager}
	user.ID = "user-2"

	token, err := GenerateAccessToken(user)
	require.NoError(t, err)

	claims, err := VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Nil(t, claims.TeamID)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	initTestSecret(t)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  "user-1",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	signed, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = VerifyAccessToken(signed)
	assert.Error(t, err)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	initTestSecret(t)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  "user-1",
		"exp": time.Now().Add(time.Minute).Unix(),
	})
	signed, err := forged.SignedString([]byte("someone-elses-secret"))
	require.NoError(t, err)

	_, err = VerifyAccessToken(signed)
	assert.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	initTestSecret(t)

	_, err := VerifyAccessToken("not-a-token")
	assert.Error(t, err)
}

func TestRefreshTokensAreOpaqueAndUnique(t *testing.T) {
	a, err := GenerateRefreshToken()
	require.NoError(t, err)

	b, err := GenerateRefreshToken()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, RefreshTokenExpiry().After(time.Now().Add(6*24*time.Hour)))
}
