package auth

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/taskhive-dev/taskhive/internal/models"
)

const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

var jwtSecret string

func InitJWTSecret() error {
	jwtSecret = os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is not set")
	}
	return nil
}

// Claims carried by an access token. TeamID is nil for users without a team.
type Claims struct {
	UserID string
	Email  string
	Role   string
	TeamID *string
}

func GenerateAccessToken(user models.User) (string, error) {
	claims := jwt.MapClaims{
		"id":    user.ID,
		"email": user.Email,
		"role":  user.Role,
		"exp":   time.Now().Add(AccessTokenTTL).Unix(),
	}

	if user.TeamID != nil {
		claims["team_id"] = *user.TeamID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// GenerateRefreshToken returns an opaque token; validity lives in the
// refresh_tokens table, not in the token itself.
func GenerateRefreshToken() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func RefreshTokenExpiry() time.Time {
	return time.Now().Add(RefreshTokenTTL)
}

func VerifyAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	userID, ok := mapClaims["id"].(string)
	if !ok || userID == "" {
		return nil, fmt.Errorf("invalid user ID in token claims")
	}

	claims := &Claims{UserID: userID}

	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}
	if role, ok := mapClaims["role"].(string); ok {
		claims.Role = role
	}
	if teamID, ok := mapClaims["team_id"].(string); ok {
		claims.TeamID = &teamID
	}

	return claims, nil
}
