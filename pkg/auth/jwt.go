package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/eventops/backoffice-api/internal/model"
)

// Claims is the validated identity extracted from a token.
type Claims struct {
	UserID  uuid.UUID
	Email   string
	IsAdmin bool
}

type JWTService interface {
	GenerateToken(user *model.User) (string, time.Time, error)
	ValidateToken(token string) (*Claims, error)
}

type jwtService struct {
	secret []byte
	expiry time.Duration
}

func NewJWTService(secret string, expiry time.Duration) JWTService {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &jwtService{secret: []byte(secret), expiry: expiry}
}

func (s *jwtService) GenerateToken(user *model.User) (string, time.Time, error) {
	expiresAt := time.Now().Add(s.expiry)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID.String(),
		"email":    user.Email,
		"is_admin": user.IsAdmin,
		"exp":      expiresAt.Unix(),
		"iat":      time.Now().Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *jwtService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	rawID, ok := mapClaims["user_id"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in token")
	}

	email, _ := mapClaims["email"].(string)
	isAdmin, _ := mapClaims["is_admin"].(bool)

	return &Claims{UserID: userID, Email: email, IsAdmin: isAdmin}, nil
}
