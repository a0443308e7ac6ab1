package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// StreamTokenService mints short-lived, project-scoped JWTs for the
// activity stream. Browsers cannot attach headers to an EventSource
// request, so the token rides the query string instead of the session.
type StreamTokenService struct {
	secret []byte
	ttl    time.Duration
}

// StreamClaims is the validated identity carried by a stream token
type StreamClaims struct {
	UserID    string
	ProjectID string
	ExpiresAt time.Time
}

// NewStreamTokenService creates a new stream token service
func NewStreamTokenService(secret string, ttl time.Duration) *StreamTokenService {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &StreamTokenService{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Generate creates a signed token granting userID stream access to projectID
func (s *StreamTokenService) Generate(userID, projectID string) (string, time.Time, error) {
	expiresAt := time.Now().Add(s.ttl)
	claims := jwt.MapClaims{
		"user_id":    userID,
		"project_id": projectID,
		"type":       "stream",
		"exp":        expiresAt.Unix(),
		"iat":        time.Now().Unix(),
		"sub":        userID,
		"jti":        uuid.New().String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign stream token: %w", err)
	}
	return tokenString, expiresAt, nil
}

// Validate verifies a stream token and returns its claims. The token must
// be unexpired, HMAC-signed, and carry the stream type marker.
func (s *StreamTokenService) Validate(tokenString string) (*StreamClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidStreamToken
	}
	if !token.Valid {
		return nil, ErrInvalidStreamToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidStreamToken
	}

	tokenType, _ := claims["type"].(string)
	if tokenType != "stream" {
		return nil, ErrInvalidStreamToken
	}

	userID, _ := claims["user_id"].(string)
	projectID, _ := claims["project_id"].(string)
	if userID == "" || projectID == "" {
		return nil, ErrInvalidStreamToken
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, ErrInvalidStreamToken
	}

	return &StreamClaims{
		UserID:    userID,
		ProjectID: projectID,
		ExpiresAt: time.Unix(int64(exp), 0),
	}, nil
}
