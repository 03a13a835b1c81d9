package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

type adminContextKey struct{}

// AdminService authenticates the moderator and authorizes moderation calls
type AdminService struct {
	username     string
	passwordHash []byte
	jwtSecret    []byte
	ttl          time.Duration
	now          func() time.Time
}

// NewAdminService creates a new admin service
func NewAdminService(username, passwordHash, jwtSecret string, ttl time.Duration) *AdminService {
	return &AdminService{
		username:     username,
		passwordHash: []byte(passwordHash),
		jwtSecret:    []byte(jwtSecret),
		ttl:          ttl,
		now:          time.Now,
	}
}

// LoginRequest holds admin credentials
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login checks credentials and returns a signed session token with its expiry
func (s *AdminService) Login(req LoginRequest) (string, time.Time, error) {
	if err := validateInput(req); err != nil {
		return "", time.Time{}, err
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(req.Password))
	if !userOK || passErr != nil {
		log.Warn().Str("username", req.Username).Msg("Admin login rejected")
		return "", time.Time{}, ErrUnauthorized
	}

	token, expiresAt, err := s.GenerateToken(req.Username)
	if err != nil {
		return "", time.Time{}, err
	}

	log.Info().Str("username", req.Username).Msg("Admin logged in")
	return token, expiresAt, nil
}

// GenerateToken generates a JWT session token for the admin
func (s *AdminService) GenerateToken(username string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken validates a session token and returns the admin username
func (s *AdminService) ValidateToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	if claims.Subject != s.username {
		return "", errors.New("unknown admin")
	}
	return claims.Subject, nil
}

// ContextWithAdmin marks ctx as carrying an authenticated admin
func ContextWithAdmin(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, adminContextKey{}, username)
}

// AdminFromContext returns the authenticated admin, if any
func AdminFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(adminContextKey{}).(string)
	return username, ok && username != ""
}

// Authorize succeeds only when ctx carries an authenticated admin
func (s *AdminService) Authorize(ctx context.Context) error {
	if _, ok := AdminFromContext(ctx); !ok {
		return ErrUnauthorized
	}
	return nil
}
