package service

import (
	"errors"
	"log"
	"time"

	"github.com/dom/snake-arena/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService guards the operator surface (starting matches, ingestion,
// rating resets). There is a single operator account from config; spectator
// endpoints are public.
type AuthService struct {
	cfg          *config.Config
	passwordHash []byte
}

func NewAuthService(cfg *config.Config) *AuthService {
	s := &AuthService{cfg: cfg}
	if cfg.AdminPassword == "" {
		log.Printf("WARN [service.AuthService] ADMIN_PASSWORD not set, operator login disabled")
		return s
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("ERROR [service.AuthService] failed to hash operator password, login disabled: %v", err)
		return s
	}
	s.passwordHash = hash
	return s
}

func (s *AuthService) Login(username, password string) (string, error) {
	if s.passwordHash == nil || username != s.cfg.AdminUser {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	claims := jwt.MapClaims{
		"sub": username,
		"exp": time.Now().Add(time.Duration(s.cfg.JWTExpirationHours) * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) ValidateToken(tokenString string) (*jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return &claims, nil
}
