package app

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"courseassist/internal/pkg/jwtutil"
)

const RoleInstructor = "instructor"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidCredential = errors.New("invalid username or password")
	ErrAuthDisabled      = errors.New("instructor auth is disabled")
)

// AuthService issues instructor tokens against a single configured account.
type AuthService struct {
	enabled       bool
	username      string
	passwordHash  []byte
	jwtSecret     string
	jwtExpiration time.Duration
}

type LoginInput struct {
	Username string
	Password string
}

type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	Username  string
}

func NewAuthService(enabled bool, username, passwordHash, jwtSecret string, jwtExpiration time.Duration) *AuthService {
	if jwtExpiration <= 0 {
		jwtExpiration = 2 * time.Hour
	}
	return &AuthService{
		enabled:       enabled,
		username:      username,
		passwordHash:  []byte(passwordHash),
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

func (s *AuthService) Enabled() bool { return s.enabled }

func (s *AuthService) Secret() string { return s.jwtSecret }

func (s *AuthService) Login(input LoginInput) (*AuthResult, error) {
	if !s.enabled {
		return nil, ErrAuthDisabled
	}
	username := strings.TrimSpace(input.Username)
	password := strings.TrimSpace(input.Password)
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}
	if username != s.username {
		return nil, ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}

	token, exp, err := jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, username, RoleInstructor)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: exp, Username: username}, nil
}
