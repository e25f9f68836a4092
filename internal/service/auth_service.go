package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stemsi/marksheet-backend/internal/config"
	"github.com/stemsi/marksheet-backend/internal/model"
	"github.com/stemsi/marksheet-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionRevoked     = errors.New("session has ended, please log in again")
	ErrInvalidRole        = errors.New("unknown role")
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	UserID      int        `json:"user_id"`
	Role        model.Role `json:"role"`
	Permissions []string   `json:"permissions"`
}

// AuthService handles authentication, JWT, and session management.
type AuthService struct {
	cfg      *config.Config
	users    UserStore
	sessions SessionStore
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, users UserStore, sessions SessionStore) *AuthService {
	return &AuthService{cfg: cfg, users: users, sessions: sessions}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// CreateUser stores a new account with the given role.
func (s *AuthService) CreateUser(ctx context.Context, email, name, password string, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Signup registers a teacher account and logs it in.
func (s *AuthService) Signup(ctx context.Context, req model.SignupRequest) (*model.LoginResponse, error) {
	u, err := s.CreateUser(ctx, req.Email, req.Name, req.Password, model.RoleTeacher)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, u)
}

// Login checks the credentials and opens a new session.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.CheckPassword(u.PasswordHash, req.Password); err != nil {
		return nil, err
	}
	return s.issue(ctx, u)
}

// Logout ends the session the claims belong to.
func (s *AuthService) Logout(ctx context.Context, claims *Claims) error {
	return s.sessions.Delete(ctx, claims.ID)
}

// Me returns the account behind the claims.
func (s *AuthService) Me(ctx context.Context, claims *Claims) (*model.User, error) {
	return s.users.GetByID(ctx, claims.UserID)
}

func (s *AuthService) issue(ctx context.Context, u *model.User) (*model.LoginResponse, error) {
	perms := u.Role.Permissions()
	token, jti, err := s.GenerateToken(u, perms)
	if err != nil {
		return nil, err
	}

	// Session lives exactly as long as the token.
	if err := s.sessions.Save(ctx, jti, u.ID, s.cfg.JWTExpiry); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return &model.LoginResponse{Token: token, User: *u, Permissions: perms}, nil
}

// GenerateToken signs a JWT for the user and returns it with its JWT ID.
func (s *AuthService) GenerateToken(u *model.User, permissions []string) (string, string, error) {
	jti := uuid.New().String()
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.Itoa(u.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		UserID:      u.ID,
		Role:        u.Role,
		Permissions: permissions,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", "", fmt.Errorf("sign token: %w", err)
	}
	return signed, jti, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

// ValidateSession checks that the token's session is still open and owned by its user.
func (s *AuthService) ValidateSession(ctx context.Context, claims *Claims) error {
	owner, err := s.sessions.Owner(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return ErrSessionRevoked
		}
		return err
	}
	if owner != claims.UserID {
		return ErrSessionRevoked
	}
	return nil
}
