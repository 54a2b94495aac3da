package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/model"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/repository"
	"github.com/Yuvraj-Singh-HIT/VeriChain/pkg/jwtutil"
	"github.com/Yuvraj-Singh-HIT/VeriChain/prometheus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// TokenResponse is the session token handed to clients.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// AuthService registers users and issues session tokens.
type AuthService struct {
	users      repository.UserRepository
	jwt        *jwtutil.JWTUtil
	bcryptCost int
}

func NewAuthService(users repository.UserRepository, jwt *jwtutil.JWTUtil, bcryptCost int) *AuthService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{users: users, jwt: jwt, bcryptCost: bcryptCost}
}

// Register creates an account and returns a token for it.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*TokenResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{Name: name, Email: email, Password: string(hashed), CreatedAt: time.Now().UTC()}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			prometheus.RecordAuthAttempt("duplicate_email")
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("save user: %w", err)
	}

	prometheus.RecordAuthAttempt("registered")
	return s.issue(u)
}

// Login checks credentials and returns a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	u, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrNotFound) {
		prometheus.RecordAuthAttempt("user_not_found")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		prometheus.RecordAuthAttempt("invalid_password")
		return nil, ErrInvalidCredentials
	}

	prometheus.RecordAuthAttempt("success")
	return s.issue(u)
}

func (s *AuthService) issue(u *model.User) (*TokenResponse, error) {
	token, err := s.jwt.GenerateToken(u.Email, u.ID)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &TokenResponse{AccessToken: token, TokenType: "bearer"}, nil
}
