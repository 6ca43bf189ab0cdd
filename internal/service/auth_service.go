package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"todoTracker/internal/logger"
	"todoTracker/internal/models/user"
	rep "todoTracker/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AuthToken struct {
	Token     string
	ExpiresAt time.Time
}

type AuthService struct {
	users  UserRepository
	tokens TokenIssuer
	cost   int
}

func NewAuthService(users UserRepository, tokens TokenIssuer) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		cost:   bcrypt.DefaultCost,
	}
}

// WithHashCost нужен тестам, чтобы не тратить время на bcrypt
func (s *AuthService) WithHashCost(cost int) *AuthService {
	s.cost = cost
	return s
}

func (s *AuthService) Register(ctx context.Context, email, password string) (*AuthToken, error) {
	email = normalizeEmail(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("хэширование пароля: %w", err)
	}

	newUser := &user.User{
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, newUser); err != nil {
		if errors.Is(err, rep.ErrEmailExists) {
			logger.Info("Service: Email уже занят", zap.String("email", email))
			return nil, NewEmailTaken(email)
		}
		return nil, fmt.Errorf("регистрация пользователя: %w", err)
	}

	logger.Info("Service: Пользователь зарегистрирован", zap.String("email", email))
	return s.issue(email)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthToken, error) {
	email = normalizeEmail(email)

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Неудачная попытка входа", zap.String("email", email))
			return nil, NewInvalidCredentials()
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(existing.PasswordHash), []byte(password)); err != nil {
		logger.Info("Service: Неудачная попытка входа", zap.String("email", email))
		return nil, NewInvalidCredentials()
	}

	return s.issue(email)
}

func (s *AuthService) issue(email string) (*AuthToken, error) {
	token, expiresAt, err := s.tokens.Issue(email)
	if err != nil {
		return nil, fmt.Errorf("выпуск токена: %w", err)
	}
	return &AuthToken{Token: token, ExpiresAt: expiresAt}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
