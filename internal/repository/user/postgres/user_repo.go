package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todoTracker/internal/logger"
	"todoTracker/internal/models/user"
	repo "todoTracker/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const uniqueViolationCode = "23505"

type Storage struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

func (s *Storage) Create(ctx context.Context, userToCreate *user.User) error {
	start := time.Now()

	query := `INSERT INTO users (email, password_hash)
				VALUES ($1, $2)
				RETURNING created_at`

	err := s.pool.QueryRow(ctx, query, userToCreate.Email, userToCreate.PasswordHash).Scan(&userToCreate.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return repo.ErrEmailExists
		}
		logger.Error("Repository: Не удалось добавить пользователя", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление пользователя: %w", err)
	}

	return nil
}

func (s *Storage) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT email, password_hash, created_at FROM users WHERE email = $1`

	u := &user.User{}
	err := s.pool.QueryRow(ctx, query, email).Scan(&u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить пользователя", err)
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return u, nil
}
