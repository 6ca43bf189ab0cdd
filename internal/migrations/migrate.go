package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"todoTracker/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

//go:embed *.sql
var files embed.FS

func open(ctx context.Context, dbURL string) (*migrate.Migrate, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("открытие соединения: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	src, err := iofs.New(files, ".")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("чтение миграций: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("драйвер миграций: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("создание мигратора: %w", err)
	}
	return m, nil
}

func Up(ctx context.Context, dbURL string) error {
	logger.Info("Migrations: Применение миграций")

	m, err := open(ctx, dbURL)
	if err != nil {
		logger.Error("Migrations: Не удалось подготовить миграции", err)
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Migrations: Ошибка применения миграций", err)
		return fmt.Errorf("применение миграций: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("Migrations: Схема актуальна", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func Down(ctx context.Context, dbURL string) error {
	logger.Info("Migrations: Откат миграций")

	m, err := open(ctx, dbURL)
	if err != nil {
		logger.Error("Migrations: Не удалось подготовить миграции", err)
		return err
	}
	defer m.Close()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Migrations: Ошибка отката миграций", err)
		return fmt.Errorf("откат миграций: %w", err)
	}

	logger.Info("Migrations: Миграции откачены")
	return nil
}
