package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"todoTracker/internal/auth"
	"todoTracker/internal/config"
	"todoTracker/internal/events"
	"todoTracker/internal/handlers"
	"todoTracker/internal/logger"
	"todoTracker/internal/migrations"
	"todoTracker/internal/repository"
	"todoTracker/internal/repository/todo/cached"
	todoinmemory "todoTracker/internal/repository/todo/inmemory"
	todopg "todoTracker/internal/repository/todo/postgres"
	userinmemory "todoTracker/internal/repository/user/inmemory"
	userpg "todoTracker/internal/repository/user/postgres"
	"todoTracker/internal/service"
	"todoTracker/internal/weather"
	"todoTracker/internal/worker"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config     *config.Config
	server     *http.Server
	tasks      cached.Store // интерфейс!
	users      service.UserRepository
	dispatcher *events.Dispatcher
	worker     *worker.ReminderWorker
	shutdowns  []func() // функции для graceful shutdown, вызываются в обратном порядке
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) (*App, error) {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return nil, fmt.Errorf("инициализация логгера: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	if err := a.initStorage(ctx); err != nil {
		a.shutdown()
		return nil, err
	}

	location, err := a.config.Reminder.TimeLocation()
	if err != nil {
		a.shutdown()
		return nil, fmt.Errorf("часовой пояс напоминаний: %w", err)
	}

	a.initEvents()

	tokens, err := auth.NewTokenService(a.config.Auth.JWTSecret, a.config.Auth.TokenTTL)
	if err != nil {
		a.shutdown()
		return nil, fmt.Errorf("сервис токенов: %w", err)
	}

	todoService := service.NewTodoService(a.tasks, a.dispatcher)
	authService := service.NewAuthService(a.users, tokens)
	weatherClient := weather.NewClient(a.config.Weather.BaseURL, a.config.Weather.APIKey, a.config.Weather.Timeout)

	a.worker = worker.NewReminderWorker(a.tasks, a.dispatcher,
		worker.WithInterval(a.config.Reminder.Interval),
		worker.WithWindow(a.config.Reminder.Window),
		worker.WithBatchSize(a.config.Reminder.BatchSize),
		worker.WithLocation(location),
	)

	validator := handlers.NewValidator(a.config.Auth.AllowedEmailDomain)
	router := a.routes(routeHandlers{
		todos:   handlers.NewTodoHandler(todoService, validator),
		auth:    handlers.NewAuthHandler(authService, validator),
		weather: handlers.NewWeatherHandler(weatherClient),
		tokens:  tokens,
	})

	a.server = &http.Server{
		Addr:              a.config.GetServerAddr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("Приложение инициализировано",
		zap.String("repository", a.config.Repository.Type),
		zap.String("addr", a.server.Addr))
	return a, nil
}

func (a *App) initStorage(ctx context.Context) error {
	var store cached.Store

	switch a.config.Repository.Type {
	case "postgres":
		if a.config.Database.Migrate {
			if err := migrations.Up(ctx, a.config.Database.URL); err != nil {
				return fmt.Errorf("миграции: %w", err)
			}
		}

		pool, err := repository.NewPostgresPool(ctx, a.config.Database)
		if err != nil {
			return fmt.Errorf("подключение к PostgreSQL: %w", err)
		}
		a.shutdowns = append(a.shutdowns, func() {
			logger.Info("Закрытие пула соединений PostgreSQL...")
			pool.Close()
		})

		store = todopg.New(pool)
		a.users = userpg.New(pool)
	default:
		store = todoinmemory.NewTaskStorage()
		a.users = userinmemory.NewUserStorage()
	}

	if a.config.Cache.Size > 0 {
		store = cached.New(store, a.config.Cache.Size, a.config.Cache.TTL)
	}
	a.tasks = store
	return nil
}

func (a *App) initEvents() {
	var publisher events.Publisher
	if len(a.config.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(a.config.Kafka.Brokers, a.config.Kafka.WriteTimeout, a.config.Kafka.BatchTimeout)
	} else {
		logger.Warn("Брокеры Kafka не заданы, события пишутся только в лог")
		publisher = events.LogPublisher{}
	}

	a.dispatcher = events.NewDispatcher(publisher,
		a.config.Kafka.TodoTopic,
		a.config.Kafka.EmailTopic,
		a.config.Kafka.WriteTimeout)

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Остановка отправки событий...")
		if err := a.dispatcher.Close(); err != nil {
			logger.Error("Ошибка закрытия отправителя событий", err)
		}
	})
}

// Run блокируется до отмены ctx или падения сервера, затем останавливает всё по порядку
func (a *App) Run(ctx context.Context) error {
	defer a.shutdown()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http сервер: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		a.worker.Start(groupCtx)
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("Остановка сервера...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("остановка сервера: %w", err)
		}
		return nil
	})

	return group.Wait()
}

func (a *App) shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
