package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const envPrefix = "TODO"

type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Database   DatabaseConfig   `yaml:"database" mapstructure:"database"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
	Repository RepositoryConfig `yaml:"repository" mapstructure:"repository"`
	Reminder   ReminderConfig   `yaml:"reminder" mapstructure:"reminder"`
	Kafka      KafkaConfig      `yaml:"kafka" mapstructure:"kafka"`
	Weather    WeatherConfig    `yaml:"weather" mapstructure:"weather"`
	Auth       AuthConfig       `yaml:"auth" mapstructure:"auth"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
}

type ServerConfig struct {
	Port           string        `yaml:"port" mapstructure:"port" validate:"required"`
	Host           string        `yaml:"host" mapstructure:"host"`
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout" validate:"gt=0"`
	RateLimit      int           `yaml:"rate_limit" mapstructure:"rate_limit" validate:"gte=0"` // запросов в минуту на клиента, 0 - без ограничения
	CORSOrigins    []string      `yaml:"cors_origins" mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	URL            string        `yaml:"url" mapstructure:"url"`
	MaxConnections int           `yaml:"max_connections" mapstructure:"max_connections" validate:"gte=0"`
	MinConnections int           `yaml:"min_connections" mapstructure:"min_connections" validate:"gte=0"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	Migrate        bool          `yaml:"migrate" mapstructure:"migrate"`
}

type LoggingConfig struct {
	Development bool `yaml:"development" mapstructure:"development"`
}

type RepositoryConfig struct {
	Type string `yaml:"type" mapstructure:"type" validate:"oneof=postgres inmemory"`
}

type ReminderConfig struct {
	Interval  time.Duration `yaml:"interval" mapstructure:"interval" validate:"gt=0"`
	Window    time.Duration `yaml:"window" mapstructure:"window" validate:"gte=0"`
	BatchSize int           `yaml:"batch_size" mapstructure:"batch_size" validate:"gt=0"`
	Location  string        `yaml:"location" mapstructure:"location"`
}

type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers" mapstructure:"brokers"` // пусто - события только пишутся в лог
	TodoTopic    string        `yaml:"todo_topic" mapstructure:"todo_topic" validate:"required"`
	EmailTopic   string        `yaml:"email_topic" mapstructure:"email_topic" validate:"required"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" validate:"gt=0"`
	BatchTimeout time.Duration `yaml:"batch_timeout" mapstructure:"batch_timeout" validate:"gt=0"` // сколько writer ждёт добора батча
}

type WeatherConfig struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	APIKey  string        `yaml:"api_key" mapstructure:"api_key"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
}

type AuthConfig struct {
	JWTSecret          string        `yaml:"jwt_secret" mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenTTL           time.Duration `yaml:"token_ttl" mapstructure:"token_ttl" validate:"gt=0"`
	AllowedEmailDomain string        `yaml:"allowed_email_domain" mapstructure:"allowed_email_domain"`
}

type CacheConfig struct {
	Size int           `yaml:"size" mapstructure:"size" validate:"gte=0"` // 0 - кэш выключен
	TTL  time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// ключи, которые можно переопределить через окружение: database.url -> TODO_DATABASE_URL
var envKeys = []string{
	"server.port", "server.host", "server.request_timeout", "server.rate_limit", "server.cors_origins",
	"database.url", "database.max_connections", "database.min_connections", "database.idle_timeout", "database.migrate",
	"logging.development",
	"repository.type",
	"reminder.interval", "reminder.window", "reminder.batch_size", "reminder.location",
	"kafka.brokers", "kafka.todo_topic", "kafka.email_topic", "kafka.write_timeout", "kafka.batch_timeout",
	"weather.base_url", "weather.api_key", "weather.timeout",
	"auth.jwt_secret", "auth.token_ttl", "auth.allowed_email_domain",
	"cache.size", "cache.ttl",
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:           "8080",
			RequestTimeout: 30 * time.Second,
			RateLimit:      100,
			CORSOrigins:    []string{"*"},
		},
		Database: DatabaseConfig{
			MaxConnections: 10,
			MinConnections: 2,
			IdleTimeout:    5 * time.Minute,
			Migrate:        true,
		},
		Repository: RepositoryConfig{Type: "postgres"},
		Reminder: ReminderConfig{
			Interval:  10 * time.Second,
			Window:    30 * time.Second,
			BatchSize: 100,
			Location:  "Europe/Istanbul",
		},
		Kafka: KafkaConfig{
			TodoTopic:    "todo-events",
			EmailTopic:   "email-send",
			WriteTimeout: 5 * time.Second,
			BatchTimeout: 10 * time.Millisecond,
		},
		Weather: WeatherConfig{
			BaseURL: "https://api.weatherapi.com/v1",
			Timeout: 5 * time.Second,
		},
		Auth: AuthConfig{TokenTTL: 24 * time.Hour},
		Cache: CacheConfig{
			Size: 1024,
			TTL:  5 * time.Minute,
		},
	}
}

// Load читает yaml-файл поверх значений по умолчанию, затем применяет переменные окружения.
// Отсутствующий файл не ошибка.
func Load(path string) (*Config, error) {
	cfg := Default()

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		decoder := yaml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("ошибка парсинга %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("не могу открыть %s: %w", path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("привязка переменной окружения %s: %w", key, err)
		}
	}

	// в AllSettings попадают только заданные переменные, остальные поля не трогаются
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("ошибка чтения переменных окружения: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("некорректная конфигурация: %w", err)
	}
	if c.Repository.Type == "postgres" && c.Database.URL == "" {
		return errors.New("некорректная конфигурация: database.url обязателен для repository.type=postgres")
	}
	if _, err := c.Reminder.TimeLocation(); err != nil {
		return fmt.Errorf("некорректная конфигурация: reminder.location: %w", err)
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// TimeLocation - часовой пояс для текста напоминаний, по умолчанию UTC
func (c ReminderConfig) TimeLocation() (*time.Location, error) {
	if c.Location == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Location)
}
