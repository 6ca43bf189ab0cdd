package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"todoTracker/internal/logger"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

var ErrNoData = errors.New("нет данных о погоде")

type Current struct {
	TempC      float64 `json:"temp_c"`
	FeelsLikeC float64 `json:"feelslike_c"`
	Humidity   int     `json:"humidity"`
}

type response struct {
	Current *Current `json:"current"`
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// CurrentWeather запрашивает {base_url}/current.json?key=...&q=city
func (c *Client) CurrentWeather(ctx context.Context, city string) (*Current, error) {
	start := time.Now()

	query := url.Values{}
	query.Set("key", c.apiKey)
	query.Set("q", city)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/current.json?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("создание запроса: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// url.Error содержит полный адрес запроса вместе с ключом
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("запрос погоды: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("сервис погоды ответил %d", resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("разбор ответа погоды: %w", err)
	}
	if body.Current == nil {
		return nil, ErrNoData
	}

	logger.Debug("Weather: Получены данные", zap.String("city", city), zap.Duration("ms", time.Since(start)))
	return body.Current, nil
}

// Describe возвращает текст для пользователя; ошибка сервиса погоды тоже превращается в текст
func (c *Client) Describe(ctx context.Context, city string) string {
	current, err := c.CurrentWeather(ctx, city)
	if err != nil {
		if errors.Is(err, ErrNoData) {
			return fmt.Sprintf("%s: не удалось получить информацию о погоде.", city)
		}
		logger.Warn("Weather: Ошибка получения погоды", zap.String("city", city), zap.Error(err))
		return fmt.Sprintf("%s: ошибка при получении погоды, попробуйте позже.", city)
	}
	return Format(city, current)
}

func Format(city string, current *Current) string {
	return fmt.Sprintf("%s: сейчас %g°C, ощущается как %g°C, влажность %d%%",
		city, current.TempC, current.FeelsLikeC, current.Humidity)
}
