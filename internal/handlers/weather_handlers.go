package handlers

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"todoTracker/internal/service"
)

type WeatherHandler struct {
	WeatherService WeatherService
}

func NewWeatherHandler(weatherService WeatherService) *WeatherHandler {
	return &WeatherHandler{WeatherService: weatherService}
}

// GetWeather отвечает текстом; сбой сервиса погоды тоже возвращается текстом со статусом 200
func (h *WeatherHandler) GetWeather(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if n := utf8.RuneCountInString(city); n < 2 || n > 50 {
		handleError(w, r, service.NewValidationError("city", "название города должно быть от 2 до 50 символов"))
		return
	}

	responseWithText(w, http.StatusOK, h.WeatherService.Describe(r.Context(), city))
}
