package handlers

import (
	"errors"
	"net/http"

	"todoTracker/internal/logger"
	"todoTracker/internal/service"

	"go.uber.org/zap"
)

const internalErrorMessage = "Внутренняя ошибка сервера. Попробуйте позже."

// handleError отдаёт бизнес-ошибку с её статусом, всё остальное - 500 без подробностей
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var businessErr *service.BusinessError
	if errors.As(err, &businessErr) {
		statusCode := mapBusinessErrorToHTTP(businessErr.Code)

		logger.Warn("HTTP: Бизнес-ошибка",
			zap.String("error_code", businessErr.Code),
			zap.String("path", r.URL.Path),
			zap.Int("http_status", statusCode))

		responseWithError(w, statusCode, businessErr.Message)
		return
	}

	logger.Error("HTTP: Ошибка Service", err, zap.String("path", r.URL.Path))
	responseWithError(w, http.StatusInternalServerError, internalErrorMessage)
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation:
		return http.StatusBadRequest
	case service.CodeUnauthorized, service.CodeInvalidCredentials:
		return http.StatusUnauthorized
	case service.CodeEmailTaken:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
