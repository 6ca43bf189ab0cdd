package middleware

import (
	"errors"
	"net/http"
	"strings"

	"todoTracker/internal/auth"
	"todoTracker/internal/logger"

	"go.uber.org/zap"
)

type TokenParser interface {
	Parse(token string) (string, error)
}

// Authenticate пропускает только запросы с действительным Bearer-токеном
// и кладёт email пользователя в контекст
func Authenticate(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, auth.TokenType+" ")
			if !ok || token == "" {
				writeError(w, http.StatusUnauthorized, "Требуется авторизация")
				return
			}

			email, err := tokens.Parse(token)
			if err != nil {
				logger.Warn("HTTP: Отклонён токен",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.Error(err))
				message := "Недействительный токен"
				if errors.Is(err, auth.ErrExpiredToken) {
					message = "Срок действия токена истёк"
				}
				writeError(w, http.StatusUnauthorized, message)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithEmail(r.Context(), email)))
		})
	}
}
