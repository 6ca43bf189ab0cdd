package handlers

import (
	"net/http"

	"todoTracker/internal/auth"
	"todoTracker/internal/handlers/dto"
	"todoTracker/internal/logger"

	"go.uber.org/zap"
)

type AuthHandler struct {
	AuthService AuthService
	validator   *Validator
}

func NewAuthHandler(authService AuthService, validator *Validator) *AuthHandler {
	return &AuthHandler{
		AuthService: authService,
		validator:   validator,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var request dto.AuthRequest
	if err := h.validator.decodeJSON(r, &request); err != nil {
		handleError(w, r, err)
		return
	}

	token, err := h.AuthService.Register(r.Context(), request.Email, request.Password)
	if err != nil {
		handleError(w, r, err)
		return
	}

	logger.Info("HTTP_OUT: Пользователь зарегистрирован", zap.Int("http_status", http.StatusCreated))
	responseWithBody(w, http.StatusCreated, dto.FromAuthToken(token, auth.TokenType))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var request dto.AuthRequest
	if err := h.validator.decodeJSON(r, &request); err != nil {
		handleError(w, r, err)
		return
	}

	token, err := h.AuthService.Login(r.Context(), request.Email, request.Password)
	if err != nil {
		handleError(w, r, err)
		return
	}

	responseWithBody(w, http.StatusOK, dto.FromAuthToken(token, auth.TokenType))
}
