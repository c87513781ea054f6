package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/fraudwatch-console/internal/audit"
	"github.com/xela07ax/fraudwatch-console/internal/console/service"
	"github.com/xela07ax/fraudwatch-console/internal/domain"
	"github.com/xela07ax/fraudwatch-console/internal/engine"
	"go.uber.org/zap"
)

type AuthHandler struct {
	service *service.AuthService
	journal audit.Recorder
	logger  *zap.Logger
}

func NewAuthHandler(s *service.AuthService, journal audit.Recorder, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{service: s, journal: journal, logger: logger.Named("auth")}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	start := time.Now()
	resp, err := h.service.GenerateToken(r.Context(), req.Username, req.Password)

	event := audit.JournalEvent{
		ID:         uuid.New().String(),
		TraceID:    engine.TraceID(r.Context()),
		OperatorID: req.Username,
		Action:     audit.ActionLogin,
		Status:     audit.StatusSuccess,
		DurationMs: time.Since(start).Milliseconds(),
		Timestamp:  start,
	}
	if err != nil {
		event.Status, event.Error = audit.StatusFailed, err.Error()
	}
	if h.journal != nil {
		h.journal.Log(event)
	}

	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Error("token issue failed", zap.Error(err))
		}
		// не уточняем, что именно неверно (логин или пароль) для защиты от перебора
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
