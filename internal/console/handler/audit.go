package handler

import (
	"net/http"
	"strconv"

	"github.com/xela07ax/fraudwatch-console/internal/console/service"
)

type JournalHandler struct {
	service *service.JournalService
}

func NewJournalHandler(s *service.JournalService) *JournalHandler {
	return &JournalHandler{service: s}
}

// Recent возвращает последние действия операторов
// GET /api/v1/journal?limit=...
func (h *JournalHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	events, err := h.service.Recent(r.Context(), limit)
	if err != nil {
		http.Error(w, "Failed to fetch journal", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, events)
}
