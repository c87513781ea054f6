package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/fraudwatch-console/internal/console/service"
	"github.com/xela07ax/fraudwatch-console/internal/domain"
)

type DashboardHandler struct {
	session     *service.Session
	maxUploadMB int64
}

func NewDashboardHandler(s *service.Session, maxUploadMB int64) *DashboardHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 100
	}
	return &DashboardHandler{session: s, maxUploadMB: maxUploadMB}
}

// Get GET /api/v1/dashboard. Ошибка обновления не мешает отдать последнее состояние: она уже в last_error.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("refresh") == "true" {
		_ = h.session.Refresh(r.Context())
	}
	writeJSON(w, http.StatusOK, h.session.View())
}

// Transactions GET /api/v1/transactions?page=N
func (h *DashboardHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, fmt.Errorf("%w: %q", domain.ErrPageOutOfRange, raw))
			return
		}
		if err := h.session.Goto(r.Context(), n); err != nil {
			writeError(w, err)
			return
		}
	} else if err := h.session.Refresh(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.session.View())
}

// Navigate POST /api/v1/transactions/page/{direction}
func (h *DashboardHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	var err error
	switch chi.URLParam(r, "direction") {
	case "next":
		err = h.session.Next(r.Context())
	case "previous":
		err = h.session.Previous(r.Context())
	default:
		http.Error(w, "direction must be next or previous", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.session.View())
}

// Upload POST /api/v1/uploads (multipart, поле file). Отвечает, когда результаты опубликованы.
func (h *DashboardHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadMB<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if err := h.session.Upload(r.Context(), header.Filename, file); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.session.View())
}

// Predict POST /api/v1/predict
func (h *DashboardHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var in domain.TransactionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	tx, err := h.session.Predict(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}
