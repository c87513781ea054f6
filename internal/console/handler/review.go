package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/fraudwatch-console/internal/console/service"
)

type ReviewHandler struct {
	session *service.Session
}

func NewReviewHandler(s *service.Session) *ReviewHandler {
	return &ReviewHandler{session: s}
}

type verdictRequest struct {
	Verdict *int `json:"verdict"`
}

// List GET /api/v1/reviews?page=N
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "page must be a positive integer", http.StatusBadRequest)
			return
		}
		page = n
	}

	q, err := h.session.ReviewQueue(r.Context(), page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// Select POST /api/v1/reviews/{id}/select
func (h *ReviewHandler) Select(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid transaction id", http.StatusBadRequest)
		return
	}

	q, err := h.session.SelectReview(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// Verdict POST /api/v1/reviews/verdict {"verdict": 0|1}
func (h *ReviewHandler) Verdict(w http.ResponseWriter, r *http.Request) {
	var req verdictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Verdict == nil {
		http.Error(w, "verdict is required", http.StatusBadRequest)
		return
	}

	q, err := h.session.SubmitReview(r.Context(), *req.Verdict)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}
