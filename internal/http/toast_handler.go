package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/aldeandersantos/AkkaUi/internal/session"
	"github.com/aldeandersantos/AkkaUi/internal/toast"
	"github.com/go-chi/chi/v5"
)

type ToastHandler struct {
	registry *session.Registry
}

func NewToastHandler(registry *session.Registry) *ToastHandler {
	return &ToastHandler{registry: registry}
}

type ShowToastRequestDTO struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	// TimeoutMS overrides the default timeout; 0 keeps the toast until closed.
	TimeoutMS *int64 `json:"timeout_ms"`
}

func (h *ToastHandler) page(w http.ResponseWriter, r *http.Request) (*session.Page, bool) {
	p, err := h.registry.Page(r.Context(), getSessionID(r.Context()))
	if err != nil {
		handleCartError(w, err)
		return nil, false
	}
	return p, true
}

func (h *ToastHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, p.Toasts.Active())
}

// HTML returns the toast container markup for the page to swap in.
func (h *ToastHandler) HTML(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}

	markup, err := p.Renderer.Render()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to render toasts")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(markup))
}

func (h *ToastHandler) Show(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}

	var req ShowToastRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "invalid_message", "message is required")
		return
	}

	opts := []toast.ShowOption{toast.WithKind(toast.ParseKind(req.Type))}
	if req.TimeoutMS != nil {
		opts = append(opts, toast.WithTimeout(time.Duration(*req.TimeoutMS)*time.Millisecond))
	}
	t := p.Toasts.Show(req.Message, opts...)

	respondJSON(w, http.StatusCreated, toast.View{
		ID:      t.ID,
		Message: t.Message,
		Kind:    t.Kind,
		State:   t.State(),
		Timeout: t.Timeout,
	})
}

func (h *ToastHandler) Remove(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}

	if !p.Toasts.RemoveByID(chi.URLParam(r, "id")) {
		respondError(w, http.StatusNotFound, "not_found", "toast not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ToastHandler) Clear(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}

	p.Toasts.ClearAll()
	w.WriteHeader(http.StatusNoContent)
}
