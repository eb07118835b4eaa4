package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aldeandersantos/AkkaUi/internal/cart"
	"github.com/aldeandersantos/AkkaUi/internal/session"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleCartError converts cart and session errors to HTTP status codes.
func handleCartError(w http.ResponseWriter, err error) {
	var httpStatus int
	var code string

	switch {
	case errors.Is(err, cart.ErrInvalidInput), errors.Is(err, session.ErrInvalidSession):
		httpStatus = http.StatusBadRequest
		code = "invalid_argument"
	case errors.Is(err, cart.ErrItemNotFound):
		httpStatus = http.StatusNotFound
		code = "not_found"
	case errors.Is(err, cart.ErrDuplicateItem):
		httpStatus = http.StatusConflict
		code = "already_exists"
	case errors.Is(err, cart.ErrStorage):
		httpStatus = http.StatusServiceUnavailable
		code = "storage_unavailable"
	default:
		httpStatus = http.StatusInternalServerError
		code = "internal_error"
	}

	respondError(w, httpStatus, code, err.Error())
}
