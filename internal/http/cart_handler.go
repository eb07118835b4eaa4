package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aldeandersantos/AkkaUi/internal/domain"
	"github.com/aldeandersantos/AkkaUi/internal/session"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	registry *session.Registry
	timeout  time.Duration
}

func NewCartHandler(registry *session.Registry, timeout time.Duration) *CartHandler {
	return &CartHandler{
		registry: registry,
		timeout:  timeout,
	}
}

type AddItemRequestDTO struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     json.RawMessage `json:"price"`
	Type      string          `json:"type"`
	Thumbnail string          `json:"thumbnail"`
}

type UpdateQuantityRequestDTO struct {
	Delta *int `json:"delta"`
}

type SetQuantityRequestDTO struct {
	Quantity *float64 `json:"quantity"`
}

type CartResponse struct {
	Items  []domain.LineItem `json:"items"`
	Totals domain.Totals     `json:"totals"`
}

type BadgeResponse struct {
	Count   int    `json:"count"`
	Text    string `json:"text"`
	Visible bool   `json:"visible"`
	Display string `json:"display"`
}

func (h *CartHandler) page(w http.ResponseWriter, r *http.Request) (context.Context, context.CancelFunc, *session.Page, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)

	p, err := h.registry.Page(ctx, getSessionID(r.Context()))
	if err != nil {
		cancel()
		handleCartError(w, err)
		return nil, nil, nil, false
	}
	return ctx, cancel, p, true
}

func (h *CartHandler) respondCart(ctx context.Context, w http.ResponseWriter, status int, p *session.Page) {
	items := p.Cart.GetCart(ctx)
	respondJSON(w, status, CartResponse{Items: items, Totals: domain.CalculateTotals(items)})
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, p, ok := h.page(w, r)
	if !ok {
		return
	}
	defer cancel()

	h.respondCart(ctx, w, http.StatusOK, p)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, p, ok := h.page(w, r)
	if !ok {
		return
	}
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	err := p.Cart.AddToCart(ctx, domain.ItemInput{
		ID:        req.ID,
		Name:      req.Name,
		Price:     priceText(req.Price),
		Type:      req.Type,
		Thumbnail: req.Thumbnail,
	})
	if err != nil {
		handleCartError(w, err)
		return
	}

	h.respondCart(ctx, w, http.StatusCreated, p)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, p, ok := h.page(w, r)
	if !ok {
		return
	}
	defer cancel()

	if err := p.Cart.RemoveFromCart(ctx, chi.URLParam(r, "id")); err != nil {
		handleCartError(w, err)
		return
	}

	h.respondCart(ctx, w, http.StatusOK, p)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, p, ok := h.page(w, r)
	if !ok {
		return
	}
	defer cancel()

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Delta == nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "body must be {\"delta\": <integer>}")
		return
	}

	if err := p.Cart.UpdateQuantity(ctx, chi.URLParam(r, "id"), *req.Delta); err != nil {
		handleCartError(w, err)
		return
	}

	h.respondCart(ctx, w, http.StatusOK, p)
}

func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, p, ok := h.page(w, r)
	if !ok {
		return
	}
	defer cancel()

	var req SetQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity == nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "body must be {\"quantity\": <number>}")
		return
	}

	if err := p.Cart.SetQuantity(ctx, chi.URLParam(r, "id"), *req.Quantity); err != nil {
		handleCartError(w, err)
		return
	}

	h.respondCart(ctx, w, http.StatusOK, p)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, p, ok := h.page(w, r)
	if !ok {
		return
	}
	defer cancel()

	if err := p.Cart.ClearCart(ctx); err != nil {
		handleCartError(w, err)
		return
	}

	h.respondCart(ctx, w, http.StatusOK, p)
}

func (h *CartHandler) GetTotals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, p, ok := h.page(w, r)
	if !ok {
		return
	}
	defer cancel()

	respondJSON(w, http.StatusOK, p.Cart.CalculateTotals(ctx))
}

func (h *CartHandler) GetBadge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, p, ok := h.page(w, r)
	if !ok {
		return
	}
	defer cancel()

	count := p.Cart.UpdateCartCount(ctx)
	respondJSON(w, http.StatusOK, BadgeResponse{
		Count:   count,
		Text:    p.Badge.Text(),
		Visible: p.Badge.Visible(),
		Display: p.Badge.Display(),
	})
}

// priceText accepts the price as a JSON number or string.
func priceText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}
