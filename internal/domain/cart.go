package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	DefaultItemName = "Item sem nome"
	DefaultItemType = "svg"
)

// LineItem is one catalog design held in the cart. Field names match the
// JSON blob persisted by the storefront pages.
type LineItem struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Type      string  `json:"type"`
	Thumbnail *string `json:"thumbnail"`
}

// ItemInput is what a page handler passes when a design is added. Price is
// kept as text because it usually comes straight from a data attribute.
type ItemInput struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Type      string `json:"type"`
	Thumbnail string `json:"thumbnail"`
}

// Totals is derived from the cart and never stored.
type Totals struct {
	Subtotal  float64 `json:"subtotal"`
	ItemCount int     `json:"itemCount"`
	Items     int     `json:"items"`
}

// ChangeEvent is broadcast after every successful cart mutation.
type ChangeEvent struct {
	Cart   []LineItem `json:"cart"`
	Totals Totals     `json:"totals"`
}

// NewLineItem normalizes caller input into a line item with quantity 1.
func NewLineItem(in ItemInput) LineItem {
	item := LineItem{
		ID:       in.ID,
		Name:     in.Name,
		Price:    ParsePrice(in.Price),
		Quantity: 1,
		Type:     in.Type,
	}
	if item.Name == "" {
		item.Name = DefaultItemName
	}
	if item.Type == "" {
		item.Type = DefaultItemType
	}
	if in.Thumbnail != "" {
		thumb := in.Thumbnail
		item.Thumbnail = &thumb
	}
	return item
}

// ParsePrice coerces a textual amount. Anything that is not a finite,
// non-negative number becomes 0.
func ParsePrice(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// UnmarshalJSON accepts blobs written by older page scripts, where price
// could be a string and quantity could be missing.
func (l *LineItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        string          `json:"id"`
		Name      string          `json:"name"`
		Price     json.RawMessage `json:"price"`
		Quantity  json.RawMessage `json:"quantity"`
		Type      string          `json:"type"`
		Thumbnail *string         `json:"thumbnail"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*l = LineItem{
		ID:        raw.ID,
		Name:      raw.Name,
		Price:     decodePrice(raw.Price),
		Quantity:  decodeQuantity(raw.Quantity),
		Type:      raw.Type,
		Thumbnail: raw.Thumbnail,
	}
	return nil
}

func decodePrice(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			return 0
		}
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParsePrice(s)
	}
	return 0
}

func decodeQuantity(raw json.RawMessage) int {
	var f float64
	if len(raw) == 0 || json.Unmarshal(raw, &f) != nil {
		return 1
	}
	q := int(math.Floor(f))
	if q < 1 {
		return 1
	}
	return q
}

// CalculateTotals sums the cart. The subtotal is rounded to cents with
// decimal arithmetic so 5.555 rounds up as a shopper would expect.
func CalculateTotals(items []LineItem) Totals {
	sum := decimal.Zero
	count := 0
	for _, item := range items {
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(qty)))
		sum = sum.Add(line)
		count += qty
	}

	return Totals{
		Subtotal:  sum.Round(2).InexactFloat64(),
		ItemCount: count,
		Items:     len(items),
	}
}

// IndexOf returns the position of the item with the given id, or -1.
func IndexOf(items []LineItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
