// Package badge tracks the page elements that display the cart item count.
package badge

import (
	"strconv"
	"sync"
)

// Default selectors the storefront templates put on cart count elements.
const (
	ClassSelector = ".cart-badge"
	IDSelector    = "#cart-badge"
)

// DefaultSelectors is the selector set the cart store updates.
var DefaultSelectors = []string{ClassSelector, IDSelector}

// Badge is one visible count indicator.
type Badge interface {
	SetText(text string)
	SetVisible(visible bool)
}

type entry struct {
	selector string
	badge    Badge
}

// Board is the registry of badges currently on the page.
type Board struct {
	mu      sync.RWMutex
	entries []entry
}

func NewBoard() *Board {
	return &Board{}
}

// Register attaches b under selector. A badge may carry several selectors.
func (b *Board) Register(selector string, badge Badge) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, entry{selector: selector, badge: badge})
}

// Unregister detaches badge from every selector.
func (b *Board) Unregister(badge Badge) {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.entries[:0]
	for _, e := range b.entries {
		if e.badge != badge {
			kept = append(kept, e)
		}
	}
	b.entries = kept
}

// Select returns every badge matching any of the selectors, each once, in
// registration order.
func (b *Board) Select(selectors ...string) []Badge {
	b.mu.RLock()
	defer b.mu.RUnlock()

	want := make(map[string]struct{}, len(selectors))
	for _, s := range selectors {
		want[s] = struct{}{}
	}

	seen := make(map[Badge]struct{})
	var out []Badge
	for _, e := range b.entries {
		if _, ok := want[e.selector]; !ok {
			continue
		}
		if _, dup := seen[e.badge]; dup {
			continue
		}
		seen[e.badge] = struct{}{}
		out = append(out, e.badge)
	}
	return out
}

// Show writes count into every matching badge, visible only when count > 0.
func (b *Board) Show(count int, selectors ...string) {
	text := strconv.Itoa(count)
	for _, badge := range b.Select(selectors...) {
		badge.SetText(text)
		badge.SetVisible(count > 0)
	}
}

// Indicator is an in-memory Badge, used by the page shell and tests.
type Indicator struct {
	mu      sync.RWMutex
	text    string
	visible bool
}

func (i *Indicator) SetText(text string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.text = text
}

func (i *Indicator) SetVisible(visible bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.visible = visible
}

func (i *Indicator) Text() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.text
}

func (i *Indicator) Visible() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.visible
}

// Display returns the CSS display value the badge element should carry.
func (i *Indicator) Display() string {
	if i.Visible() {
		return "flex"
	}
	return "none"
}
