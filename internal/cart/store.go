package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/aldeandersantos/AkkaUi/internal/badge"
	"github.com/aldeandersantos/AkkaUi/internal/domain"
	"github.com/aldeandersantos/AkkaUi/internal/storage"
	"github.com/aldeandersantos/AkkaUi/internal/toast"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultStorageKey = "akkaui_cart_v1"
	LegacyStorageKey  = "akka_cart"
)

// Notifier reports operation outcomes to the shopper. *toast.Manager
// satisfies it.
type Notifier interface {
	Notify(message string, kind toast.Kind)
}

// Listener receives the cart and its totals after every successful change.
type Listener func(domain.ChangeEvent)

type subscription struct {
	id uint64
	fn Listener
}

// Store owns the persisted cart. Every read and write of the cart key goes
// through it; mutations run one at a time.
type Store struct {
	storage   storage.Storage
	logger    *zap.Logger
	notifier  Notifier
	badges    *badge.Board
	selectors []string
	key       string
	legacyKey string

	mu  sync.Mutex
	sfg singleflight.Group

	lmu       sync.RWMutex
	listeners []subscription
	nextID    uint64
}

type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithNotifier wires the optional feedback channel. Without it the store
// reports outcomes through return values and logs only.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithBadges makes UpdateCartCount push the item count into every badge on
// board matching selectors (badge.DefaultSelectors when none are given).
func WithBadges(board *badge.Board, selectors ...string) Option {
	return func(s *Store) {
		s.badges = board
		if len(selectors) > 0 {
			s.selectors = selectors
		}
	}
}

func WithKeys(current, legacy string) Option {
	return func(s *Store) {
		if current != "" {
			s.key = current
		}
		s.legacyKey = legacy
	}
}

// NewStore builds the cart store and runs the one-time legacy migration.
// Migration problems are logged; the store is usable regardless.
func NewStore(ctx context.Context, st storage.Storage, opts ...Option) *Store {
	s := &Store{
		storage:   st,
		logger:    zap.NewNop(),
		selectors: badge.DefaultSelectors,
		key:       DefaultStorageKey,
		legacyKey: LegacyStorageKey,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Migrate(ctx)
	return s
}

// Migrate copies the legacy cart blob verbatim into the current key and
// deletes the legacy key, but only while the current key is still empty.
func (s *Store) Migrate(ctx context.Context) {
	if s.legacyKey == "" || s.legacyKey == s.key {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old, err := s.storage.Get(ctx, s.legacyKey)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && old == "") {
		return
	}
	if err != nil {
		s.logger.Error("failed to migrate cart", zap.Error(err))
		return
	}

	current, err := s.storage.Get(ctx, s.key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Error("failed to migrate cart", zap.Error(err))
		return
	}
	if err == nil && current != "" {
		return
	}

	if err := s.storage.Set(ctx, s.key, old); err != nil {
		s.logger.Error("failed to migrate cart", zap.Error(err))
		return
	}
	s.sfg.Forget(s.key)
	if err := s.storage.Delete(ctx, s.legacyKey); err != nil {
		s.logger.Error("failed to remove legacy cart key", zap.String("key", s.legacyKey), zap.Error(err))
		return
	}
	s.logger.Info("cart migrated to new storage key", zap.String("from", s.legacyKey), zap.String("to", s.key))
}

// GetCart returns the persisted cart in insertion order. Missing, corrupt or
// unreadable data yields an empty cart; the cause is only logged.
func (s *Store) GetCart(ctx context.Context) []domain.LineItem {
	v, err, _ := s.sfg.Do(s.key, func() (interface{}, error) {
		return s.load(ctx)
	})
	if err != nil {
		s.logger.Error("failed to get cart", zap.Error(err))
		return []domain.LineItem{}
	}

	// singleflight shares one slice between callers
	items := v.([]domain.LineItem)
	out := make([]domain.LineItem, len(items))
	copy(out, items)
	return out
}

// SaveCart replaces the persisted cart with items in a single write.
func (s *Store) SaveCart(ctx context.Context, items []domain.LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, items)
}

// AddToCart appends a new design. A design already in the cart is left
// untouched and reported with ErrDuplicateItem.
func (s *Store) AddToCart(ctx context.Context, in domain.ItemInput) error {
	if strings.TrimSpace(in.ID) == "" {
		s.logger.Error("invalid item", zap.Any("item", in))
		return fmt.Errorf("%w: item id is required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.loadForUpdate(ctx)
	if err != nil {
		return err
	}

	if domain.IndexOf(items, in.ID) >= 0 {
		s.logger.Info("item already in cart, not adding again", zap.String("item_id", in.ID))
		s.notify(MsgAlreadyInCart, toast.KindInfo)
		return fmt.Errorf("%w: %s", ErrDuplicateItem, in.ID)
	}

	items = append(items, domain.NewLineItem(in))
	if err := s.save(ctx, items); err != nil {
		return err
	}

	s.logger.Debug("item added to cart", zap.String("item_id", in.ID), zap.Int("items", len(items)))
	s.notify(MsgItemAdded, toast.KindSuccess)
	return nil
}

// Add is the positional form used by page click handlers.
func (s *Store) Add(ctx context.Context, id, name, price, typ string) error {
	return s.AddToCart(ctx, domain.ItemInput{ID: id, Name: name, Price: price, Type: typ})
}

func (s *Store) RemoveFromCart(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		s.logger.Error("invalid item id")
		return fmt.Errorf("%w: item id is required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.loadForUpdate(ctx)
	if err != nil {
		return err
	}

	kept := make([]domain.LineItem, 0, len(items))
	for _, item := range items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(items) {
		s.logger.Warn("item not found in cart", zap.String("item_id", id))
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}

	if err := s.save(ctx, kept); err != nil {
		return err
	}
	s.notify(MsgItemRemoved, toast.KindInfo)
	return nil
}

// UpdateQuantity adds delta to the item's quantity, never going below 1.
func (s *Store) UpdateQuantity(ctx context.Context, id string, delta int) error {
	if strings.TrimSpace(id) == "" {
		s.logger.Error("invalid parameters", zap.String("item_id", id), zap.Int("delta", delta))
		return fmt.Errorf("%w: item id is required", ErrInvalidInput)
	}

	return s.mutateItem(ctx, id, func(item *domain.LineItem) {
		item.Quantity = max(1, item.Quantity+delta)
	})
}

// SetQuantity sets the item's quantity to floor(quantity); quantity must be
// at least 1.
func (s *Store) SetQuantity(ctx context.Context, id string, quantity float64) error {
	if strings.TrimSpace(id) == "" || math.IsNaN(quantity) || math.IsInf(quantity, 0) || quantity < 1 {
		s.logger.Error("invalid parameters", zap.String("item_id", id), zap.Float64("quantity", quantity))
		return fmt.Errorf("%w: quantity must be a number >= 1", ErrInvalidInput)
	}

	return s.mutateItem(ctx, id, func(item *domain.LineItem) {
		item.Quantity = max(1, int(math.Floor(quantity)))
	})
}

func (s *Store) CalculateTotals(ctx context.Context) domain.Totals {
	return domain.CalculateTotals(s.GetCart(ctx))
}

// UpdateCartCount pushes the current item count into the badges and returns it.
func (s *Store) UpdateCartCount(ctx context.Context) int {
	count := s.CalculateTotals(ctx).ItemCount
	s.showCount(count)
	return count
}

// ClearCart deletes the persisted cart.
func (s *Store) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Delete(ctx, s.key); err != nil {
		s.logger.Error("failed to clear cart", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	s.sfg.Forget(s.key)

	s.showCount(0)
	s.broadcast(domain.ChangeEvent{Cart: []domain.LineItem{}, Totals: domain.Totals{}})
	s.notify(MsgCartCleared, toast.KindInfo)
	return nil
}

// DispatchChangeEvent sends the current cart and totals to every listener.
func (s *Store) DispatchChangeEvent(ctx context.Context) {
	items := s.GetCart(ctx)
	s.broadcast(domain.ChangeEvent{Cart: items, Totals: domain.CalculateTotals(items)})
}

func (s *Store) GetItem(ctx context.Context, id string) (domain.LineItem, bool) {
	items := s.GetCart(ctx)
	if i := domain.IndexOf(items, id); i >= 0 {
		return items[i], true
	}
	return domain.LineItem{}, false
}

func (s *Store) IsInCart(ctx context.Context, id string) bool {
	_, ok := s.GetItem(ctx, id)
	return ok
}

// Subscribe registers l for change events and returns a function removing it.
// Listeners run synchronously while the mutation still holds the store, so
// they may read the cart but must not mutate it on the same goroutine.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.lmu.Lock()
	defer s.lmu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, subscription{id: id, fn: l})

	var once sync.Once
	return func() {
		once.Do(func() { s.unsubscribe(id) })
	}
}

func (s *Store) unsubscribe(id uint64) {
	s.lmu.Lock()
	defer s.lmu.Unlock()

	for i, sub := range s.listeners {
		if sub.id == id {
			s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
			return
		}
	}
}

func (s *Store) mutateItem(ctx context.Context, id string, apply func(*domain.LineItem)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.loadForUpdate(ctx)
	if err != nil {
		return err
	}

	i := domain.IndexOf(items, id)
	if i < 0 {
		s.logger.Warn("item not found in cart", zap.String("item_id", id))
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}

	apply(&items[i])
	return s.save(ctx, items)
}

// load reads and decodes the cart blob. An absent key is an empty cart.
func (s *Store) load(ctx context.Context) ([]domain.LineItem, error) {
	raw, err := s.storage.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return []domain.LineItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if raw == "" {
		return []domain.LineItem{}, nil
	}

	var decoded []domain.LineItem
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}

	// null or id-less entries can never be addressed again, so they are dropped
	items := make([]domain.LineItem, 0, len(decoded))
	for _, item := range decoded {
		if strings.TrimSpace(item.ID) == "" {
			s.logger.Warn("dropping cart entry without id")
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// loadForUpdate is load for mutations: a corrupt blob is replaced by the
// next write, but an unreachable backend aborts the mutation.
func (s *Store) loadForUpdate(ctx context.Context) ([]domain.LineItem, error) {
	items, err := s.load(ctx)
	if err == nil {
		return items, nil
	}
	s.logger.Error("failed to get cart", zap.Error(err))
	if errors.Is(err, ErrStorage) {
		return nil, err
	}
	return []domain.LineItem{}, nil
}

// save must be called with s.mu held.
func (s *Store) save(ctx context.Context, items []domain.LineItem) error {
	if items == nil {
		items = []domain.LineItem{}
	}

	data, err := json.Marshal(items)
	if err == nil {
		err = s.storage.Set(ctx, s.key, string(data))
	}
	if err != nil {
		s.logger.Error("failed to save cart", zap.Error(err))
		s.notify(MsgSaveFailed, toast.KindError)
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	// reads started before this write must not be shared with later callers
	s.sfg.Forget(s.key)

	totals := domain.CalculateTotals(items)
	s.showCount(totals.ItemCount)

	snapshot := make([]domain.LineItem, len(items))
	copy(snapshot, items)
	s.broadcast(domain.ChangeEvent{Cart: snapshot, Totals: totals})
	return nil
}

func (s *Store) showCount(count int) {
	if s.badges != nil {
		s.badges.Show(count, s.selectors...)
	}
}

func (s *Store) broadcast(evt domain.ChangeEvent) {
	s.lmu.RLock()
	subs := make([]subscription, len(s.listeners))
	copy(subs, s.listeners)
	s.lmu.RUnlock()

	for _, sub := range subs {
		s.deliver(sub, evt)
	}
}

func (s *Store) deliver(sub subscription, evt domain.ChangeEvent) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("cart listener panicked", zap.Uint64("listener", sub.id), zap.Any("panic", r))
		}
	}()
	sub.fn(evt)
}

func (s *Store) notify(message string, kind toast.Kind) {
	if s.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("notifier failed", zap.Any("panic", r))
		}
	}()
	s.notifier.Notify(message, kind)
}
