// Package session keeps one storefront page per visitor: a cart store, its
// toast container and its badges, all bound to the visitor's storage partition.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/aldeandersantos/AkkaUi/internal/badge"
	"github.com/aldeandersantos/AkkaUi/internal/cart"
	"github.com/aldeandersantos/AkkaUi/internal/domain"
	"github.com/aldeandersantos/AkkaUi/internal/storage"
	"github.com/aldeandersantos/AkkaUi/internal/toast"
	"go.uber.org/zap"
)

const (
	// IdleTTL is how long an untouched page stays in memory.
	IdleTTL = 30 * time.Minute

	// CleanupInterval is how often idle pages are evicted.
	CleanupInterval = time.Minute
)

var ErrInvalidSession = errors.New("invalid session id")

// StorageFactory returns the storage partition of one session.
type StorageFactory func(sessionID string) storage.Storage

// Shared partitions one backend by key prefix.
func Shared(st storage.Storage) StorageFactory {
	return func(sessionID string) storage.Storage {
		return storage.Namespace(st, "session:"+sessionID+":")
	}
}

// PerSession gives every session its own in-memory store capped at quota bytes.
func PerSession(quota int) StorageFactory {
	return func(string) storage.Storage {
		return storage.NewMemory(quota)
	}
}

// ChangePublisher forwards cart changes outside the process.
type ChangePublisher interface {
	Listener(sessionID string) func(domain.ChangeEvent)
}

// Page is the server-side state of one visitor's storefront page.
type Page struct {
	ID       string
	Cart     *cart.Store
	Toasts   *toast.Manager
	Renderer *toast.HTMLRenderer
	Badges   *badge.Board
	Badge    *badge.Indicator

	mu          sync.Mutex
	lastSeen    time.Time
	unsubscribe []func()
}

func (p *Page) touch(now time.Time) {
	p.mu.Lock()
	p.lastSeen = now
	p.mu.Unlock()
}

func (p *Page) idleSince() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSeen
}

// Close detaches the page's listeners and dismisses its toasts.
func (p *Page) Close() {
	p.mu.Lock()
	unsubs := p.unsubscribe
	p.unsubscribe = nil
	p.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
	p.Toasts.ClearAll()
}

type Settings struct {
	CartKey        string
	LegacyCartKey  string
	ToastTimeout   time.Duration
	ToastExitGrace time.Duration
}

// Registry lazily builds and caches pages by session id.
type Registry struct {
	mu    sync.RWMutex
	pages map[string]*Page

	storage   StorageFactory
	settings  Settings
	logger    *zap.Logger
	publisher ChangePublisher
	scheduler toast.Scheduler
	idleTTL   time.Duration
	now       func() time.Time

	stopCleanup chan struct{}
	closeOnce   sync.Once
	wg          sync.WaitGroup
}

type Option func(*Registry)

func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithPublisher(p ChangePublisher) Option {
	return func(r *Registry) { r.publisher = p }
}

func WithSettings(s Settings) Option {
	return func(r *Registry) { r.settings = s }
}

// WithScheduler replaces the wall-clock scheduler of every page's toasts.
func WithScheduler(s toast.Scheduler) Option {
	return func(r *Registry) { r.scheduler = s }
}

func WithIdleTTL(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.idleTTL = d
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func NewRegistry(factory StorageFactory, opts ...Option) *Registry {
	r := &Registry{
		pages:       make(map[string]*Page),
		storage:     factory,
		logger:      zap.NewNop(),
		scheduler:   toast.RealScheduler{},
		idleTTL:     IdleTTL,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
		settings: Settings{
			CartKey:        cart.DefaultStorageKey,
			LegacyCartKey:  cart.LegacyStorageKey,
			ToastTimeout:   toast.DefaultTimeout,
			ToastExitGrace: toast.DefaultExitGrace,
		},
	}
	for _, opt := range opts {
		opt(r)
	}

	r.wg.Add(1)
	go r.cleanupLoop()

	return r
}

// Page returns the page of sessionID, building it on first use.
func (r *Registry) Page(ctx context.Context, sessionID string) (*Page, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	r.mu.RLock()
	p, ok := r.pages[sessionID]
	r.mu.RUnlock()
	if ok {
		p.touch(r.now())
		return p, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pages[sessionID]; ok {
		p.touch(r.now())
		return p, nil
	}

	p = r.build(ctx, sessionID)
	r.pages[sessionID] = p
	r.logger.Debug("page created", zap.String("session_id", sessionID))
	return p, nil
}

func (r *Registry) build(ctx context.Context, sessionID string) *Page {
	logger := r.logger.With(zap.String("session_id", sessionID))

	renderer := toast.NewHTMLRenderer()
	toasts := toast.NewManager(
		toast.WithScheduler(r.scheduler),
		toast.WithRenderer(renderer),
		toast.WithLogger(logger),
		toast.WithDefaultTimeout(r.settings.ToastTimeout),
		toast.WithExitGrace(r.settings.ToastExitGrace),
	)

	board := badge.NewBoard()
	indicator := &badge.Indicator{}
	board.Register(badge.ClassSelector, indicator)
	board.Register(badge.IDSelector, indicator)

	store := cart.NewStore(ctx, r.storage(sessionID),
		cart.WithLogger(logger),
		cart.WithNotifier(toasts),
		cart.WithBadges(board),
		cart.WithKeys(r.settings.CartKey, r.settings.LegacyCartKey),
	)

	p := &Page{
		ID:       sessionID,
		Cart:     store,
		Toasts:   toasts,
		Renderer: renderer,
		Badges:   board,
		Badge:    indicator,
		lastSeen: r.now(),
	}
	if r.publisher != nil {
		p.unsubscribe = append(p.unsubscribe, store.Subscribe(r.publisher.Listener(sessionID)))
	}

	// the badge reflects the stored cart as soon as the page loads
	store.UpdateCartCount(ctx)
	return p
}

// Evict drops the page of sessionID and reports whether it existed.
func (r *Registry) Evict(sessionID string) bool {
	r.mu.Lock()
	p, ok := r.pages[sessionID]
	delete(r.pages, sessionID)
	r.mu.Unlock()

	if ok {
		p.Close()
	}
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pages)
}

func (r *Registry) cleanupLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.expireIdle()
		case <-r.stopCleanup:
			return
		}
	}
}

// expireIdle evicts every page untouched for longer than the idle TTL.
func (r *Registry) expireIdle() int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var expired []*Page
	for id, p := range r.pages {
		if p.idleSince().Before(cutoff) {
			expired = append(expired, p)
			delete(r.pages, id)
		}
	}
	r.mu.Unlock()

	for _, p := range expired {
		p.Close()
	}
	if len(expired) > 0 {
		r.logger.Debug("idle pages evicted", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Close stops the cleanup loop and closes every page.
func (r *Registry) Close() error {
	r.closeOnce.Do(func() {
		close(r.stopCleanup)
		r.wg.Wait()

		r.mu.Lock()
		pages := r.pages
		r.pages = make(map[string]*Page)
		r.mu.Unlock()

		for _, p := range pages {
			p.Close()
		}
	})
	return nil
}
