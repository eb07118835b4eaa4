package toast

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultTimeout   = 3 * time.Second
	DefaultExitGrace = 300 * time.Millisecond
)

// Manager owns the active toasts and drives each one through
// entering -> visible -> leaving -> removed.
type Manager struct {
	mu             sync.Mutex
	scheduler      Scheduler
	renderer       Renderer
	logger         *zap.Logger
	defaultTimeout time.Duration
	exitGrace      time.Duration
	active         []*Toast
	hooks          []func(View)
}

type Option func(*Manager)

func WithScheduler(s Scheduler) Option {
	return func(m *Manager) { m.scheduler = s }
}

func WithRenderer(r Renderer) Option {
	return func(m *Manager) { m.renderer = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

func WithDefaultTimeout(d time.Duration) Option {
	return func(m *Manager) { m.defaultTimeout = d }
}

// WithExitGrace sets how long a leaving toast stays mounted for its exit animation.
func WithExitGrace(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.exitGrace = d
		}
	}
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		scheduler:      RealScheduler{},
		renderer:       nopRenderer{},
		logger:         zap.NewNop(),
		defaultTimeout: DefaultTimeout,
		exitGrace:      DefaultExitGrace,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type showConfig struct {
	kind    Kind
	timeout time.Duration
}

type ShowOption func(*showConfig)

func WithKind(k Kind) ShowOption {
	return func(c *showConfig) { c.kind = ParseKind(string(k)) }
}

// WithTimeout overrides the auto-dismiss delay; zero or negative keeps the
// toast until it is closed explicitly.
func WithTimeout(d time.Duration) ShowOption {
	return func(c *showConfig) { c.timeout = d }
}

// OnStateChange registers fn to observe every transition. Hooks run with
// the manager locked and must not call back into it.
func (m *Manager) OnStateChange(fn func(View)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, fn)
}

// Show mounts a new toast and schedules its reveal and, when the timeout
// is positive, its dismissal.
func (m *Manager) Show(message string, opts ...ShowOption) *Toast {
	cfg := showConfig{kind: KindInfo, timeout: m.defaultTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	t := &Toast{
		ID:        uuid.NewString(),
		Message:   message,
		Kind:      cfg.kind,
		Timeout:   cfg.timeout,
		CreatedAt: time.Now(),
		mgr:       m,
		state:     StateEntering,
	}

	m.mu.Lock()
	m.active = append(m.active, t)
	m.renderer.Mount(t.view())
	m.emit(t)
	if t.Timeout > 0 {
		t.timer = m.scheduler.AfterFunc(t.Timeout, func() { m.Remove(t) })
	}
	m.mu.Unlock()

	m.scheduler.NextFrame(func() { m.reveal(t) })

	m.logger.Debug("toast shown", zap.String("toast_id", t.ID), zap.String("kind", string(t.Kind)), zap.Duration("timeout", t.Timeout))
	return t
}

// ShowToast is the positional form of Show.
func (m *Manager) ShowToast(message string, kind Kind, timeout time.Duration) *Toast {
	return m.Show(message, WithKind(kind), WithTimeout(timeout))
}

// Notify shows message with the default timeout.
func (m *Manager) Notify(message string, kind Kind) {
	m.Show(message, WithKind(kind))
}

// Remove starts the exit transition. Unknown, leaving or removed toasts
// are ignored, so a racing timer and an explicit close remove it once.
func (m *Manager) Remove(t *Toast) {
	if t == nil || t.mgr != m {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if t.state != StateEntering && t.state != StateVisible {
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}

	t.state = StateLeaving
	m.renderer.Update(t.view())
	m.emit(t)

	m.scheduler.AfterFunc(m.exitGrace, func() { m.detach(t) })
}

// RemoveByID removes the active toast with id and reports whether one existed.
func (m *Manager) RemoveByID(id string) bool {
	t := m.Get(id)
	if t == nil {
		return false
	}
	m.Remove(t)
	return true
}

// ClearAll removes every active toast.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	toasts := make([]*Toast, len(m.active))
	copy(toasts, m.active)
	m.mu.Unlock()

	for _, t := range toasts {
		m.Remove(t)
	}
}

// Get returns the active toast with id, or nil.
func (m *Manager) Get(id string) *Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.active {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Active returns the mounted toasts in arrival order.
func (m *Manager) Active() []View {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]View, len(m.active))
	for i, t := range m.active {
		out[i] = t.view()
	}
	return out
}

func (m *Manager) reveal(t *Toast) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// a toast closed before its first frame stays leaving
	if t.state != StateEntering {
		return
	}
	t.state = StateVisible
	m.renderer.Update(t.view())
	m.emit(t)
}

func (m *Manager) detach(t *Toast) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t.state != StateLeaving {
		return
	}
	t.state = StateRemoved
	for i, a := range m.active {
		if a == t {
			m.active = append(m.active[:i], m.active[i+1:]...)
			break
		}
	}
	m.renderer.Unmount(t.ID)
	m.emit(t)

	m.logger.Debug("toast removed", zap.String("toast_id", t.ID))
}

// emit must be called with m.mu held.
func (m *Manager) emit(t *Toast) {
	v := t.view()
	for _, fn := range m.hooks {
		fn(v)
	}
}
