// Package toast shows short-lived feedback messages. The lifecycle state
// machine lives in Manager; drawing is delegated to a Renderer.
package toast

import "time"

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
)

// ParseKind maps unknown kinds to KindInfo.
func ParseKind(s string) Kind {
	switch k := Kind(s); k {
	case KindSuccess, KindError, KindInfo, KindWarning:
		return k
	default:
		return KindInfo
	}
}

type State string

const (
	StateEntering State = "entering"
	StateVisible  State = "visible"
	StateLeaving  State = "leaving"
	StateRemoved  State = "removed"
)

// Toast is the handle returned by Show. Its fields are fixed at creation;
// the lifecycle state is read through State.
type Toast struct {
	ID        string
	Message   string
	Kind      Kind
	Timeout   time.Duration
	CreatedAt time.Time

	mgr   *Manager
	state State
	timer Timer
}

// State returns the current lifecycle state.
func (t *Toast) State() State {
	t.mgr.mu.Lock()
	defer t.mgr.mu.Unlock()
	return t.state
}

// Close is the close affordance: it starts the exit transition.
func (t *Toast) Close() {
	t.mgr.Remove(t)
}

// View is an immutable snapshot handed to renderers and hooks.
type View struct {
	ID      string        `json:"id"`
	Message string        `json:"message"`
	Kind    Kind          `json:"kind"`
	State   State         `json:"state"`
	Timeout time.Duration `json:"timeout"`
}

func (t *Toast) view() View {
	return View{ID: t.ID, Message: t.Message, Kind: t.Kind, State: t.state, Timeout: t.Timeout}
}
