package toast

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transitionLog struct {
	mu     sync.Mutex
	states map[string][]State
}

func (l *transitionLog) record(v View) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states[v.ID] = append(l.states[v.ID], v.State)
}

func (l *transitionLog) of(id string) []State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]State(nil), l.states[id]...)
}

func setupManager(t *testing.T) (*Manager, *ManualScheduler, *HTMLRenderer, *transitionLog) {
	t.Helper()
	sched := NewManualScheduler()
	renderer := NewHTMLRenderer()
	log := &transitionLog{states: make(map[string][]State)}

	m := NewManager(WithScheduler(sched), WithRenderer(renderer))
	m.OnStateChange(log.record)
	return m, sched, renderer, log
}

func TestShow_Defaults(t *testing.T) {
	m, _, _, _ := setupManager(t)

	toast := m.Show("hello")
	assert.Equal(t, KindInfo, toast.Kind)
	assert.Equal(t, DefaultTimeout, toast.Timeout)
	assert.Equal(t, StateEntering, toast.State())
	assert.NotEmpty(t, toast.ID)
}

func TestShow_FullLifecycle(t *testing.T) {
	m, sched, renderer, log := setupManager(t)

	toast := m.Show("<b>hi</b>", WithKind(KindSuccess))
	require.Len(t, renderer.Mounted(), 1)

	assert.Equal(t, 1, sched.Frame())
	assert.Equal(t, StateVisible, toast.State())

	sched.Advance(DefaultTimeout - time.Millisecond)
	assert.Equal(t, StateVisible, toast.State())

	sched.Advance(time.Millisecond)
	assert.Equal(t, StateLeaving, toast.State())
	require.Len(t, renderer.Mounted(), 1, "stays mounted during the exit animation")

	sched.Advance(DefaultExitGrace)
	assert.Equal(t, StateRemoved, toast.State())
	assert.Empty(t, renderer.Mounted())
	assert.Empty(t, m.Active())

	assert.Equal(t, []State{StateEntering, StateVisible, StateLeaving, StateRemoved}, log.of(toast.ID))
}

func TestRemove_BeforeTimeout_RemovedExactlyOnce(t *testing.T) {
	m, sched, _, log := setupManager(t)

	toast := m.Show("bye")
	sched.Frame()

	m.Remove(toast)
	m.Remove(toast)
	assert.Equal(t, StateLeaving, toast.State())

	// the auto-dismiss deadline passes while leaving
	sched.Advance(DefaultTimeout + DefaultExitGrace)
	assert.Equal(t, StateRemoved, toast.State())

	m.Remove(toast)
	assert.Equal(t, []State{StateEntering, StateVisible, StateLeaving, StateRemoved}, log.of(toast.ID))
	assert.Zero(t, sched.Pending())
}

func TestRemove_BeforeFirstFrame(t *testing.T) {
	m, sched, _, log := setupManager(t)

	toast := m.Show("quick")
	toast.Close()

	sched.Frame()
	assert.Equal(t, StateLeaving, toast.State(), "a late frame must not revive a closing toast")

	sched.Advance(DefaultExitGrace)
	assert.Equal(t, StateRemoved, toast.State())
	assert.Equal(t, []State{StateEntering, StateLeaving, StateRemoved}, log.of(toast.ID))
}

func TestShow_NonPositiveTimeoutStaysUntilClosed(t *testing.T) {
	for _, timeout := range []time.Duration{0, -time.Second} {
		m, sched, _, _ := setupManager(t)

		toast := m.ShowToast("sticky", KindWarning, timeout)
		sched.Advance(time.Hour)
		assert.Equal(t, StateVisible, toast.State())

		toast.Close()
		sched.Advance(DefaultExitGrace)
		assert.Equal(t, StateRemoved, toast.State())
	}
}

func TestShow_StacksInArrivalOrder(t *testing.T) {
	m, sched, renderer, _ := setupManager(t)

	first := m.Show("one")
	second := m.Show("one")
	third := m.Show("two", WithKind(KindError))
	sched.Frame()

	active := m.Active()
	require.Len(t, active, 3)
	assert.Equal(t, first.ID, active[0].ID)
	assert.Equal(t, second.ID, active[1].ID)
	assert.Equal(t, third.ID, active[2].ID)
	assert.Len(t, renderer.Mounted(), 3)
}

func TestClearAll(t *testing.T) {
	m, sched, renderer, _ := setupManager(t)

	a := m.Show("a")
	b := m.Show("b", WithTimeout(0))
	sched.Frame()

	m.ClearAll()
	assert.Equal(t, StateLeaving, a.State())
	assert.Equal(t, StateLeaving, b.State())

	sched.Advance(DefaultExitGrace)
	assert.Empty(t, m.Active())
	assert.Empty(t, renderer.Mounted())
}

func TestRemove_UnknownOrNil(t *testing.T) {
	m, _, _, _ := setupManager(t)
	other := NewManager(WithScheduler(NewManualScheduler()))

	foreign := other.Show("elsewhere")
	m.Remove(nil)
	m.Remove(foreign)
	assert.Equal(t, StateEntering, foreign.State())

	assert.False(t, m.RemoveByID("missing"))
}

func TestRemoveByID(t *testing.T) {
	m, sched, _, _ := setupManager(t)

	toast := m.Show("by id")
	sched.Frame()
	assert.True(t, m.RemoveByID(toast.ID))
	assert.Equal(t, StateLeaving, toast.State())
}

func TestNotify_UsesDefaultTimeout(t *testing.T) {
	sched := NewManualScheduler()
	m := NewManager(WithScheduler(sched), WithDefaultTimeout(time.Second), WithExitGrace(100*time.Millisecond))

	m.Notify("saved", KindSuccess)
	active := m.Active()
	require.Len(t, active, 1)
	assert.Equal(t, KindSuccess, active[0].Kind)

	sched.Advance(time.Second + 100*time.Millisecond)
	assert.Empty(t, m.Active())
}

func TestWithKind_UnknownFallsBackToInfo(t *testing.T) {
	m, _, _, _ := setupManager(t)
	toast := m.Show("x", WithKind(Kind("fancy")))
	assert.Equal(t, KindInfo, toast.Kind)
}

func TestRealScheduler_RemovesWithinTimeoutPlusGrace(t *testing.T) {
	m := NewManager(WithDefaultTimeout(20*time.Millisecond), WithExitGrace(10*time.Millisecond))

	toast := m.Show("real timers")
	require.Eventually(t, func() bool {
		return toast.State() == StateRemoved
	}, time.Second, 5*time.Millisecond, "toast was not removed")
	assert.Empty(t, m.Active())
}

func TestRealScheduler_ConcurrentClose(t *testing.T) {
	m := NewManager(WithDefaultTimeout(5*time.Millisecond), WithExitGrace(5*time.Millisecond))

	var wg sync.WaitGroup
	toasts := make([]*Toast, 10)
	for i := range toasts {
		toasts[i] = m.Show("concurrent")
	}
	for _, toast := range toasts {
		wg.Add(1)
		go func(tt *Toast) {
			defer wg.Done()
			tt.Close()
		}(toast)
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		return len(m.Active()) == 0
	}, time.Second, 5*time.Millisecond)
}
