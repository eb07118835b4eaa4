package toast

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderToast_EscapesMessage(t *testing.T) {
	out, err := RenderToast(View{ID: "t1", Message: "<b>hi</b>", Kind: KindSuccess, State: StateVisible})
	require.NoError(t, err)

	assert.Contains(t, out, "&lt;b&gt;hi&lt;/b&gt;")
	assert.NotContains(t, out, "<b>hi</b>")
	assert.Contains(t, out, `class="toast toast-success toast-show"`)
	assert.Contains(t, out, `role="alert"`)
	assert.Contains(t, out, `aria-label="Fechar notificação"`)
}

func TestRenderToast_ScriptInjection(t *testing.T) {
	out, err := RenderToast(View{ID: "t2", Message: `<script>alert("x")</script>`, Kind: KindError})
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
}

func TestClass_PerState(t *testing.T) {
	assert.Equal(t, "toast toast-info", Class(KindInfo, StateEntering))
	assert.Equal(t, "toast toast-warning toast-show", Class(KindWarning, StateVisible))
	assert.Equal(t, "toast toast-error toast-hide", Class(KindError, StateLeaving))
	assert.Equal(t, "toast toast-info", Class(Kind("bogus"), StateEntering))
}

func TestIcon_PerKind(t *testing.T) {
	seen := map[string]bool{}
	for _, k := range []Kind{KindSuccess, KindError, KindWarning, KindInfo} {
		icon := string(Icon(k))
		assert.True(t, strings.HasPrefix(icon, "<svg"))
		seen[icon] = true
	}
	assert.Len(t, seen, 4)
	assert.Equal(t, Icon(KindInfo), Icon(Kind("other")))
}

func TestHTMLRenderer_ContainerOrderAndUnmount(t *testing.T) {
	r := NewHTMLRenderer()
	r.Mount(View{ID: "a", Message: "first", Kind: KindInfo, State: StateEntering})
	r.Mount(View{ID: "b", Message: "second", Kind: KindInfo, State: StateEntering})
	r.Update(View{ID: "a", Message: "first", Kind: KindInfo, State: StateVisible})
	r.Update(View{ID: "ghost", Message: "never mounted"})

	out, err := r.Render()
	require.NoError(t, err)
	assert.Contains(t, out, `id="toast-container"`)
	assert.Contains(t, out, `aria-live="polite"`)
	assert.Less(t, strings.Index(out, "first"), strings.Index(out, "second"))
	assert.NotContains(t, out, "never mounted")
	assert.Contains(t, out, "toast-show")

	r.Unmount("a")
	r.Unmount("a")
	out, err = r.Render()
	require.NoError(t, err)
	assert.NotContains(t, out, "first")
	assert.Len(t, r.Mounted(), 1)
}
