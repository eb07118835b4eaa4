package toast

import (
	"bytes"
	"html/template"
	"strings"
	"sync"
)

// Renderer turns lifecycle transitions into visible output.
type Renderer interface {
	Mount(v View)
	Update(v View)
	Unmount(id string)
}

type nopRenderer struct{}

func (nopRenderer) Mount(View)     {}
func (nopRenderer) Update(View)    {}
func (nopRenderer) Unmount(string) {}

var icons = map[Kind]template.HTML{
	KindSuccess: `<svg width="20" height="20" viewBox="0 0 20 20" fill="none"><circle cx="10" cy="10" r="9" stroke="currentColor" stroke-width="2"/><path d="M6 10L9 13L14 7" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round"/></svg>`,
	KindError:   `<svg width="20" height="20" viewBox="0 0 20 20" fill="none"><circle cx="10" cy="10" r="9" stroke="currentColor" stroke-width="2"/><path d="M10 6V11M10 14V14.5" stroke="currentColor" stroke-width="2" stroke-linecap="round"/></svg>`,
	KindWarning: `<svg width="20" height="20" viewBox="0 0 20 20" fill="none"><path d="M10 2L2 17H18L10 2Z" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round"/><path d="M10 8V12M10 15V15.5" stroke="currentColor" stroke-width="2" stroke-linecap="round"/></svg>`,
	KindInfo:    `<svg width="20" height="20" viewBox="0 0 20 20" fill="none"><circle cx="10" cy="10" r="9" stroke="currentColor" stroke-width="2"/><path d="M10 9V14M10 6V6.5" stroke="currentColor" stroke-width="2" stroke-linecap="round"/></svg>`,
}

const closeIcon template.HTML = `<svg width="16" height="16" viewBox="0 0 16 16" fill="none"><path d="M12 4L4 12M4 4L12 12" stroke="currentColor" stroke-width="2" stroke-linecap="round"/></svg>`

// Icon returns the fixed SVG for k; unknown kinds get the info icon.
func Icon(k Kind) template.HTML {
	if icon, ok := icons[k]; ok {
		return icon
	}
	return icons[KindInfo]
}

// Class returns the CSS classes for a toast in the given state.
func Class(k Kind, s State) string {
	classes := []string{"toast", "toast-" + string(ParseKind(string(k)))}
	switch s {
	case StateVisible:
		classes = append(classes, "toast-show")
	case StateLeaving:
		classes = append(classes, "toast-hide")
	}
	return strings.Join(classes, " ")
}

var markup = template.Must(template.New("markup").Funcs(template.FuncMap{
	"icon":      Icon,
	"class":     Class,
	"closeIcon": func() template.HTML { return closeIcon },
}).Parse(`
{{- define "toast" -}}
<div class="{{class .Kind .State}}" role="alert" aria-live="assertive" data-toast-id="{{.ID}}">
<div class="toast-icon">{{icon .Kind}}</div>
<div class="toast-message">{{.Message}}</div>
<button class="toast-close" aria-label="Fechar notificação" type="button" data-toast-close="{{.ID}}">{{closeIcon}}</button>
</div>
{{- end -}}
{{- define "container" -}}
<div id="toast-container" class="toast-container" aria-live="polite" aria-atomic="true">
{{- range .}}{{template "toast" .}}{{end -}}
</div>
{{- end -}}
`))

// HTMLRenderer keeps the mounted toasts in arrival order and renders them as
// HTML. Messages always go through html/template escaping.
type HTMLRenderer struct {
	mu    sync.RWMutex
	order []string
	views map[string]View
}

func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{views: make(map[string]View)}
}

func (r *HTMLRenderer) Mount(v View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.views[v.ID]; !ok {
		r.order = append(r.order, v.ID)
	}
	r.views[v.ID] = v
}

func (r *HTMLRenderer) Update(v View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.views[v.ID]; ok {
		r.views[v.ID] = v
	}
}

func (r *HTMLRenderer) Unmount(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.views[id]; !ok {
		return
	}
	delete(r.views, id)
	for i, o := range r.order {
		if o == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Mounted returns the views currently in the container.
func (r *HTMLRenderer) Mounted() []View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]View, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.views[id])
	}
	return out
}

// Render returns the container with every mounted toast.
func (r *HTMLRenderer) Render() (string, error) {
	var buf bytes.Buffer
	if err := markup.ExecuteTemplate(&buf, "container", r.Mounted()); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToast returns the markup of a single toast.
func RenderToast(v View) (string, error) {
	var buf bytes.Buffer
	if err := markup.ExecuteTemplate(&buf, "toast", v); err != nil {
		return "", err
	}
	return buf.String(), nil
}
