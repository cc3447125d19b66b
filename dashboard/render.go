package dashboard

import (
	"embed"
	"html/template"
	"io"
	"time"

	"github.com/fenilmodi00/ipo-tracker/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// RenderOptions carries the server-side settings the page needs
type RenderOptions struct {
	BasePath       string
	ActionPrefix   string
	Limit          int
	SearchDebounce time.Duration
}

type pageData struct {
	View         ViewModel
	BasePath     string
	ActionPrefix string
	LiveURL      string
	HistoryURL   string
	PrevURL      string
	NextURL      string
	ReturnQuery  template.URL
	DebounceMS   int64
}

// Renderer executes the embedded dashboard template
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/dashboard.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the dashboard page for vm
func (r *Renderer) Render(w io.Writer, vm ViewModel, opts RenderOptions) error {
	if opts.BasePath == "" {
		opts.BasePath = "/"
	}
	if opts.Limit < 1 {
		opts.Limit = DefaultLimit
	}

	state := vm.State
	link := func(s State) string {
		return opts.BasePath + "?" + BuildQuery(s, opts.Limit).Encode()
	}

	data := pageData{
		View:         vm,
		BasePath:     opts.BasePath,
		ActionPrefix: opts.ActionPrefix,
		LiveURL:      link(state.WithTab(models.TabLive)),
		HistoryURL:   link(state.WithTab(models.TabHistory)),
		PrevURL:      link(state.WithPage(vm.Pagination.Page-1, vm.Pagination.TotalPages)),
		NextURL:      link(state.WithPage(vm.Pagination.Page+1, vm.Pagination.TotalPages)),
		ReturnQuery:  template.URL(BuildQuery(state, opts.Limit).Encode()),
		DebounceMS:   opts.SearchDebounce.Milliseconds(),
	}
	return r.tmpl.Execute(w, data)
}
