package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"

	"github.com/courspresso/courspresso-web/internal/models"
	"github.com/courspresso/courspresso-web/internal/utils"
)

//go:embed templates
var files embed.FS

// Raw HTML in markdown input is escaped (WithUnsafe is not set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps()),
)

// Viewer is what the layout knows about the current visitor.
type Viewer struct {
	Email         string
	Role          string
	Authenticated bool
	Admin         bool
}

// Page is the data every template receives.
type Page struct {
	Title     string
	Viewer    Viewer
	CSRFField template.HTML
	Flash     string
	Error     string
	Data      any
}

type Renderer struct {
	pages map[string]*template.Template
	log   *zap.Logger
}

var funcs = template.FuncMap{
	"markdown": func(md string) template.HTML {
		var buf bytes.Buffer
		if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
			return template.HTML(template.HTMLEscapeString(md))
		}
		return template.HTML(buf.String())
	},
	"stars": func(n int) string {
		if n < 0 {
			n = 0
		}
		if n > 5 {
			n = 5
		}
		return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
	},
	"join":  strings.Join,
	"add":   func(a, b int) int { return a + b },
	"seq":   seq,
	"has":   has,
	"lower": strings.ToLower,
	"card":  card,
}

// CourseCard feeds the course_card partial.
type CourseCard struct {
	Course    models.Course
	Saved     bool
	ShowSave  bool
	CSRFField template.HTML
	Back      string
}

func card(c models.Course, saved models.SavedSet, p Page, back string) CourseCard {
	return CourseCard{
		Course:    c,
		Saved:     saved.Has(c.ID),
		ShowSave:  p.Viewer.Authenticated,
		CSRFField: p.CSRFField,
		Back:      back,
	}
}

func seq(from, to int) []int {
	var s []int
	for i := from; i <= to; i++ {
		s = append(s, i)
	}
	return s
}

func has(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// New parses the layout and every page once at startup.
func New(log *zap.Logger) (*Renderer, error) {
	base, err := template.New("").Funcs(funcs).ParseFS(files, "templates/layout.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	pages, err := fs.Glob(files, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(pages)), log: log}
	for _, p := range pages {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if t, err = t.ParseFS(files, p); err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
		r.pages[strings.TrimSuffix(path.Base(p), ".html")] = t
	}
	return r, nil
}

// Render writes the named page. Targeted htmx requests get the page body
// only; boosted navigation swaps the whole document body.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, status int, name string, p Page) {
	t, ok := r.pages[name]
	if !ok {
		r.log.Error("unknown template", zap.String("name", name))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	entry := "layout"
	if utils.IsHTMX(req) && req.Header.Get("HX-Boosted") != "true" {
		entry = "content"
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, entry, p); err != nil {
		r.log.Error("render template", zap.String("name", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
