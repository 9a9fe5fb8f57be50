package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"

	"github.com/livetv/livetv/models"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const layoutFile = "templates/layout.html"

// Notice is a one-shot notification shown on the next rendered page.
type Notice struct {
	Kind string
	Text string
}

func Success(text string) Notice { return Notice{Kind: "success", Text: text} }
func Failure(text string) Notice { return Notice{Kind: "error", Text: text} }

// ConfigErrorPage is the data for the full-page configuration error.
type ConfigErrorPage struct {
	Message  string
	BackLink bool
}

// ConfigErrorMessage turns a construction or fetch failure into the message
// shown on the configuration error page.
func ConfigErrorMessage(err error) string {
	var fe *models.FetchError
	switch {
	case errors.Is(err, models.ErrStoreUnavailable):
		return "The catalog store is not configured. Please add your database environment variables."
	case errors.As(err, &fe):
		var se *models.StoreError
		if errors.As(fe.Err, &se) {
			return "Failed to fetch " + fe.Entity + ": " + se.Message
		}
		return "Failed to fetch " + fe.Entity + ": " + fe.Err.Error()
	default:
		return "Failed to connect to database"
	}
}

// Renderer executes page templates wrapped in the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		if file == layoutFile {
			continue
		}
		name := path.Base(file)
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Renderer{pages: pages}, nil
}

// Render writes the named page with the given status. The page is buffered so
// a template failure never produces a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data any) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// StaticHandler serves the embedded assets under /static/.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServerFS(sub))
}

var funcs = template.FuncMap{
	"default": func(fallback, v string) string {
		if v == "" {
			return fallback
		}
		return v
	},
}
