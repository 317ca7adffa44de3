package httpserver

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"

	"limitedtees.shop/storefront/internal/i18n"
	"limitedtees.shop/storefront/internal/nav"
)

// renderer parses templates once, or on every call in dev mode.
type renderer struct {
	fsys  fs.FS
	dev   bool
	funcs template.FuncMap

	once   sync.Once
	cached *template.Template
	err    error
}

func newRenderer(fsys fs.FS, dev bool, bundle *i18n.Bundle) (*renderer, error) {
	r := &renderer{fsys: fsys, dev: dev, funcs: funcMap(bundle)}
	if !dev {
		if _, err := r.templates(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func funcMap(bundle *i18n.Bundle) template.FuncMap {
	return template.FuncMap{
		"t":  bundle.T,
		"tf": bundle.Tf,
		"jsonld": func(s string) template.JS {
			return template.JS(s)
		},
		"navHref": nav.Href,
		"dict":    dict,
	}
}

func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		k, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
		}
		m[k] = pairs[i+1]
	}
	return m, nil
}

func (r *renderer) templates() (*template.Template, error) {
	if r.dev {
		return r.parse()
	}
	r.once.Do(func() { r.cached, r.err = r.parse() })
	return r.cached, r.err
}

func (r *renderer) parse() (*template.Template, error) {
	var files []string
	if err := fs.WalkDir(r.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".tmpl") {
			files = append(files, p)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no templates found")
	}
	return template.New("_root").Funcs(r.funcs).ParseFS(r.fsys, files...)
}

// render executes the named template into a buffer so a failure can still
// produce a clean 500.
func (r *renderer) render(w http.ResponseWriter, status int, name string, data any) {
	t, err := r.templates()
	if err != nil {
		http.Error(w, fmt.Sprintf("template parse error: %v", err), http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		http.Error(w, fmt.Sprintf("template exec error: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
