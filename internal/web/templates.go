package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

type templates struct {
	index *template.Template
}

func parseTemplates() (*templates, error) {
	t, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	index := t.Lookup("index.html")
	if index == nil {
		return nil, fmt.Errorf("template index.html not found")
	}
	return &templates{index: index}, nil
}

// render executes the page into a buffer first so a template failure never
// leaks a half-written page.
func (s *Server) render(w http.ResponseWriter, data indexData) {
	var buf bytes.Buffer
	if err := s.templates.index.Execute(&buf, data); err != nil {
		s.log.Error("render index", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}
