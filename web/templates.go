// Package web holds the HTML templates rendered by the router.
package web

import (
	"embed"
	"html/template"
	"time"
)

//go:embed templates/*.html
var files embed.FS

// Templates parses every page together so they share the layout blocks.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"date": func(t time.Time) string { return t.Format("January 2, 2006") },
	}).ParseFS(files, "templates/*.html")
}
