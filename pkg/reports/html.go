// Package reports renders audit reports for the terminal and as HTML.
package reports

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed templates/index.html
var templatesFS embed.FS

func validateEmbeddedTemplates() error {
	entries, err := templatesFS.ReadDir("templates")
	if err != nil {
		return fmt.Errorf("failed to read embedded templates root: %w", err)
	}

	if len(entries) == 0 {
		return fmt.Errorf("no embedded templates found (go:embed likely misconfigured)")
	}

	for _, e := range entries {
		if !e.IsDir() && e.Name() == "index.html" {
			return nil
		}
	}
	return fmt.Errorf("index.html not found in embedded templates")
}

func parseTemplate() (*template.Template, error) {
	tplBytes, err := templatesFS.ReadFile("templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}

	tpl, err := template.New("report").Funcs(template.FuncMap{
		// Percent helper used for the donut chart + progress bars.
		"pct": func(part, total int) int {
			if total <= 0 {
				return 0
			}
			return int(float64(part) / float64(total) * 100.0)
		},
		"lower": strings.ToLower,
		"add":   func(a, b int) int { return a + b },
	}).Parse(string(tplBytes))
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return tpl, nil
}

// RenderHTML writes the report view as a standalone HTML page.
func RenderHTML(w io.Writer, view ReportView) error {
	tpl, err := parseTemplate()
	if err != nil {
		return err
	}
	if err := tpl.Execute(w, view); err != nil {
		return fmt.Errorf("render template: %w", err)
	}
	return nil
}

// GenerateHTMLReport writes the HTML page to outputPath.
func GenerateHTMLReport(view ReportView, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	return RenderHTML(f, view)
}

// Router serves the generated file at "/".
func Router(outputPath string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, outputPath)
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

// ServeHTMLReport writes the report and serves it on localhost:port until the server stops.
func ServeHTMLReport(view ReportView, outputPath string, port string) error {
	if err := validateEmbeddedTemplates(); err != nil {
		return err
	}

	if err := GenerateHTMLReport(view, outputPath); err != nil {
		return fmt.Errorf("failed to generate HTML report: %w", err)
	}

	fmt.Printf("Serving HTML report at http://localhost:%s\n", port)
	return http.ListenAndServe("localhost:"+port, Router(outputPath))
}
