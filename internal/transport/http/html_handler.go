package http

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"dscleaner/pkg/contracts"
)

//go:embed web/index.html
var webFS embed.FS

var indexTemplate = template.Must(template.ParseFS(webFS, "web/index.html"))

type indexPage struct {
	Version     string
	MaxUploadMB int64
}

// ServeMainApp serves the single-page upload and cleaning UI
func ServeMainApp(maxUploadBytes int64, logger *slog.Logger) http.HandlerFunc {
	page := indexPage{
		Version:     contracts.Version,
		MaxUploadMB: maxUploadBytes >> 20,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := indexTemplate.Execute(&buf, page); err != nil {
			logger.ErrorContext(r.Context(), "failed to render index page", slog.String("error", err.Error()))
			http.Error(w, "Error rendering page", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(buf.Bytes())
	}
}
