// Package report renders HTML profiling reports for a dataset table.
package report

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"dscleaner/internal/dataset"
)

// Mode names a Reporter implementation
type Mode string

const (
	ModeMinimal Mode = "minimal"
	ModeRich    Mode = "rich"
)

// DefaultPreviewRows is the number of rows the rich report shows
const DefaultPreviewRows = 10

// Reporter turns a table into a self-contained HTML document.
type Reporter interface {
	Name() string
	Generate(ctx context.Context, t *dataset.Table) ([]byte, error)
}

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"num": formatNumber,
	"pct": func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
}).ParseFS(templateFS, "templates/*.html"))

// Options tunes report content
type Options struct {
	PreviewRows int
}

// New returns the reporter for mode. An empty mode selects the rich reporter.
func New(mode Mode, opts Options) (Reporter, error) {
	if opts.PreviewRows <= 0 {
		opts.PreviewRows = DefaultPreviewRows
	}
	switch Mode(strings.ToLower(string(mode))) {
	case ModeRich, "":
		return &RichReporter{opts: opts}, nil
	case ModeMinimal:
		return &MinimalReporter{}, nil
	default:
		return nil, fmt.Errorf("unknown report mode %q", mode)
	}
}

// MinimalReporter renders the overview, column information and statistical summary.
type MinimalReporter struct{}

// Name implements Reporter
func (r *MinimalReporter) Name() string { return string(ModeMinimal) }

// Generate implements Reporter
func (r *MinimalReporter) Generate(ctx context.Context, t *dataset.Table) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return render("minimal.html", buildOverview(t))
}

// RichReporter adds duplicates, distinct and top values, outliers, correlations
// and a data preview to the minimal report.
type RichReporter struct {
	opts Options
}

// Name implements Reporter
func (r *RichReporter) Name() string { return string(ModeRich) }

// Generate implements Reporter
func (r *RichReporter) Generate(ctx context.Context, t *dataset.Table) ([]byte, error) {
	p, err := buildRich(ctx, t, r.opts.PreviewRows)
	if err != nil {
		return nil, err
	}
	return render("rich.html", p)
}

func render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}
