// Command dsclean applies the dataset cleaner pipeline to a file on disk.
//
//	dsclean -in sales.xlsx -missing fill_median -dedupe -outliers -target label -out ./out -report
//
// Steps run in the same order the web UI offers them: missing values,
// duplicates, outliers, then the optional train/test split.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"

	"dscleaner/internal/config"
	"dscleaner/internal/dataset"
	"dscleaner/internal/exporter"
	"dscleaner/internal/infrastructure"
	"dscleaner/internal/ingest"
	"dscleaner/internal/report"
	"dscleaner/internal/validation"
	"dscleaner/pkg/contracts"
)

type options struct {
	in       string
	out      string
	missing  string
	fill     string
	dedupe   bool
	outliers bool
	target   string
	testSize float64
	stratify bool
	report   bool
	bom      bool
	version  bool
}

// summary describes what a run produced
type summary struct {
	Shape      [2]int
	Removed    int
	Files      []string
	Stratified bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", slog.String("error", err.Error()))
		os.Exit(1)
	}

	opts, err := parseFlags(os.Args[1:], cfg.Split.DefaultTestSize, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if opts.version {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	res, err := run(context.Background(), opts, cfg, logger)
	if err != nil {
		logger.Error("Cleaning failed", slog.String("input", opts.in), slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Printf("Cleaned dataset: %d rows x %d columns (%d rows removed)\n", res.Shape[0], res.Shape[1], res.Removed)
	if opts.target != "" {
		fmt.Printf("Split on %q (stratified: %v)\n", opts.target, res.Stratified)
	}
	for _, f := range res.Files {
		fmt.Printf("  wrote %s\n", f)
	}
}

func parseFlags(args []string, defaultTestSize float64, output io.Writer) (*options, error) {
	fs := flag.NewFlagSet("dsclean", flag.ContinueOnError)
	fs.SetOutput(output)

	opts := &options{}
	fs.StringVar(&opts.in, "in", "", "input .csv or .xlsx file (required)")
	fs.StringVar(&opts.out, "out", ".", "output directory")
	fs.StringVar(&opts.missing, "missing", "", "missing-value method: "+methodList())
	fs.StringVar(&opts.fill, "fill", "", "literal used by -missing fill_value")
	fs.BoolVar(&opts.dedupe, "dedupe", false, "remove duplicate rows")
	fs.BoolVar(&opts.outliers, "outliers", false, "remove rows with IQR outliers")
	fs.StringVar(&opts.target, "target", "", "target column; enables the train/test split")
	fs.Float64Var(&opts.testSize, "test-size", defaultTestSize, "fraction of rows held out for testing")
	fs.BoolVar(&opts.stratify, "stratify", true, "stratify the split on the target column")
	fs.BoolVar(&opts.report, "report", false, "write an HTML profile report")
	fs.BoolVar(&opts.bom, "bom", false, "prefix CSV output with a UTF-8 BOM")
	fs.BoolVar(&opts.version, "version", false, "print version information and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.version {
		return opts, nil
	}
	if opts.in == "" {
		return nil, errors.New("-in is required")
	}
	if opts.missing != "" && !dataset.MissingMethod(opts.missing).Valid() {
		return nil, fmt.Errorf("unknown -missing method %q (want one of %s)", opts.missing, methodList())
	}
	return opts, nil
}

func methodList() string {
	names := make([]string, len(dataset.MissingMethods))
	for i, m := range dataset.MissingMethods {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// fillValue turns the -fill flag into a bool or number when it parses as one,
// matching what a JSON request body would carry.
func fillValue(raw string) any {
	if raw == "" {
		return nil
	}
	if strings.EqualFold(raw, "true") || strings.EqualFold(raw, "false") {
		if v, err := cast.ToBoolE(strings.ToLower(raw)); err == nil {
			return v
		}
	}
	if v, err := cast.ToFloat64E(raw); err == nil {
		return v
	}
	return raw
}

func run(ctx context.Context, opts *options, cfg *config.Config, logger *slog.Logger) (*summary, error) {
	validator := validation.NewFileValidator(logger)
	if _, err := validator.ValidateDataset(opts.in); err != nil {
		return nil, err
	}
	if err := validator.ValidateOutputDirectory(opts.out); err != nil {
		return nil, err
	}

	tbl, err := ingest.ReadFile(opts.in)
	if err != nil {
		return nil, err
	}
	initialRows := tbl.NumRows()
	logger.Info("Dataset loaded",
		slog.String("input", filepath.Base(opts.in)),
		slog.Int("rows", tbl.NumRows()),
		slog.Int("columns", tbl.NumCols()),
		slog.Int("missing", dataset.TotalMissing(tbl)))

	if opts.missing != "" {
		tbl, err = dataset.HandleMissing(tbl, dataset.MissingMethod(opts.missing), fillValue(opts.fill))
		if err != nil {
			return nil, fmt.Errorf("handle missing: %w", err)
		}
	}
	if opts.dedupe {
		before := tbl.NumRows()
		tbl = dataset.RemoveDuplicates(tbl)
		logger.Info("Duplicates removed", slog.Int("rows_removed", before-tbl.NumRows()))
	}
	if opts.outliers {
		before := tbl.NumRows()
		tbl = dataset.RemoveOutliers(tbl)
		logger.Info("Outliers removed", slog.Int("rows_removed", before-tbl.NumRows()))
	}

	writer := exporter.NewCSVWriter(opts.out).WithLogger(logger)
	writeOpts := exporter.WriteOptions{BOMPrefix: opts.bom}

	res := &summary{Shape: tbl.Shape(), Removed: initialRows - tbl.NumRows()}
	path, err := writer.WriteFile(config.CleanedFileName, tbl, writeOpts)
	if err != nil {
		return nil, err
	}
	res.Files = append(res.Files, path)

	if opts.target != "" {
		split, err := dataset.Split(tbl, dataset.SplitOptions{
			Target:       opts.target,
			TestFraction: opts.testSize,
			Stratify:     opts.stratify,
			Seed:         cfg.Split.Seed,
		})
		if err != nil {
			return nil, fmt.Errorf("split: %w", err)
		}
		res.Stratified = split.Stratified
		parts := []struct {
			name  string
			table *dataset.Table
		}{{"train", split.Train}, {"test", split.Test}}
		for _, p := range parts {
			path, err := writer.WriteFile(config.SplitFileName(p.name), p.table, writeOpts)
			if err != nil {
				return nil, err
			}
			res.Files = append(res.Files, path)
		}
	}

	if opts.report {
		reporter, err := report.New(report.Mode(cfg.Report.Mode), report.Options{PreviewRows: cfg.Report.PreviewRows})
		if err != nil {
			return nil, err
		}
		html, err := reporter.Generate(ctx, tbl)
		if err != nil {
			return nil, fmt.Errorf("generate report: %w", err)
		}
		path := filepath.Join(opts.out, config.ReportFileName)
		if err := os.WriteFile(path, html, 0644); err != nil {
			return nil, fmt.Errorf("failed to write report: %w", err)
		}
		res.Files = append(res.Files, path)
	}

	return res, nil
}
