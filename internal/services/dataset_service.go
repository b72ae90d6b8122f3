package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"dscleaner/internal/config"
	"dscleaner/internal/dataset"
	apperrors "dscleaner/internal/errors"
	"dscleaner/internal/exporter"
	"dscleaner/internal/infrastructure"
	"dscleaner/internal/ingest"
	"dscleaner/internal/report"
	"dscleaner/internal/session"
	api "dscleaner/pkg/contracts/api/v1"
)

// PreviewRows is the number of rows included in dataset summaries
const PreviewRows = 5

// Operation names used for logs, spans and metrics
const (
	OpUpload           = "upload"
	OpHandleMissing    = "handle_missing"
	OpRemoveDuplicates = "remove_duplicates"
	OpDuplicates       = "duplicates"
	OpDetectOutliers   = "detect_outliers"
	OpRemoveOutliers   = "remove_outliers"
	OpSplit            = "train_test_split"
	OpSummary          = "summary"
	OpDownload         = "download"
	OpReport           = "report"
)

// failure prefixes for unexpected errors, by operation
var failureMessages = map[string]string{
	OpUpload:           "Error reading file",
	OpHandleMissing:    "Error handling missing data",
	OpRemoveDuplicates: "Error removing duplicates",
	OpDuplicates:       "Error listing duplicates",
	OpDetectOutliers:   "Error detecting outliers",
	OpRemoveOutliers:   "Error removing outliers",
	OpSplit:            "Error during split",
	OpSummary:          "Error summarising dataset",
	OpDownload:         "Error exporting dataset",
	OpReport:           "Error generating report",
}

// DatasetService runs cleaning operations against a client's session
type DatasetService struct {
	reporter report.Reporter
	split    config.SplitConfig
	metrics  *infrastructure.BusinessMetrics
	tracer   trace.Tracer
	logger   *slog.Logger
}

// DatasetServiceOption configures a DatasetService
type DatasetServiceOption func(*DatasetService)

// WithMetrics records operation metrics
func WithMetrics(m *infrastructure.BusinessMetrics) DatasetServiceOption {
	return func(s *DatasetService) { s.metrics = m }
}

// WithTracer sets the tracer used for operation spans
func WithTracer(t trace.Tracer) DatasetServiceOption {
	return func(s *DatasetService) { s.tracer = t }
}

// WithSplitConfig overrides the split seed and default test size
func WithSplitConfig(cfg config.SplitConfig) DatasetServiceOption {
	return func(s *DatasetService) { s.split = cfg }
}

// NewDatasetService creates a dataset service rendering reports with reporter
func NewDatasetService(reporter report.Reporter, logger *slog.Logger, opts ...DatasetServiceOption) *DatasetService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &DatasetService{
		reporter: reporter,
		split:    config.Default().Split,
		tracer:   otel.Tracer(infrastructure.MeterName),
		logger:   infrastructure.WithComponent(logger, "dataset_service"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.logger.Info("DatasetService initialized",
		slog.String("reporter", reporter.Name()),
		slog.Int64("split_seed", s.split.Seed),
		slog.Float64("default_test_size", s.split.DefaultTestSize))
	return s
}

// DefaultTestSize returns the test fraction used when a request omits it
func (s *DatasetService) DefaultTestSize() float64 {
	return s.split.DefaultTestSize
}

// rowCounts is reported to metrics after an operation
type rowCounts struct{ in, out int }

// run executes fn under the session lock. Panics and unexpected errors are
// turned into PROCESSING errors; the session keeps its previous state.
func (s *DatasetService) run(ctx context.Context, op string, sess *session.Session, fn func(ctx context.Context, st *session.State) (rowCounts, error)) error {
	ctx, span := s.tracer.Start(ctx, "dataset."+op, trace.WithAttributes(
		attribute.String("session.id", sess.ID),
	))
	defer span.End()

	ctx = infrastructure.WithSessionID(ctx, sess.ID)
	start := time.Now()

	var counts rowCounts
	err := sess.Do(func(st *session.State) (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("panic: %v", rec)
			}
		}()
		counts, err = fn(ctx, st)
		return err
	})
	err = toAppError(op, err)
	duration := time.Since(start)

	infrastructure.RecordDatasetOperation(ctx, s.metrics, infrastructure.DatasetOperation{
		Name:     op,
		Duration: duration,
		RowsIn:   counts.in,
		RowsOut:  counts.out,
		Err:      err,
	})

	if err != nil {
		s.logOperationError(ctx, op, err)
		return err
	}
	s.logger.InfoContext(ctx, "dataset operation completed",
		slog.String("operation", op),
		slog.Int("rows_in", counts.in),
		slog.Int("rows_out", counts.out),
		slog.Duration("duration", duration))
	return nil
}

// logOperationError logs client errors at warn and processing failures at error
func (s *DatasetService) logOperationError(ctx context.Context, op string, err error) {
	level := slog.LevelWarn
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Type == apperrors.ErrTypeProcessing {
		level = slog.LevelError
	}
	s.logger.LogAttrs(ctx, level, "dataset operation failed",
		slog.String("operation", op),
		slog.String("error", err.Error()))
}

// toAppError maps dataset and ingest failures onto the error taxonomy
func toAppError(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		return apperrors.NewUnsupportedFormatError(err)
	case errors.Is(err, ingest.ErrEmptyFile):
		return apperrors.NewInvalidArgumentError("No columns to parse from file", err)
	case errors.Is(err, dataset.ErrInvalidArgument):
		return apperrors.NewInvalidArgumentError(detail(err, dataset.ErrInvalidArgument), err)
	case errors.Is(err, dataset.ErrNotFound):
		return apperrors.NewAppError(apperrors.ErrTypeNotFound, detail(err, dataset.ErrNotFound), err)
	default:
		return apperrors.NewProcessingError(failureMessages[op], err)
	}
}

// detail strips the sentinel prefix from a wrapped error message and
// capitalises the rest for display
func detail(err, sentinel error) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func current(st *session.State) (*dataset.Table, error) {
	if st.Current == nil {
		return nil, apperrors.NewNoDatasetError()
	}
	return st.Current, nil
}

// countingReader counts the bytes read through it
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Upload parses a CSV or XLSX file and makes it the session's current
// dataset. Previous split results and outlier flags are discarded.
func (s *DatasetService) Upload(ctx context.Context, sess *session.Session, filename string, r io.Reader) (*api.UploadResponse, error) {
	var resp *api.UploadResponse
	err := s.run(ctx, OpUpload, sess, func(ctx context.Context, st *session.State) (rowCounts, error) {
		format, err := ingest.DetectFormat(filename)
		if err != nil {
			return rowCounts{}, err
		}
		cr := &countingReader{r: r}
		tbl, err := ingest.Read(filename, cr)
		if err != nil {
			return rowCounts{}, err
		}

		*st = session.State{Current: tbl}
		infrastructure.RecordUpload(ctx, s.metrics, string(format), cr.n)

		resp = &api.UploadResponse{
			Filename:       filename,
			Format:         string(format),
			SizeBytes:      cr.n,
			DatasetSummary: Summarize(tbl),
		}
		return rowCounts{out: tbl.NumRows()}, nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// HandleMissing applies a missing-data method to the current dataset
func (s *DatasetService) HandleMissing(ctx context.Context, sess *session.Session, method string, fill any) (*api.DatasetSummary, error) {
	return s.transform(ctx, OpHandleMissing, sess, func(t *dataset.Table) (*dataset.Table, error) {
		return dataset.HandleMissing(t, dataset.MissingMethod(method), fill)
	})
}

// RemoveDuplicates keeps the first occurrence of every row
func (s *DatasetService) RemoveDuplicates(ctx context.Context, sess *session.Session) (*api.DatasetSummary, error) {
	return s.transform(ctx, OpRemoveDuplicates, sess, func(t *dataset.Table) (*dataset.Table, error) {
		return dataset.RemoveDuplicates(t), nil
	})
}

// RemoveOutliers drops every row holding an IQR outlier
func (s *DatasetService) RemoveOutliers(ctx context.Context, sess *session.Session) (*api.DatasetSummary, error) {
	return s.transform(ctx, OpRemoveOutliers, sess, func(t *dataset.Table) (*dataset.Table, error) {
		return dataset.RemoveOutliers(t), nil
	})
}

// transform replaces the current dataset with fn's result. Outlier flags
// computed for the old table are dropped.
func (s *DatasetService) transform(ctx context.Context, op string, sess *session.Session, fn func(*dataset.Table) (*dataset.Table, error)) (*api.DatasetSummary, error) {
	var summary api.DatasetSummary
	err := s.run(ctx, op, sess, func(_ context.Context, st *session.State) (rowCounts, error) {
		cur, err := current(st)
		if err != nil {
			return rowCounts{}, err
		}
		next, err := fn(cur)
		if err != nil {
			return rowCounts{}, err
		}
		st.Current = next
		st.Outliers = nil
		summary = Summarize(next)
		return rowCounts{in: cur.NumRows(), out: next.NumRows()}, nil
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// Summary describes the current dataset without changing it
func (s *DatasetService) Summary(ctx context.Context, sess *session.Session) (*api.DatasetSummary, error) {
	var summary api.DatasetSummary
	err := s.run(ctx, OpSummary, sess, func(_ context.Context, st *session.State) (rowCounts, error) {
		cur, err := current(st)
		if err != nil {
			return rowCounts{}, err
		}
		summary = Summarize(cur)
		return rowCounts{in: cur.NumRows(), out: cur.NumRows()}, nil
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// Duplicates lists the rows that belong to a duplicate group
func (s *DatasetService) Duplicates(ctx context.Context, sess *session.Session) (*api.DuplicatesResponse, error) {
	var resp *api.DuplicatesResponse
	err := s.run(ctx, OpDuplicates, sess, func(_ context.Context, st *session.State) (rowCounts, error) {
		cur, err := current(st)
		if err != nil {
			return rowCounts{}, err
		}
		count, rows := dataset.DuplicateSummary(cur)
		resp = &api.DuplicatesResponse{
			DuplicateCount: count,
			Columns:        rows.ColumnNames(),
			Rows:           rows.Head(rows.NumRows()),
		}
		return rowCounts{in: cur.NumRows(), out: rows.NumRows()}, nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// DetectOutliers flags IQR outliers in every numeric column and keeps the
// flags in the session
func (s *DatasetService) DetectOutliers(ctx context.Context, sess *session.Session) (*api.OutlierResponse, error) {
	var resp *api.OutlierResponse
	err := s.run(ctx, OpDetectOutliers, sess, func(_ context.Context, st *session.State) (rowCounts, error) {
		cur, err := current(st)
		if err != nil {
			return rowCounts{}, err
		}
		flags, summary := dataset.DetectOutliers(cur)
		st.Outliers = flags

		resp = &api.OutlierResponse{Columns: make([]api.OutlierColumn, 0, len(summary.Order))}
		for _, name := range summary.Order {
			col := api.OutlierColumn{Column: name, OutlierCount: summary.Counts[name]}
			if b, ok := summary.Bounds[name]; ok {
				col.Bounds = &api.OutlierBounds{
					Q1: b.Q1, Q3: b.Q3, IQR: b.IQR,
					LowerBound: b.Lower, UpperBound: b.Upper,
				}
			}
			resp.Columns = append(resp.Columns, col)
		}
		for i := 0; i < flags.NumRows(); i++ {
			if flags.RowFlagged(i) {
				resp.RowsAffected++
			}
		}
		resp.TotalOutliers = summary.Total()
		resp.ShowOutlierSummary = resp.TotalOutliers > 0
		return rowCounts{in: cur.NumRows(), out: resp.RowsAffected}, nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Split partitions the current dataset into train and test tables stored in
// the session. Stratification is skipped for continuous targets.
func (s *DatasetService) Split(ctx context.Context, sess *session.Session, target string, testSize float64, stratify bool) (*api.SplitResponse, error) {
	var resp *api.SplitResponse
	err := s.run(ctx, OpSplit, sess, func(_ context.Context, st *session.State) (rowCounts, error) {
		cur, err := current(st)
		if err != nil {
			return rowCounts{}, err
		}
		if _, ok := cur.Column(target); !ok {
			return rowCounts{}, apperrors.NewAppError(apperrors.ErrTypeNotFound,
				fmt.Sprintf("Target column '%s' not found.", target), dataset.ErrNotFound)
		}
		if !(testSize > 0 && testSize < 1) {
			return rowCounts{}, apperrors.NewInvalidArgumentError("Test size must be between 0 and 1.", dataset.ErrInvalidArgument)
		}

		result, err := dataset.Split(cur, dataset.SplitOptions{
			Target:       target,
			TestFraction: testSize,
			Stratify:     stratify,
			Seed:         s.split.Seed,
		})
		if err != nil {
			return rowCounts{}, err
		}
		st.Train, st.Test = result.Train, result.Test

		resp = &api.SplitResponse{
			TargetColumn: target,
			TestSize:     testSize,
			Stratified:   result.Stratified,
			TrainShape:   result.Train.Shape(),
			TestShape:    result.Test.Shape(),
		}
		return rowCounts{in: cur.NumRows(), out: result.Train.NumRows() + result.Test.NumRows()}, nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Download serialises the current dataset as CSV
func (s *DatasetService) Download(ctx context.Context, sess *session.Session) ([]byte, error) {
	var data []byte
	err := s.run(ctx, OpDownload, sess, func(_ context.Context, st *session.State) (rowCounts, error) {
		cur, err := current(st)
		if err != nil {
			return rowCounts{}, err
		}
		data, err = exporter.Encode(cur)
		return rowCounts{in: cur.NumRows(), out: cur.NumRows()}, err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// DownloadSplit serialises the train or test partition as CSV
func (s *DatasetService) DownloadSplit(ctx context.Context, sess *session.Session, which string) ([]byte, error) {
	var data []byte
	err := s.run(ctx, OpDownload, sess, func(_ context.Context, st *session.State) (rowCounts, error) {
		var tbl *dataset.Table
		switch which {
		case "train":
			tbl = st.Train
		case "test":
			tbl = st.Test
		default:
			return rowCounts{}, apperrors.NewInvalidArgumentError("Invalid dataset requested.", nil).
				WithContext("dataset", which)
		}
		if tbl == nil {
			return rowCounts{}, apperrors.NewAppError(apperrors.ErrTypeNotFound,
				fmt.Sprintf("No %s dataset available to download.", which), nil)
		}
		var err error
		data, err = exporter.Encode(tbl)
		return rowCounts{in: tbl.NumRows(), out: tbl.NumRows()}, err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Report renders the profiling report of the current dataset
func (s *DatasetService) Report(ctx context.Context, sess *session.Session) ([]byte, error) {
	var html []byte
	err := s.run(ctx, OpReport, sess, func(ctx context.Context, st *session.State) (rowCounts, error) {
		cur, err := current(st)
		if err != nil {
			return rowCounts{}, err
		}
		html, err = s.reporter.Generate(ctx, cur)
		return rowCounts{in: cur.NumRows()}, err
	})
	if err != nil {
		return nil, err
	}
	return html, nil
}

// Summarize builds the summary payload returned after every operation
func Summarize(t *dataset.Table) api.DatasetSummary {
	stats := dataset.MissingSummary(t)
	missing := make([]api.MissingColumn, len(stats))
	for i, st := range stats {
		missing[i] = api.MissingColumn{
			Column:         st.Column,
			MissingCount:   st.Count,
			MissingPercent: st.Percent,
		}
	}
	total := dataset.TotalMissing(t)
	dups := dataset.DuplicateCount(t)

	return api.DatasetSummary{
		Shape:                t.Shape(),
		Columns:              t.ColumnNames(),
		Preview:              t.Head(PreviewRows),
		MissingSummary:       missing,
		TotalMissing:         total,
		DuplicateCount:       dups,
		ShowMissingOptions:   total > 0,
		ShowDuplicateOptions: dups > 0,
	}
}
