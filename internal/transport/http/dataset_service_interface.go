package http

import (
	"context"
	"io"

	"dscleaner/internal/session"
	api "dscleaner/pkg/contracts/api/v1"
)

// DatasetServiceInterface defines the dataset operations the handler exposes
type DatasetServiceInterface interface {
	Upload(ctx context.Context, sess *session.Session, filename string, r io.Reader) (*api.UploadResponse, error)
	HandleMissing(ctx context.Context, sess *session.Session, method string, fill any) (*api.DatasetSummary, error)
	RemoveDuplicates(ctx context.Context, sess *session.Session) (*api.DatasetSummary, error)
	Duplicates(ctx context.Context, sess *session.Session) (*api.DuplicatesResponse, error)
	DetectOutliers(ctx context.Context, sess *session.Session) (*api.OutlierResponse, error)
	RemoveOutliers(ctx context.Context, sess *session.Session) (*api.DatasetSummary, error)
	Split(ctx context.Context, sess *session.Session, target string, testSize float64, stratify bool) (*api.SplitResponse, error)
	Summary(ctx context.Context, sess *session.Session) (*api.DatasetSummary, error)
	Download(ctx context.Context, sess *session.Session) ([]byte, error)
	DownloadSplit(ctx context.Context, sess *session.Session, which string) ([]byte, error)
	Report(ctx context.Context, sess *session.Session) ([]byte, error)
	DefaultTestSize() float64
}
