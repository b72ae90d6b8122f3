package http

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/spf13/cast"

	"dscleaner/internal/config"
	apierrors "dscleaner/internal/errors"
	dscmiddleware "dscleaner/internal/middleware"
	"dscleaner/internal/session"
	api "dscleaner/pkg/contracts/api/v1"
)

// Response messages
const (
	MsgUploaded           = "Dataset uploaded successfully!"
	MsgMissingHandled     = "Missing data handled successfully!"
	MsgDuplicatesRemoved  = "Duplicate rows removed successfully!"
	MsgDuplicatesListed   = "Duplicate rows retrieved successfully!"
	MsgOutliersDetected   = "Outliers detected successfully!"
	MsgNoOutliers         = "No outliers detected in numeric columns."
	MsgOutliersRemoved    = "Outliers removed successfully!"
	MsgSplit              = "Dataset split successfully!"
	MsgSummary            = "Dataset summary retrieved successfully!"
	multipartMemoryBuffer = 32 << 20
)

var (
	errNoFileSelected = apierrors.New(http.StatusBadRequest, "MISSING_PARAMETER", "No file selected")
	errNoSession      = apierrors.New(http.StatusInternalServerError, "SESSION_UNAVAILABLE", "Session unavailable")
)

// DatasetHandler serves the dataset cleaning API
type DatasetHandler struct {
	service        DatasetServiceInterface
	validator      *dscmiddleware.ValidationMiddleware
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
	maxUploadBytes int64
}

// NewDatasetHandler creates a dataset handler. A non-positive maxUploadBytes
// falls back to config.DefaultMaxUploadBytes.
func NewDatasetHandler(service DatasetServiceInterface, validator *dscmiddleware.ValidationMiddleware, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, maxUploadBytes int64) *DatasetHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = config.DefaultMaxUploadBytes
	}
	return &DatasetHandler{
		service:        service,
		validator:      validator,
		logger:         logger.With(slog.String("component", "dataset_handler")),
		errorHandler:   errorHandler,
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes returns the dataset routes. Every route expects a session in the
// request context.
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/upload", h.Upload)

	r.Group(func(r chi.Router) {
		r.Use(dscmiddleware.ContentTypeValidator(h.errorHandler, "application/json"))
		r.Use(h.validator.ValidateRequest)
		r.Post("/handle_missing", h.HandleMissing)
		r.Post("/train_test_split", h.Split)
	})

	r.Post("/remove_duplicates", h.RemoveDuplicates)
	r.Get("/duplicates", h.Duplicates)
	r.Post("/detect_outliers", h.DetectOutliers)
	r.Post("/remove_outliers", h.RemoveOutliers)
	r.Get("/summary", h.Summary)

	r.Get("/download", h.Download)
	r.Get("/download/{dataset}", h.DownloadSplit)
	r.Get("/report", h.Report)

	return r
}

// Upload handles POST /api/upload
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemoryBuffer); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			h.errorHandler.HandleError(w, r, err)
		case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
			h.errorHandler.HandleError(w, r, apierrors.ErrMissingFile)
		default:
			h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		}
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		// an empty file input is submitted as a plain form value
		if _, present := r.MultipartForm.Value["file"]; present {
			h.errorHandler.HandleError(w, r, errNoFileSelected)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.ErrMissingFile)
		return
	}
	defer file.Close()

	if header.Filename == "" {
		h.errorHandler.HandleError(w, r, errNoFileSelected)
		return
	}
	if err := h.validator.ValidateVar("file", header.Filename, "filename"); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "dataset upload received",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size),
	)

	resp, err := h.service.Upload(r.Context(), sess, header.Filename, file)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, MsgUploaded, resp)
}

// HandleMissing handles POST /api/handle_missing
func (h *DatasetHandler) HandleMissing(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req api.HandleMissingRequest
	if err := h.decode(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	summary, err := h.service.HandleMissing(r.Context(), sess, req.MissingMethod, req.FillValue)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, MsgMissingHandled, summary)
}

// RemoveDuplicates handles POST /api/remove_duplicates
func (h *DatasetHandler) RemoveDuplicates(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	summary, err := h.service.RemoveDuplicates(r.Context(), sess)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, MsgDuplicatesRemoved, summary)
}

// Duplicates handles GET /api/duplicates
func (h *DatasetHandler) Duplicates(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	dups, err := h.service.Duplicates(r.Context(), sess)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, MsgDuplicatesListed, dups)
}

// DetectOutliers handles POST /api/detect_outliers
func (h *DatasetHandler) DetectOutliers(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	resp, err := h.service.DetectOutliers(r.Context(), sess)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	msg := MsgOutliersDetected
	if resp.TotalOutliers == 0 {
		msg = MsgNoOutliers
	}
	h.respond(w, r, msg, resp)
}

// RemoveOutliers handles POST /api/remove_outliers
func (h *DatasetHandler) RemoveOutliers(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	summary, err := h.service.RemoveOutliers(r.Context(), sess)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, MsgOutliersRemoved, summary)
}

// Split handles POST /api/train_test_split
func (h *DatasetHandler) Split(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req api.SplitRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	req.Stratify = strings.ToLower(strings.TrimSpace(req.Stratify))
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	testSize := h.service.DefaultTestSize()
	if req.TestSize != nil {
		v, err := cast.ToFloat64E(req.TestSize)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.NewInvalidArgumentError("Test size must be a number.", err))
			return
		}
		testSize = v
	}

	resp, err := h.service.Split(r.Context(), sess, req.TargetColumn, testSize, req.Stratify != "no")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, MsgSplit, resp)
}

// Summary handles GET /api/summary
func (h *DatasetHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	summary, err := h.service.Summary(r.Context(), sess)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, MsgSummary, summary)
}

// Download handles GET /api/download
func (h *DatasetHandler) Download(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	data, err := h.service.Download(r.Context(), sess)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.sendFile(w, r, "text/csv; charset=utf-8", "attachment", config.CleanedFileName, data)
}

// DownloadSplit handles GET /api/download/{dataset}
func (h *DatasetHandler) DownloadSplit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	which := chi.URLParam(r, "dataset")
	data, err := h.service.DownloadSplit(r.Context(), sess, which)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.sendFile(w, r, "text/csv; charset=utf-8", "attachment", config.SplitFileName(which), data)
}

// Report handles GET /api/report. The report opens in the browser unless
// ?download=true asks for an attachment.
func (h *DatasetHandler) Report(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	html, err := h.service.Report(r.Context(), sess)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	disposition := "inline"
	if cast.ToBool(r.URL.Query().Get("download")) {
		disposition = "attachment"
	}
	h.sendFile(w, r, "text/html; charset=utf-8", disposition, config.ReportFileName, html)
}

func (h *DatasetHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		h.errorHandler.HandleError(w, r, errNoSession)
		return nil, false
	}
	return sess, true
}

func (h *DatasetHandler) decode(r *http.Request, v interface{}) error {
	if err := render.DecodeJSON(r.Body, v); err != nil && !errors.Is(err, io.EOF) {
		return apierrors.InvalidRequestWithError(err)
	}
	return h.validator.ValidateStruct(v)
}

func (h *DatasetHandler) respond(w http.ResponseWriter, r *http.Request, message string, data interface{}) {
	render.JSON(w, r, api.Envelope{Success: true, Message: message, Data: data})
}

func (h *DatasetHandler) sendFile(w http.ResponseWriter, r *http.Request, contentType, disposition, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write file response",
			slog.String("filename", filename),
			slog.String("error", err.Error()),
		)
	}
}
