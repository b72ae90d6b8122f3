package testutil

import (
	"bytes"
	"encoding/csv"
	"log/slog"
	"mime"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("test message", slog.String("key", "value"))
		logger.Error("error message", slog.Int("code", 500))

		assert.Equal(t, 2, handler.Count())
		assert.True(t, handler.ContainsMessage("test message"))
		assert.True(t, handler.ContainsAttr("key", "value"))
	})

	t.Run("filters by level", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Debug("debug msg")
		logger.Info("info msg")
		logger.Warn("warn msg")

		assert.Len(t, handler.GetRecordsByLevel(slog.LevelInfo), 1)
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 0)
		AssertLogContains(t, handler, slog.LevelWarn, "warn")
		AssertNoErrors(t, handler)
	})

	t.Run("keeps attributes from With", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.With(slog.String("component", "svc")).Info("hello")
		logger.Info("plain")

		records := handler.GetRecords()
		require.Len(t, records, 2)
		assert.Equal(t, "svc", records[0].Attrs["component"])
		assert.NotContains(t, records[1].Attrs, "component")
	})

	t.Run("clear", func(t *testing.T) {
		logger, handler := NewTestLogger(t)
		logger.Info("x")
		handler.Clear()
		assert.Zero(t, handler.Count())
	})
}

func TestFixtures(t *testing.T) {
	records, err := csv.NewReader(bytes.NewReader(CSVFixture(SampleRows))).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, SampleRows, records)

	f, err := excelize.OpenReader(bytes.NewReader(XLSXFixture(t, SampleRows)))
	require.NoError(t, err)
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	assert.Equal(t, SampleRows[0], rows[0])

	body, contentType := MultipartFile(t, "data.csv", []byte("a\n1\n"))
	assert.Contains(t, contentType, "multipart/form-data")

	_, params, err := multipartParams(contentType)
	require.NoError(t, err)
	reader := multipart.NewReader(body, params["boundary"])
	part, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "file", part.FormName())
	assert.Equal(t, "data.csv", part.FileName())
}

func multipartParams(contentType string) (string, map[string]string, error) {
	return mime.ParseMediaType(contentType)
}
