package telemetry

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*ParquetHandler, string) {
	t.Helper()
	dir := t.TempDir()
	next := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	h, err := NewParquetHandler(next, dir)
	require.NoError(t, err)
	return h, dir
}

func TestHandlerBuffersErrorsOnly(t *testing.T) {
	h, dir := newTestHandler(t)
	logger := slog.New(h)

	logger.Info("routine message")
	logger.Error("something broke", "trial", "NCT001")

	require.NoError(t, h.Flush())

	files, err := filepath.Glob(filepath.Join(dir, "match_errors_*.parquet"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	records, err := parquet.ReadFile[LogRecord](files[0])
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "something broke", records[0].Message)
	assert.Equal(t, "ERROR", records[0].Level)
	assert.Contains(t, records[0].Attributes, "NCT001")
	assert.NotEmpty(t, records[0].ID)
}

func TestHandlerCapturesContextMetadata(t *testing.T) {
	h, dir := newTestHandler(t)
	logger := slog.New(h)

	ctx := context.WithValue(context.Background(), ContextKeyRequestID, "req-42")
	ctx = context.WithValue(ctx, ContextKeyPatientID, "patient_007")
	ctx = context.WithValue(ctx, ContextKeyRoute, "/api/v1/match")

	logger.ErrorContext(ctx, "match failed")
	require.NoError(t, h.Flush())

	files, err := filepath.Glob(filepath.Join(dir, "match_errors_*.parquet"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	records, err := parquet.ReadFile[LogRecord](files[0])
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "req-42", records[0].RequestID)
	assert.Equal(t, "patient_007", records[0].PatientID)
	assert.Equal(t, "/api/v1/match", records[0].Route)
	assert.WithinDuration(t, time.Now().UTC(), records[0].Timestamp, time.Minute)
}

func TestFlushEmptyBufferIsNoop(t *testing.T) {
	h, dir := newTestHandler(t)

	require.NoError(t, h.Flush())

	files, err := filepath.Glob(filepath.Join(dir, "*.parquet"))
	require.NoError(t, err)
	assert.Empty(t, files)
}
