// Package report persists reconciliation sweep results to blob storage.
package report

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"storefront/internal/errors"
	"storefront/internal/usecase"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// buckets
	_ "gocloud.dev/blob/gcsblob"  // gs:// buckets
)

const keyPrefix = "reconcile"

// Writer uploads reconcile reports to a bucket addressed by URL.
type Writer struct {
	logger *slog.Logger
}

func NewWriter(logger *slog.Logger) *Writer {
	return &Writer{logger: logger}
}

// Write stores report as JSON and returns the object key.
// bucketURL accepts gocloud URLs (file:///dir, gs://bucket) or a plain local directory.
func (w *Writer) Write(ctx context.Context, bucketURL string, report *usecase.ReconcileReport) (string, error) {
	if report == nil {
		return "", errors.New("report is nil")
	}

	bucket, err := blob.OpenBucket(ctx, normalizeBucketURL(bucketURL))
	if err != nil {
		return "", errors.Wrapf(err, "open bucket %s", bucketURL)
	}
	defer func() {
		if closeErr := bucket.Close(); closeErr != nil {
			w.logger.Warn("close report bucket", slog.Any("error", closeErr))
		}
	}()

	key := ObjectKey(report.GeneratedAt)

	writer, err := bucket.NewWriter(ctx, key, &blob.WriterOptions{ContentType: "application/json"})
	if err != nil {
		return "", errors.Wrapf(err, "open writer for %s", key)
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		_ = writer.Close()

		return "", errors.Wrap(err, "encode reconcile report")
	}

	// Close flushes the upload; its error is the one that matters.
	if err := writer.Close(); err != nil {
		return "", errors.Wrapf(err, "upload %s", key)
	}

	w.logger.Info("Reconcile report written",
		slog.String("bucket", bucketURL),
		slog.String("key", key),
		slog.Int("external_orphans", len(report.ExternalOrphans)),
		slog.Int("local_orphans", len(report.LocalOrphans)),
	)

	return key, nil
}

// ObjectKey names the report for a sweep run at t.
func ObjectKey(t time.Time) string {
	return keyPrefix + "/" + t.UTC().Format("20060102T150405Z") + ".json"
}

// normalizeBucketURL turns a bare directory path into a file:// bucket URL.
func normalizeBucketURL(raw string) string {
	if strings.Contains(raw, "://") {
		return raw
	}

	abs, err := filepath.Abs(raw)
	if err != nil {
		abs = raw
	}

	return "file://" + filepath.ToSlash(abs)
}
