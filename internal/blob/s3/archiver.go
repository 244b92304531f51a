package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/sibyl-protocol/sibyl/internal/domain"
)

// Archiver exports aged audit log entries to object storage as JSONL and
// prunes them from the primary store. The upload happens before the delete,
// so a failed upload never loses entries; a failed delete leaves them to be
// re-archived on the next pass, which overwrites the same monthly object.
type Archiver struct {
	writer domain.BlobWriter
	audit  domain.AuditStore
	logger *slog.Logger
}

// NewArchiver creates an Archiver writing through the given BlobWriter.
func NewArchiver(writer domain.BlobWriter, audit domain.AuditStore, logger *slog.Logger) *Archiver {
	return &Archiver{
		writer: writer,
		audit:  audit,
		logger: logger.With(slog.String("component", "archiver")),
	}
}

// ArchiveAudit exports all audit entries created before the cutoff to
// archive/audit/YYYY-MM.jsonl, then deletes them. It returns the number of
// archived entries.
func (a *Archiver) ArchiveAudit(ctx context.Context, before time.Time) (int64, error) {
	entries, err := a.audit.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive audit query: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(entries)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive audit marshal: %w", err)
	}

	path := archivePath("audit", before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive audit upload: %w", err)
	}

	deleted, err := a.audit.DeleteBefore(ctx, before)
	if err != nil {
		return int64(len(entries)), fmt.Errorf("s3blob: archive audit prune: %w", err)
	}

	a.logger.InfoContext(ctx, "archiver: audit entries archived",
		slog.String("path", path),
		slog.Int("archived", len(entries)),
		slog.Int64("deleted", deleted),
	)
	return int64(len(entries)), nil
}

// Run archives on a fixed interval until the context is cancelled. Entries
// older than retention are exported on each pass.
func (a *Archiver) Run(ctx context.Context, interval, retention time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-retention)
			if _, err := a.ArchiveAudit(ctx, cutoff); err != nil {
				a.logger.ErrorContext(ctx, "archiver: pass failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// archivePath builds the S3 key for an archive file, partitioned by the
// year-month of the cutoff time.
//
//	archive/audit/2026-03.jsonl
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

// marshalJSONL serialises a slice of values as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
