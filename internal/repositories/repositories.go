// package repositories provides persistence layer implementations for the catalog documents.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/encore/internal/models"
)

// NextSequence increments and returns the next sequence number inside tx.
//
// Sequence numbers are NOT exposed in CLI output but break ordering ties between documents written
// within the same timestamp.
func NextSequence(ctx context.Context, tx *sql.Tx) (int64, error) {
	if _, err := tx.ExecContext(ctx, "UPDATE documents_sequence SET value = value + 1 WHERE id = 1"); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int64
	if err := tx.QueryRowContext(ctx, "SELECT value FROM documents_sequence WHERE id = 1").Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	return sequence, nil
}

// timestampLayout is fixed-width so timestamps stored as JSON strings sort lexicographically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTimestamp renders t the way server timestamps are stored.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// decodeAll decodes each document into T, letting setID copy the document id into the entity.
func decodeAll[T any](docs []models.Document, setID func(*T, string)) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := doc.Decode(&v); err != nil {
			return nil, err
		}
		setID(&v, doc.ID)
		out = append(out, v)
	}
	return out, nil
}
