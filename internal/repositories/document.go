package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/desertthunder/encore/internal/models"
	"github.com/desertthunder/encore/internal/shared"
)

var _ models.DocumentStore = (*DocumentStore)(nil)

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// DocumentStore implements [models.DocumentStore] on SQLite.
//
// Bodies are stored as JSON text; [models.ServerTimestamp] values are replaced with the store clock.
type DocumentStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewDocumentStore creates a new DocumentStore with the given database connection
func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db, now: time.Now}
}

// WithClock replaces the clock used for server timestamps.
func (s *DocumentStore) WithClock(now func() time.Time) *DocumentStore {
	s.now = now
	return s
}

// Get retrieves a document by collection and id.
func (s *DocumentStore) Get(ctx context.Context, collection, id string) (*models.Document, error) {
	query := `
		SELECT id, collection, data, created_at, updated_at
		FROM documents
		WHERE collection = ? AND id = ?
	`

	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, collection, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", shared.ErrDocumentNotFound, collection, id)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// List retrieves the documents of a collection.
//
// OrderBy names a (possibly dotted) field of the body; ties and the default order use insertion sequence.
func (s *DocumentStore) List(ctx context.Context, collection string, opts models.ListOptions) ([]models.Document, error) {
	query := `
		SELECT id, collection, data, created_at, updated_at
		FROM documents
		WHERE collection = ?
	`
	args := []any{collection}

	dir := "ASC"
	if opts.Descending {
		dir = "DESC"
	}

	if opts.OrderBy != "" {
		if !fieldPattern.MatchString(opts.OrderBy) {
			return nil, fmt.Errorf("%w: invalid order field %q", shared.ErrInvalidArgument, opts.OrderBy)
		}
		query += fmt.Sprintf(" ORDER BY json_extract(data, ?) %s, sequence %s", dir, dir)
		args = append(args, "$."+opts.OrderBy)
	} else {
		query += fmt.Sprintf(" ORDER BY sequence %s", dir)
	}

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return docs, nil
}

// Add inserts fields as a new document under a generated id.
func (s *DocumentStore) Add(ctx context.Context, collection string, fields models.Fields) (string, error) {
	id := shared.GenerateID()
	if err := s.write(ctx, collection, id, fields, false); err != nil {
		return "", err
	}
	return id, nil
}

// Set creates or replaces the document with the given id.
func (s *DocumentStore) Set(ctx context.Context, collection, id string, fields models.Fields) error {
	if id == "" {
		return fmt.Errorf("%w: document id is required", shared.ErrMissingArgument)
	}
	return s.write(ctx, collection, id, fields, true)
}

func (s *DocumentStore) write(ctx context.Context, collection, id string, fields models.Fields, upsert bool) error {
	if collection == "" {
		return fmt.Errorf("%w: collection is required", shared.ErrMissingArgument)
	}

	now := s.now()
	data, err := s.encode(fields, now)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequence, err := NextSequence(ctx, tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO documents (collection, id, sequence, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if upsert {
		query += ` ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`
	}

	if _, err := tx.ExecContext(ctx, query, collection, id, sequence, data, now, now); err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit document: %w", err)
	}
	return nil
}

// UpdateFields merges fields into an existing document.
//
// A key such as "socialLinks.spotify" updates the nested value and leaves its siblings untouched.
func (s *DocumentStore) UpdateFields(ctx context.Context, collection, id string, fields models.Fields) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx, "SELECT data FROM documents WHERE collection = ? AND id = ?", collection, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s/%s", shared.ErrDocumentNotFound, collection, id)
	}
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	body := models.Fields{}
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}

	now := s.now()
	for key, value := range fields {
		if !fieldPattern.MatchString(key) {
			return fmt.Errorf("%w: invalid field path %q", shared.ErrInvalidArgument, key)
		}
		if err := setPath(body, strings.Split(key, "."), value); err != nil {
			return err
		}
	}

	data, err := s.encode(body, now)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "UPDATE documents SET data = ?, updated_at = ? WHERE collection = ? AND id = ?", data, now, collection, id); err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit document: %w", err)
	}
	return nil
}

// setPath assigns value at the nested path, creating intermediate maps.
func setPath(body map[string]any, path []string, value any) error {
	if len(path) == 1 {
		body[path[0]] = value
		return nil
	}

	child, ok := body[path[0]]
	if !ok || child == nil {
		next := map[string]any{}
		body[path[0]] = next
		return setPath(next, path[1:], value)
	}

	nested, ok := child.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: field %q is not a map", shared.ErrInvalidArgument, path[0])
	}
	return setPath(nested, path[1:], value)
}

// encode resolves server timestamps and marshals the body.
func (s *DocumentStore) encode(fields models.Fields, now time.Time) (string, error) {
	data, err := json.Marshal(resolveTimestamps(fields, FormatTimestamp(now)))
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	return string(data), nil
}

func resolveTimestamps(v any, ts string) any {
	switch val := v.(type) {
	case models.Fields:
		return resolveTimestamps(map[string]any(val), ts)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = resolveTimestamps(child, ts)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = resolveTimestamps(child, ts)
		}
		return out
	default:
		if v == models.ServerTimestamp {
			return ts
		}
		return v
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*models.Document, error) {
	var (
		doc       models.Document
		raw       string
		createdAt time.Time
		updatedAt time.Time
	)

	if err := row.Scan(&doc.ID, &doc.Collection, &raw, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}

	doc.Fields = models.Fields{}
	if err := json.Unmarshal([]byte(raw), &doc.Fields); err != nil {
		return nil, fmt.Errorf("failed to decode document %s/%s: %w", doc.Collection, doc.ID, err)
	}
	doc.CreatedAt = createdAt
	doc.UpdatedAt = updatedAt

	return &doc, nil
}
