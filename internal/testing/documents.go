package testing

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/encore/internal/models"
	"github.com/desertthunder/encore/internal/shared"
)

var _ models.DocumentStore = (*FakeDocumentStore)(nil)

// FakeDocumentStore is an in-memory [models.DocumentStore]. Lists keep insertion order.
type FakeDocumentStore struct {
	mu sync.Mutex

	AddErr error // returned by every Add when set
	Writes int   // successful Add, Set and UpdateFields calls
	Now    func() time.Time

	docs  map[string]*models.Document
	order []string
	next  int
}

// NewFakeDocumentStore creates an empty store.
func NewFakeDocumentStore() *FakeDocumentStore {
	return &FakeDocumentStore{docs: map[string]*models.Document{}, Now: time.Now}
}

func key(collection, id string) string { return collection + "/" + id }

func (f *FakeDocumentStore) Get(_ context.Context, collection, id string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, ok := f.docs[key(collection, id)]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", shared.ErrDocumentNotFound, collection, id)
	}
	out := *doc
	return &out, nil
}

func (f *FakeDocumentStore) List(_ context.Context, collection string, opts models.ListOptions) ([]models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Document
	for _, k := range f.order {
		if doc := f.docs[k]; doc.Collection == collection {
			out = append(out, *doc)
		}
	}
	if opts.Descending {
		slices.Reverse(out)
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (f *FakeDocumentStore) Add(ctx context.Context, collection string, fields models.Fields) (string, error) {
	if f.AddErr != nil {
		return "", f.AddErr
	}

	f.mu.Lock()
	f.next++
	id := fmt.Sprintf("doc-%d", f.next)
	f.mu.Unlock()

	return id, f.Set(ctx, collection, id, fields)
}

func (f *FakeDocumentStore) Set(_ context.Context, collection, id string, fields models.Fields) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.Now()
	k := key(collection, id)
	if _, ok := f.docs[k]; !ok {
		f.order = append(f.order, k)
	}
	f.docs[k] = &models.Document{
		ID:         id,
		Collection: collection,
		Fields:     resolve(fields, now),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	f.Writes++
	return nil
}

func (f *FakeDocumentStore) UpdateFields(_ context.Context, collection, id string, fields models.Fields) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, ok := f.docs[key(collection, id)]
	if !ok {
		return fmt.Errorf("%w: %s/%s", shared.ErrDocumentNotFound, collection, id)
	}

	now := f.Now()
	for path, value := range resolve(fields, now) {
		parts := strings.Split(path, ".")
		target := map[string]any(doc.Fields)
		for _, p := range parts[:len(parts)-1] {
			child, ok := target[p].(map[string]any)
			if !ok {
				child = map[string]any{}
				target[p] = child
			}
			target = child
		}
		target[parts[len(parts)-1]] = value
	}
	doc.UpdatedAt = now
	f.Writes++
	return nil
}

// Documents returns every document of a collection in insertion order.
func (f *FakeDocumentStore) Documents(collection string) []models.Document {
	docs, _ := f.List(context.Background(), collection, models.ListOptions{})
	return docs
}

func resolve(fields models.Fields, now time.Time) models.Fields {
	out := make(models.Fields, len(fields))
	for k, v := range fields {
		switch val := v.(type) {
		case models.Fields:
			out[k] = map[string]any(resolve(val, now))
		case map[string]any:
			out[k] = map[string]any(resolve(val, now))
		default:
			if v == models.ServerTimestamp {
				out[k] = now.UTC().Format(time.RFC3339Nano)
				continue
			}
			out[k] = v
		}
	}
	return out
}
