package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/encore/internal/models"
	"github.com/desertthunder/encore/internal/shared"
)

// SettingsRepository manages the fixed homepage settings document.
type SettingsRepository struct {
	store models.DocumentStore
}

// NewSettingsRepository creates a new SettingsRepository over store
func NewSettingsRepository(store models.DocumentStore) *SettingsRepository {
	return &SettingsRepository{store: store}
}

// Load returns the settings, creating an empty document first if none exists.
func (r *SettingsRepository) Load(ctx context.Context) (*models.HomeSettings, error) {
	doc, err := r.store.Get(ctx, models.SettingsCollection, models.SettingsDocument)
	if errors.Is(err, shared.ErrDocumentNotFound) {
		initial := models.HomeSettings{}
		if err := r.store.Set(ctx, models.SettingsCollection, models.SettingsDocument, initial.ToFields()); err != nil {
			return nil, fmt.Errorf("failed to create settings: %w", err)
		}
		return &initial, nil
	}
	if err != nil {
		return nil, err
	}

	var settings models.HomeSettings
	if err := doc.Decode(&settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Save writes every settings field with a partial update.
func (r *SettingsRepository) Save(ctx context.Context, settings models.HomeSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := r.store.UpdateFields(ctx, models.SettingsCollection, models.SettingsDocument, settings.UpdateFields()); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
