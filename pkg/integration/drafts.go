package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tcmartin/integrator/pkg/models"
	"github.com/tcmartin/integrator/pkg/storage"
)

// DraftKeyPrefix prefixes every draft key in the draft store
const DraftKeyPrefix = "iec-"

// DraftKey returns the store key of the draft for id
func DraftKey(id string) string {
	return DraftKeyPrefix + id
}

// DraftID returns the integration id of a draft key
func DraftID(key string) (string, bool) {
	if !strings.HasPrefix(key, DraftKeyPrefix) {
		return "", false
	}
	return strings.TrimPrefix(key, DraftKeyPrefix), true
}

// CreateDraft stores integration under its id, or under NewIntegrationID
// when it has none, and returns the id used.
func (h *Helper) CreateDraft(ctx context.Context, integration models.Integration) (string, error) {
	id := integration.ID
	if id == "" {
		id = NewIntegrationID
	}
	if err := h.SetDraft(ctx, id, integration); err != nil {
		return "", err
	}
	return id, nil
}

// GetDraft loads the draft stored for id
func (h *Helper) GetDraft(ctx context.Context, id string) (models.Integration, error) {
	data, err := h.drafts.GetDraft(ctx, DraftKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return models.Integration{}, fmt.Errorf("%w %s", ErrNoDraft, id)
	}
	if err != nil {
		return models.Integration{}, fmt.Errorf("failed to load draft %s: %w", id, err)
	}

	integration, err := models.DeserializeIntegration(data)
	if err != nil {
		return models.Integration{}, fmt.Errorf("failed to decode draft %s: %w", id, err)
	}
	return integration, nil
}

// SetDraft stores integration as the draft for id
func (h *Helper) SetDraft(ctx context.Context, id string, integration models.Integration) error {
	data, err := models.SerializeIntegration(integration)
	if err != nil {
		return fmt.Errorf("failed to encode draft %s: %w", id, err)
	}

	key := DraftKey(id)
	if err := h.drafts.SaveDraft(ctx, key, data); err != nil {
		return fmt.Errorf("failed to store draft %s: %w", id, err)
	}
	h.logger.LogDraftEvent(key, "stored", map[string]interface{}{"size": len(data)})
	return nil
}

// GetCreationDraft loads the draft of the integration being created
func (h *Helper) GetCreationDraft(ctx context.Context) (models.Integration, error) {
	integration, err := h.GetDraft(ctx, NewIntegrationID)
	if errors.Is(err, ErrNoDraft) {
		return models.Integration{}, ErrNoCreationDraft
	}
	return integration, err
}

// SetCreationDraft stores the draft of the integration being created
func (h *Helper) SetCreationDraft(ctx context.Context, integration models.Integration) error {
	return h.SetDraft(ctx, NewIntegrationID, integration)
}

// DeleteDraft removes the draft for id
func (h *Helper) DeleteDraft(ctx context.Context, id string) error {
	key := DraftKey(id)
	err := h.drafts.DeleteDraft(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w %s", ErrNoDraft, id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", id, err)
	}
	h.logger.LogDraftEvent(key, "deleted", nil)
	return nil
}

// ListDrafts returns the stored drafts, skipping keys the helper did not write
func (h *Helper) ListDrafts(ctx context.Context) ([]storage.DraftInfo, error) {
	infos, err := h.drafts.ListDrafts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}

	drafts := make([]storage.DraftInfo, 0, len(infos))
	for _, info := range infos {
		if _, ok := DraftID(info.Key); ok {
			drafts = append(drafts, info)
		}
	}
	return drafts, nil
}
