package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/tcmartin/integrator/pkg/storage"
)

// ListDrafts returns the drafts stored on the server
func (c *Client) ListDrafts(ctx context.Context) ([]storage.DraftInfo, error) {
	drafts := []storage.DraftInfo{}
	if err := c.do(ctx, http.MethodGet, "/drafts", nil, &drafts); err != nil {
		return nil, err
	}
	return drafts, nil
}

// GetDraft returns the raw draft stored under key
func (c *Client) GetDraft(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	if err := c.do(ctx, http.MethodGet, "/drafts/"+url.PathEscape(key), nil, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// PutDraft stores a raw draft under key
func (c *Client) PutDraft(ctx context.Context, key string, data []byte) error {
	return c.do(ctx, http.MethodPut, "/drafts/"+url.PathEscape(key), data, nil)
}

// DeleteDraft removes the draft stored under key
func (c *Client) DeleteDraft(ctx context.Context, key string) error {
	return c.do(ctx, http.MethodDelete, "/drafts/"+url.PathEscape(key), nil, nil)
}

// RemoteDraftStore implements storage.DraftStore on the server's draft routes
type RemoteDraftStore struct {
	client *Client
}

// NewRemoteDraftStore creates a draft store backed by the API
func NewRemoteDraftStore(client *Client) *RemoteDraftStore {
	return &RemoteDraftStore{client: client}
}

func notFound(err error) error {
	if IsNotFound(err) {
		return storage.ErrNotFound
	}
	return err
}

// GetDraft retrieves the draft stored under key
func (s *RemoteDraftStore) GetDraft(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.GetDraft(ctx, key)
	return data, notFound(err)
}

// SaveDraft stores a draft under key
func (s *RemoteDraftStore) SaveDraft(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return storage.ErrMissingID
	}
	return s.client.PutDraft(ctx, key, data)
}

// DeleteDraft removes a draft
func (s *RemoteDraftStore) DeleteDraft(ctx context.Context, key string) error {
	return notFound(s.client.DeleteDraft(ctx, key))
}

// ListDrafts returns information about every stored draft
func (s *RemoteDraftStore) ListDrafts(ctx context.Context) ([]storage.DraftInfo, error) {
	return s.client.ListDrafts(ctx)
}

// PruneDrafts removes drafts last written before the given time
func (s *RemoteDraftStore) PruneDrafts(ctx context.Context, before time.Time) (int, error) {
	infos, err := s.client.ListDrafts(ctx)
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, info := range infos {
		if !info.UpdatedAt.Before(before) {
			continue
		}
		if err := s.DeleteDraft(ctx, info.Key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return pruned, fmt.Errorf("failed to prune draft %s: %w", info.Key, err)
		}
		pruned++
	}
	return pruned, nil
}
