package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tcmartin/integrator/pkg/models"
)

// ListIntegrations returns every integration
func (c *Client) ListIntegrations(ctx context.Context) ([]models.Integration, error) {
	integrations := []models.Integration{}
	if err := c.do(ctx, http.MethodGet, "/integrations", nil, &integrations); err != nil {
		return nil, err
	}
	return integrations, nil
}

// SearchIntegrations returns the integrations tagged with tag whose name
// fuzzily matches query; empty arguments match everything
func (c *Client) SearchIntegrations(ctx context.Context, tag, query string) ([]models.Integration, error) {
	params := url.Values{}
	if tag != "" {
		params.Set("tag", tag)
	}
	if query != "" {
		params.Set("q", query)
	}
	path := "/integrations"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	integrations := []models.Integration{}
	if err := c.do(ctx, http.MethodGet, path, nil, &integrations); err != nil {
		return nil, err
	}
	return integrations, nil
}

// GetIntegration returns a single integration
func (c *Client) GetIntegration(ctx context.Context, id string) (models.Integration, error) {
	var integration models.Integration
	err := c.do(ctx, http.MethodGet, "/integrations/"+url.PathEscape(id), nil, &integration)
	return integration, err
}

// CreateIntegration posts a new integration and returns the stored document
func (c *Client) CreateIntegration(ctx context.Context, integration models.Integration) (models.Integration, error) {
	var created models.Integration
	err := c.do(ctx, http.MethodPost, "/integrations", integration, &created)
	return created, err
}

// UpdateIntegration replaces the integration with the given id
func (c *Client) UpdateIntegration(ctx context.Context, id string, integration models.Integration) (models.Integration, error) {
	var updated models.Integration
	err := c.do(ctx, http.MethodPut, "/integrations/"+url.PathEscape(id), integration, &updated)
	return updated, err
}

// DeleteIntegration removes an integration
func (c *Client) DeleteIntegration(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/integrations/"+url.PathEscape(id), nil, nil)
}
