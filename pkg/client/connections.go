package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tcmartin/integrator/pkg/models"
)

// ListConnections returns every connection
func (c *Client) ListConnections(ctx context.Context) ([]models.Connection, error) {
	connections := []models.Connection{}
	if err := c.do(ctx, http.MethodGet, "/connections", nil, &connections); err != nil {
		return nil, err
	}
	return connections, nil
}

// GetConnection returns a single connection
func (c *Client) GetConnection(ctx context.Context, id string) (models.Connection, error) {
	var connection models.Connection
	err := c.do(ctx, http.MethodGet, "/connections/"+url.PathEscape(id), nil, &connection)
	return connection, err
}

// CreateConnection registers a connection
func (c *Client) CreateConnection(ctx context.Context, connection models.Connection) (models.Connection, error) {
	var created models.Connection
	err := c.do(ctx, http.MethodPost, "/connections", connection, &created)
	return created, err
}

// GetActionDescriptor posts configured properties to the action endpoint and
// returns the resolved descriptor.
func (c *Client) GetActionDescriptor(ctx context.Context, connectionID, actionID string, properties map[string]string) (*models.ActionDescriptor, error) {
	if properties == nil {
		properties = map[string]string{}
	}

	var descriptor models.ActionDescriptor
	path := "/connections/" + url.PathEscape(connectionID) + "/actions/" + url.PathEscape(actionID)
	if err := c.do(ctx, http.MethodPost, path, properties, &descriptor); err != nil {
		return nil, err
	}
	return &descriptor, nil
}
