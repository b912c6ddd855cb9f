package models

import (
	"fmt"

	"github.com/goccy/go-json"
)

// SerializeIntegration encodes an integration for the draft store
func SerializeIntegration(integration Integration) ([]byte, error) {
	data, err := json.Marshal(integration)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize integration: %w", err)
	}
	return data, nil
}

// DeserializeIntegration decodes an integration produced by SerializeIntegration
func DeserializeIntegration(data []byte) (Integration, error) {
	var integration Integration
	if err := json.Unmarshal(data, &integration); err != nil {
		return Integration{}, fmt.Errorf("failed to deserialize integration: %w", err)
	}
	if integration.Tags == nil {
		integration.Tags = []string{}
	}
	return integration, nil
}

// SerializeConnection encodes a connection for storage
func SerializeConnection(connection Connection) ([]byte, error) {
	data, err := json.Marshal(connection)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize connection: %w", err)
	}
	return data, nil
}

// DeserializeConnection decodes a connection produced by SerializeConnection
func DeserializeConnection(data []byte) (Connection, error) {
	var connection Connection
	if err := json.Unmarshal(data, &connection); err != nil {
		return Connection{}, fmt.Errorf("failed to deserialize connection: %w", err)
	}
	return connection, nil
}
