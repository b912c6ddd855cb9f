package models

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateIntegration checks the structural rules of an integration document
func ValidateIntegration(integration Integration) error {
	if err := validate.Struct(integration); err != nil {
		return fmt.Errorf("invalid integration: %w", err)
	}
	return nil
}

// ValidateConnection checks the structural rules of a connection
func ValidateConnection(connection Connection) error {
	if err := validate.Struct(connection); err != nil {
		return fmt.Errorf("invalid connection: %w", err)
	}
	return nil
}
