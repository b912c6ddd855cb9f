package storage

import (
	"fmt"
)

// ProviderType represents the type of storage provider
type ProviderType string

const (
	// MemoryProviderType is an in-memory storage provider
	MemoryProviderType ProviderType = "memory"

	// FileProviderType stores documents as files in a directory
	FileProviderType ProviderType = "file"

	// RedisProviderType is a Redis storage provider
	RedisProviderType ProviderType = "redis"

	// DynamoDBProviderType is a DynamoDB storage provider
	DynamoDBProviderType ProviderType = "dynamodb"

	// PostgreSQLProviderType is a PostgreSQL storage provider
	PostgreSQLProviderType ProviderType = "postgresql"
)

// ProviderConfig contains configuration for storage providers
type ProviderConfig struct {
	// Type is the type of storage provider to create
	Type ProviderType

	// File contains configuration for the file provider
	File *FileProviderConfig

	// Redis contains configuration for the Redis provider
	Redis *RedisProviderConfig

	// DynamoDB contains configuration for the DynamoDB provider
	DynamoDB *DynamoDBProviderConfig

	// PostgreSQL contains configuration for the PostgreSQL provider
	PostgreSQL *PostgreSQLProviderConfig
}

// errMissingSection reports a provider type selected without its settings
func errMissingSection(t ProviderType) error {
	return fmt.Errorf("%s provider selected but its configuration section is empty", t)
}

// NewProvider creates the storage provider selected by config.Type. An empty
// type selects the memory provider.
func NewProvider(config ProviderConfig) (StorageProvider, error) {
	switch config.Type {
	case MemoryProviderType, "":
		return NewMemoryProvider(), nil
	case FileProviderType:
		if config.File == nil {
			return nil, errMissingSection(config.Type)
		}
		return NewFileProvider(*config.File)
	case RedisProviderType:
		if config.Redis == nil {
			return nil, errMissingSection(config.Type)
		}
		return NewRedisProvider(*config.Redis)
	case DynamoDBProviderType:
		if config.DynamoDB == nil {
			return nil, errMissingSection(config.Type)
		}
		return NewDynamoDBProvider(*config.DynamoDB)
	case PostgreSQLProviderType:
		if config.PostgreSQL == nil {
			return nil, errMissingSection(config.Type)
		}
		return NewPostgreSQLProvider(*config.PostgreSQL)
	}
	return nil, fmt.Errorf("unknown storage provider %q", config.Type)
}
