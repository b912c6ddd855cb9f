package config

import (
	"github.com/tcmartin/integrator/pkg/logging"
	"github.com/tcmartin/integrator/pkg/storage"
)

// ProviderConfig converts the storage section into a storage provider configuration
func (s StorageConfig) ProviderConfig() storage.ProviderConfig {
	pc := storage.ProviderConfig{Type: storage.ProviderType(s.Type)}

	switch pc.Type {
	case storage.FileProviderType:
		pc.File = &storage.FileProviderConfig{Directory: s.File.Directory}
	case storage.RedisProviderType:
		pc.Redis = &storage.RedisProviderConfig{
			Addr:      s.Redis.Addr,
			Password:  s.Redis.Password,
			DB:        s.Redis.DB,
			KeyPrefix: s.Redis.KeyPrefix,
		}
	case storage.DynamoDBProviderType:
		pc.DynamoDB = &storage.DynamoDBProviderConfig{
			Region:      s.DynamoDB.Region,
			TablePrefix: s.DynamoDB.TablePrefix,
			Endpoint:    s.DynamoDB.Endpoint,
		}
	case storage.PostgreSQLProviderType:
		pc.PostgreSQL = &storage.PostgreSQLProviderConfig{
			Host:     s.Postgres.Host,
			Port:     s.Postgres.Port,
			User:     s.Postgres.User,
			Password: s.Postgres.Password,
			Database: s.Postgres.Database,
			SSLMode:  s.Postgres.SSLMode,
		}
	}
	return pc
}

// LogConfig converts the logging section into a logger configuration
func (l LoggingConfig) LogConfig() logging.LogConfig {
	return logging.LogConfig{
		Level:            l.Level,
		Format:           l.Format,
		Output:           l.Output,
		FilePath:         l.FilePath,
		IncludeTimestamp: true,
		IncludeCaller:    l.Level == "debug",
	}
}

// DraftProviderConfig returns the storage configuration of the CLI's local draft store
func (c ClientConfig) DraftProviderConfig() storage.ProviderConfig {
	if c.DraftStore == "memory" {
		return storage.ProviderConfig{Type: storage.MemoryProviderType}
	}
	return storage.ProviderConfig{
		Type: storage.FileProviderType,
		File: &storage.FileProviderConfig{Directory: c.DraftDirectory},
	}
}
