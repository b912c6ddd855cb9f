package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
)

// RedisProviderConfig contains configuration for the Redis provider
type RedisProviderConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisProvider implements the StorageProvider interface using Redis hashes,
// one hash per collection keyed by document id
type RedisProvider struct {
	documentStores
	client *redis.Client
	docs   *RedisDocumentStore
}

// NewRedisProvider creates a new Redis storage provider
func NewRedisProvider(config RedisProviderConfig) (*RedisProvider, error) {
	if config.Addr == "" {
		return nil, fmt.Errorf("address is required for Redis provider")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return NewRedisProviderWithClient(client, config.KeyPrefix), nil
}

// NewRedisProviderWithClient creates a Redis provider around an existing client
func NewRedisProviderWithClient(client *redis.Client, keyPrefix string) *RedisProvider {
	docs := &RedisDocumentStore{client: client, keyPrefix: keyPrefix}
	return &RedisProvider{
		documentStores: newDocumentStores(docs),
		client:         client,
		docs:           docs,
	}
}

// Initialize verifies the server is reachable
func (p *RedisProvider) Initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return nil
}

// Close cleans up resources
func (p *RedisProvider) Close() error {
	return p.client.Close()
}

// RedisDocumentStore implements the DocumentStore interface using Redis
type RedisDocumentStore struct {
	client    *redis.Client
	keyPrefix string
}

type redisEnvelope struct {
	Data      []byte `json:"data"`
	UpdatedAt int64  `json:"updated_at"`
}

func (s *RedisDocumentStore) key(collection string) string {
	return s.keyPrefix + collection
}

func decodeEnvelope(collection, id, raw string) (Document, error) {
	var env redisEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return Document{}, fmt.Errorf("failed to decode document %s/%s: %w", collection, id, err)
	}
	return Document{
		Collection: collection,
		ID:         id,
		Data:       env.Data,
		UpdatedAt:  time.Unix(0, env.UpdatedAt).UTC(),
	}, nil
}

// PutDocument creates or replaces a document
func (s *RedisDocumentStore) PutDocument(ctx context.Context, doc Document) error {
	if doc.ID == "" {
		return ErrMissingID
	}

	payload, err := json.Marshal(redisEnvelope{Data: doc.Data, UpdatedAt: doc.UpdatedAt.UnixNano()})
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	if err := s.client.HSet(ctx, s.key(doc.Collection), doc.ID, payload).Err(); err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document
func (s *RedisDocumentStore) GetDocument(ctx context.Context, collection, id string) (Document, error) {
	raw, err := s.client.HGet(ctx, s.key(collection), id).Result()
	if errors.Is(err, redis.Nil) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("failed to get document: %w", err)
	}
	return decodeEnvelope(collection, id, raw)
}

// ListDocuments returns every document of a collection
func (s *RedisDocumentStore) ListDocuments(ctx context.Context, collection string) ([]Document, error) {
	entries, err := s.client.HGetAll(ctx, s.key(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	docs := make([]Document, 0, len(entries))
	for id, raw := range entries {
		doc, err := decodeEnvelope(collection, id, raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// DeleteDocument removes a document
func (s *RedisDocumentStore) DeleteDocument(ctx context.Context, collection, id string) error {
	removed, err := s.client.HDel(ctx, s.key(collection), id).Result()
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}
