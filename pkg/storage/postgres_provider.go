package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

// SQL statements used by the PostgreSQL document store
const (
	postgresCreateDocumentsTable = `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			data BYTEA NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (collection, id)
		);
		CREATE INDEX IF NOT EXISTS documents_updated_at_idx ON documents (collection, updated_at);
	`

	postgresUpsertDocument = `INSERT INTO documents (collection, id, data, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`

	postgresSelectDocument = `SELECT data, updated_at FROM documents WHERE collection = $1 AND id = $2`

	postgresListDocuments = `SELECT id, data, updated_at FROM documents WHERE collection = $1 ORDER BY id`

	postgresDeleteDocument = `DELETE FROM documents WHERE collection = $1 AND id = $2`
)

// PostgreSQLProviderConfig contains configuration for the PostgreSQL provider
type PostgreSQLProviderConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// PostgreSQLProvider implements the StorageProvider interface using PostgreSQL
type PostgreSQLProvider struct {
	documentStores
	db   *sql.DB
	docs *PostgreSQLDocumentStore
}

// NewPostgreSQLProvider creates a new PostgreSQL storage provider
func NewPostgreSQLProvider(config PostgreSQLProviderConfig) (*PostgreSQLProvider, error) {
	// Set default port if not specified
	if config.Port == 0 {
		config.Port = 5432
	}

	// Set default SSL mode if not specified
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}

	// Create connection string
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.Database, config.SSLMode,
	)

	// Connect to database
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	return NewPostgreSQLProviderWithDB(db), nil
}

// NewPostgreSQLProviderWithDB creates a PostgreSQL provider around an open database
func NewPostgreSQLProviderWithDB(db *sql.DB) *PostgreSQLProvider {
	docs := &PostgreSQLDocumentStore{db: db}
	return &PostgreSQLProvider{
		documentStores: newDocumentStores(docs),
		db:             db,
		docs:           docs,
	}
}

// Initialize creates the documents table if it doesn't exist
func (p *PostgreSQLProvider) Initialize() error {
	if _, err := p.db.Exec(postgresCreateDocumentsTable); err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}
	return nil
}

// Close cleans up resources
func (p *PostgreSQLProvider) Close() error {
	return p.db.Close()
}

// PostgreSQLDocumentStore implements the DocumentStore interface using PostgreSQL
type PostgreSQLDocumentStore struct {
	db *sql.DB
}

// PutDocument creates or replaces a document
func (s *PostgreSQLDocumentStore) PutDocument(ctx context.Context, doc Document) error {
	if doc.ID == "" {
		return ErrMissingID
	}

	if _, err := s.db.ExecContext(ctx, postgresUpsertDocument, doc.Collection, doc.ID, doc.Data, doc.UpdatedAt); err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document
func (s *PostgreSQLDocumentStore) GetDocument(ctx context.Context, collection, id string) (Document, error) {
	doc := Document{Collection: collection, ID: id}

	err := s.db.QueryRowContext(ctx, postgresSelectDocument, collection, id).Scan(&doc.Data, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("failed to get document: %w", err)
	}

	doc.UpdatedAt = doc.UpdatedAt.UTC()
	return doc, nil
}

// ListDocuments returns every document of a collection
func (s *PostgreSQLDocumentStore) ListDocuments(ctx context.Context, collection string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, postgresListDocuments, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		doc := Document{Collection: collection}
		if err := rows.Scan(&doc.ID, &doc.Data, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.UpdatedAt = doc.UpdatedAt.UTC()
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes a document
func (s *PostgreSQLDocumentStore) DeleteDocument(ctx context.Context, collection, id string) error {
	result, err := s.db.ExecContext(ctx, postgresDeleteDocument, collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
