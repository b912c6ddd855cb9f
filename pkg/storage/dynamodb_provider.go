package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
)

// DynamoDBProviderConfig contains configuration for the DynamoDB provider
type DynamoDBProviderConfig struct {
	Region      string
	AccessKey   string
	SecretKey   string
	TablePrefix string
	Endpoint    string // Optional, for local DynamoDB
}

// DynamoDBProvider implements the StorageProvider interface using DynamoDB
type DynamoDBProvider struct {
	documentStores
	client dynamodbiface.DynamoDBAPI
	docs   *DynamoDBDocumentStore
}

// NewDynamoDBProvider creates a new DynamoDB storage provider
func NewDynamoDBProvider(config DynamoDBProviderConfig) (*DynamoDBProvider, error) {
	// Create AWS session
	awsConfig := &aws.Config{
		Region: aws.String(config.Region),
	}

	// Set credentials if provided
	if config.AccessKey != "" && config.SecretKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"",
		)
	}

	// Set endpoint for local DynamoDB if provided
	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Endpoint)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return NewDynamoDBProviderWithClient(dynamodb.New(sess), config.TablePrefix), nil
}

// NewDynamoDBProviderWithClient creates a new DynamoDB storage provider with a custom client
// This is primarily used for testing with mock clients
func NewDynamoDBProviderWithClient(client dynamodbiface.DynamoDBAPI, tablePrefix string) *DynamoDBProvider {
	docs := &DynamoDBDocumentStore{
		client:    client,
		tableName: tablePrefix + "documents",
	}
	return &DynamoDBProvider{
		documentStores: newDocumentStores(docs),
		client:         client,
		docs:           docs,
	}
}

// Initialize creates the documents table if it doesn't exist
func (p *DynamoDBProvider) Initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	return p.docs.initializeTable(ctx)
}

// Close cleans up resources
func (p *DynamoDBProvider) Close() error {
	// Nothing to close for DynamoDB client
	return nil
}

// DynamoDBDocumentStore implements the DocumentStore interface using a single
// table keyed by (Collection, ID)
type DynamoDBDocumentStore struct {
	client    dynamodbiface.DynamoDBAPI
	tableName string
}

// dynamoDBDocumentItem represents a document item in DynamoDB
type dynamoDBDocumentItem struct {
	Collection string `dynamodbav:"Collection"`
	ID         string `dynamodbav:"ID"`
	Data       []byte `dynamodbav:"Data"`
	UpdatedAt  int64  `dynamodbav:"UpdatedAt"`
}

func (item dynamoDBDocumentItem) document() Document {
	return Document{
		Collection: item.Collection,
		ID:         item.ID,
		Data:       item.Data,
		UpdatedAt:  time.Unix(0, item.UpdatedAt).UTC(),
	}
}

func (s *DynamoDBDocumentStore) key(collection, id string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		"Collection": {S: aws.String(collection)},
		"ID":         {S: aws.String(id)},
	}
}

// initializeTable creates the documents table if it doesn't exist
func (s *DynamoDBDocumentStore) initializeTable(ctx context.Context) error {
	// Check if table exists
	_, err := s.client.DescribeTableWithContext(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.tableName),
	})
	if err == nil {
		return nil
	}

	aerr, ok := err.(awserr.Error)
	if !ok || aerr.Code() != dynamodb.ErrCodeResourceNotFoundException {
		return fmt.Errorf("failed to check if table exists: %w", err)
	}

	_, err = s.client.CreateTableWithContext(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.tableName),
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{
				AttributeName: aws.String("Collection"),
				AttributeType: aws.String("S"),
			},
			{
				AttributeName: aws.String("ID"),
				AttributeType: aws.String("S"),
			},
		},
		KeySchema: []*dynamodb.KeySchemaElement{
			{
				AttributeName: aws.String("Collection"),
				KeyType:       aws.String("HASH"),
			},
			{
				AttributeName: aws.String("ID"),
				KeyType:       aws.String("RANGE"),
			},
		},
		BillingMode: aws.String("PAY_PER_REQUEST"),
	})
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	// Wait for table to be created
	err = s.client.WaitUntilTableExistsWithContext(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.tableName),
	})
	if err != nil {
		return fmt.Errorf("failed to wait for table creation: %w", err)
	}

	return nil
}

// PutDocument creates or replaces a document
func (s *DynamoDBDocumentStore) PutDocument(ctx context.Context, doc Document) error {
	if doc.ID == "" {
		return ErrMissingID
	}

	item, err := dynamodbattribute.MarshalMap(dynamoDBDocumentItem{
		Collection: doc.Collection,
		ID:         doc.ID,
		Data:       doc.Data,
		UpdatedAt:  doc.UpdatedAt.UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	_, err = s.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document
func (s *DynamoDBDocumentStore) GetDocument(ctx context.Context, collection, id string) (Document, error) {
	result, err := s.client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.key(collection, id),
	})
	if err != nil {
		return Document{}, fmt.Errorf("failed to get document: %w", err)
	}
	if len(result.Item) == 0 {
		return Document{}, ErrNotFound
	}

	var item dynamoDBDocumentItem
	if err := dynamodbattribute.UnmarshalMap(result.Item, &item); err != nil {
		return Document{}, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return item.document(), nil
}

// ListDocuments returns every document of a collection
func (s *DynamoDBDocumentStore) ListDocuments(ctx context.Context, collection string) ([]Document, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("#c = :c"),
		ExpressionAttributeNames: map[string]*string{
			"#c": aws.String("Collection"),
		},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":c": {S: aws.String(collection)},
		},
	}

	docs := []Document{}
	for {
		result, err := s.client.QueryWithContext(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query documents: %w", err)
		}

		var items []dynamoDBDocumentItem
		if err := dynamodbattribute.UnmarshalListOfMaps(result.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal documents: %w", err)
		}
		for _, item := range items {
			docs = append(docs, item.document())
		}

		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
	return docs, nil
}

// DeleteDocument removes a document
func (s *DynamoDBDocumentStore) DeleteDocument(ctx context.Context, collection, id string) error {
	result, err := s.client.DeleteItemWithContext(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(s.tableName),
		Key:          s.key(collection, id),
		ReturnValues: aws.String(dynamodb.ReturnValueAllOld),
	})
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if len(result.Attributes) == 0 {
		return ErrNotFound
	}
	return nil
}
