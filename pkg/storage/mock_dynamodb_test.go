package storage

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
)

// MockDynamoDBAPI implements the parts of dynamodbiface.DynamoDBAPI used by the
// document store, keeping tables in memory
type MockDynamoDBAPI struct {
	dynamodbiface.DynamoDBAPI
	mu     sync.RWMutex
	tables map[string]*MockTable

	// PageSize limits Query results to exercise pagination
	PageSize int
}

// MockTable represents a DynamoDB table in memory
type MockTable struct {
	Name      string
	KeySchema []*dynamodb.KeySchemaElement
	Items     map[string]map[string]*dynamodb.AttributeValue
}

// NewMockDynamoDBAPI creates a new mock DynamoDB client
func NewMockDynamoDBAPI() *MockDynamoDBAPI {
	return &MockDynamoDBAPI{
		tables: make(map[string]*MockTable),
	}
}

func resourceNotFound(tableName string) error {
	return awserr.New(dynamodb.ErrCodeResourceNotFoundException, "table not found: "+tableName, nil)
}

// generateKey joins the key schema values of an item
func generateKey(item map[string]*dynamodb.AttributeValue, keySchema []*dynamodb.KeySchemaElement) string {
	parts := make([]string, 0, len(keySchema))
	for _, k := range keySchema {
		if v, ok := item[aws.StringValue(k.AttributeName)]; ok {
			parts = append(parts, aws.StringValue(v.S))
		}
	}
	return strings.Join(parts, "#")
}

func (m *MockDynamoDBAPI) table(name *string) (*MockTable, error) {
	t, ok := m.tables[aws.StringValue(name)]
	if !ok {
		return nil, resourceNotFound(aws.StringValue(name))
	}
	return t, nil
}

// DescribeTableWithContext describes a mock table
func (m *MockDynamoDBAPI) DescribeTableWithContext(_ aws.Context, input *dynamodb.DescribeTableInput, _ ...request.Option) (*dynamodb.DescribeTableOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, err := m.table(input.TableName)
	if err != nil {
		return nil, err
	}
	return &dynamodb.DescribeTableOutput{
		Table: &dynamodb.TableDescription{
			TableName:   aws.String(t.Name),
			TableStatus: aws.String(dynamodb.TableStatusActive),
			KeySchema:   t.KeySchema,
		},
	}, nil
}

// CreateTableWithContext creates a mock table
func (m *MockDynamoDBAPI) CreateTableWithContext(_ aws.Context, input *dynamodb.CreateTableInput, _ ...request.Option) (*dynamodb.CreateTableOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tableName := aws.StringValue(input.TableName)
	if _, exists := m.tables[tableName]; exists {
		return nil, fmt.Errorf("table already exists: %s", tableName)
	}

	m.tables[tableName] = &MockTable{
		Name:      tableName,
		KeySchema: input.KeySchema,
		Items:     make(map[string]map[string]*dynamodb.AttributeValue),
	}
	return &dynamodb.CreateTableOutput{}, nil
}

// WaitUntilTableExistsWithContext returns immediately once the table is known
func (m *MockDynamoDBAPI) WaitUntilTableExistsWithContext(_ aws.Context, input *dynamodb.DescribeTableInput, _ ...request.WaiterOption) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, err := m.table(input.TableName)
	return err
}

// PutItemWithContext stores an item
func (m *MockDynamoDBAPI) PutItemWithContext(_ aws.Context, input *dynamodb.PutItemInput, _ ...request.Option) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.table(input.TableName)
	if err != nil {
		return nil, err
	}
	t.Items[generateKey(input.Item, t.KeySchema)] = input.Item
	return &dynamodb.PutItemOutput{}, nil
}

// GetItemWithContext retrieves an item
func (m *MockDynamoDBAPI) GetItemWithContext(_ aws.Context, input *dynamodb.GetItemInput, _ ...request.Option) (*dynamodb.GetItemOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, err := m.table(input.TableName)
	if err != nil {
		return nil, err
	}
	return &dynamodb.GetItemOutput{Item: t.Items[generateKey(input.Key, t.KeySchema)]}, nil
}

// QueryWithContext supports the "#c = :c" hash key condition
func (m *MockDynamoDBAPI) QueryWithContext(_ aws.Context, input *dynamodb.QueryInput, _ ...request.Option) (*dynamodb.QueryOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, err := m.table(input.TableName)
	if err != nil {
		return nil, err
	}

	attr := aws.StringValue(input.ExpressionAttributeNames["#c"])
	want := aws.StringValue(input.ExpressionAttributeValues[":c"].S)

	keys := make([]string, 0)
	for key, item := range t.Items {
		if v, ok := item[attr]; ok && aws.StringValue(v.S) == want {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	start := 0
	if len(input.ExclusiveStartKey) > 0 {
		last := generateKey(input.ExclusiveStartKey, t.KeySchema)
		start = sort.SearchStrings(keys, last) + 1
	}

	output := &dynamodb.QueryOutput{}
	for i := start; i < len(keys); i++ {
		if m.PageSize > 0 && len(output.Items) == m.PageSize {
			last := t.Items[keys[i-1]]
			output.LastEvaluatedKey = map[string]*dynamodb.AttributeValue{}
			for _, k := range t.KeySchema {
				name := aws.StringValue(k.AttributeName)
				output.LastEvaluatedKey[name] = last[name]
			}
			break
		}
		output.Items = append(output.Items, t.Items[keys[i]])
	}
	return output, nil
}

// DeleteItemWithContext removes an item, returning its old attributes
func (m *MockDynamoDBAPI) DeleteItemWithContext(_ aws.Context, input *dynamodb.DeleteItemInput, _ ...request.Option) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.table(input.TableName)
	if err != nil {
		return nil, err
	}

	key := generateKey(input.Key, t.KeySchema)
	old := t.Items[key]
	delete(t.Items, key)
	return &dynamodb.DeleteItemOutput{Attributes: old}, nil
}
