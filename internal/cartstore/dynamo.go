package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/example/retailhub/internal/domain/cart"
)

// DynamoStore is a Store backed by a DynamoDB table keyed by session
// key. Expiry relies on the table's TTL attribute, so an expired item
// may linger briefly; Get filters those out itself.
type DynamoStore struct {
	client    *dynamodb.Client
	tableName string
	ttl       time.Duration
}

type dynamoCart struct {
	SessionKey string `dynamodbav:"session_key"`
	Cart       []byte `dynamodbav:"cart"`
	ExpiresAt  int64  `dynamodbav:"expires_at"`
}

func NewDynamoStore(client *dynamodb.Client, tableName string, ttl time.Duration) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName, ttl: ttl}
}

func (s *DynamoStore) Get(ctx context.Context, sessionKey string) (*cart.Cart, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"session_key": &types.AttributeValueMemberS{Value: sessionKey},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb get failed: %w", err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var item dynamoCart
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal cart item failed: %w", err)
	}
	if item.ExpiresAt > 0 && time.Now().Unix() > item.ExpiresAt {
		return nil, ErrNotFound
	}

	var c cart.Cart
	if err := json.Unmarshal(item.Cart, &c); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return &c, nil
}

func (s *DynamoStore) Set(ctx context.Context, sessionKey string, c *cart.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	item, err := attributevalue.MarshalMap(dynamoCart{
		SessionKey: sessionKey,
		Cart:       data,
		ExpiresAt:  time.Now().Add(s.ttl).Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal cart item failed: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("dynamodb put failed: %w", err)
	}
	return nil
}

func (s *DynamoStore) Delete(ctx context.Context, sessionKey string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"session_key": &types.AttributeValueMemberS{Value: sessionKey},
		},
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("dynamodb delete failed: %w", err)
	}
	return nil
}
