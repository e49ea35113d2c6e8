package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"

	"github.com/ng-cloudflare/plexrequest/pkg/records"
)

// DynamoPutItemAPI is the part of the DynamoDB client the record store uses.
type DynamoPutItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoRecordStore implements the records.Store interface on dynamodb
type DynamoRecordStore struct {
	tableName      string
	dynamoDbClient DynamoPutItemAPI
	now            func() time.Time
	newID          func() string
}

var _ records.Store = (*DynamoRecordStore)(nil)

// NewDynamoRecordStore returns a records.Store connected to a AWS DynamoDB table
func NewDynamoRecordStore(cfg aws.Config, tableName string, opts ...func(*dynamodb.Options)) *DynamoRecordStore {
	return NewDynamoRecordStoreWithClient(dynamodb.NewFromConfig(cfg, opts...), tableName)
}

// NewDynamoRecordStoreWithClient returns a records.Store that writes with the
// given client.
func NewDynamoRecordStoreWithClient(client DynamoPutItemAPI, tableName string) *DynamoRecordStore {
	return &DynamoRecordStore{
		tableName:      tableName,
		dynamoDbClient: client,
		now:            time.Now,
		newID:          uuid.NewString,
	}
}

// Add implements records.Store.
func (d *DynamoRecordStore) Add(ctx context.Context, rec records.Record) error {
	item, err := attributevalue.MarshalMap(recordItem{
		ID:        d.newID(),
		Title:     rec.Title,
		Why:       rec.Why,
		Who:       rec.Who,
		Email:     rec.Email,
		CreatedAt: d.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("serializing record: %w", err)
	}
	// ids are random, a collision must fail rather than replace a request
	cond := expression.AttributeNotExists(expression.Name("id"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("building condition: %w", err)
	}
	_, err = d.dynamoDbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(d.tableName),
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		return fmt.Errorf("storing record: %w", err)
	}
	return nil
}

// recordItem is the table layout. A nil Email is written as a NULL attribute.
type recordItem struct {
	ID        string  `dynamodbav:"id"`
	Title     string  `dynamodbav:"title"`
	Why       string  `dynamodbav:"why"`
	Who       string  `dynamodbav:"who"`
	Email     *string `dynamodbav:"email"`
	CreatedAt string  `dynamodbav:"created_at"`
}
