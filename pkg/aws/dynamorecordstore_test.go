package aws

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcdynamodb "github.com/testcontainers/testcontainers-go/modules/dynamodb"

	"github.com/ng-cloudflare/plexrequest/pkg/internal/testutil"
)

type fakePutItem struct {
	inputs []*dynamodb.PutItemInput
	err    error
}

func (f *fakePutItem) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.PutItemOutput{}, nil
}

func fixedStore(client DynamoPutItemAPI, table string) *DynamoRecordStore {
	s := NewDynamoRecordStoreWithClient(client, table)
	s.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	s.newID = func() string { return "record-id" }
	return s
}

func TestDynamoRecordStore(t *testing.T) {
	t.Run("writes the record as an item", func(t *testing.T) {
		client := &fakePutItem{}
		store := fixedStore(client, "plex-requests")
		rec := testutil.RandomRecordWithEmail()

		require.NoError(t, store.Add(context.Background(), rec))

		require.Len(t, client.inputs, 1)
		in := client.inputs[0]
		require.Equal(t, "plex-requests", aws.ToString(in.TableName))

		var item recordItem
		require.NoError(t, attributevalue.UnmarshalMap(in.Item, &item))
		require.Equal(t, "record-id", item.ID)
		require.Equal(t, rec.Title, item.Title)
		require.Equal(t, rec.Why, item.Why)
		require.Equal(t, rec.Who, item.Who)
		require.Equal(t, *rec.Email, *item.Email)
		require.Equal(t, "2024-03-01T12:00:00Z", item.CreatedAt)
	})

	t.Run("absent email is stored as null", func(t *testing.T) {
		client := &fakePutItem{}
		store := fixedStore(client, "plex-requests")

		require.NoError(t, store.Add(context.Background(), testutil.RandomRecord()))

		require.Len(t, client.inputs, 1)
		email, ok := client.inputs[0].Item["email"]
		require.True(t, ok)
		require.IsType(t, &types.AttributeValueMemberNULL{}, email)
	})

	t.Run("never overwrites an existing record", func(t *testing.T) {
		client := &fakePutItem{}
		store := fixedStore(client, "plex-requests")

		require.NoError(t, store.Add(context.Background(), testutil.RandomRecord()))

		in := client.inputs[0]
		require.NotNil(t, in.ConditionExpression)
		require.Contains(t, aws.ToString(in.ConditionExpression), "attribute_not_exists")
		var names []string
		for _, n := range in.ExpressionAttributeNames {
			names = append(names, n)
		}
		require.Equal(t, []string{"id"}, names)
	})

	t.Run("client errors are returned", func(t *testing.T) {
		cause := errors.New("throttled")
		store := fixedStore(&fakePutItem{err: cause}, "plex-requests")

		err := store.Add(context.Background(), testutil.RandomRecord())
		require.ErrorIs(t, err, cause)
		require.ErrorContains(t, err, "storing record")
	})
}

func TestDynamoRecordStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping dynamodb container test in short mode")
	}
	skipWithoutContainerProvider(t, testcontainers.SkipIfProviderIsNotHealthy)

	ctx := context.Background()
	endpoint := createDynamo(t)
	opts := dynamoOptions(endpoint)
	client := dynamodb.NewFromConfig(aws.Config{}, opts...)
	table := "plex-requests-" + testutil.RandomString()
	createRecordsTable(t, client, table)

	store := NewDynamoRecordStore(aws.Config{}, table, opts...)
	store.newID = func() string { return "first" }
	rec := testutil.RandomRecord()
	require.NoError(t, store.Add(ctx, rec))

	res, err := client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: "first"},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Item)

	var item recordItem
	require.NoError(t, attributevalue.UnmarshalMap(res.Item, &item))
	require.Equal(t, rec.Title, item.Title)
	require.Equal(t, rec.Why, item.Why)
	require.Equal(t, rec.Who, item.Who)
	require.Nil(t, item.Email)
	require.IsType(t, &types.AttributeValueMemberNULL{}, res.Item["email"])

	err = store.Add(ctx, testutil.RandomRecord())
	var conditionFailed *types.ConditionalCheckFailedException
	require.ErrorAs(t, err, &conditionFailed)
}

// skipWithoutContainerProvider runs check and skips the test when it panics,
// which testcontainers does when no docker host can be found at all.
func skipWithoutContainerProvider(t *testing.T, check func(*testing.T)) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			t.Skipf("no container provider available: %v", r)
		}
	}()
	check(t)
}

func TestSkipWithoutContainerProvider(t *testing.T) {
	t.Run("panicking check skips", func(t *testing.T) {
		var inner *testing.T
		t.Run("container", func(t *testing.T) {
			inner = t
			skipWithoutContainerProvider(t, func(*testing.T) {
				panic("rootless Docker not found")
			})
			t.Fatal("test continued without a container provider")
		})
		require.True(t, inner.Skipped())
	})

	t.Run("healthy check continues", func(t *testing.T) {
		skipWithoutContainerProvider(t, func(*testing.T) {})
		require.False(t, t.Skipped())
	})
}

func createDynamo(t *testing.T) *url.URL {
	ctx := context.Background()
	container, err := tcdynamodb.Run(ctx, "amazon/dynamodb-local:latest")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	endpoint, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	return testutil.Must(url.Parse("http://" + endpoint))(t)
}

func dynamoOptions(endpoint *url.URL) []func(*dynamodb.Options) {
	return []func(*dynamodb.Options){
		func(o *dynamodb.Options) {
			o.Credentials = credentials.NewStaticCredentialsProvider("DUMMYIDEXAMPLE", "DUMMYEXAMPLEKEY", "")
			o.Region = "us-east-1"
			o.BaseEndpoint = aws.String(endpoint.String())
		},
	}
}

func createRecordsTable(t *testing.T, client *dynamodb.Client, table string) {
	_, err := client.CreateTable(context.Background(), &dynamodb.CreateTableInput{
		TableName: aws.String(table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	require.NoError(t, err)
}
