package ds

import (
	"context"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"

	"github.com/weegigs/wee-contracts-go/we"
)

const (
	latestSortKey  = "latest-revision"
	entryPrefix    = "entry#"
	maxTransaction = 25
)

type LedgerTableName string

func (name LedgerTableName) String() string {
	return string(name)
}

// ExpiryFunc maps the last live ledger of an entry to the wall clock time DynamoDB may evict it.
type ExpiryFunc func(we.LedgerSequence) time.Time

type DynamoLedger struct {
	db       *dynamodb.Client
	table    string
	revision *we.RevisionGenerator
	expiry   ExpiryFunc
}

func NewLedger(db *dynamodb.Client, table LedgerTableName, expiry ExpiryFunc) *DynamoLedger {
	return &DynamoLedger{db: db, table: string(table), revision: we.NewRevisionGenerator(), expiry: expiry}
}

func ClockExpiry(clock *we.LedgerClock) ExpiryFunc {
	return func(liveUntil we.LedgerSequence) time.Time {
		return clock.CloseOf(liveUntil + 1)
	}
}

// Load reads sort keys in descending order so the latest-revision guard is read before the entries it guards.
// Entries may be newer than the loaded revision but never older, so a stale load always fails its commit.
func (ds *DynamoLedger) Load(ctx context.Context, id we.ContractId) (we.Instance, error) {
	instance := we.NewInstance(id)

	input, err := ds.loadQuery(id)
	if err != nil {
		return we.Instance{}, err
	}

	for {
		out, err := ds.db.Query(ctx, input)
		if err != nil {
			return we.Instance{}, errors.Wrapf(err, "failed to query %s", id)
		}

		for _, item := range out.Items {
			if err := ds.apply(&instance, item); err != nil {
				return we.Instance{}, err
			}
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	return instance, nil
}

func (ds *DynamoLedger) loadQuery(id we.ContractId) (*dynamodb.QueryInput, error) {
	query, err := expression.NewBuilder().WithKeyCondition(
		expression.Key("pk").Equal(expression.Value(partitionKey(id))),
	).Build()
	if err != nil {
		return nil, err
	}

	return &dynamodb.QueryInput{
		TableName:                 aws.String(ds.table),
		ConsistentRead:            aws.Bool(true),
		ScanIndexForward:          aws.Bool(false),
		ExpressionAttributeNames:  query.Names(),
		ExpressionAttributeValues: query.Values(),
		KeyConditionExpression:    query.KeyCondition(),
	}, nil
}

func (ds *DynamoLedger) apply(instance *we.Instance, item map[string]types.AttributeValue) error {
	var key struct {
		SortKey string `dynamodbav:"sk"`
	}
	if err := attributevalue.UnmarshalMap(item, &key); err != nil {
		return err
	}

	switch {
	case key.SortKey == latestSortKey:
		var latest latestRecord
		if err := attributevalue.UnmarshalMap(item, &latest); err != nil {
			return errors.Wrap(err, "failed to unmarshal latest revision")
		}
		instance.Revision = latest.Revision
	case strings.HasPrefix(key.SortKey, entryPrefix):
		var record entryRecord
		if err := attributevalue.UnmarshalMap(item, &record); err != nil {
			return errors.Wrapf(err, "failed to unmarshal %s", key.SortKey)
		}
		instance.Apply(record.Entry())
	}

	return nil
}

func (ds *DynamoLedger) Commit(ctx context.Context, id we.ContractId, options we.CommitOptions, entries ...we.Entry) (we.Revision, error) {
	if len(entries) == 0 {
		return "", we.ErrEmptyCommit
	}

	if len(entries) >= maxTransaction {
		return "", errors.Errorf("change set of %d entries exceeds the dynamodb transaction limit", len(entries))
	}

	var revision we.Revision
	err := retry.Do(
		func() error {
			now := time.Now()
			revision = ds.revision.NewRevision(now)

			write, err := ds.transaction(id, options, revision, now, entries)
			if err != nil {
				return err
			}

			_, err = ds.db.TransactWriteItems(ctx, write)
			return maybeRevisionConflict(err)
		},
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			return err == we.RevisionConflict && len(options.ExpectedRevision) == 0
		}),
		retry.LastErrorOnly(true),
	)

	if err != nil {
		return "", err
	}

	return revision, nil
}

func (ds *DynamoLedger) transaction(id we.ContractId, options we.CommitOptions, revision we.Revision, now time.Time, entries []we.Entry) (*dynamodb.TransactWriteItemsInput, error) {
	timestamp := we.Timestamp(now.UTC().Format(we.RFC3339Milli))

	latest, err := attributevalue.MarshalMap(latestRecord{
		PartitionKey:  partitionKey(id),
		SortKey:       latestSortKey,
		Revision:      revision,
		Timestamp:     timestamp,
		EntryPoint:    options.Metadata.EntryPoint.String(),
		CorrelationId: options.Metadata.CorrelationId.String(),
	})
	if err != nil {
		return nil, err
	}

	condition, err := expression.NewBuilder().WithCondition(
		latestCondition(revision, options.ExpectedRevision),
	).Build()
	if err != nil {
		return nil, err
	}

	items := []types.TransactWriteItem{
		{
			Put: &types.Put{
				Item:                                latest,
				TableName:                           aws.String(ds.table),
				ConditionExpression:                 condition.Condition(),
				ExpressionAttributeNames:            condition.Names(),
				ExpressionAttributeValues:           condition.Values(),
				ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureNone,
			},
		},
	}

	for _, entry := range entries {
		record := newEntryRecord(id, entry, revision)
		if ds.expiry != nil {
			record.ExpiresAt = ds.expiry(entry.LiveUntil).Unix()
		}

		item, err := attributevalue.MarshalMap(record)
		if err != nil {
			return nil, err
		}

		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				Item:      item,
				TableName: aws.String(ds.table),
			},
		})
	}

	return &dynamodb.TransactWriteItemsInput{TransactItems: items}, nil
}

func latestCondition(revision we.Revision, expectedRevision we.Revision) expression.ConditionBuilder {
	if len(expectedRevision) == 0 {
		return expression.Name("revision").LessThan(expression.Value(revision)).Or(
			expression.AttributeNotExists(expression.Name("revision")),
		)
	}

	if expectedRevision == we.InitialRevision {
		return expression.AttributeNotExists(expression.Name("revision"))
	}

	return expression.Name("revision").Equal(expression.Value(expectedRevision))
}

func maybeRevisionConflict(err error) error {
	if err == nil {
		return nil
	}

	var tc *types.TransactionCanceledException
	if errors.As(err, &tc) {
		for _, reason := range tc.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return we.RevisionConflict
			}
		}
	}

	var oe *smithy.OperationError
	if errors.As(err, &oe) {
		return errors.Wrapf(oe.Unwrap(), "dynamodb %s failed", oe.Operation())
	}

	return err
}

// Remove deletes every item held for id and reports how many were removed.
func (ds *DynamoLedger) Remove(ctx context.Context, id we.ContractId) (int, error) {
	type record struct {
		PartitionKey string `dynamodbav:"pk"`
		SortKey      string `dynamodbav:"sk"`
	}

	query := expression.Key("pk").Equal(expression.Value(partitionKey(id)))
	projection := expression.NamesList(expression.Name("pk"), expression.Name("sk"))

	expr, err := expression.NewBuilder().WithKeyCondition(query).WithProjection(projection).Build()
	if err != nil {
		return 0, err
	}

	var count int
	var start map[string]types.AttributeValue
	for {
		out, err := ds.db.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(ds.table),
			ExclusiveStartKey:         start,
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			KeyConditionExpression:    expr.KeyCondition(),
			ProjectionExpression:      expr.Projection(),
			Limit:                     aws.Int32(maxTransaction),
		})
		if err != nil {
			return count, err
		}

		if len(out.Items) > 0 {
			var items []record
			if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
				return count, err
			}

			var actions []types.TransactWriteItem
			for _, record := range items {
				key, err := attributevalue.MarshalMap(record)
				if err != nil {
					return count, err
				}

				actions = append(actions, types.TransactWriteItem{
					Delete: &types.Delete{
						Key:       key,
						TableName: aws.String(ds.table),
					},
				})
			}

			if _, err := ds.db.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: actions}); err != nil {
				return count, err
			}

			count += len(items)
		}

		start = out.LastEvaluatedKey
		if start == nil {
			break
		}
	}

	return count, nil
}
