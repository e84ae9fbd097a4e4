package ds

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/wire"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"

	"github.com/weegigs/wee-contracts-go/we"
)

var Live = wire.NewSet(
	DefaultAWSConfig,
	Client,
	LiveLedgerTableName,
	ClockExpiry,
	NewLedger,
	wire.Bind(new(we.Ledger), new(*DynamoLedger)),
)

var Local = wire.NewSet(
	LocalLedger,
	wire.Bind(new(we.Ledger), new(*DynamoLedger)),
)

var Test = wire.NewSet(
	TestLedger,
	wire.Bind(new(we.Ledger), new(*DynamoLedger)),
)

const LedgerTableNameVariable = "DYNAMODB_LEDGER_TABLE_NAME"

func LiveLedgerTableName() (LedgerTableName, error) {
	table := os.Getenv(LedgerTableNameVariable)
	if len(table) == 0 {
		return "", errors.New(LedgerTableNameVariable + " is not set")
	}

	return LedgerTableName(table), nil
}

func LocalLedgerTableName() LedgerTableName {
	return LedgerTableName("wee-contracts")
}

func DefaultAWSConfig(ctx context.Context) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx)
}

func Client(cfg aws.Config) *dynamodb.Client {
	otelaws.AppendMiddlewares(&cfg.APIOptions)
	return dynamodb.NewFromConfig(cfg)
}

// LocalLedger connects to dynamodb-local on localhost:8000, creating the table when missing.
func LocalLedger(ctx context.Context) (*DynamoLedger, error) {
	cfg, err := endpointConfig(ctx, "http://localhost:8000")
	if err != nil {
		return nil, err
	}

	client := Client(cfg)
	table := LocalLedgerTableName()
	if err := ensureTable(ctx, client, table.String()); err != nil {
		return nil, err
	}

	return NewLedger(client, table, nil), nil
}

func endpointConfig(ctx context.Context, url string) (aws.Config, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			if service == dynamodb.ServiceID {
				return aws.Endpoint{PartitionID: "aws", URL: url, SigningRegion: region}, nil
			}
			return aws.Endpoint{}, fmt.Errorf("unknown endpoint requested for %s", service)
		},
	)

	return config.LoadDefaultConfig(ctx,
		config.WithRegion("us-east-1"),
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.StaticCredentialsProvider{
			Value: aws.Credentials{
				AccessKeyID: "dummy", SecretAccessKey: "dummy", SessionToken: "dummy",
				Source: "Hard-coded credentials; values are irrelevant for local DynamoDB",
			},
		}),
	)
}
