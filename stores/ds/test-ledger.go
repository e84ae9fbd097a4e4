package ds

import (
	"context"
	"fmt"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestLedger starts dynamodb-local in a container. The returned function terminates it.
func TestLedger(ctx context.Context) (*DynamoLedger, func(), error) {
	db, err := testcontainers.GenericContainer(
		ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "amazon/dynamodb-local",
				ExposedPorts: []string{"8000/tcp"},
				WaitingFor:   wait.ForListeningPort("8000"),
			},
			Started: true,
		},
	)
	if err != nil {
		return nil, nil, err
	}

	teardown := func() {
		if err := db.Terminate(ctx); err != nil {
			panic(err)
		}
	}

	host, err := db.Host(ctx)
	if err != nil {
		teardown()
		return nil, nil, err
	}

	port, err := db.MappedPort(ctx, "8000")
	if err != nil {
		teardown()
		return nil, nil, err
	}

	cfg, err := endpointConfig(ctx, fmt.Sprintf("http://%s:%s", host, port.Port()))
	if err != nil {
		teardown()
		return nil, nil, err
	}

	client := Client(cfg)
	table := LedgerTableName("test-ledger")
	if err := ensureTable(ctx, client, table.String()); err != nil {
		teardown()
		return nil, nil, err
	}

	return NewLedger(client, table, nil), teardown, nil
}
