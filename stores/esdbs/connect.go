package esdbs

import (
	"context"
	"fmt"

	"github.com/EventStore/EventStore-Client-Go/esdb"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func connect(host string, port string, options ...LedgerOption) (*ESDBLedger, error) {
	connection := fmt.Sprintf("esdb://admin:changeit@%s:%s?tls=false", host, port)

	settings, err := esdb.ParseConnectionString(connection)
	if err != nil {
		return nil, err
	}

	client, err := esdb.NewClient(settings)
	if err != nil {
		return nil, err
	}

	return NewLedger(client, options...), nil
}

// NewLocalLedger connects to a local, insecure, esdb instance.
func NewLocalLedger(options ...LedgerOption) (*ESDBLedger, error) {
	return connect("localhost", "2113", options...)
}

func NewTestLedger(ctx context.Context, options ...LedgerOption) (*ESDBLedger, func(), error) {
	db, err := testcontainers.GenericContainer(
		ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image: "eventstore/eventstore:latest",
				Env: map[string]string{
					"EVENTSTORE_CLUSTER_SIZE":              "1",
					"EVENTSTORE_RUN_PROJECTIONS":           "None",
					"EVENTSTORE_HTTP_PORT":                 "2113",
					"EVENTSTORE_INSECURE":                  "true",
					"EVENTSTORE_ENABLE_ATOM_PUB_OVER_HTTP": "true",
				},
				ExposedPorts: []string{"2113/tcp"},
				WaitingFor:   wait.ForListeningPort("2113"),
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

	port, err := db.MappedPort(ctx, "2113")
	if err != nil {
		teardown()
		return nil, nil, err
	}

	ledger, err := connect(host, port.Port(), options...)
	if err != nil {
		teardown()
		return nil, nil, err
	}

	return ledger, teardown, nil
}
