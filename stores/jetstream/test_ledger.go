package jetstream

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func NewTestLedger(ctx context.Context, options ...LedgerOption) (*Ledger, func(), error) {
	db, err := testcontainers.GenericContainer(
		ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "nats:alpine",
				ExposedPorts: []string{"4222/tcp"},
				WaitingFor:   wait.ForListeningPort("4222"),
				Cmd:          []string{"--jetstream"},
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

	port, err := db.MappedPort(ctx, "4222")
	if err != nil {
		teardown()
		return nil, nil, err
	}

	nc, err := nats.Connect(fmt.Sprintf("nats://%s:%s", host, port.Port()))
	if err != nil {
		teardown()
		return nil, nil, err
	}

	ledger, err := NewLedger("test", nc, options...)
	if err != nil {
		nc.Close()
		teardown()
		return nil, nil, err
	}

	return ledger, func() {
		nc.Close()
		teardown()
	}, nil
}
