package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weegigs/wee-contracts-go/samples/counter"
	"github.com/weegigs/wee-contracts-go/stores/ds"
	"github.com/weegigs/wee-contracts-go/we"
)

type test = func(t *testing.T)

func incrementsCounter(service we.ContractService) test {
	return func(t *testing.T) {
		ctx := context.TODO()
		client := counter.NewClient(service, counter.InstanceId("test-increment"))

		value, err := client.Increment(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint32(1), value)

		value, err = client.GetCurrentValue(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint32(1), value)
	}
}

func decrementsCounter(service we.ContractService) test {
	return func(t *testing.T) {
		ctx := context.TODO()
		client := counter.NewClient(service, counter.InstanceId("test-decrement"))

		for i := 0; i < 3; i++ {
			_, err := client.Increment(ctx)
			require.NoError(t, err)
		}

		value, err := client.Decrement(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint32(2), value)

		value, err = client.Reset(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), value)

		value, err = client.Decrement(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), value)
	}
}

func TestCounterServiceOnDynamoDB(t *testing.T) {
	ledger, teardown, err := ds.TestLedger(context.Background())
	if err != nil {
		t.Fatalf("failed to initiate test ledger: %+v", err)
	}
	defer teardown()

	clock, err := counter.LedgerClock()
	require.NoError(t, err)

	service := counter.NewService(ledger, clock, counter.Logger())

	t.Run("increment counter", incrementsCounter(service))
	t.Run("decrement counter", decrementsCounter(service))
}

func TestLocalServer(t *testing.T) {
	service, cleanup, err := local(context.Background())
	require.NoError(t, err)
	defer cleanup()

	handler, err := routes(service, prometheus.NewRegistry())
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/contracts/counter/local/increment", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"value":1`)

	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `wecontracts_invocations_total{entry_point="increment",outcome="ok"} 1`)
}
