package main

import (
	"context"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weegigs/wee-contracts-go/samples/counter"
	"github.com/weegigs/wee-contracts-go/stores/memory"
	"github.com/weegigs/wee-contracts-go/we"
)

func request(method string, key string, entryPoint string) events.APIGatewayV2HTTPRequest {
	event := events.APIGatewayV2HTTPRequest{
		PathParameters: map[string]string{"key": key, "entry_point": entryPoint},
		Headers:        map[string]string{"x-correlation-id": "test-correlation"},
	}
	event.RequestContext.HTTP.Method = method
	return event
}

func call(t *testing.T, handler GatewayHandler, event events.APIGatewayV2HTTPRequest) (int, response) {
	reply, err := handler(context.Background(), event)
	require.NoError(t, err)

	var body response
	require.NoError(t, json.Unmarshal([]byte(reply.Body), &body))
	return reply.StatusCode, body
}

func TestHandler(t *testing.T) {
	clock := we.NewLedgerClock(counter.DefaultGenesis)
	handler := createHandler(counter.NewService(memory.NewLedger(), clock, counter.Logger()))

	t.Run("post invokes", func(t *testing.T) {
		status, body := call(t, handler, request(http.MethodPost, "lambda", "increment"))
		assert.Equal(t, http.StatusOK, status)
		require.NotNil(t, body.Value)
		assert.Equal(t, uint32(1), *body.Value)
		assert.True(t, body.Committed)
		assert.NotEmpty(t, body.Revision)
	})

	t.Run("get simulates", func(t *testing.T) {
		status, body := call(t, handler, request(http.MethodGet, "lambda", "increment"))
		assert.Equal(t, http.StatusOK, status)
		require.NotNil(t, body.Value)
		assert.Equal(t, uint32(2), *body.Value)
		assert.False(t, body.Committed)

		status, body = call(t, handler, request(http.MethodGet, "lambda", "get_current_value"))
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, uint32(1), *body.Value)
	})

	t.Run("unknown entry point", func(t *testing.T) {
		status, _ := call(t, handler, request(http.MethodPost, "lambda", "multiply"))
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("missing key", func(t *testing.T) {
		status, _ := call(t, handler, request(http.MethodPost, "", "increment"))
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("unsupported method", func(t *testing.T) {
		status, _ := call(t, handler, request(http.MethodDelete, "lambda", "increment"))
		assert.Equal(t, http.StatusMethodNotAllowed, status)
	})
}

func TestCorrelationId(t *testing.T) {
	event := request(http.MethodPost, "lambda", "increment")
	assert.Equal(t, we.CorrelationID("test-correlation"), correlationIdOf(event))

	event.Headers = nil
	event.RequestContext.RequestID = "request-id"
	assert.Equal(t, we.CorrelationID("request-id"), correlationIdOf(event))
}
