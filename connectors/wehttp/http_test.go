package wehttp_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weegigs/wee-contracts-go/connectors/wehttp"
	"github.com/weegigs/wee-contracts-go/samples/counter"
	"github.com/weegigs/wee-contracts-go/stores/memory"
	"github.com/weegigs/wee-contracts-go/we"
)

type response struct {
	Value      *uint32 `json:"value"`
	Contract   string  `json:"$contract"`
	EntryPoint string  `json:"$entry_point"`
	Revision   string  `json:"$revision"`
	Ledger     uint32  `json:"$ledger"`
	Committed  bool    `json:"$committed"`
	Error      string  `json:"error"`
	Code       *uint32 `json:"code"`
}

type fixture struct {
	handler  http.Handler
	ledger   *memory.Ledger
	registry *prometheus.Registry
}

func newFixture(t *testing.T) *fixture {
	ledger := memory.NewLedger()
	host := we.NewContractHost(ledger, counter.Descriptor(), we.WithSequencer(we.FixedSequence(10)))

	registry := prometheus.NewRegistry()
	metrics, err := wehttp.NewMetrics(registry)
	require.NoError(t, err)

	logger := zerolog.Nop()
	handler := wehttp.NewHandler(host, wehttp.Logger(&logger), wehttp.WithMetrics(metrics))

	return &fixture{handler: handler, ledger: ledger, registry: registry}
}

func (f *fixture) do(t *testing.T, method string, path string) (int, response) {
	request := httptest.NewRequest(method, path, nil)
	request.Header.Set(wehttp.CorrelationIdHeader, "test-correlation")
	recorder := httptest.NewRecorder()

	f.handler.ServeHTTP(recorder, request)

	var body response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body), recorder.Body.String())

	return recorder.Code, body
}

func TestHandler(t *testing.T) {
	t.Run("post invokes and get simulates", func(t *testing.T) {
		f := newFixture(t)

		status, body := f.do(t, http.MethodPost, "/contracts/counter/one/increment")
		assert.Equal(t, http.StatusOK, status)
		require.NotNil(t, body.Value)
		assert.Equal(t, uint32(1), *body.Value)
		assert.True(t, body.Committed)
		assert.Equal(t, "counter.one", body.Contract)
		assert.Equal(t, "increment", body.EntryPoint)
		assert.Equal(t, uint32(10), body.Ledger)

		status, body = f.do(t, http.MethodGet, "/contracts/counter/one/increment")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, uint32(2), *body.Value)
		assert.False(t, body.Committed)

		status, body = f.do(t, http.MethodGet, "/contracts/counter/one/getCurrentValue")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, uint32(1), *body.Value)
		assert.Equal(t, "get_current_value", body.EntryPoint)
	})

	t.Run("unknown entry points are not found", func(t *testing.T) {
		f := newFixture(t)

		status, body := f.do(t, http.MethodPost, "/contracts/counter/one/explode")
		assert.Equal(t, http.StatusNotFound, status)
		assert.Contains(t, body.Error, "explode")
	})

	t.Run("contract errors are unprocessable", func(t *testing.T) {
		f := newFixture(t)
		value, err := we.MarshalToData(uint32(4294967295))
		require.NoError(t, err)
		_, err = f.ledger.Commit(
			httptest.NewRequest(http.MethodGet, "/", nil).Context(),
			we.ContractId{Type: "counter", Key: "full"},
			we.Options(),
			we.Entry{Key: counter.CounterKey, Value: value, LiveUntil: 1000},
		)
		require.NoError(t, err)

		status, body := f.do(t, http.MethodPost, "/contracts/counter/full/increment")
		assert.Equal(t, http.StatusUnprocessableEntity, status)
		require.NotNil(t, body.Code)
		assert.Equal(t, uint32(1), *body.Code)
	})

	t.Run("records invocation metrics", func(t *testing.T) {
		f := newFixture(t)

		f.do(t, http.MethodPost, "/contracts/counter/one/increment")
		f.do(t, http.MethodPost, "/contracts/counter/one/increment")
		f.do(t, http.MethodPost, "/contracts/counter/one/explode")

		expected := `
# HELP wecontracts_invocations_total Entry point calls by outcome.
# TYPE wecontracts_invocations_total counter
wecontracts_invocations_total{entry_point="explode",outcome="not_found"} 1
wecontracts_invocations_total{entry_point="increment",outcome="ok"} 2
`
		assert.NoError(t, testutil.GatherAndCompare(f.registry, strings.NewReader(expected), "wecontracts_invocations_total"))
	})

	t.Run("instances are isolated by contract id", func(t *testing.T) {
		f := newFixture(t)

		status, body := f.do(t, http.MethodPost, "/contracts/counter/a.b/increment")
		assert.Equal(t, http.StatusOK, status)
		require.NotNil(t, body.Value)
		assert.Equal(t, uint32(1), *body.Value)

		status, body = f.do(t, http.MethodPost, "/contracts/counter.a/b/increment")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Nil(t, body.Value)

		status, body = f.do(t, http.MethodPost, "/contracts/not-a-counter/x/increment")
		assert.Equal(t, http.StatusNotFound, status)
		assert.Nil(t, body.Value)

		status, _ = f.do(t, http.MethodGet, "/contracts/not-a-counter/x")
		assert.Equal(t, http.StatusNotFound, status)

		instance, err := f.ledger.Load(context.Background(), we.ContractId{Type: "not-a-counter", Key: "x"})
		require.NoError(t, err)
		assert.Empty(t, instance.Entries)

		status, body = f.do(t, http.MethodGet, "/contracts/counter/a.b/get_current_value")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, uint32(1), *body.Value)
	})

	t.Run("describes entry points", func(t *testing.T) {
		f := newFixture(t)

		request := httptest.NewRequest(http.MethodGet, "/contracts/counter/one", nil)
		recorder := httptest.NewRecorder()
		f.handler.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), `"get_current_value"`)
		assert.Contains(t, recorder.Body.String(), `"read-only"`)
	})
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, wehttp.StatusOf(we.EntryPointNotFound("missing")))
	assert.Equal(t, http.StatusNotFound, wehttp.StatusOf(errors.Wrap(we.ErrNotHosted, "other")))
	assert.Equal(t, http.StatusBadRequest, wehttp.StatusOf(we.InvalidContractId(we.ContractId{Type: "a.b", Key: "c"}, "type contains '.'")))
	assert.Equal(t, http.StatusUnprocessableEntity, wehttp.StatusOf(counter.ErrCounterOverflow))
	assert.Equal(t, http.StatusMethodNotAllowed, wehttp.StatusOf(we.ErrReadOnly))
	assert.Equal(t, http.StatusConflict, wehttp.StatusOf(we.RevisionConflict))
	assert.Equal(t, http.StatusInternalServerError, wehttp.StatusOf(assert.AnError))
}
