package counter

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weegigs/wee-contracts-go/stores/memory"
	"github.com/weegigs/wee-contracts-go/we"
)

var entropy = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)

func createId() we.ContractId {
	return InstanceId(ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String())
}

type fixture struct {
	ledger   *memory.Ledger
	sequence *we.ManualSequence
	host     *we.ContractHost
	client   *Client
}

func newFixture(options ...we.ServiceOption) *fixture {
	ledger := memory.NewLedger()
	sequence := we.NewManualSequence(1000)
	options = append([]we.ServiceOption{we.WithSequencer(sequence)}, options...)
	host := we.NewContractHost(ledger, Descriptor(), options...)

	return &fixture{
		ledger:   ledger,
		sequence: sequence,
		host:     host,
		client:   NewClient(host, createId()),
	}
}

func (f *fixture) stored(t *testing.T) (we.Entry, bool) {
	instance, err := f.ledger.Load(context.Background(), f.client.Id())
	require.NoError(t, err)

	entry, ok := instance.Entries[CounterKey]
	return entry, ok
}

func call(t *testing.T, fn func(context.Context) (uint32, error)) uint32 {
	value, err := fn(context.Background())
	require.NoError(t, err)
	return value
}

func freshCounterReadsZero(t *testing.T) {
	f := newFixture()

	assert.Equal(t, uint32(0), call(t, f.client.GetCurrentValue))

	_, ok := f.stored(t)
	assert.False(t, ok)
}

func incrementsCountUp(t *testing.T) {
	f := newFixture()

	for i := uint32(1); i <= 10; i++ {
		assert.Equal(t, i, call(t, f.client.Increment))
	}

	assert.Equal(t, uint32(10), call(t, f.client.GetCurrentValue))
}

func decrementOnFreshStaysAtZero(t *testing.T) {
	f := newFixture()

	assert.Equal(t, uint32(0), call(t, f.client.Decrement))
	assert.Equal(t, uint32(0), call(t, f.client.Decrement))
	assert.Equal(t, uint32(0), call(t, f.client.GetCurrentValue))

	_, ok := f.stored(t)
	assert.True(t, ok, "decrement writes even when the value is unchanged")
}

func scenarioA(t *testing.T) {
	f := newFixture()

	assert.Equal(t, uint32(1), call(t, f.client.Increment))
	assert.Equal(t, uint32(2), call(t, f.client.Increment))
	assert.Equal(t, uint32(3), call(t, f.client.Increment))
	assert.Equal(t, uint32(3), call(t, f.client.GetCurrentValue))
	assert.Equal(t, uint32(2), call(t, f.client.Decrement))
	assert.Equal(t, uint32(1), call(t, f.client.Decrement))
	assert.Equal(t, uint32(0), call(t, f.client.Decrement))
	assert.Equal(t, uint32(0), call(t, f.client.GetCurrentValue))
	assert.Equal(t, uint32(0), call(t, f.client.Decrement))
}

func scenarioB(t *testing.T) {
	f := newFixture()

	assert.Equal(t, uint32(1), call(t, f.client.Increment))
	assert.Equal(t, uint32(2), call(t, f.client.Increment))
	assert.Equal(t, uint32(0), call(t, f.client.Reset))
	assert.Equal(t, uint32(0), call(t, f.client.GetCurrentValue))
	assert.Equal(t, uint32(1), call(t, f.client.Increment))
}

func resetOnFreshReturnsZero(t *testing.T) {
	f := newFixture()

	assert.Equal(t, uint32(0), call(t, f.client.Reset))
	assert.Equal(t, uint32(0), call(t, f.client.GetCurrentValue))
}

func neverNegative(t *testing.T) {
	f := newFixture()
	random := rand.New(rand.NewSource(42))
	expected := uint32(0)

	for i := 0; i < 200; i++ {
		switch random.Intn(4) {
		case 0:
			expected++
			assert.Equal(t, expected, call(t, f.client.Increment))
		case 1:
			if expected > 0 {
				expected--
			}
			assert.Equal(t, expected, call(t, f.client.Decrement))
		case 2:
			expected = 0
			assert.Equal(t, expected, call(t, f.client.Reset))
		default:
			assert.Equal(t, expected, call(t, f.client.GetCurrentValue))
		}
	}
}

func getCurrentValueIsSideEffectFree(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	call(t, f.client.Increment)
	before, ok := f.stored(t)
	require.True(t, ok)

	f.sequence.Advance(4000)

	for i := 0; i < 3; i++ {
		result, err := f.host.Invoke(ctx, f.client.Id(), GetCurrentValue)
		require.NoError(t, err)
		assert.False(t, result.Committed)
	}

	after, _ := f.stored(t)
	assert.Equal(t, before, after)
}

func simulationsDoNotCommit(t *testing.T) {
	f := newFixture()

	assert.Equal(t, uint32(1), call(t, f.client.SimulateIncrement))
	assert.Equal(t, uint32(0), call(t, f.client.SimulateReset))
	assert.Equal(t, uint32(0), call(t, f.client.SimulateDecrement))
	assert.Equal(t, uint32(0), call(t, f.client.GetCurrentValue))

	_, ok := f.stored(t)
	assert.False(t, ok)
}

func failsFastOnOverflow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	value, err := we.MarshalToData(uint32(math.MaxUint32))
	require.NoError(t, err)
	_, err = f.ledger.Commit(ctx, f.client.Id(), we.Options(), we.Entry{Key: CounterKey, Value: value, LiveUntil: 1_000_000})
	require.NoError(t, err)

	_, err = f.client.Increment(ctx)
	assert.ErrorIs(t, err, ErrCounterOverflow)

	var contractError *we.ContractError
	require.ErrorAs(t, err, &contractError)
	assert.Equal(t, uint32(1), contractError.Code)

	assert.Equal(t, uint32(math.MaxUint32), call(t, f.client.GetCurrentValue))
}

func TestCounter(t *testing.T) {
	t.Run("fresh counter reads zero", freshCounterReadsZero)
	t.Run("increments count up from one", incrementsCountUp)
	t.Run("decrement on a fresh counter stays at zero", decrementOnFreshStaysAtZero)
	t.Run("reset on a fresh counter returns zero", resetOnFreshReturnsZero)
	t.Run("increment, get and decrement to the floor", scenarioA)
	t.Run("reset then increment", scenarioB)
	t.Run("value never goes negative", neverNegative)
	t.Run("get current value is side effect free", getCurrentValueIsSideEffectFree)
	t.Run("simulations do not commit", simulationsDoNotCommit)
	t.Run("increment fails fast on overflow", failsFastOnOverflow)
}

func newEntriesLiveForTheMinimumTTL(t *testing.T) {
	f := newFixture()

	call(t, f.client.Increment)
	entry, ok := f.stored(t)
	require.True(t, ok)

	assert.Equal(t, we.LedgerSequence(1000+we.DefaultMinPersistentTTL-1), entry.LiveUntil)
}

func extendsTTLNearExpiry(t *testing.T) {
	f := newFixture(we.WithTTLPolicy(we.TTLPolicy{MinPersistentTTL: 10, MaxEntryTTL: we.DefaultMaxEntryTTL}))

	call(t, f.client.Increment)
	entry, _ := f.stored(t)
	assert.Equal(t, we.LedgerSequence(1000+TTLExtendTo), entry.LiveUntil)

	f.sequence.Advance(40)
	call(t, f.client.Increment)
	entry, _ = f.stored(t)
	assert.Equal(t, we.LedgerSequence(1000+TTLExtendTo), entry.LiveUntil, "remaining ttl above threshold")

	f.sequence.Advance(30)
	call(t, f.client.Decrement)
	entry, _ = f.stored(t)
	assert.Equal(t, we.LedgerSequence(1070+TTLExtendTo), entry.LiveUntil)
}

func readsExpiredCounterAsZero(t *testing.T) {
	f := newFixture(we.WithTTLPolicy(we.TTLPolicy{MinPersistentTTL: 10, MaxEntryTTL: we.DefaultMaxEntryTTL}))

	call(t, f.client.Increment)
	call(t, f.client.Increment)
	assert.Equal(t, uint32(2), call(t, f.client.GetCurrentValue))

	f.sequence.Advance(TTLExtendTo + 1)
	assert.Equal(t, uint32(0), call(t, f.client.GetCurrentValue))
	assert.Equal(t, uint32(1), call(t, f.client.Increment))
}

func TestCounterTTL(t *testing.T) {
	t.Run("new entries live for the minimum persistent ttl", newEntriesLiveForTheMinimumTTL)
	t.Run("mutations extend ttl near expiry", extendsTTLNearExpiry)
	t.Run("expired counters read as zero", readsExpiredCounterAsZero)
}

func TestConcurrentIncrements(t *testing.T) {
	f := newFixture(we.WithCommitAttempts(100))
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.client.Increment(ctx); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	assert.Equal(t, uint32(n), call(t, f.client.GetCurrentValue))
}

func TestDescriptor(t *testing.T) {
	f := newFixture()

	assert.Equal(t, []we.EntryPointInfo{
		{Name: Decrement, Access: "read-write"},
		{Name: GetCurrentValue, Access: "read-only"},
		{Name: Increment, Access: "read-write"},
		{Name: Reset, Access: "read-write"},
	}, f.host.EntryPoints())
}
