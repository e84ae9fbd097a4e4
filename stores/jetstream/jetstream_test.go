package jetstream_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weegigs/wee-contracts-go/internal"
	"github.com/weegigs/wee-contracts-go/stores/jetstream"
	"github.com/weegigs/wee-contracts-go/we"
)

func fixedClock(now time.Time) jetstream.Clock {
	return func() time.Time { return now }
}

func TestJetstreamLedger(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ledger, cleanup, err := jetstream.NewTestLedger(ctx, jetstream.WithClock(fixedClock(now)))
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()

	t.Run("jetstream ledger validation", func(t *testing.T) {
		suite := we.NewLedgerValidationSuite(ctx, ledger)
		suite.Run(t)
	})

	t.Run("revisions carry the stream sequence", func(t *testing.T) {
		id := we.ContractId{Type: "test", Key: "sequence"}
		value, err := we.MarshalToData(uint32(1))
		require.NoError(t, err)

		revision, err := ledger.Commit(ctx, id, we.Options(), we.Entry{Key: "COUNTER", Value: value, LiveUntil: 10})
		require.NoError(t, err)

		sequence, err := internal.DecodeSequenceNumber(revision)
		require.NoError(t, err)
		assert.NotZero(t, sequence)
		assert.Equal(t, we.Timestamp(now.Format(we.RFC3339Milli)), revision.Timestamp())
	})
}
