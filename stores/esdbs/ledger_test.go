package esdbs

import (
	"context"
	"fmt"
	"testing"

	"github.com/EventStore/EventStore-Client-Go/esdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weegigs/wee-contracts-go/we"
)

func TestESDBLedger(t *testing.T) {
	ctx := context.Background()
	ledger, cleanup, err := NewTestLedger(ctx, PageSize(5))
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()

	t.Run("esdb ledger validation", func(t *testing.T) {
		suite := we.NewLedgerValidationSuite(ctx, ledger)
		suite.Run(t)
	})

	t.Run("folds change sets across pages", func(t *testing.T) {
		id := we.ContractId{Type: "test", Key: "folds-change-sets"}

		var revision we.Revision
		for i := 0; i < 12; i++ {
			value, err := we.MarshalToData(i)
			require.NoError(t, err)

			revision, err = ledger.Commit(ctx, id, we.Options(), we.Entry{Key: we.Symbol(fmt.Sprintf("KEY_%d", i%3)), Value: value, LiveUntil: 10})
			require.NoError(t, err)
		}

		instance, err := ledger.Load(ctx, id)
		require.NoError(t, err)

		assert.Equal(t, we.Revision("0000000000000000000000000c"), instance.Revision)
		assert.Equal(t, revision, instance.Revision)
		assert.Len(t, instance.Entries, 3)

		var last int
		require.NoError(t, we.UnmarshalFromData(instance.Entries["KEY_2"].Value, &last))
		assert.Equal(t, 11, last)
	})
}

func TestExpectedRevisions(t *testing.T) {
	_, err := expectedRevision("not-hex")
	assert.Error(t, err)

	revision, err := expectedRevision(revisionOf(4))
	require.NoError(t, err)
	assert.Equal(t, uint64(4), revision.(esdb.StreamRevision).Value)
}
