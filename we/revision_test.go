package we

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestRevisions(t *testing.T) {
	t.Run("converts to an ISO datetime", func(t *testing.T) {
		timestamp := string(InitialRevision.Timestamp())
		assert.Equal(t, time.Unix(0, 0).UTC().Format(RFC3339Milli), timestamp)

		revision := NewRevisionGenerator().NewRevision(testNow)
		assert.Equal(t, testNow.Format(RFC3339Milli), string(revision.Timestamp()))
	})

	t.Run("orders after the initial revision", func(t *testing.T) {
		generator := NewRevisionGenerator()
		first := generator.NewRevision(testNow)
		second := generator.NewRevision(testNow)

		assert.Greater(t, first.String(), InitialRevision.String())
		assert.Greater(t, second.String(), first.String())
	})
}

func TestLedgerClock(t *testing.T) {
	genesis := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := genesis
	clock := &LedgerClock{Genesis: genesis, CloseTime: 5 * time.Second, Now: func() time.Time { return now }}

	assert.Equal(t, LedgerSequence(1), clock.Current())

	now = genesis.Add(49 * time.Second)
	assert.Equal(t, LedgerSequence(10), clock.Current())

	now = genesis.Add(-time.Hour)
	assert.Equal(t, LedgerSequence(1), clock.Current())

	assert.Equal(t, genesis.Add(45*time.Second), clock.CloseOf(10))
}

func TestManualSequence(t *testing.T) {
	sequence := NewManualSequence(10)
	assert.Equal(t, LedgerSequence(10), sequence.Current())
	assert.Equal(t, LedgerSequence(15), sequence.Advance(5))
	assert.Equal(t, LedgerSequence(15), sequence.Current())
}
