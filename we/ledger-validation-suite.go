package we

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/jaswdr/faker"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var entropy = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)

func NewLedgerValidationSuite(ctx context.Context, ledger Ledger) *LedgerValidationSuite {
	return &LedgerValidationSuite{
		ledger: ledger,
		ctx:    ctx,
		faker:  faker.New(),
	}
}

// LedgerValidationSuite is run by every Ledger implementation.
type LedgerValidationSuite struct {
	ledger Ledger
	ctx    context.Context
	faker  faker.Faker
}

type LedgerValidationValue struct {
	TestStringValue string `json:"test_string_value"`
	TestIntValue    int    `json:"test_int_value"`
}

func (s *LedgerValidationSuite) Run(t *testing.T) {
	t.Run("loads an initial revision", s.LoadInitial)
	t.Run("loads committed entries", s.LoadsCommittedEntries)
	t.Run("commits multiple entries in a single change set", s.CommitsMultipleEntries)
	t.Run("last write wins per key", s.LastWriteWins)
	t.Run("rejects an empty commit", s.RejectsEmptyCommit)
	t.Run("commits against the expected revision", s.CommitsAgainstExpectedRevision)
	t.Run("returns a revision conflict with an initial revision", s.RevisionConflictOnInitialRevision)
	t.Run("returns a revision conflict on subsequent revision", s.RevisionConflictOnSubsequentRevision)
	t.Run("revisions increase", s.RevisionsIncrease)
	t.Run("accepts commit metadata", s.AcceptsMetadata)
}

func (s *LedgerValidationSuite) MakeTestContractId() ContractId {
	return ContractId{
		Type: "go-test",
		Key:  ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String(),
	}
}

func (s *LedgerValidationSuite) MakeTestEntry(key Symbol) Entry {
	value, err := MarshalToData(LedgerValidationValue{
		TestStringValue: s.faker.Lorem().Sentence(10),
		TestIntValue:    s.faker.Int(),
	})
	if err != nil {
		panic(err)
	}

	return Entry{
		Key:       key,
		Value:     value,
		LiveUntil: LedgerSequence(s.faker.IntBetween(1, 1_000_000)),
	}
}

func (s *LedgerValidationSuite) MakeTestEntries(count int) []Entry {
	entries := make([]Entry, count)
	for i := 0; i < count; i++ {
		entries[i] = s.MakeTestEntry(Symbol(fmt.Sprintf("KEY_%d", i)))
	}

	return entries
}

func (s *LedgerValidationSuite) LoadInitial(t *testing.T) {
	id := s.MakeTestContractId()
	instance, err := s.ledger.Load(s.ctx, id)
	require.NoError(t, err)

	assert.Empty(t, instance.Entries)
	assert.Equal(t, InitialRevision, instance.Revision)
	assert.False(t, instance.Initialized())
	assert.EqualValues(t, id, instance.Id)
}

func (s *LedgerValidationSuite) LoadsCommittedEntries(t *testing.T) {
	id := s.MakeTestContractId()
	entry := s.MakeTestEntry("COUNTER")

	revision, err := s.ledger.Commit(s.ctx, id, Options(), entry)
	require.NoError(t, err)

	instance, err := s.ledger.Load(s.ctx, id)
	require.NoError(t, err)

	assert.Equal(t, revision, instance.Revision)
	assert.True(t, instance.Initialized())
	assert.EqualValues(t, id, instance.Id)

	loaded, ok := instance.Entries["COUNTER"]
	require.True(t, ok)
	assert.Equal(t, entry.LiveUntil, loaded.LiveUntil)
	assert.Equal(t, entry.Value.Encoding, loaded.Value.Encoding)
	assert.JSONEq(t, string(entry.Value.Data), string(loaded.Value.Data))
}

func (s *LedgerValidationSuite) CommitsMultipleEntries(t *testing.T) {
	id := s.MakeTestContractId()
	entries := s.MakeTestEntries(17)

	_, err := s.ledger.Commit(s.ctx, id, Options(), entries...)
	require.NoError(t, err)

	instance, err := s.ledger.Load(s.ctx, id)
	require.NoError(t, err)

	assert.Len(t, instance.Entries, len(entries))
	for _, entry := range entries {
		assert.Contains(t, instance.Entries, entry.Key)
	}
}

func (s *LedgerValidationSuite) LastWriteWins(t *testing.T) {
	id := s.MakeTestContractId()
	first := s.MakeTestEntry("COUNTER")
	second := s.MakeTestEntry("COUNTER")
	other := s.MakeTestEntry("OTHER")

	_, err := s.ledger.Commit(s.ctx, id, Options(), first, other)
	require.NoError(t, err)

	_, err = s.ledger.Commit(s.ctx, id, Options(), second)
	require.NoError(t, err)

	instance, err := s.ledger.Load(s.ctx, id)
	require.NoError(t, err)

	assert.Len(t, instance.Entries, 2)
	assert.JSONEq(t, string(second.Value.Data), string(instance.Entries["COUNTER"].Value.Data))
	assert.Equal(t, second.LiveUntil, instance.Entries["COUNTER"].LiveUntil)
	assert.JSONEq(t, string(other.Value.Data), string(instance.Entries["OTHER"].Value.Data))
}

func (s *LedgerValidationSuite) RejectsEmptyCommit(t *testing.T) {
	id := s.MakeTestContractId()

	_, err := s.ledger.Commit(s.ctx, id, Options())
	assert.ErrorIs(t, err, ErrEmptyCommit)
}

func (s *LedgerValidationSuite) CommitsAgainstExpectedRevision(t *testing.T) {
	id := s.MakeTestContractId()

	first, err := s.ledger.Commit(s.ctx, id, Options(WithExpectedRevision(InitialRevision)), s.MakeTestEntry("COUNTER"))
	require.NoError(t, err)

	second, err := s.ledger.Commit(s.ctx, id, Options(WithExpectedRevision(first)), s.MakeTestEntry("COUNTER"))
	require.NoError(t, err)

	instance, err := s.ledger.Load(s.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, second, instance.Revision)
}

func (s *LedgerValidationSuite) RevisionConflictOnInitialRevision(t *testing.T) {
	id := s.MakeTestContractId()

	_, err := s.ledger.Commit(s.ctx, id, Options(), s.MakeTestEntry("COUNTER"))
	require.NoError(t, err)

	_, err = s.ledger.Commit(s.ctx, id, Options(WithExpectedRevision(InitialRevision)), s.MakeTestEntry("COUNTER"))
	assert.Equal(t, RevisionConflict, err)
}

func (s *LedgerValidationSuite) RevisionConflictOnSubsequentRevision(t *testing.T) {
	id := s.MakeTestContractId()

	first, err := s.ledger.Commit(s.ctx, id, Options(), s.MakeTestEntry("COUNTER"))
	require.NoError(t, err)

	_, err = s.ledger.Commit(s.ctx, id, Options(), s.MakeTestEntry("COUNTER"))
	require.NoError(t, err)

	_, err = s.ledger.Commit(s.ctx, id, Options(WithExpectedRevision(first)), s.MakeTestEntry("COUNTER"))
	assert.Equal(t, RevisionConflict, err)
}

func (s *LedgerValidationSuite) RevisionsIncrease(t *testing.T) {
	id := s.MakeTestContractId()

	previous := InitialRevision
	for i := 0; i < 5; i++ {
		revision, err := s.ledger.Commit(s.ctx, id, Options(WithExpectedRevision(previous)), s.MakeTestEntry("COUNTER"))
		require.NoError(t, err)
		assert.Greater(t, revision.String(), previous.String())
		previous = revision
	}
}

func (s *LedgerValidationSuite) AcceptsMetadata(t *testing.T) {
	id := s.MakeTestContractId()
	correlationId := CorrelationID(ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String())

	_, err := s.ledger.Commit(
		s.ctx,
		id,
		Options(WithCorrelationId(correlationId), WithEntryPoint("increment")),
		s.MakeTestEntry("COUNTER"),
	)
	require.NoError(t, err)

	instance, err := s.ledger.Load(s.ctx, id)
	require.NoError(t, err)
	assert.Contains(t, instance.Entries, Symbol("COUNTER"))
}
