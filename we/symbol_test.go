package we

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSymbols(t *testing.T) {
	t.Run("accepts valid symbols", func(t *testing.T) {
		for _, s := range []Symbol{"COUNTER", "a", "snake_case_1", Symbol(strings.Repeat("x", MaxSymbolLength))} {
			assert.NoError(t, s.Validate(), s)
		}
	})

	t.Run("rejects invalid symbols", func(t *testing.T) {
		for _, s := range []Symbol{"", "has space", "dash-ed", Symbol(strings.Repeat("x", MaxSymbolLength+1))} {
			var invalid *InvalidSymbolError
			assert.ErrorAs(t, s.Validate(), &invalid, s)
		}
	})

	t.Run("short symbols are limited to nine characters", func(t *testing.T) {
		assert.Equal(t, Symbol("COUNTER"), ShortSymbol("COUNTER"))
		assert.Panics(t, func() { ShortSymbol("TOO_LONG_KEY") })
		assert.Panics(t, func() { ShortSymbol("bad key") })
	})
}

func TestContractIds(t *testing.T) {
	t.Run("round trips through its encoding", func(t *testing.T) {
		id := ContractId{Type: "counter", Key: "with.dots"}
		decoded, err := id.Encode().Decode()

		assert.NoError(t, err)
		assert.Equal(t, id, decoded)
	})

	t.Run("rejects malformed encodings", func(t *testing.T) {
		_, err := EncodedContractId("counter").Decode()
		assert.Error(t, err)
	})

	t.Run("validates", func(t *testing.T) {
		assert.NoError(t, ContractId{Type: "counter", Key: "a.b"}.Validate())

		for _, id := range []ContractId{
			{Type: "counter.a", Key: "b"},
			{Type: "", Key: "b"},
			{Type: "counter", Key: ""},
		} {
			var invalid *InvalidContractIdError
			assert.ErrorAs(t, id.Validate(), &invalid, id.String())
		}
	})

	t.Run("types without separators encode distinct ids distinctly", func(t *testing.T) {
		a := ContractId{Type: "counter", Key: "a.b"}
		b := ContractId{Type: "counter.a", Key: "b"}

		assert.Equal(t, a.Encode(), b.Encode())
		assert.NoError(t, a.Validate())
		assert.Error(t, b.Validate())
	})
}

func TestEntryPointNames(t *testing.T) {
	assert.Equal(t, EntryPointName("get_current_value"), EntryPointNameOf("getCurrentValue"))
	assert.Equal(t, EntryPointName("get_current_value"), EntryPointNameOf("get-current-value"))
	assert.Equal(t, EntryPointName("increment"), EntryPointNameOf(" increment "))
}
