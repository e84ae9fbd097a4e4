package jetstream

import (
	"time"

	"github.com/goccy/go-json"
)

type LedgerOption func(*Ledger)

// Clock stamps change sets. Revisions carry the stamp, so tests pin it for stable revisions.
type Clock func() time.Time

func WithClock(clock Clock) LedgerOption {
	return func(ledger *Ledger) {
		ledger.clock = clock
	}
}

// Codec encodes change set payloads.
type Codec interface {
	Encode(changes ChangeSet) ([]byte, error)
	Decode(data []byte, changes *ChangeSet) error
}

func WithCodec(codec Codec) LedgerOption {
	return func(ledger *Ledger) {
		ledger.codec = codec
	}
}

type jsonCodec struct{}

func (jsonCodec) Encode(changes ChangeSet) ([]byte, error) {
	return json.Marshal(changes)
}

func (jsonCodec) Decode(data []byte, changes *ChangeSet) error {
	return json.Unmarshal(data, changes)
}
