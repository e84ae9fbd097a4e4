package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/wire"

	"github.com/weegigs/wee-contracts-go/we"
)

var Local = wire.NewSet(
	NewLedger,
	wire.Bind(new(we.Ledger), new(*Ledger)),
)

// Ledger keeps instances in process. Loaded instances are copies and never alias stored state.
type Ledger struct {
	lk        sync.RWMutex
	instances map[we.EncodedContractId]we.Instance
	revision  *we.RevisionGenerator
	now       func() time.Time
}

func NewLedger() *Ledger {
	return &Ledger{
		instances: map[we.EncodedContractId]we.Instance{},
		revision:  we.NewRevisionGenerator(),
		now:       time.Now,
	}
}

func (l *Ledger) Load(_ context.Context, id we.ContractId) (we.Instance, error) {
	l.lk.RLock()
	defer l.lk.RUnlock()

	stored, ok := l.instances[id.Encode()]
	if !ok {
		return we.NewInstance(id), nil
	}

	return clone(stored), nil
}

func (l *Ledger) Commit(_ context.Context, id we.ContractId, options we.CommitOptions, entries ...we.Entry) (we.Revision, error) {
	if len(entries) == 0 {
		return "", we.ErrEmptyCommit
	}

	l.lk.Lock()
	defer l.lk.Unlock()

	key := id.Encode()
	instance, ok := l.instances[key]
	if !ok {
		instance = we.NewInstance(id)
	}

	if options.ExpectedRevision != "" && options.ExpectedRevision != instance.Revision {
		return "", we.RevisionConflict
	}

	instance = clone(instance)
	instance.Apply(entries...)
	instance.Revision = l.revision.NewRevision(l.now())
	l.instances[key] = instance

	return instance.Revision, nil
}

func clone(instance we.Instance) we.Instance {
	entries := make(map[we.Symbol]we.Entry, len(instance.Entries))
	for key, entry := range instance.Entries {
		value := make([]byte, len(entry.Value.Data))
		copy(value, entry.Value.Data)
		entry.Value.Data = value
		entries[key] = entry
	}

	instance.Entries = entries
	return instance
}
