package we

type LedgerSequence uint32

type Entry struct {
	Key       Symbol         `json:"key"`
	Value     Data           `json:"value"`
	LiveUntil LedgerSequence `json:"live_until"`
}

func (e Entry) Live(current LedgerSequence) bool {
	return e.LiveUntil >= current
}

// TTL is the number of ledgers the entry remains live after current.
func (e Entry) TTL(current LedgerSequence) uint32 {
	if !e.Live(current) {
		return 0
	}

	return uint32(e.LiveUntil - current)
}

type Instance struct {
	Id       ContractId       `json:"id"`
	Entries  map[Symbol]Entry `json:"entries,omitempty"`
	Revision Revision         `json:"revision"`
}

func NewInstance(id ContractId) Instance {
	return Instance{
		Id:       id,
		Entries:  map[Symbol]Entry{},
		Revision: InitialRevision,
	}
}

func (i Instance) Initialized() bool {
	return i.Revision != InitialRevision
}

// Apply folds a change set into the instance, last write wins per key.
func (i *Instance) Apply(entries ...Entry) {
	if i.Entries == nil {
		i.Entries = map[Symbol]Entry{}
	}

	for _, entry := range entries {
		i.Entries[entry.Key] = entry
	}
}
