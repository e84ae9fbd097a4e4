package we

const (
	DefaultMinPersistentTTL uint32 = 4096
	DefaultMaxEntryTTL      uint32 = 6_312_000
)

type TTLPolicy struct {
	MinPersistentTTL uint32
	MaxEntryTTL      uint32
}

func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		MinPersistentTTL: DefaultMinPersistentTTL,
		MaxEntryTTL:      DefaultMaxEntryTTL,
	}
}

func (p TTLPolicy) initialLiveUntil(current LedgerSequence) LedgerSequence {
	if p.MinPersistentTTL == 0 {
		return current
	}

	return current + LedgerSequence(p.MinPersistentTTL) - 1
}

// extend bumps LiveUntil to current+extendTo when the remaining ttl is at or below threshold. It never shortens a ttl.
func (p TTLPolicy) extend(entry Entry, current LedgerSequence, threshold uint32, extendTo uint32) (Entry, bool, error) {
	if threshold > extendTo || (p.MaxEntryTTL > 0 && extendTo > p.MaxEntryTTL) {
		return entry, false, &InvalidTTLError{Threshold: threshold, ExtendTo: extendTo, Maximum: p.MaxEntryTTL}
	}

	if entry.TTL(current) > threshold {
		return entry, false, nil
	}

	liveUntil := current + LedgerSequence(extendTo)
	if liveUntil <= entry.LiveUntil {
		return entry, false, nil
	}

	entry.LiveUntil = liveUntil
	return entry, true, nil
}
