package we

import (
	"sort"

	"github.com/pkg/errors"
)

type InstanceStorage interface {
	Has(key Symbol) bool
	Get(key Symbol, value any) (bool, error)
	Set(key Symbol, value any) error
	ExtendTTL(key Symbol, threshold uint32, extendTo uint32) error
}

// GetOr reads key into a T, returning fallback when the key is absent or expired.
func GetOr[T any](storage InstanceStorage, key Symbol, fallback T) (T, error) {
	var value T
	found, err := storage.Get(key, &value)
	if err != nil {
		return fallback, err
	}

	if !found {
		return fallback, nil
	}

	return value, nil
}

// storageView serves reads from the loaded instance and buffers writes until the call completes.
type storageView struct {
	instance Instance
	current  LedgerSequence
	policy   TTLPolicy
	access   Access
	pending  map[Symbol]Entry
}

func newStorageView(instance Instance, current LedgerSequence, policy TTLPolicy, access Access) *storageView {
	return &storageView{
		instance: instance,
		current:  current,
		policy:   policy,
		access:   access,
		pending:  map[Symbol]Entry{},
	}
}

func (s *storageView) lookup(key Symbol) (Entry, bool) {
	if entry, ok := s.pending[key]; ok {
		return entry, true
	}

	entry, ok := s.instance.Entries[key]
	if !ok || !entry.Live(s.current) {
		return Entry{}, false
	}

	return entry, true
}

func (s *storageView) Has(key Symbol) bool {
	_, ok := s.lookup(key)
	return ok
}

func (s *storageView) Get(key Symbol, value any) (bool, error) {
	if err := key.Validate(); err != nil {
		return false, err
	}

	entry, ok := s.lookup(key)
	if !ok {
		return false, nil
	}

	if err := UnmarshalFromData(entry.Value, value); err != nil {
		return false, errors.Wrapf(err, "failed to decode %s", key)
	}

	return true, nil
}

func (s *storageView) Set(key Symbol, value any) error {
	if s.access == AccessReadOnly {
		return errors.Wrapf(ErrReadOnly, "set %s", key)
	}

	if err := key.Validate(); err != nil {
		return err
	}

	data, err := MarshalToData(value)
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s", key)
	}

	entry, ok := s.lookup(key)
	if !ok {
		entry = Entry{Key: key, LiveUntil: s.policy.initialLiveUntil(s.current)}
	}

	entry.Value = data
	s.pending[key] = entry

	return nil
}

func (s *storageView) ExtendTTL(key Symbol, threshold uint32, extendTo uint32) error {
	if s.access == AccessReadOnly {
		return errors.Wrapf(ErrReadOnly, "extend ttl of %s", key)
	}

	entry, ok := s.lookup(key)
	if !ok {
		return errors.Wrapf(ErrEntryNotFound, "extend ttl of %s", key)
	}

	extended, changed, err := s.policy.extend(entry, s.current, threshold, extendTo)
	if err != nil {
		return err
	}

	if changed {
		s.pending[key] = extended
	}

	return nil
}

func (s *storageView) dirty() bool {
	return len(s.pending) > 0
}

func (s *storageView) changes() []Entry {
	entries := make([]Entry, 0, len(s.pending))
	for _, entry := range s.pending {
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })

	return entries
}
