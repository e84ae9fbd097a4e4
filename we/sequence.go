package we

import (
	"sync/atomic"
	"time"
)

const DefaultCloseTime = 5 * time.Second

type Sequencer interface {
	Current() LedgerSequence
}

// LedgerClock derives the ledger sequence from wall clock time. Sequence 1 closes at Genesis.
type LedgerClock struct {
	Genesis   time.Time
	CloseTime time.Duration
	Now       func() time.Time
}

func NewLedgerClock(genesis time.Time) *LedgerClock {
	return &LedgerClock{
		Genesis:   genesis,
		CloseTime: DefaultCloseTime,
		Now:       time.Now,
	}
}

func (c *LedgerClock) Current() LedgerSequence {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	closeTime := c.CloseTime
	if closeTime <= 0 {
		closeTime = DefaultCloseTime
	}

	elapsed := now().Sub(c.Genesis)
	if elapsed < 0 {
		return 1
	}

	return LedgerSequence(elapsed/closeTime) + 1
}

// CloseOf is the wall clock time at which sequence closes.
func (c *LedgerClock) CloseOf(sequence LedgerSequence) time.Time {
	closeTime := c.CloseTime
	if closeTime <= 0 {
		closeTime = DefaultCloseTime
	}

	if sequence == 0 {
		return c.Genesis
	}

	return c.Genesis.Add(time.Duration(sequence-1) * closeTime)
}

type FixedSequence LedgerSequence

func (s FixedSequence) Current() LedgerSequence {
	return LedgerSequence(s)
}

type ManualSequence struct {
	current uint32
}

func NewManualSequence(start LedgerSequence) *ManualSequence {
	return &ManualSequence{current: uint32(start)}
}

func (s *ManualSequence) Current() LedgerSequence {
	return LedgerSequence(atomic.LoadUint32(&s.current))
}

func (s *ManualSequence) Advance(ledgers uint32) LedgerSequence {
	return LedgerSequence(atomic.AddUint32(&s.current, ledgers))
}
