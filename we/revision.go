package we

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const RFC3339Milli = "2006-01-02T15:04:05.000Z07:00"

type Timestamp string

// Revision orders lexicographically. InitialRevision marks an instance that has never been committed.
type Revision string

const InitialRevision = Revision("00000000000000000000000000")

func (revision Revision) String() string {
	return string(revision)
}

func (revision Revision) Timestamp() Timestamp {
	v := ulid.MustParse(string(revision))
	return Timestamp(ulid.Time(v.Time()).UTC().Format(RFC3339Milli))
}

type RevisionGenerator struct {
	lk      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewRevisionGenerator() *RevisionGenerator {
	t := time.Now()
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)

	return &RevisionGenerator{
		entropy: entropy,
	}
}

func (g *RevisionGenerator) NewRevision(t time.Time) Revision {
	g.lk.Lock()
	defer g.lk.Unlock()

	return Revision(ulid.MustNew(ulid.Timestamp(t), g.entropy).String())
}
