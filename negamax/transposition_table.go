package negamax

import (
	"errors"
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/fourply/fourply/board"
)

const (
	TTLower = 0x01
	TTUpper = 0x02
)

// DefaultTableSize is prime (2^23 + 9). Any odd size above 2^17 works: the
// slot index (key mod size) together with the stored low 32 bits of the key
// pins down a 49-bit key exactly, by the Chinese remainder theorem.
const DefaultTableSize = 8388617

// MinTableSize is the smallest size for which truncated keys stay exact.
const MinTableSize = 1<<(board.Width*(board.Height+1)-32) + 1

// TestTableSize is a small prime table for tests and quick scripts.
const TestTableSize = 1048583

var (
	ErrBadTableSize = errors.New("transposition table size must be odd and at least 2^17+1")
	ErrTableTooBig  = errors.New("transposition table would use more than half of system memory")
)

// TableEntry holds the low 32 bits of a position key and one bound packed in
// a signed byte: a lower bound l is stored as l-MinScore+1 (positive), an
// upper bound u as -(u-MinScore+1) (negative). Zero marks an empty slot.
type TableEntry struct {
	key   uint32
	bound int8
}

const entrySize = int(unsafe.Sizeof(TableEntry{}))

func packBound(score int, flag uint8) int8 {
	v := int8(score - MinScore + 1)
	if flag == TTUpper {
		return -v
	}
	return v
}

func (t TableEntry) valid() bool {
	return t.bound != 0
}

func (t TableEntry) flag() uint8 {
	if t.bound < 0 {
		return TTUpper
	}
	return TTLower
}

func (t TableEntry) score() int {
	v := int(t.bound)
	if v < 0 {
		v = -v
	}
	return v + MinScore - 1
}

// TranspositionTable caches search window bounds keyed on Position.Key. Every
// store overwrites its slot; a lookup whose stored key differs is a miss.
// A table belongs to one solver and is not safe for concurrent use.
type TranspositionTable struct {
	table []TableEntry
	size  uint64

	created atomic.Uint64
	lookups atomic.Uint64
	hits    atomic.Uint64
	// "type 2" collisions: the slot holds another position.
	t2collisions atomic.Uint64
}

// NewTranspositionTable allocates size slots up front.
func NewTranspositionTable(size uint64) (*TranspositionTable, error) {
	if size < MinTableSize || size%2 == 0 {
		return nil, fmt.Errorf("%w: got %d", ErrBadTableSize, size)
	}
	totalMem := memory.TotalMemory()
	wanted := size * uint64(entrySize)
	if totalMem > 0 && wanted > totalMem/2 {
		return nil, fmt.Errorf("%w: %d bytes of %d", ErrTableTooBig, wanted, totalMem)
	}
	log.Debug().Uint64("num-elems", size).
		Uint64("estimated-total-memory-bytes", wanted).
		Uint64("total-system-memory-bytes", totalMem).
		Msg("transposition-table-size")
	return &TranspositionTable{
		table: make([]TableEntry, size),
		size:  size,
	}, nil
}

func (t *TranspositionTable) lookup(key uint64) TableEntry {
	t.lookups.Add(1)
	e := t.table[key%t.size]
	if e.key != uint32(key) || !e.valid() {
		if e.valid() {
			t.t2collisions.Add(1)
		}
		return TableEntry{}
	}
	t.hits.Add(1)
	return e
}

func (t *TranspositionTable) store(key uint64, score int, flag uint8) {
	t.table[key%t.size] = TableEntry{key: uint32(key), bound: packBound(score, flag)}
	t.created.Add(1)
}

// Reset empties every slot and zeroes the counters.
func (t *TranspositionTable) Reset() {
	clear(t.table)
	t.created.Store(0)
	t.lookups.Store(0)
	t.hits.Store(0)
	t.t2collisions.Store(0)
}

func (t *TranspositionTable) Size() uint64 {
	return t.size
}

// TableStats is a snapshot of the table counters.
type TableStats struct {
	Created      uint64
	Lookups      uint64
	Hits         uint64
	T2Collisions uint64
}

func (t *TranspositionTable) Stats() TableStats {
	return TableStats{
		Created:      t.created.Load(),
		Lookups:      t.lookups.Load(),
		Hits:         t.hits.Load(),
		T2Collisions: t.t2collisions.Load(),
	}
}
