// Package tt implements the shared, lock-free transposition table used by the search core.
package tt

import (
	"context"
	"math/bits"
	"sync/atomic"

	"github.com/corvidchess/engine/pkg/board"
	"github.com/corvidchess/engine/pkg/score"
	"github.com/seekerror/logw"
)

// NodeType classifies how a stored score relates to the true minimax value, using the engine's
// own vocabulary (Pv/All/Cut) rather than the generic exact/lower/upper bound terms: a node is
// a Pv node if its score is exact, an All node if every move was searched without raising alpha
// (fail-low, the stored score is an upper bound), or a Cut node if a beta cutoff occurred
// (fail-high, the stored score is a lower bound). None marks an aborted search result that must
// never be stored.
type NodeType uint8

const (
	Pv NodeType = iota
	All
	Cut
	None
)

func (b NodeType) String() string {
	switch b {
	case Pv:
		return "pv"
	case All:
		return "all"
	case Cut:
		return "cut"
	case None:
		return "none"
	default:
		return "?"
	}
}

// Entry is a transposition table probe result.
type Entry struct {
	NodeType NodeType
	Depth    int
	Score    score.Score
	Move     board.Move
	Valid    bool
}

// Table is a fixed-size, lock-free transposition table keyed by Zobrist hash. Each cell stores
// a second "verify" hash alongside the packed value so a racy, torn read across concurrent SMP
// workers can be detected and discarded instead of returning a corrupted entry: this stands in
// for the atomic multi-word transaction a language with CAS-on-struct would use.
type Table struct {
	keys    []uint64 // zobrist hash per cell
	verify  []uint64 // hash64(key, value) per cell, detects torn writes
	packed  []uint64 // packed {bound, depth, score, move} per cell
	mask    uint64
	entries uint64
}

// New allocates a table sized to roughly sizeBytes, rounded down to a power of two cell count.
func New(ctx context.Context, sizeBytes uint64) *Table {
	const cellBytes = 24 // 3 * uint64
	n := sizeBytes / cellBytes
	if n == 0 {
		n = 1
	}
	shift := bits.Len64(n) - 1
	if shift < 0 {
		shift = 0
	}
	count := uint64(1) << shift

	logw.Infof(ctx, "Allocating %vMB transposition table with %v entries", sizeBytes>>20, count)

	return &Table{
		keys:   make([]uint64, count),
		verify: make([]uint64, count),
		packed: make([]uint64, count),
		mask:   count - 1,
	}
}

// Size returns the table size in bytes.
func (t *Table) Size() uint64 {
	return uint64(len(t.keys)) * 24
}

// Cells returns the table's cell capacity.
func (t *Table) Cells() uint64 {
	return uint64(len(t.keys))
}

// Used returns the fraction of cells occupied, sampled without synchronization.
func (t *Table) Used() float64 {
	if len(t.keys) == 0 {
		return 0
	}
	const sample = 1000
	n := len(t.keys)
	if n > sample {
		n = sample
	}
	var used int
	for i := 0; i < n; i++ {
		if atomic.LoadUint64(&t.keys[i]) != 0 {
			used++
		}
	}
	return float64(used) / float64(n)
}

// Probe reads the entry for the given hash, if present and not torn.
func (t *Table) Probe(hash board.ZobristHash) Entry {
	idx := uint64(hash) & t.mask

	key := atomic.LoadUint64(&t.keys[idx])
	packed := atomic.LoadUint64(&t.packed[idx])
	verify := atomic.LoadUint64(&t.verify[idx])

	if key != uint64(hash) {
		return Entry{}
	}
	if verify != hash64(key, packed) {
		return Entry{} // torn read: key and value were updated by different concurrent writers
	}

	nt, depth, sc, move := unpack(packed)
	return Entry{NodeType: nt, Depth: depth, Score: sc, Move: move, Valid: true}
}

// GetPlace reads whatever currently occupies the cell for hash, without checking that its key
// matches hash. Unlike Probe, it returns an invalid Entry only for an empty cell or a torn read:
// the cell may hold a different position's entry entirely. Callers use this to inspect a prior
// occupant before deciding whether to overwrite it, e.g. the "replace if deeper" Store policy.
func (t *Table) GetPlace(hash board.ZobristHash) Entry {
	idx := uint64(hash) & t.mask

	key := atomic.LoadUint64(&t.keys[idx])
	packed := atomic.LoadUint64(&t.packed[idx])
	verify := atomic.LoadUint64(&t.verify[idx])

	if key == 0 {
		return Entry{}
	}
	if verify != hash64(key, packed) {
		return Entry{} // torn read: key and value were updated by different concurrent writers
	}

	nt, depth, sc, move := unpack(packed)
	return Entry{NodeType: nt, Depth: depth, Score: sc, Move: move, Valid: true}
}

// Store writes an entry unconditionally. Callers implement the "replace if deeper" policy
// themselves by probing first and comparing depth, matching the search core's call-site logic.
// None is never a valid argument: an aborted search result must not be stored.
func (t *Table) Store(hash board.ZobristHash, nt NodeType, depth int, sc score.Score, move board.Move) {
	idx := uint64(hash) & t.mask

	packed := pack(nt, depth, sc, move)
	key := uint64(hash)
	verify := hash64(key, packed)

	if atomic.LoadUint64(&t.keys[idx]) == 0 {
		atomic.AddUint64(&t.entries, 1)
	}

	atomic.StoreUint64(&t.packed[idx], packed)
	atomic.StoreUint64(&t.verify[idx], verify)
	atomic.StoreUint64(&t.keys[idx], key)
}

// Clear resets the table, e.g. on resize or new game.
func (t *Table) Clear() {
	for i := range t.keys {
		atomic.StoreUint64(&t.keys[i], 0)
		atomic.StoreUint64(&t.verify[i], 0)
		atomic.StoreUint64(&t.packed[i], 0)
	}
	atomic.StoreUint64(&t.entries, 0)
}

func pack(nt NodeType, depth int, sc score.Score, move board.Move) uint64 {
	var v uint64
	v |= uint64(nt) & 0x3
	v |= uint64(uint16(depth)) << 2
	v |= uint64(uint16(sc)) << 18
	v |= uint64(move.From) << 34
	v |= uint64(move.To) << 40
	v |= uint64(move.Promotion) << 46
	v |= uint64(move.Type) << 50
	v |= uint64(move.Piece) << 54
	v |= uint64(move.Capture) << 58
	return v
}

func unpack(v uint64) (NodeType, int, score.Score, board.Move) {
	nt := NodeType(v & 0x3)
	depth := int(int16(uint16(v >> 2)))
	sc := score.Score(int16(uint16(v >> 18)))
	m := board.Move{
		From:      board.Square((v >> 34) & 0x3f),
		To:        board.Square((v >> 40) & 0x3f),
		Promotion: board.Piece((v >> 46) & 0xf),
		Type:      board.MoveType((v >> 50) & 0xf),
		Piece:     board.Piece((v >> 54) & 0xf),
		Capture:   board.Piece((v >> 58) & 0xf),
	}
	return nt, depth, sc, m
}

// hash64 mixes the key and packed value into a second, independent-looking hash used as the
// write-integrity check (see Design Notes: "split key/xor-value schemes").
func hash64(key, value uint64) uint64 {
	h := key ^ (value * 0x9E3779B97F4A7C15)
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	h *= 0xc4ceb9fe1a85ec53
	h ^= h >> 33
	return h
}
