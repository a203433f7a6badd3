// Package moveorder holds the search core's racy, shared move-ordering state: a history table,
// a per-ply killer table and a countermove table, plus the move-priority function that combines
// them with the transposition table's best move and MVV/LVA into a single sort key.
package moveorder

import (
	"math"

	"github.com/corvidchess/engine/pkg/board"
	"github.com/corvidchess/engine/pkg/eval"
)

// MaxPly bounds the killer table; no search in this engine recurses deeper than this.
const MaxPly = 256

const (
	ttMoveScore      int32 = math.MaxInt32
	captureScore     int32 = 1 << 22
	killerScore      int32 = 1 << 21
	countermoveScore int32 = killerScore - 1

	historyClamp int32 = 1 << 20
)

// History scores quiet moves by (from, to) square pair. Writes are racy across lazy-SMP workers
// by design (see Design Notes: shared tables under races); both updaters push scores in the same
// direction, so a lost update only costs move-ordering quality, never correctness.
type History struct {
	table [64][64]int32
}

// Score returns the current history score for a move.
func (h *History) Score(m board.Move) int32 {
	return h.table[m.From][m.To]
}

// Add applies a (possibly negative) bonus to a move's history score, clamped to keep the table
// from drifting outside a useful range over a long search.
func (h *History) Add(m board.Move, bonus int32) {
	v := h.table[m.From][m.To] + bonus
	switch {
	case v > historyClamp:
		v = historyClamp
	case v < -historyClamp:
		v = -historyClamp
	}
	h.table[m.From][m.To] = v
}

// Clear zeroes the table, e.g. between games.
func (h *History) Clear() {
	h.table = [64][64]int32{}
}

// Killer holds up to two recent quiet cutoff moves per ply.
type Killer struct {
	table [MaxPly][2]board.Move
}

// Is reports whether m is a recorded killer at ply.
func (k *Killer) Is(ply int, m board.Move) bool {
	slot := &k.table[ply%MaxPly]
	return slot[0].Equals(m) || slot[1].Equals(m)
}

// Add records m as the newest killer at ply, evicting the older of the two slots.
func (k *Killer) Add(ply int, m board.Move) {
	slot := &k.table[ply%MaxPly]
	if slot[0].Equals(m) {
		return
	}
	slot[1] = slot[0]
	slot[0] = m
}

// Countermove records, for each preceding move, the reply most recently known to refute it.
// Keyed by the preceding move's (from, to, promotion), which is enough to disambiguate distinct
// moves without carrying full move-type metadata.
type Countermove struct {
	table [64][64][board.NumPieces]board.Move
}

// Get returns the recorded reply to prev, if any.
func (c *Countermove) Get(prev board.Move) (board.Move, bool) {
	m := c.table[prev.From][prev.To][prev.Promotion]
	return m, m != (board.Move{})
}

// Set records reply as the countermove to prev.
func (c *Countermove) Set(prev, reply board.Move) {
	c.table[prev.From][prev.To][prev.Promotion] = reply
}

// Tables bundles the three shared move-ordering structures a search shares across all lazy-SMP
// workers.
type Tables struct {
	History     History
	Killer      Killer
	Countermove Countermove
}

// Score implements the move-priority function of spec §4.4: transposition-table best move first,
// then MVV/LVA captures, then killers, then the countermove of the move that led to this node,
// then the plain history score.
func (t *Tables) Score(m board.Move, ttMove board.Move, hasTTMove bool, ply int, prevMove board.Move, hasPrevMove bool) int32 {
	if hasTTMove && m.Equals(ttMove) {
		return ttMoveScore
	}
	if m.IsCapture() {
		return mvvLVA(m)
	}
	if t.Killer.Is(ply, m) {
		return killerScore
	}
	if hasPrevMove {
		if cm, ok := t.Countermove.Get(prevMove); ok && cm.Equals(m) {
			return countermoveScore
		}
	}
	return t.History.Score(m)
}

// OnCutoff applies the history/killer/countermove update for a beta cutoff caused by quiet move
// m, penalizing every quiet sibling tried earlier at the same node. bonus is computed by the
// caller from the tunable history-bonus parameters (spec §4.4: ~300*depth - 250).
func (t *Tables) OnCutoff(m board.Move, bonus int32, ply int, earlierQuiets []board.Move, prevMove board.Move, hasPrevMove bool) {
	t.History.Add(m, bonus)
	t.Killer.Add(ply, m)
	for _, sibling := range earlierQuiets {
		t.History.Add(sibling, -bonus)
	}
	if hasPrevMove {
		t.Countermove.Set(prevMove, m)
	}
}

// mvvLVA scores a capture as victim value * queen value - aggressor value, offset by
// captureScore so any capture outranks any killer, countermove or history score, and victims are
// preferred over aggressors within captures.
func mvvLVA(m board.Move) int32 {
	victim := m.Capture
	if m.Type == board.EnPassant {
		victim = board.Pawn
	}
	return captureScore + int32(eval.PieceValue(victim))*int32(eval.PieceValue(board.Queen)) - int32(eval.PieceValue(m.Piece))
}
