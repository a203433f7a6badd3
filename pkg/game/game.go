// Package game wraps the rules library's Board with the two pieces of state the search core
// needs to detect draws: a 50-move no-progress counter and a bounded ring of past position
// hashes for threefold-repetition detection.
package game

import (
	"errors"
	"fmt"

	"github.com/corvidchess/engine/pkg/board"
	"github.com/corvidchess/engine/pkg/board/fen"
)

// ErrIllegalFEN indicates the FEN string passed to NewFromFEN could not be parsed.
var ErrIllegalFEN = errors.New("illegal FEN")

// historySize bounds the hash ring: threefold detection is only guaranteed within the last
// historySize half-moves. Older entries are silently overwritten.
const historySize = 128

// HashHistory is a fixed-capacity ring of Zobrist hashes, used for threefold-repetition
// detection. It intentionally forgets anything more than historySize half-moves old.
type HashHistory struct {
	entries [historySize]board.ZobristHash
	len     int
}

// Push appends a hash, overwriting the oldest entry once the ring is full.
func (h *HashHistory) Push(hash board.ZobristHash) {
	h.entries[h.len%historySize] = hash
	h.len++
}

// Last returns the most recently pushed hash, if any.
func (h HashHistory) Last() (board.ZobristHash, bool) {
	if h.len == 0 {
		return 0, false
	}
	return h.entries[(h.len-1)%historySize], true
}

// Len returns the number of hashes ever pushed, including ones the ring has since discarded.
func (h HashHistory) Len() int {
	return h.len
}

// Count returns the number of live entries equal to hash.
func (h HashHistory) Count(hash board.ZobristHash) int {
	n := h.len
	if n > historySize {
		n = historySize
	}
	count := 0
	for i := 0; i < n; i++ {
		if h.entries[i] == hash {
			count++
		}
	}
	return count
}

// Game is a Board plus the no-progress counter and hash history needed to declare draws. Game
// values are propagated by copy; Board itself is forked (never mutated) by MakeMove and
// MakeNullMove so a Game is effectively immutable once returned.
type Game struct {
	Board   *board.Board
	Counter int // half-moves since the last pawn push or capture
	History HashHistory
}

// NewFromFEN parses a FEN position into a new Game, priming the hash history with enough
// sentinel entries that a FEN starting mid-game does not falsely trigger threefold detection
// against zero-valued history slots.
func NewFromFEN(zt *board.ZobristTable, position string) (*Game, error) {
	pos, turn, noprogress, fullmoves, err := fen.Decode(position)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIllegalFEN, err)
	}

	b := board.NewBoard(zt, pos, turn, noprogress, fullmoves)
	g := &Game{Board: b, Counter: noprogress}

	priorPlies := 2 * (fullmoves - 1)
	if turn == board.Black {
		priorPlies++
	}
	for i := 0; i < priorPlies; i++ {
		g.History.Push(board.ZobristHash(i)) // unique sentinel, never equal to a real hash collision run
	}
	g.History.Push(b.Hash())

	return g, nil
}

// MakeMove returns a new Game after playing m, without mutating g. Returns an error if the rules
// library rejects m, for one if m leaves the mover's own king in check; it does not check that m
// is one of g's pseudo-legal moves.
func (g *Game) MakeMove(m board.Move) (*Game, error) {
	next := g.Board.Fork()
	if !next.PushMove(m) {
		return nil, fmt.Errorf("illegal move: %v", m)
	}

	counter := g.Counter + 1
	if m.Piece == board.Pawn || m.IsCapture() {
		counter = 0
	}

	ng := &Game{Board: next, Counter: counter, History: g.History}
	ng.History.Push(next.Hash())
	return ng, nil
}

// MakeNullMove returns a new Game with the side to move passing, or false if the side to move is
// in check (a null move would be illegal).
func (g *Game) MakeNullMove() (*Game, bool) {
	if g.Board.Checkers() != 0 {
		return nil, false
	}

	next := g.Board.Fork()
	next.PushNullMove()

	ng := &Game{Board: next, Counter: g.Counter + 1, History: g.History}
	ng.History.Push(next.Hash())
	return ng, true
}

// CanDeclareDraw reports whether the game is drawn by the 50-move rule or by the current
// position having occurred at least three times in the live history.
func (g *Game) CanDeclareDraw() bool {
	if g.Counter >= 100 {
		return true
	}
	last, ok := g.History.Last()
	if !ok {
		return false
	}
	return g.History.Count(last) >= 3
}

// IsCapture reports whether m captures a piece.
func (g *Game) IsCapture(m board.Move) bool {
	return m.IsCapture()
}

// IsQuiet reports whether m is neither a capture nor a promotion.
func (g *Game) IsQuiet(m board.Move) bool {
	return m.IsQuiet()
}

// GetFEN renders the game, including its own 50-move counter and derived fullmove number, as
// standard FEN.
func (g *Game) GetFEN() string {
	return fen.Encode(g.Board.Position(), g.Board.Turn(), g.Counter, g.Board.FullMoves())
}
