// Package engine is the facade tying the search core together: a Game, a shared transposition
// table, a lazy-SMP Coordinator, and the tunable evaluation/search parameter tables, guarded by a
// mutex so UI/protocol callers can drive it from any goroutine.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/corvidchess/engine/pkg/board"
	"github.com/corvidchess/engine/pkg/eval"
	"github.com/corvidchess/engine/pkg/game"
	"github.com/corvidchess/engine/pkg/score"
	"github.com/corvidchess/engine/pkg/search"
	"github.com/corvidchess/engine/pkg/tt"
	"github.com/seekerror/build"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"
)

var version = build.NewVersion(0, 1, 0)

// Engine encapsulates game state, the shared transposition table, and the lazy-SMP search
// coordinator, per spec §6's external interface.
type Engine struct {
	name, author string

	zt   *board.ZobristTable
	seed int64

	mu      sync.Mutex
	g       *game.Game
	tt      *tt.Table
	coord   *search.Coordinator
	workers int

	movetime  lang.Optional[time.Duration]
	clock     lang.Optional[search.Clock]
	movestogo int

	nodes   uint64
	elapsed time.Duration
}

// Option configures a new Engine.
type Option func(*Engine)

// WithZobrist configures the engine to use the given random seed instead of the default seed of
// zero, so repeated runs can be made reproducible or deliberately varied.
func WithZobrist(seed int64) Option {
	return func(e *Engine) { e.seed = seed }
}

// New constructs an engine over the given starting position, allocating a transposition table of
// hashBytes bytes.
func New(ctx context.Context, name, author, position string, hashBytes uint64, opts ...Option) (*Engine, error) {
	e := &Engine{name: name, author: author, workers: 1}
	for _, fn := range opts {
		fn(e)
	}
	e.zt = board.NewZobristTable(e.seed)

	g, err := game.NewFromFEN(e.zt, position)
	if err != nil {
		return nil, err
	}
	e.g = g
	e.tt = tt.New(ctx, hashBytes)
	e.coord = search.NewCoordinator(e.tt, eval.NewDefaultParams(), search.NewDefaultParams())

	logw.Infof(ctx, "Initialized engine %v by %v, hash=%vMB", e.Name(), author, hashBytes>>20)
	return e, nil
}

// Name returns the engine name and version.
func (e *Engine) Name() string {
	return fmt.Sprintf("%v %v", e.name, version)
}

// Author returns the author.
func (e *Engine) Author() string {
	return e.author
}

// Params returns the live evaluation and search parameter tables, for external tuning. Callers
// must only mutate these while no search is in progress (spec §5: EvalParams is read-shared).
func (e *Engine) Params() (*eval.Params, *search.Params) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.coord.Eval, e.coord.Params
}

// Position returns the current position in FEN.
func (e *Engine) Position() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.g.GetFEN()
}

// Reset replaces the current game with a new position parsed from FEN, stopping any running
// workers first.
func (e *Engine) Reset(ctx context.Context, position string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.coord.KillSMP()

	g, err := game.NewFromFEN(e.zt, position)
	if err != nil {
		return err
	}
	e.g = g
	logw.Infof(ctx, "Reset to %v", position)
	return nil
}

// Move plays m (usually an opponent move) against the current position.
func (e *Engine) Move(ctx context.Context, m board.Move) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pseudoLegal := false
	for _, cand := range e.g.Board.Position().PseudoLegalMoves(e.g.Board.Turn()) {
		if cand == m {
			pseudoLegal = true
			break
		}
	}
	if !pseudoLegal {
		return fmt.Errorf("illegal move: %v", m)
	}

	next, err := e.g.MakeMove(m)
	if err != nil {
		return fmt.Errorf("illegal move: %w", err)
	}
	e.g = next

	logw.Infof(ctx, "Move %v: %v", m, e.g.GetFEN())
	return nil
}

// ResizeHash clears and re-allocates the transposition table at the given size in bytes.
func (e *Engine) ResizeHash(ctx context.Context, bytes uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.coord.KillSMP()
	e.tt = tt.New(ctx, bytes)
	e.coord.TT = e.tt
}

// StartSMP (re)starts the lazy-SMP worker pool with n total threads (the main thread plus n-1
// helpers) searching the current position in the background.
func (e *Engine) StartSMP(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.workers = n
	e.coord.StartSMP(n, e.g)
}

// KillSMP stops any running helper workers.
func (e *Engine) KillSMP() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.coord.KillSMP()
}

// AllowFor sets a fixed think time for the next BestMove call, overriding any clock previously
// set via TimeControl.
func (e *Engine) AllowFor(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.movetime = lang.Some(d)
	e.clock = lang.Optional[search.Clock]{}
}

// TimeControl sets a clock budget for the next BestMove call: time_left_ms/time_incr_ms plus the
// number of moves left to the next time control (0 meaning the rest of the game). The number of
// moves left is recorded but does not change the budget (see search.Budget).
func (e *Engine) TimeControl(movestogo int, timeLeftMS, timeIncrMS int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.movestogo = movestogo
	e.clock = lang.Some(search.Clock{TimeLeftMS: timeLeftMS, TimeIncrMS: timeIncrMS})
	e.movetime = lang.Optional[time.Duration]{}
}

// BestMove runs a search on the current position, invoking callback after each completed depth.
// callback returns false to stop the search early. It returns the best move found, its score,
// and the depth reached.
func (e *Engine) BestMove(ctx context.Context, callback func(search.PV) bool) (board.Move, score.Score, int) {
	e.mu.Lock()
	g := e.g
	workers := e.workers
	movetime := e.movetime
	clock := e.clock
	movestogo := e.movestogo
	coord := e.coord
	e.mu.Unlock()

	soft, hard := search.Budget(movetime, clock, movestogo)

	if workers > 1 {
		coord.StartSMP(workers, g)
		defer coord.KillSMP()
	} else {
		coord.KillSMP() // drops node counters left by earlier BestMove calls
	}

	start := time.Now()
	move, s, depth := coord.BestMove(ctx, g, soft, hard, lang.Optional[int]{}, callback)

	e.mu.Lock()
	e.nodes = coord.Nodes()
	e.elapsed = time.Since(start)
	e.mu.Unlock()

	return move, s, depth
}

// Nodes returns the node count from the most recently completed BestMove call.
func (e *Engine) Nodes() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nodes
}

// Elapsed returns the wall-clock duration of the most recently completed BestMove call.
func (e *Engine) Elapsed() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.elapsed
}

// TTUsed returns the transposition table's fill level in permille (0..1000).
func (e *Engine) TTUsed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return int(e.tt.Used() * 1000)
}

// TTSize returns the transposition table's cell capacity.
func (e *Engine) TTSize() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tt.Cells()
}

// FindPV reconstructs the principal variation starting at fromMove by following transposition
// table best-move pointers, stopping after maxLen moves, on a position repetition, or once the
// table has no entry for the current position.
func (e *Engine) FindPV(fromMove board.Move, maxLen int) []board.Move {
	e.mu.Lock()
	g := e.g
	tbl := e.tt
	e.mu.Unlock()

	next, err := g.MakeMove(fromMove)
	if err != nil {
		return nil
	}

	pv := []board.Move{fromMove}
	seen := map[board.ZobristHash]bool{g.Board.Hash(): true, next.Board.Hash(): true}

	for len(pv) < maxLen {
		entry := tbl.Probe(next.Board.Hash())
		if !entry.Valid || entry.Move == (board.Move{}) {
			break
		}
		n, err := next.MakeMove(entry.Move)
		if err != nil {
			break
		}
		if seen[n.Board.Hash()] {
			break
		}
		seen[n.Board.Hash()] = true
		pv = append(pv, entry.Move)
		next = n
	}
	return pv
}
