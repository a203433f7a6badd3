package search

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/corvidchess/engine/pkg/board"
	"github.com/corvidchess/engine/pkg/eval"
	"github.com/corvidchess/engine/pkg/game"
	"github.com/corvidchess/engine/pkg/moveorder"
	"github.com/corvidchess/engine/pkg/score"
	"github.com/corvidchess/engine/pkg/tt"
	"github.com/seekerror/stdlib/pkg/lang"
	"github.com/seekerror/stdlib/pkg/util/contextx"
	"github.com/seekerror/stdlib/pkg/util/iox"
)

// PV reports one completed iteration of the best-move loop: the deepest result found so far and
// the cumulative node count across every worker.
type PV struct {
	Depth int
	Nodes uint64
	Score score.Score
	Move  board.Move
	Time  time.Duration
}

// Coordinator implements spec §4.6's lazy-SMP scheme: a shared transposition table and shared,
// racy move-ordering Tables, with the main thread driving a visible iterative-deepening loop and
// helper workers independently deepening the same position in the background to diversify the
// search the TT ends up seeded with.
type Coordinator struct {
	TT     *tt.Table
	Eval   *eval.Params
	Params *Params
	Tables *moveorder.Tables

	mu       sync.Mutex
	quit     []iox.AsyncCloser
	exited   []iox.AsyncCloser
	counters []*uint64 // one per helper worker plus, while BestMove runs, the main thread's own
}

// NewCoordinator builds a Coordinator over the given transposition table and tunable parameters.
func NewCoordinator(table *tt.Table, ep *eval.Params, sp *Params) *Coordinator {
	return &Coordinator{TT: table, Eval: ep, Params: sp, Tables: &moveorder.Tables{}}
}

// StartSMP spawns n-1 helper workers searching g in the background, sharing this Coordinator's TT
// and move-ordering Tables with the main thread's own search. Any previously running workers are
// killed first. n <= 1 just stops the helpers and returns.
func (c *Coordinator) StartSMP(n int, g *game.Game) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.killLocked()

	if n <= 1 {
		return
	}

	c.quit = make([]iox.AsyncCloser, n-1)
	c.exited = make([]iox.AsyncCloser, n-1)
	c.counters = make([]*uint64, n-1)
	for i := range c.quit {
		c.quit[i] = iox.NewAsyncCloser()
		c.exited[i] = iox.NewAsyncCloser()
		c.counters[i] = new(uint64)
	}

	for i := range c.quit {
		go c.runHelper(i+1, g, c.quit[i], c.exited[i], c.counters[i])
	}
}

func (c *Coordinator) runHelper(idx int, g *game.Game, quit, exited iox.AsyncCloser, nodes *uint64) {
	defer exited.Close()

	ctx := &Context{
		TT:          c.TT,
		Eval:        c.Eval,
		Params:      c.Params,
		Tables:      c.Tables,
		Nodes:       nodes,
		Aborted:     quit.IsClosed,
		WorkerIndex: idx,
	}

	_, prevScore, nt := Search(ctx, g, 1, score.Bound{Alpha: score.MinScore, Beta: score.MaxScore})
	if nt == tt.None {
		return
	}
	for depth := 2; depth <= 255; depth++ {
		if quit.IsClosed() {
			return
		}
		_, s, nt := RootAspiration(ctx, g, depth, prevScore)
		if nt == tt.None {
			return
		}
		prevScore = s
	}
}

// KillSMP stops every running helper worker and waits for them to exit.
func (c *Coordinator) KillSMP() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.killLocked()
}

func (c *Coordinator) killLocked() {
	for _, q := range c.quit {
		q.Close()
	}
	for _, e := range c.exited {
		<-e.Closed()
	}
	c.quit, c.exited, c.counters = nil, nil, nil
}

// Nodes returns the total node count across every currently running helper and every
// main-thread BestMove search run since the last StartSMP or KillSMP.
func (c *Coordinator) Nodes() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total uint64
	for _, n := range c.counters {
		total += atomic.LoadUint64(n)
	}
	return total
}

// BestMove runs the visible main-thread search: a depth-1 full-window search, then iterative
// deepening via RootAspiration, reporting each completed depth to callback. Helper workers (if
// any are running via StartSMP) search alongside it but never report through callback — only the
// main thread's result is authoritative. The loop stops on context cancellation, the hard
// deadline, an exact mate found within the remaining depth budget, the soft deadline judged
// against the time elapsed since the search began, or an explicit depth limit.
func (c *Coordinator) BestMove(
	ctx context.Context,
	g *game.Game,
	soft, hard lang.Optional[time.Duration],
	depthLimit lang.Optional[int],
	callback func(PV) bool,
) (board.Move, score.Score, int) {
	quit := iox.NewAsyncCloser()
	if hardLimit, hasHard := hard.V(); hasHard {
		timer := time.AfterFunc(hardLimit, func() { quit.Close() })
		defer timer.Stop()
	}

	mainNodes := new(uint64)
	c.mu.Lock()
	c.counters = append(c.counters, mainNodes)
	c.mu.Unlock()

	mainCtx := &Context{
		TT:     c.TT,
		Eval:   c.Eval,
		Params: c.Params,
		Tables: c.Tables,
		Nodes:  mainNodes,
		Aborted: func() bool {
			return quit.IsClosed() || contextx.IsCancelled(ctx)
		},
		WorkerIndex: 0,
	}

	start := time.Now()
	bestMove, bestScore, nt := Search(mainCtx, g, 1, score.Bound{Alpha: score.MinScore, Beta: score.MaxScore})
	if nt != tt.None {
		if !callback(PV{Depth: 1, Nodes: c.Nodes(), Score: bestScore, Move: bestMove, Time: time.Since(start)}) {
			return bestMove, bestScore, 1
		}
	}

	limit, hasDepthLimit := depthLimit.V()
	softLimit, hasSoft := soft.V()

	depth, reached := 2, 1
	for !quit.IsClosed() && !contextx.IsCancelled(ctx) {
		if hasDepthLimit && depth > limit {
			break
		}

		m, s, nt := RootAspiration(mainCtx, g, depth, bestScore)
		if nt == tt.None {
			break // aborted mid-iteration: keep the last complete result
		}
		bestMove, bestScore = m, s
		reached = depth
		if !callback(PV{Depth: depth, Nodes: c.Nodes(), Score: bestScore, Move: bestMove, Time: time.Since(start)}) {
			break // callback requested stop
		}

		if hasDepthLimit && depth == limit {
			break
		}
		if md, ok := bestScore.MateDistance(); ok && md > 0 && md <= depth {
			break // exact result: forced mate found within the searched depth
		}
		if hasSoft && softLimit < time.Since(start) {
			break
		}
		depth++
	}

	return bestMove, bestScore, reached
}
