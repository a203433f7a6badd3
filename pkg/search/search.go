// Package search implements the fail-soft negamax search core: iterative deepening with
// aspiration windows, principal variation search, null-move pruning, late-move
// reductions/pruning, futility pruning, internal iterative reduction, and quiescence search with
// SEE and delta pruning, all driven off a shared lock-free transposition table and racy
// move-ordering tables for lazy-SMP.
package search

import (
	"errors"
	"math"
	"sync/atomic"

	"github.com/corvidchess/engine/pkg/board"
	"github.com/corvidchess/engine/pkg/eval"
	"github.com/corvidchess/engine/pkg/game"
	"github.com/corvidchess/engine/pkg/moveorder"
	"github.com/corvidchess/engine/pkg/score"
	"github.com/corvidchess/engine/pkg/tt"
)

// ErrHalted indicates the search was stopped before completing the requested depth.
var ErrHalted = errors.New("search halted")

// storeReplace implements the TT's "replace if deeper" policy (spec §4.5): the new entry is
// skipped only if the cell already holds an entry for a search that went deeper, matching the
// slot regardless of which position occupies it — the same check a key-matched Probe would make,
// broadened to any occupant.
func storeReplace(tbl *tt.Table, hash board.ZobristHash, nt tt.NodeType, depth int, sc score.Score, move board.Move) {
	if occupant := tbl.GetPlace(hash); occupant.Valid && occupant.Depth > depth {
		return
	}
	tbl.Store(hash, nt, depth, sc, move)
}

// Context bundles the state a single recursive search shares across every frame and, via the TT
// and move-ordering Tables, across every lazy-SMP worker.
type Context struct {
	TT     *tt.Table
	Eval   *eval.Params
	Params *Params
	Tables *moveorder.Tables

	// Nodes counts frames visited by this search (shared across workers of one search via a
	// single counter, or per-worker if the caller wants independent totals).
	Nodes *uint64

	// Aborted reports whether the search must unwind immediately: time-up or a kill signal.
	Aborted func() bool

	// WorkerIndex distinguishes lazy-SMP helper workers (>0) from the main thread (0); used only
	// to rotate the root move list for search diversity.
	WorkerIndex int
}

func (c *Context) countNode() {
	atomic.AddUint64(c.Nodes, 1)
}

// Search runs the root node to depth under the given window.
func Search(ctx *Context, g *game.Game, depth int, bound score.Bound) (board.Move, score.Score, tt.NodeType) {
	return evaluateSearch(ctx, Root(g), depth, 0, bound, true)
}

// RootAspiration implements spec §4.5's aspiration loop for depth >= 2: narrow window around
// prev, doubling and widening on the side that failed until the result lies inside the window
// (or the search aborts).
func RootAspiration(ctx *Context, g *game.Game, depth int, prev score.Score) (board.Move, score.Score, tt.NodeType) {
	delta := ctx.Params.AspInitDelta.Load()
	alpha, beta := int(prev)-delta, int(prev)+delta

	for {
		b := score.Bound{Alpha: clampScore(alpha), Beta: clampScore(beta)}
		m, s, nt := evaluateSearch(ctx, Root(g), depth, 0, b, true)
		if nt == tt.None {
			return m, s, nt // aborted
		}
		if b.Contains(s) {
			return m, s, nt
		}

		delta *= 2
		if s <= b.Alpha {
			alpha = int(s) - delta
		}
		if s >= b.Beta {
			beta = int(s) + delta
		}
	}
}

// clampScore converts an aspiration bound, computed in int so that a doubling delta cannot wrap
// around the int16 range, into a Score within [Mate0-1, MateIn1+1]: the full span of scores a
// search frame can return, one step past every score a root search returns. It deliberately does
// not clamp down to MaxScore/MinScore: a forced mate must stay strictly inside a wide enough
// window or the aspiration loop can never widen enough to contain it.
func clampScore(s int) score.Score {
	switch {
	case s > int(score.MateIn1)+1:
		return score.MateIn1 + 1
	case s < int(score.Mate0)-1:
		return score.Mate0 - 1
	default:
		return score.Score(s)
	}
}

// evaluateSearch implements spec §4.5's _evaluate_search. Step numbers in comments refer to the
// spec's fixed order; no step is skipped.
func evaluateSearch(ctx *Context, line *Line, depth, ply int, bound score.Bound, isRoot bool) (board.Move, score.Score, tt.NodeType) {
	g := line.g

	// 1. Draw detection.
	if g.CanDeclareDraw() {
		return board.Move{}, 0, tt.None
	}

	inCheck := g.Board.Checkers() != 0

	// 2. Terminal status. Checkmate is reported one step more extreme than Mate0: every
	// recursive return (including this one's own caller) applies Negate().IncrementMateDistance()
	// as it propagates up, and that single hop must turn this value into exactly MateIn1 for the
	// node that played the actual mating move.
	if !hasAnyLegalMove(g) {
		if inCheck {
			return board.Move{}, score.Mate0 - 1, tt.None
		}
		return board.Move{}, 0, tt.None
	}

	// 3. Abort check.
	if ctx.Aborted() {
		return board.Move{}, 0, tt.None
	}
	ctx.countNode()

	isPV := int(bound.Beta)-int(bound.Alpha) > 1 // in int: the full window's width overflows Score

	// 4. TT probe.
	entry := ctx.TT.Probe(g.Board.Hash())
	if entry.Valid && !isPV && entry.Depth >= depth {
		switch {
		case entry.NodeType == tt.Pv,
			entry.NodeType == tt.Cut && entry.Score >= bound.Beta,
			entry.NodeType == tt.All && entry.Score < bound.Alpha:
			return entry.Move, entry.Score, tt.None
		}
	}

	// 5. Depth-0 leaf: resolve with quiescence.
	if depth <= 0 {
		return board.Move{}, quiescence(ctx, line, bound), tt.None
	}

	staticEval := line.StaticEval(ctx.Eval)

	// 6. Reverse futility pruning.
	if !isPV && !inCheck && depth <= ctx.Params.RFPUbound.Load() && !bound.Beta.IsMateScore() {
		margin := score.Score(ctx.Params.RFPMarginCoeff.Load() * depth)
		if staticEval-margin >= bound.Beta {
			return board.Move{}, staticEval - margin, tt.None
		}
	}

	// 7. Internal iterative reduction.
	if !isRoot && depth >= 4 && !entry.Valid {
		m, s, nt := evaluateSearch(ctx, line, depth/4, ply, bound, false)
		if nt != tt.None {
			storeReplace(ctx.TT, g.Board.Hash(), nt, depth/4, s, m)
		}
		if s <= bound.Alpha {
			return m, s, tt.None
		}
	}

	// 8. Null-move pruning.
	if !isPV && !inCheck && depth >= 4 && hasNonPawnMaterial(g) {
		if ng, ok := g.MakeNullMove(); ok {
			childBound := score.Bound{Alpha: bound.Beta.Negate() - 1, Beta: bound.Beta.Negate()}
			nullLine := line.Extend(board.Move{}, ng)
			reduced := depth - (3 + depth/3)
			_, s, nt := evaluateSearch(ctx, nullLine, reduced, ply+1, childBound, false)
			if nt == tt.None && ctx.Aborted() {
				return board.Move{}, 0, tt.None
			}
			result := s.Negate().IncrementMateDistance()
			if result >= bound.Beta {
				return board.Move{}, result, tt.None
			}
		}
	}

	// 9. Futility-pruning gate.
	canFPrune := !isPV && !inCheck && depth <= ctx.Params.FPUbound.Load() && !bound.Alpha.IsMateScore() &&
		staticEval+score.Score(ctx.Params.FPMarginCoeff.Load()*depth) <= bound.Alpha

	// 10. Late-move-pruning gate.
	canLMP := !isPV && !inCheck
	lmpThreshold := 4 + 2*depth*depth

	// 11. Move generation and ordering.
	legal := legalMoves(g)

	ttMove, hasTTMove := entry.Move, entry.Valid
	prevMove, hasPrevMove := line.Move, line.HasMove

	priority := make([]int32, len(legal))
	for i, m := range legal {
		priority[i] = ctx.Tables.Score(m, ttMove, hasTTMove, ply, prevMove, hasPrevMove)
	}
	sortByPriorityDesc(legal, priority)

	if isRoot && ctx.WorkerIndex > 0 && len(legal) > 0 {
		shift := (ctx.WorkerIndex / 2) % len(legal)
		legal = append(legal[shift:], legal[:shift]...)
	}

	// 12. Move loop.
	var earlierQuiets []board.Move
	var bestMove board.Move
	var bestScore score.Score
	hasBest := false
	originalAlpha := bound.Alpha
	alpha := bound.Alpha
	childrenSearched := 0

	for _, m := range legal {
		isQuiet := g.IsQuiet(m)

		// 12.a Futility pruning.
		if canFPrune && childrenSearched > 0 && isQuiet {
			continue
		}
		// 12.b Late-move pruning.
		if canLMP && childrenSearched >= lmpThreshold && isQuiet {
			continue
		}

		// 12.c
		next, err := g.MakeMove(m)
		if err != nil {
			continue // pseudo-legal filter race: shouldn't happen, defensively skip
		}
		childLine := line.Extend(m, next)

		// 12.d LMR eligibility.
		canReduce := depth >= 3 && !inCheck && childrenSearched > 0

		childSearch := func(d int, a score.Score) (score.Score, bool) {
			b := score.Bound{Alpha: a, Beta: a + 1}.Negate()
			_, s, nt := evaluateSearch(ctx, childLine, d, ply+1, b, false)
			if nt == tt.None && ctx.Aborted() {
				return 0, true
			}
			return s.Negate().IncrementMateDistance(), false
		}

		var childScore score.Score
		var aborted bool

		// 12.e PVS with LMR.
		if canReduce {
			reduction := lmrReduction(ctx.Params, depth, childrenSearched, childLine.Improving(ctx.Eval), isPV)
			d := depth - reduction
			if d < 1 {
				d = 1
			}
			childScore, aborted = childSearch(d, alpha)
			if !aborted && alpha < childScore && reduction > 1 {
				childScore, aborted = childSearch(depth-1, alpha)
			}
		} else {
			doFullResearch := !isPV || childrenSearched > 0
			if doFullResearch {
				childScore, aborted = childSearch(depth-1, alpha)
			}
			if !aborted && isPV && (childrenSearched == 0 || alpha < childScore) {
				b := bound.Negate()
				_, s, nt := evaluateSearch(ctx, childLine, depth-1, ply+1, b, false)
				if nt == tt.None && ctx.Aborted() {
					aborted = true
				} else {
					childScore = s.Negate().IncrementMateDistance()
				}
			}
		}

		// 12.f
		if aborted {
			return bestMove, bestScore, tt.None
		}

		// 12.g
		if !hasBest || childScore > bestScore {
			bestScore = childScore
			bestMove = m
			hasBest = true
		}
		if alpha < childScore {
			alpha = childScore
		}

		// 12.h Beta cutoff.
		if childScore >= bound.Beta {
			if isQuiet {
				bonus := int32(ctx.Params.HistBonusCoeff.Load()*depth + ctx.Params.HistBonusConst.Load())
				ctx.Tables.OnCutoff(m, bonus, ply, earlierQuiets, prevMove, hasPrevMove)
			}
			result := childScore
			storeReplace(ctx.TT, g.Board.Hash(), tt.Cut, depth, result, m)
			return m, result, tt.Cut
		}

		if isQuiet {
			earlierQuiets = append(earlierQuiets, m)
		}
		// 12.i
		childrenSearched++
	}

	// 13.
	nt := tt.All
	if bestScore > originalAlpha {
		nt = tt.Pv
	}
	result := bestScore
	storeReplace(ctx.TT, g.Board.Hash(), nt, depth, result, bestMove)
	return bestMove, result, nt
}

// lmrReduction computes the late-move-reduction amount for the i-th move searched (0-indexed)
// at the given depth, per spec §4.5's tunable shape, reduced less for PV nodes and nodes whose
// static eval is improving (an implementation choice for the LMRPv/LMRImprov tunables, which the
// spec lists without pinning down their exact role in the formula).
func lmrReduction(p *Params, depth, i int, improving, isPV bool) int {
	r := 1.0 + p.LMRConst.Load() + math.Log(float64(depth))*math.Log(float64(i+1))*p.LMRCoeff.Load()
	if isPV {
		r -= p.LMRPv.Load()
	}
	if improving {
		r -= p.LMRImprov.Load()
	}

	reduction := int(r)
	if reduction < 1 {
		reduction = 1
	}
	if reduction > depth-1 {
		reduction = depth - 1
	}
	if reduction < 1 {
		reduction = 1
	}
	return reduction
}

// quiescence implements spec §4.5's quiescence search: resolve captures (and check evasions) to
// a quiet position before trusting the static evaluation.
func quiescence(ctx *Context, line *Line, bound score.Bound) score.Score {
	g := line.g
	if ctx.Aborted() {
		return 0
	}
	if g.CanDeclareDraw() {
		return 0
	}
	ctx.countNode()

	inCheck := g.Board.Checkers() != 0
	alpha, beta := bound.Alpha, bound.Beta

	var best score.Score
	var candidates []board.Move

	if inCheck {
		best = score.MinScore
		candidates = legalMoves(g)
	} else {
		standingPat := line.StaticEval(ctx.Eval)
		if standingPat >= beta {
			// Open question preserved from the source: fail-high here returns beta, not
			// standing_pat. See DESIGN.md.
			return beta
		}
		if standingPat+score.Score(ctx.Params.DPBigDelta.Load()) < alpha {
			return alpha
		}
		if alpha < standingPat {
			alpha = standingPat
		}
		best = standingPat
		candidates = legalMoves(g)
	}

	for _, m := range candidates {
		if !inCheck && g.IsQuiet(m) {
			continue
		}

		if !inCheck {
			victim := m.Capture
			if m.Type == board.EnPassant {
				victim = board.Pawn
			}
			if victim == board.NoPiece {
				victim = board.Queen // non-capture promotion: value the piece gained
			}
			if line.StaticEval(ctx.Eval)+eval.PieceValue(victim)+score.Score(ctx.Params.DPDelta.Load()) < alpha {
				continue
			}
			if m.IsCapture() && board.SEE(g.Board.Position(), g.Board.Turn(), m, eval.PieceValues()) < 0 {
				continue
			}
		}

		next, err := g.MakeMove(m)
		if err != nil {
			continue
		}
		childLine := line.Extend(m, next)
		childBound := score.Bound{Alpha: beta.Negate(), Beta: alpha.Negate()}
		s := quiescence(ctx, childLine, childBound).Negate().IncrementMateDistance()

		if s > best {
			best = s
		}
		if s > alpha {
			alpha = s
		}
		if s >= beta {
			break
		}
	}

	return best
}

// legalMoves returns every legal move for g's position, filtering the rules library's
// pseudo-legal generator by the same king-safety check Board.PushMove applies.
func legalMoves(g *game.Game) []board.Move {
	pseudo := g.Board.Position().PseudoLegalMoves(g.Board.Turn())
	legal := make([]board.Move, 0, len(pseudo))
	for _, m := range pseudo {
		if _, ok := g.Board.Position().Move(m); ok {
			legal = append(legal, m)
		}
	}
	return legal
}

// hasAnyLegalMove reports whether g's side to move has at least one legal move, stopping at the
// first one found.
func hasAnyLegalMove(g *game.Game) bool {
	for _, m := range g.Board.Position().PseudoLegalMoves(g.Board.Turn()) {
		if _, ok := g.Board.Position().Move(m); ok {
			return true
		}
	}
	return false
}

// hasNonPawnMaterial reports whether the side to move has a knight, bishop, rook or queen,
// guarding null-move pruning against zugzwang-prone king-and-pawn endings.
func hasNonPawnMaterial(g *game.Game) bool {
	pos := g.Board.Position()
	c := g.Board.Turn()
	return pos.Piece(c, board.Knight)|pos.Piece(c, board.Bishop)|pos.Piece(c, board.Rook)|pos.Piece(c, board.Queen) != 0
}

// sortByPriorityDesc sorts moves by descending priority in lockstep, an insertion sort since
// move lists are short (legal chess positions rarely exceed ~50 moves).
func sortByPriorityDesc(moves []board.Move, priority []int32) {
	for i := 1; i < len(moves); i++ {
		m, p := moves[i], priority[i]
		j := i - 1
		for j >= 0 && priority[j] < p {
			moves[j+1] = moves[j]
			priority[j+1] = priority[j]
			j--
		}
		moves[j+1] = m
		priority[j+1] = p
	}
}
