package search

import (
	"github.com/corvidchess/engine/pkg/board"
	"github.com/corvidchess/engine/pkg/eval"
	"github.com/corvidchess/engine/pkg/game"
	"github.com/corvidchess/engine/pkg/score"
)

// Line is a node in the Prev-Move Line: a chain threaded from the current search frame back
// toward the root, each link carrying the move that produced its position and a lazily-computed
// static evaluation of it. It lets a frame consult its own static eval and that of an ancestor
// without re-walking the Game itself, and is how the "improving" condition (ply's static eval
// above the grandparent's) is detected for LMR.
type Line struct {
	Move    board.Move
	HasMove bool
	Parent  *Line

	g      *game.Game
	static score.Score
	cached bool
}

// Root starts a Line at the search root.
func Root(g *game.Game) *Line {
	return &Line{g: g}
}

// Extend returns the child Line reached by playing m from l's position into next.
func (l *Line) Extend(m board.Move, next *game.Game) *Line {
	return &Line{Move: m, HasMove: true, Parent: l, g: next}
}

// StaticEval returns this node's static evaluation, computing and caching it on first use.
func (l *Line) StaticEval(p *eval.Params) score.Score {
	if !l.cached {
		l.static = eval.EvaluateStatic(p, l.g.Board)
		l.cached = true
	}
	return l.static
}

// Improving reports whether this node's static eval exceeds the static eval two plies earlier
// (the last position where the same side was to move). Unknown history (fewer than two
// ancestors) is treated as improving, matching the permissive default used when pruning gates
// have no grandparent to compare against.
func (l *Line) Improving(p *eval.Params) bool {
	if l.Parent == nil || l.Parent.Parent == nil {
		return true
	}
	return l.StaticEval(p) > l.Parent.Parent.StaticEval(p)
}
