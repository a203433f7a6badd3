package search_test

import (
	"context"
	"testing"
	"time"

	"github.com/corvidchess/engine/pkg/board"
	"github.com/corvidchess/engine/pkg/eval"
	"github.com/corvidchess/engine/pkg/search"
	"github.com/corvidchess/engine/pkg/tt"
	"github.com/seekerror/stdlib/pkg/lang"
	"github.com/stretchr/testify/require"
)

func TestCoordinatorBestMoveFindsMateInOne(t *testing.T) {
	c := search.NewCoordinator(tt.New(context.Background(), 1<<20), eval.NewDefaultParams(), search.NewDefaultParams())
	g := newGame(t, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")

	var depths []int
	move, s, depth := c.BestMove(context.Background(), g, lang.Optional[time.Duration]{}, lang.Optional[time.Duration]{}, lang.Some(4), func(pv search.PV) bool {
		depths = append(depths, pv.Depth)
		return true
	})

	require.Equal(t, board.A8, move.To)
	md, ok := s.MateDistance()
	require.True(t, ok)
	require.Equal(t, 1, md)
	require.NotEmpty(t, depths)
	require.LessOrEqual(t, depth, 4)
}

func TestCoordinatorBestMoveStopsOnCallbackFalse(t *testing.T) {
	c := search.NewCoordinator(tt.New(context.Background(), 1<<20), eval.NewDefaultParams(), search.NewDefaultParams())
	g := newGame(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")

	calls := 0
	_, _, depth := c.BestMove(context.Background(), g, lang.Optional[time.Duration]{}, lang.Optional[time.Duration]{}, lang.Optional[int]{}, func(pv search.PV) bool {
		calls++
		return false
	})

	require.Equal(t, 1, calls)
	require.Equal(t, 1, depth)
}

func TestCoordinatorStartSMPAndKillSMPAreIdempotent(t *testing.T) {
	c := search.NewCoordinator(tt.New(context.Background(), 1<<16), eval.NewDefaultParams(), search.NewDefaultParams())
	g := newGame(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")

	c.StartSMP(4, g)
	time.Sleep(10 * time.Millisecond)
	c.KillSMP()
	c.KillSMP()
}

func TestBudgetFixedMovetime(t *testing.T) {
	soft, hard := search.Budget(lang.Some(500*time.Millisecond), lang.Optional[search.Clock]{}, 0)
	softV, hasSoft := soft.V()
	hardV, hasHard := hard.V()
	require.True(t, hasSoft)
	require.True(t, hasHard)
	require.Equal(t, 500*time.Millisecond, softV)
	require.Equal(t, 500*time.Millisecond, hardV)
}

func TestBudgetNoLimitWhenNeitherGiven(t *testing.T) {
	soft, hard := search.Budget(lang.Optional[time.Duration]{}, lang.Optional[search.Clock]{}, 0)
	_, hasSoft := soft.V()
	_, hasHard := hard.V()
	require.False(t, hasSoft)
	require.False(t, hasHard)
}

func TestBudgetFromClock(t *testing.T) {
	soft, hard := search.Budget(lang.Optional[time.Duration]{}, lang.Some(search.Clock{TimeLeftMS: 60000, TimeIncrMS: 0}), 0)
	softV, hasSoft := soft.V()
	hardV, hasHard := hard.V()
	require.True(t, hasSoft)
	require.True(t, hasHard)
	require.Positive(t, softV)
	require.GreaterOrEqual(t, hardV, softV)
}
