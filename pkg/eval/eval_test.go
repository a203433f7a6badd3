package eval_test

import (
	"testing"

	"github.com/corvidchess/engine/pkg/board"
	"github.com/corvidchess/engine/pkg/board/fen"
	"github.com/corvidchess/engine/pkg/eval"
	"github.com/corvidchess/engine/pkg/score"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, position string) *board.Board {
	t.Helper()
	pos, turn, noprogress, fullmoves, err := fen.Decode(position)
	require.NoError(t, err)
	zt := board.NewZobristTable(0)
	return board.NewBoard(zt, pos, turn, noprogress, fullmoves)
}

func TestEvaluateStaticIsZeroForSymmetricStartingPosition(t *testing.T) {
	p := eval.NewDefaultParams()
	b := decode(t, fen.Initial)

	require.Equal(t, score.Score(0), eval.EvaluateStatic(p, b))
}

func TestEvaluateStaticFavorsSideToMoveWithExtraQueen(t *testing.T) {
	p := eval.NewDefaultParams()
	b := decode(t, "4k3/8/8/8/8/8/8/3QK3 w - - 0 1")

	require.Positive(t, eval.EvaluateStatic(p, b))
}

func TestEvaluateStaticIsAntisymmetricUnderSideSwap(t *testing.T) {
	p := eval.NewDefaultParams()
	white := decode(t, "4k3/8/8/8/8/8/8/3QK3 w - - 0 1")
	black := decode(t, "4k3/8/8/8/8/8/8/3QK3 b - - 0 1")

	require.Equal(t, eval.EvaluateStatic(p, white), -eval.EvaluateStatic(p, black))
}

func TestPieceValuesOrdering(t *testing.T) {
	v := eval.PieceValues()
	require.Less(t, v[board.Pawn], v[board.Knight])
	require.Less(t, v[board.Knight], v[board.Rook])
	require.Less(t, v[board.Rook], v[board.Queen])
	require.Less(t, v[board.Queen], v[board.King])
}
