package eval_test

import (
	"testing"

	"github.com/corvidchess/engine/pkg/board"
	"github.com/corvidchess/engine/pkg/board/fen"
	"github.com/corvidchess/engine/pkg/eval"
	"github.com/stretchr/testify/require"
)

func TestFindPinsDetectsRookPin(t *testing.T) {
	pos, _, _, _, err := fen.Decode("4k3/8/8/8/8/4n3/8/4R2K w - - 0 1")
	require.NoError(t, err)

	pins := eval.FindPins(pos, board.Black, board.King)
	require.Len(t, pins, 1)
	require.Equal(t, board.E3, pins[0].Pinned)
	require.Equal(t, board.E1, pins[0].Attacker)
	require.Equal(t, board.E8, pins[0].Target)
}

func TestFindPinsNoneWhenClear(t *testing.T) {
	pos, _, _, _, err := fen.Decode(fen.Initial)
	require.NoError(t, err)

	require.Empty(t, eval.FindPins(pos, board.White, board.King))
}

func TestMobilityPenaltyScalesWithPinCount(t *testing.T) {
	pos, _, _, _, err := fen.Decode("4k3/8/8/8/8/4n3/8/4R2K w - - 0 1")
	require.NoError(t, err)

	require.Equal(t, 10, eval.MobilityPenalty(pos, board.Black, 10))
}
