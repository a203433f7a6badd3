package board_test

import (
	"testing"

	"github.com/corvidchess/engine/pkg/board"
	"github.com/corvidchess/engine/pkg/board/fen"
	"github.com/stretchr/testify/require"
)

var values = [board.NumPieces]int{
	board.Pawn:   100,
	board.Knight: 320,
	board.Bishop: 330,
	board.Rook:   500,
	board.Queen:  900,
	board.King:   20000,
}

func TestSEEWinningCapture(t *testing.T) {
	// White pawn takes an undefended black knight: pawn x knight, knight value recovered and the
	// pawn is not recaptured.
	pos, turn, _, _, err := fen.Decode("4k3/8/8/3n4/4P3/8/8/4K3 w - - 0 1")
	require.NoError(t, err)

	m := board.Move{Type: board.Capture, Piece: board.Pawn, From: board.E4, To: board.D5, Capture: board.Knight}
	require.Equal(t, values[board.Knight], board.SEE(pos, turn, m, values))
}

func TestSEELosingCapture(t *testing.T) {
	// White queen takes a pawn defended by a knight: loses the queen for a pawn.
	pos, turn, _, _, err := fen.Decode("4k3/2n5/8/3p4/8/8/8/3QK3 w - - 0 1")
	require.NoError(t, err)

	m := board.Move{Type: board.Capture, Piece: board.Queen, From: board.D1, To: board.D5, Capture: board.Pawn}
	require.Equal(t, values[board.Pawn]-values[board.Queen], board.SEE(pos, turn, m, values))
}

func TestSEENonCaptureIsZero(t *testing.T) {
	pos, turn, _, _, err := fen.Decode(fen.Initial)
	require.NoError(t, err)

	m := board.Move{Type: board.Push, Piece: board.Pawn, From: board.E2, To: board.E4}
	require.Equal(t, 0, board.SEE(pos, turn, m, values))
}
