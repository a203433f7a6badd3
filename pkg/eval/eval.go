// Package eval implements static position evaluation: a tapered piece-square-table score plus a
// rook-open-file bonus and an unshielded-king penalty, per spec §4.1.
package eval

import (
	"github.com/corvidchess/engine/pkg/board"
	"github.com/corvidchess/engine/pkg/score"
	"github.com/corvidchess/engine/pkg/tunable"
)

// maxPhase is the fully-midgame end of the phase scale; phase counts down to 0 as material
// comes off the board.
const maxPhase = 24

// phaseWeight is the per-piece contribution to the game-phase metric.
var phaseWeight = [board.NumPieces]int{
	board.Pawn:   0,
	board.Knight: 1,
	board.Bishop: 1,
	board.Rook:   2,
	board.Queen:  4,
	board.King:   0,
}

// PieceValue is the nominal centipawn material value used by move ordering (MVV/LVA) and by
// quiescence search's SEE and delta pruning. It is deliberately not a Params Cell: it reflects
// the rules of the exchange, not a tunable evaluation weight.
func PieceValue(p board.Piece) score.Score {
	switch p {
	case board.Pawn:
		return 100
	case board.Knight, board.Bishop:
		return 320
	case board.Rook:
		return 500
	case board.Queen:
		return 900
	case board.King:
		return 20000
	default:
		return 0
	}
}

// PieceValues returns PieceValue as a plain lookup table, for board.SEE.
func PieceValues() [board.NumPieces]int {
	var v [board.NumPieces]int
	for p := board.ZeroPiece; p < board.NumPieces; p++ {
		v[p] = int(PieceValue(p))
	}
	return v
}

// Params holds the tunable evaluation weights behind tunable.Cells, so the out-of-scope offline
// tuner can mutate live values while search reads them concurrently without a data race.
type Params struct {
	// MidgamePST and EndgamePST are indexed [pstIndex(piece)][square], square always from
	// White's perspective (Black pieces are evaluated against a rank-mirrored square).
	MidgamePST [6][64]*tunable.Cell[int16]
	EndgamePST [6][64]*tunable.Cell[int16]

	RookOpenFileBonus   *tunable.Cell[int16]
	UnshieldKingPenalty *tunable.Cell[int16]
}

// pstIndex maps a piece to its row in the PST tables.
func pstIndex(p board.Piece) int {
	switch p {
	case board.Pawn:
		return 0
	case board.Knight:
		return 1
	case board.Bishop:
		return 2
	case board.Rook:
		return 3
	case board.Queen:
		return 4
	case board.King:
		return 5
	default:
		return 0
	}
}

// NewDefaultParams returns a Params populated with a generated, centrally-peaking tapered PST
// and modest positional bonuses.
func NewDefaultParams() *Params {
	p := &Params{
		RookOpenFileBonus:   tunable.NewCell[int16](15),
		UnshieldKingPenalty: tunable.NewCell[int16](-12),
	}
	for _, piece := range [...]board.Piece{board.Pawn, board.Knight, board.Bishop, board.Rook, board.Queen, board.King} {
		mg, eg := generatePST(piece)
		row := pstIndex(piece)
		for sq := board.ZeroSquare; sq < board.NumSquares; sq++ {
			p.MidgamePST[row][sq] = tunable.NewCell(mg[sq])
			p.EndgamePST[row][sq] = tunable.NewCell(eg[sq])
		}
	}
	return p
}

// generatePST synthesizes a plausible tapered table for piece, expressed from White's
// perspective (Rank1 is White's back rank).
func generatePST(piece board.Piece) (mg, eg [64]int16) {
	for sq := board.ZeroSquare; sq < board.NumSquares; sq++ {
		f, r := int(sq.File()), int(sq.Rank())
		centrality := (3.5 - abs(float64(f)-3.5)) + (3.5 - abs(float64(r)-3.5))

		switch piece {
		case board.Pawn:
			mg[sq] = int16(6 * r)
			eg[sq] = int16(10 * r)
		case board.Knight, board.Bishop:
			mg[sq] = int16(4 * centrality)
			eg[sq] = int16(3 * centrality)
		case board.Rook:
			mg[sq] = int16(2 * centrality)
			eg[sq] = int16(2 * centrality)
		case board.Queen:
			mg[sq] = int16(2 * centrality)
			eg[sq] = int16(3 * centrality)
		case board.King:
			mg[sq] = int16(-4 * centrality)
			eg[sq] = int16(4 * centrality)
		}
	}
	return mg, eg
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// kingShieldCenter returns the square directly in front of the king (toward the opponent) for
// the purposes of the unshielded-king penalty, or the king's own square if the king stands on
// the far rank (rank 8 for White, rank 1 for Black).
func kingShieldCenter(c board.Color, king board.Square) board.Square {
	if c == board.White {
		if king.Rank() == board.Rank8 {
			return king
		}
		return king + 8
	}
	if king.Rank() == board.Rank1 {
		return king
	}
	return king - 8
}

// EvaluateStatic returns a side-to-move-relative score for the position, per spec §4.1: tapered
// PST plus rook-open-file and unshielded-king terms.
func EvaluateStatic(p *Params, b *board.Board) score.Score {
	pos := b.Position()

	phase := 0
	for c := board.ZeroColor; c < board.NumColors; c++ {
		for piece := board.Pawn; piece <= board.King; piece++ {
			phase += phaseWeight[piece] * pos.Piece(c, piece).PopCount()
		}
	}
	if phase > maxPhase {
		phase = maxPhase
	}

	pawns := pos.Piece(board.White, board.Pawn) | pos.Piece(board.Black, board.Pawn)

	var mg, eg [board.NumColors]int
	for c := board.ZeroColor; c < board.NumColors; c++ {
		for piece := board.Pawn; piece <= board.King; piece++ {
			bb := pos.Piece(c, piece)
			for bb != 0 {
				sq := bb.LastPopSquare()
				bb ^= board.BitMask(sq)

				idx := sq
				if c == board.Black {
					idx ^= 0b111000
				}
				row := pstIndex(piece)
				mg[c] += int(p.MidgamePST[row][idx].Load())
				eg[c] += int(p.EndgamePST[row][idx].Load())

				switch piece {
				case board.Rook:
					if pawns&board.BitFile(sq.File()) == 0 {
						bonus := int(p.RookOpenFileBonus.Load())
						mg[c] += bonus
						eg[c] += bonus
					}
				case board.King:
					center := kingShieldCenter(c, sq)
					area := board.KingAttackboard(center) | board.BitMask(center)
					count := (area & pawns).PopCount()
					if count < 3 {
						mg[c] += int(p.UnshieldKingPenalty.Load()) * (3 - count)
					}
				}
			}
		}
	}

	stm, opp := b.Turn(), b.Turn().Opponent()
	mgScore := mg[stm] - mg[opp]
	egScore := eg[stm] - eg[opp]
	tapered := (mgScore*phase + egScore*(maxPhase-phase)) / maxPhase

	switch {
	case tapered > int(score.MaxScore):
		return score.MaxScore
	case tapered < int(score.MinScore):
		return score.MinScore
	default:
		return score.Score(tapered)
	}
}
