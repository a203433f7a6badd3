package eval

import "github.com/corvidchess/engine/pkg/board"

// Pin describes a piece that cannot move off the attacker-target line without exposing target to
// capture.
type Pin struct {
	Attacker, Pinned, Target board.Square
}

// FindPins returns every pin against side's piece, a mobility signal a future evaluation term or
// a search extension could consume (see spec's pin-aware move generation and reduced-mobility
// scoring). Not currently wired into EvaluateStatic.
func FindPins(pos *board.Position, side board.Color, piece board.Piece) []Pin {
	var ret []Pin

	bb := pos.Piece(side, piece)
	for bb != 0 {
		target := bb.LastPopSquare()
		bb ^= board.BitMask(target)

		rooks := board.RookAttackboard(pos.Rotated(), target)
		pins := rooks & pos.Color(side)
		for pins != 0 {
			pinned := pins.LastPopSquare()
			pins ^= board.BitMask(pinned)

			attackers := pos.Piece(side.Opponent(), board.Queen) | pos.Piece(side.Opponent(), board.Rook)
			candidate := (board.RookAttackboard(pos.Rotated().Xor(pinned), target) &^ rooks) & attackers
			if candidate != 0 {
				ret = append(ret, Pin{Attacker: candidate.LastPopSquare(), Pinned: pinned, Target: target})
			}
		}

		bishops := board.BishopAttackboard(pos.Rotated(), target)
		pins = bishops & pos.Color(side)
		for pins != 0 {
			pinned := pins.LastPopSquare()
			pins ^= board.BitMask(pinned)

			attackers := pos.Piece(side.Opponent(), board.Queen) | pos.Piece(side.Opponent(), board.Bishop)
			candidate := (board.BishopAttackboard(pos.Rotated().Xor(pinned), target) &^ bishops) & attackers
			if candidate != 0 {
				ret = append(ret, Pin{Attacker: candidate.LastPopSquare(), Pinned: pinned, Target: target})
			}
		}
	}

	return ret
}

// MobilityPenalty sums a fixed penalty per pin against side's king, a cheap proxy for the lost
// mobility of pinned defenders.
func MobilityPenalty(pos *board.Position, side board.Color, perPin int) int {
	return len(FindPins(pos, side, board.King)) * perPin
}
