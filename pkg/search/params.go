package search

import "github.com/corvidchess/engine/pkg/tunable"

// Params holds the search core's tunable numeric constants behind tunable.Cells, per spec §6's
// "Tunable parameters" table. Search reads these continuously; an external tuner (out of scope)
// may mutate them between searches.
type Params struct {
	AspInitDelta   *tunable.Cell[int] // cp, aspiration window half-width at depth 2
	RFPUbound      *tunable.Cell[int] // plies, reverse futility pruning depth ceiling
	RFPMarginCoeff *tunable.Cell[int] // cp/ply
	FPUbound       *tunable.Cell[int] // plies, futility pruning depth ceiling
	FPMarginCoeff  *tunable.Cell[int] // cp/ply
	LMRCoeff       *tunable.Cell[float64]
	LMRConst       *tunable.Cell[float64]
	LMRImprov      *tunable.Cell[float64]
	LMRPv          *tunable.Cell[float64]
	HistBonusCoeff *tunable.Cell[int]
	HistBonusConst *tunable.Cell[int]
	DPBigDelta     *tunable.Cell[int] // cp, quiescence big-delta (standing-pat) pruning margin
	DPDelta        *tunable.Cell[int] // cp, quiescence per-move delta pruning margin
}

// NewDefaultParams returns a Params populated with spec §6's defaults.
func NewDefaultParams() *Params {
	return &Params{
		AspInitDelta:   tunable.NewCell(13),
		RFPUbound:      tunable.NewCell(2),
		RFPMarginCoeff: tunable.NewCell(120),
		FPUbound:       tunable.NewCell(2),
		FPMarginCoeff:  tunable.NewCell(150),
		LMRCoeff:       tunable.NewCell(0.4),
		LMRConst:       tunable.NewCell(2.78),
		LMRImprov:      tunable.NewCell(1.0),
		LMRPv:          tunable.NewCell(1.0),
		HistBonusCoeff: tunable.NewCell(300),
		HistBonusConst: tunable.NewCell(-250),
		DPBigDelta:     tunable.NewCell(1100),
		DPDelta:        tunable.NewCell(200),
	}
}
