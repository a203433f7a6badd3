// bench drives the search core end to end from the command line: construct an engine over a
// position, run best_move under a time or thread budget, and print the PV stream to stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/corvidchess/engine/pkg/board/fen"
	"github.com/corvidchess/engine/pkg/engine"
	"github.com/corvidchess/engine/pkg/search"
	"github.com/seekerror/logw"
)

var (
	position = flag.String("fen", "", "Start position (default to standard)")
	depth    = flag.Int("depth", 0, "Search depth limit (0 for none)")
	movetime = flag.Duration("movetime", 5*time.Second, "Fixed think time")
	threads  = flag.Int("threads", 1, "Number of search threads")
	hashMB   = flag.Uint64("hash", 64, "Transposition table size in MB")
)

func main() {
	flag.Parse()
	ctx := context.Background()

	if *position == "" {
		*position = fen.Initial
	}

	e, err := engine.New(ctx, "bench", "corvidchess", *position, *hashMB<<20)
	if err != nil {
		logw.Exitf(ctx, "Invalid fen '%v': %v", *position, err)
	}

	e.AllowFor(*movetime)
	e.StartSMP(*threads)

	limit := *depth
	move, s, reached := e.BestMove(ctx, func(pv search.PV) bool {
		fmt.Printf("info depth %v score %v nodes %v time %v pv %v\n",
			pv.Depth, pv.Score.Plain(), pv.Nodes, pv.Time.Milliseconds(), pv.Move)
		return limit == 0 || pv.Depth < limit
	})

	fmt.Printf("bestmove %v score %v depth %v nodes %v elapsed %v hashfull %v\n",
		move, s.Plain(), reached, e.Nodes(), e.Elapsed(), e.TTUsed())
}
