package search

import (
	"time"

	"github.com/seekerror/stdlib/pkg/lang"
)

// Clock holds one side's remaining time and increment, in milliseconds, per spec §4.7.
type Clock struct {
	TimeLeftMS, TimeIncrMS int
}

// Budget computes the soft deadline (stop between iterations once reached) and hard deadline
// (abort mid-search) for a move, per spec §4.7. Either return is empty (no limit) iff neither
// movetime nor clock is set.
//
//   - If movetime is set, soft = hard = movetime.
//   - Else if a clock is given, think = time_left/40, plus 0.8*incr if time_left > 4*incr,
//     clamped to at least min(time_left/4, 50ms). soft = think, hard = min(3*think, time_left/2).
//
// movestogo does not affect either deadline.
func Budget(movetime lang.Optional[time.Duration], clock lang.Optional[Clock], movestogo int) (soft, hard lang.Optional[time.Duration]) {
	if d, ok := movetime.V(); ok {
		return lang.Some(d), lang.Some(d)
	}

	c, ok := clock.V()
	if !ok {
		return lang.Optional[time.Duration]{}, lang.Optional[time.Duration]{}
	}

	left := time.Duration(c.TimeLeftMS) * time.Millisecond
	incr := time.Duration(c.TimeIncrMS) * time.Millisecond

	think := left / 40
	if left > 4*incr {
		think += (incr * 8) / 10
	}
	floor := left / 4
	if 50*time.Millisecond < floor {
		floor = 50 * time.Millisecond
	}
	if think < floor {
		think = floor
	}

	hardCap := left / 2
	hardLimit := 3 * think
	if hardCap < hardLimit {
		hardLimit = hardCap
	}
	return lang.Some(think), lang.Some(hardLimit)
}
