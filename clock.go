package osal

import (
	"time"

	"github.com/zakdam/osal-1/port"
)

// usToTicks converts a microsecond duration to ticks, rounding up to at
// least one tick for any value that is non-zero but smaller than a tick,
// per spec §4.6 ("µs_to_ticks(x) rounds up to at least 1 tick when x > 0
// and x < one-tick µs; otherwise floor division").
func usToTicks(p port.Port, us uint32) uint32 {
	if us == 0 {
		return 0
	}
	tps := uint64(p.TicksPerSecond())
	num := uint64(us) * tps
	ticks := num / 1_000_000
	if ticks == 0 {
		ticks = 1
	}
	return uint32(ticks)
}

// ticksToUS is the inverse conversion: ticks_to_µs(t) = t × (1_000_000 /
// ticks_per_sec).
func ticksToUS(p port.Port, ticks uint32) uint32 {
	tps := uint64(p.TicksPerSecond())
	if tps == 0 {
		return 0
	}
	return uint32(uint64(ticks) * 1_000_000 / tps)
}

func ticksToDuration(p port.Port, ticks uint32) time.Duration {
	return time.Duration(ticksToUS(p, ticks)) * time.Microsecond
}
