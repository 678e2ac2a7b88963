// Package levels maps a cumulative XP counter onto the level curve.
//
// The curve is part of the public contract: every threshold is computed with
// the exact float64 operation order below, so the same XP always lands on the
// same level across processes and releases.
package levels

import (
	"math"
	"math/bits"
)

// Curve constants.
const (
	// CurveBase is added to every raw threshold.
	CurveBase = 6.0
	// CurveExponent is the power applied to the level in the curved regime.
	CurveExponent = 3.1155
	// WallLevel is the last level of the curved regime. Past it every level
	// costs Threshold(WallLevel) more XP than the previous one.
	WallLevel = 30
)

// wallThreshold caches Threshold(WallLevel); the capped regime is linear in it.
var wallThreshold = curved(WallLevel)

// Threshold returns the minimum XP needed to reach level.
//
// Level 0 is the floor every counter starts on, so Threshold(0) is 0. The
// result saturates at math.MaxUint64 instead of wrapping.
func Threshold(level uint64) uint64 {
	switch {
	case level == 0:
		return 0
	case level > WallLevel:
		hi, lo := bits.Mul64(wallThreshold, level-(WallLevel-1))
		if hi != 0 {
			return math.MaxUint64
		}
		return lo
	default:
		return curved(level)
	}
}

// curved evaluates the curved regime: niceRound(6 + L^3.1155).
func curved(level uint64) uint64 {
	raw := CurveBase + math.Pow(float64(level), CurveExponent)
	return uint64(niceRound(raw))
}

// niceRound rounds num to the nearest multiple of 10^floor(log10(num)/2).
func niceRound(num float64) float64 {
	multiple := math.Pow(10, math.Floor(math.Log10(num)/2))
	return math.Round(num/multiple) * multiple
}

// Info is the level summary of one XP value. It is a small value type and is
// safe to copy.
type Info struct {
	xp       uint64
	level    uint64
	progress float64
}

// NewInfo derives the level and progress for xp.
func NewInfo(xp uint64) Info {
	level := levelFor(xp)
	current := Threshold(level)
	next := Threshold(level + 1)

	var progress float64
	if next > current {
		progress = float64(xp-current) / float64(next-current)
	}
	// float64 rounding on huge counters can reach 1.0; keep [0,1).
	if progress >= 1 {
		progress = math.Nextafter(1, 0)
	}

	return Info{xp: xp, level: level, progress: progress}
}

// levelFor returns the largest level whose threshold is <= xp.
func levelFor(xp uint64) uint64 {
	// Capped regime: Threshold(L) = wall*(L-29) is linear, solve directly.
	if xp >= Threshold(WallLevel+1) {
		return xp/wallThreshold + (WallLevel - 1)
	}
	var level uint64
	for Threshold(level+1) <= xp {
		level++
	}
	return level
}

// XP returns the counter this Info was built from.
func (i Info) XP() uint64 { return i.xp }

// Level returns the derived level.
func (i Info) Level() uint64 { return i.level }

// Progress returns the fraction in [0,1) of the way from this level to the next.
func (i Info) Progress() float64 { return i.progress }

// Percent returns Progress as a whole percentage.
func (i Info) Percent() uint64 { return uint64(math.Round(i.progress * 100)) }

// Current returns the threshold of the current level.
func (i Info) Current() uint64 { return Threshold(i.level) }

// Needed returns the threshold of the next level.
func (i Info) Needed() uint64 { return Threshold(i.level + 1) }
