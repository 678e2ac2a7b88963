package levels_test

import (
	"math"
	"testing"

	"github.com/okian/levelcard/internal/domain/levels"
	. "github.com/smartystreets/goconvey/convey"
)

// goldenThresholds pins the curve for levels 0..35.
var goldenThresholds = []uint64{
	0, 7, 15, 37, 81, 160, 270, 440, 660, 950,
	1310, 1760, 2310, 2960, 3730, 4620, 5650, 6820, 8150, 9640,
	11300, 13200, 15200, 17500, 20000, 22700, 25600, 28800, 32300, 36000,
	40000, 80000, 120000, 160000, 200000, 240000,
}

func TestThreshold(t *testing.T) {
	Convey("Given the level curve", t, func() {
		Convey("Then every threshold matches the published table", func() {
			for level, want := range goldenThresholds {
				So(levels.Threshold(uint64(level)), ShouldEqual, want)
			}
		})

		Convey("Then thresholds are strictly increasing across the wall", func() {
			prev := levels.Threshold(0)
			for level := uint64(1); level <= 2000; level++ {
				cur := levels.Threshold(level)
				So(cur, ShouldBeGreaterThan, prev)
				prev = cur
			}
		})

		Convey("Then the capped regime is linear in the level 30 threshold", func() {
			So(levels.Threshold(31), ShouldEqual, levels.Threshold(30)*2)
			So(levels.Threshold(1029), ShouldEqual, levels.Threshold(30)*1000)
		})

		Convey("Then huge levels saturate instead of wrapping", func() {
			So(levels.Threshold(math.MaxUint64), ShouldEqual, uint64(math.MaxUint64))
		})
	})
}

func TestNewInfo(t *testing.T) {
	Convey("Given an xp counter of zero", t, func() {
		info := levels.NewInfo(0)

		Convey("Then it is level 0 with no progress", func() {
			So(info.XP(), ShouldEqual, 0)
			So(info.Level(), ShouldEqual, 0)
			So(info.Progress(), ShouldEqual, 0)
			So(info.Needed(), ShouldEqual, 7)
		})
	})

	Convey("Given an xp counter of 3255", t, func() {
		info := levels.NewInfo(3255)

		Convey("Then it sits between the level 13 and 14 thresholds", func() {
			So(info.XP(), ShouldEqual, 3255)
			So(info.Level(), ShouldEqual, 13)
			So(info.Current(), ShouldEqual, 2960)
			So(info.Needed(), ShouldEqual, 3730)
			So(info.Progress(), ShouldAlmostEqual, 295.0/770.0, 1e-12)
			So(info.Percent(), ShouldEqual, 38)
		})
	})

	Convey("Given xp exactly on a threshold", t, func() {
		Convey("Then the level is reached with zero progress", func() {
			for level := uint64(1); level <= 40; level++ {
				info := levels.NewInfo(levels.Threshold(level))
				So(info.Level(), ShouldEqual, level)
				So(info.Progress(), ShouldEqual, 0)
			}
		})

		Convey("Then one xp short stays on the previous level", func() {
			for level := uint64(1); level <= 40; level++ {
				info := levels.NewInfo(levels.Threshold(level) - 1)
				So(info.Level(), ShouldEqual, level-1)
			}
		})
	})

	Convey("Given a sweep of xp values", t, func() {
		Convey("Then the level never decreases and the bracket always holds", func() {
			var prev uint64
			for xp := uint64(0); xp <= 250_000; xp += 7 {
				info := levels.NewInfo(xp)
				So(info.Level(), ShouldBeGreaterThanOrEqualTo, prev)
				So(levels.Threshold(info.Level()), ShouldBeLessThanOrEqualTo, xp)
				So(xp, ShouldBeLessThan, levels.Threshold(info.Level()+1))
				So(info.Progress(), ShouldBeGreaterThanOrEqualTo, 0)
				So(info.Progress(), ShouldBeLessThan, 1)
				prev = info.Level()
			}
		})

		Convey("Then counters in the tens of millions land in the low hundreds", func() {
			info := levels.NewInfo(12_345_678)
			So(info.Level(), ShouldEqual, 337)
			So(levels.Threshold(info.Level()), ShouldBeLessThanOrEqualTo, 12_345_678)
			So(uint64(12_345_678), ShouldBeLessThan, levels.Threshold(info.Level()+1))
		})
	})

	Convey("Given the largest possible counter", t, func() {
		info := levels.NewInfo(math.MaxUint64)

		Convey("Then nothing overflows", func() {
			So(levels.Threshold(info.Level()), ShouldBeLessThanOrEqualTo, uint64(math.MaxUint64))
			So(info.Progress(), ShouldBeGreaterThanOrEqualTo, 0)
			So(info.Progress(), ShouldBeLessThan, 1)
		})
	})
}
