package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/okian/levelcard/internal/assets"
	"github.com/okian/levelcard/internal/domain/card"
	"github.com/okian/levelcard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	logger.Init()
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(r.values))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			*p = r.values[i].(int64)
		case **string:
			if v, ok := r.values[i].(string); ok {
				*p = &v
			} else {
				*p = nil
			}
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

type call struct {
	sql  string
	args []any
}

type fakeDB struct {
	rows  map[string]fakeRow
	calls []call
}

func (db *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	db.calls = append(db.calls, call{sql: sql, args: args})
	row, ok := db.rows[sql]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return row
}

func TestPostgresStore(t *testing.T) {
	Convey("Given a store over a fake pool", t, func() {
		db := &fakeDB{rows: map[string]fakeRow{}}
		s := newPostgresStore(db, time.Second)
		ctx := context.Background()

		Convey("XP reads the member row with user then guild", func() {
			db.rows[queryXP] = fakeRow{values: []any{int64(3255)}}
			xp, err := s.XP(ctx, "10", "20")
			So(err, ShouldBeNil)
			So(xp, ShouldEqual, 3255)
			So(db.calls[0].args, ShouldResemble, []any{int64(20), int64(10)})
		})

		Convey("A missing XP row is zero", func() {
			xp, err := s.XP(ctx, "10", "20")
			So(err, ShouldBeNil)
			So(xp, ShouldEqual, 0)
		})

		Convey("Non-numeric ids are rejected before querying", func() {
			_, err := s.XP(ctx, "guild", "20")
			So(errors.Is(err, ErrInvalidID), ShouldBeTrue)
			_, err = s.Rank(ctx, "", 5)
			So(errors.Is(err, ErrInvalidID), ShouldBeTrue)
			So(db.calls, ShouldBeEmpty)
		})

		Convey("Rank is one more than the members ahead", func() {
			db.rows[queryRank] = fakeRow{values: []any{int64(4)}}
			rank, err := s.Rank(ctx, "10", 500)
			So(err, ShouldBeNil)
			So(rank, ShouldEqual, 5)
			So(db.calls[0].args, ShouldResemble, []any{int64(500), int64(10)})
		})

		Convey("Query failures are wrapped", func() {
			boom := errors.New("connection reset")
			db.rows[queryRank] = fakeRow{err: boom}
			_, err := s.Rank(ctx, "10", 500)
			So(errors.Is(err, ErrQuery), ShouldBeTrue)
			So(errors.Is(err, boom), ShouldBeTrue)
		})

		Convey("Customization without a row is the default look", func() {
			c, err := s.Customization(ctx, "20")
			So(err, ShouldBeNil)
			So(c, ShouldResemble, card.DefaultCustomization())
		})

		Convey("Customization resolves stored columns", func() {
			db.rows[queryCard] = fakeRow{values: []any{
				"FF0000", nil, "zzz", nil, nil, nil, nil, nil, "Go Mono", "fox.png",
			}}
			c, err := s.Customization(ctx, "20")
			So(err, ShouldBeNil)
			So(c.Colors.Important, ShouldEqual, card.Color("ff0000"))
			So(c.Colors.Rank, ShouldEqual, card.DefaultColors().Rank)
			So(c.Colors.Secondary, ShouldEqual, card.DefaultColors().Secondary)
			So(c.Font, ShouldEqual, assets.FontMono)
			So(c.Toy, ShouldEqual, assets.ToyFox)
			So(c.Validate(), ShouldBeNil)
		})
	})
}

func TestCustomizationRecord(t *testing.T) {
	Convey("Toy values accept names and filenames", t, func() {
		So(parseToy("parrot"), ShouldEqual, assets.ToyParrot)
		So(parseToy("cat.png"), ShouldEqual, assets.ToyCat)
		So(parseToy("toys/star.png"), ShouldEqual, assets.ToyStar)
		So(parseToy(""), ShouldEqual, assets.ToyNone)
		So(parseToy("dragon.gif"), ShouldEqual, assets.ToyNone)
	})

	Convey("An empty record resolves to the defaults", t, func() {
		So(CustomizationRecord{}.Resolve(), ShouldResemble, card.DefaultCustomization())
	})

	Convey("An unknown font falls back to the default", t, func() {
		font := "Comic Sans"
		So(CustomizationRecord{Font: &font}.Resolve().Font, ShouldEqual, assets.DefaultFont)
	})

	Convey("XP beyond the bigint range is clamped", t, func() {
		So(clampXP(1<<64-1), ShouldEqual, int64(1<<63-1))
		So(clampXP(42), ShouldEqual, 42)
	})
}

func TestMemoryStore(t *testing.T) {
	Convey("Given a memory store", t, func() {
		s := NewMemoryStore()
		ctx := context.Background()
		s.SetXP("g", "a", 100)
		s.SetXP("g", "b", 300)
		s.SetXP("g", "c", 300)
		s.SetXP("other", "d", 10000)

		Convey("XP is per guild", func() {
			xp, _ := s.XP(ctx, "g", "b")
			So(xp, ShouldEqual, 300)
			xp, _ = s.XP(ctx, "other", "b")
			So(xp, ShouldEqual, 0)
		})

		Convey("Rank counts strictly higher XP in the guild", func() {
			r, _ := s.Rank(ctx, "g", 300)
			So(r, ShouldEqual, 1)
			r, _ = s.Rank(ctx, "g", 100)
			So(r, ShouldEqual, 3)
			r, _ = s.Rank(ctx, "empty", 1)
			So(r, ShouldEqual, 1)
		})

		Convey("Customization falls back when missing or invalid", func() {
			c, _ := s.Customization(ctx, "a")
			So(c, ShouldResemble, card.DefaultCustomization())

			bad := card.DefaultCustomization()
			bad.Colors.Border = "nope"
			s.SetCustomization("a", bad)
			c, _ = s.Customization(ctx, "a")
			So(c, ShouldResemble, card.DefaultCustomization())

			good := card.DefaultCustomization()
			good.Toy = assets.ToyDuck
			s.SetCustomization("a", good)
			c, _ = s.Customization(ctx, "a")
			So(c.Toy, ShouldEqual, assets.ToyDuck)
		})
	})
}
