package ledger_test

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/gsbelarus/tetrisbot/internal/adapters/repository"
	"github.com/gsbelarus/tetrisbot/internal/domain/ledger"
	"github.com/gsbelarus/tetrisbot/internal/domain/model"
	"github.com/gsbelarus/tetrisbot/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func newLedger(t *testing.T, opts ...ledger.Option) (*ledger.Ledger, *repository.FileStore[model.UserHistory]) {
	t.Helper()
	store, err := repository.NewFileStore[model.UserHistory](context.Background(), filepath.Join(t.TempDir(), "results.json"))
	if err != nil {
		t.Fatal(err)
	}
	fixed := time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC)
	opts = append([]ledger.Option{ledger.WithClock(func() time.Time { return fixed })}, opts...)
	return ledger.New(store, opts...), store
}

func points(h model.UserHistory) []int {
	out := make([]int, 0, len(h.Results))
	for _, r := range h.Results {
		out = append(out, r.Points)
	}
	return out
}

func TestLedger_Submit(t *testing.T) {
	Convey("Given a ledger", t, func() {
		ctx := context.Background()
		l, store := newLedger(t)

		Convey("When the user has no record", func() {
			newHigh, err := l.Submit(ctx, 42, model.Result{Points: 500})

			Convey("Then the submission is dropped", func() {
				So(errors.Is(err, ledger.ErrUnknownUser), ShouldBeTrue)
				So(newHigh, ShouldBeFalse)
				So(store.Len(), ShouldEqual, 0)
				So(store.Dirty(), ShouldBeFalse)
			})
		})

		Convey("When the user registered from a chat first", func() {
			created, err := l.Register(ctx, 42, "Ann Lee", 777)
			So(err, ShouldBeNil)
			So(created, ShouldBeTrue)

			h, ok := l.History(ctx, 42)
			So(ok, ShouldBeTrue)
			So(h.UserName, ShouldEqual, "Ann Lee")
			So(h.ChatIDs, ShouldResemble, []int64{777})
			So(h.Results, ShouldBeEmpty)

			newHigh, err := l.Submit(ctx, 42, model.Result{Points: 500, Level: 3, Duration: 61000})

			Convey("Then the first result is a new high score", func() {
				So(err, ShouldBeNil)
				So(newHigh, ShouldBeTrue)

				h, _ := l.History(ctx, 42)
				So(points(h), ShouldResemble, []int{500})
				So(h.Results[0].Date, ShouldEqual, "05.03.2024")
			})
		})

		Convey("When a player with 300 and 200 submits 250", func() {
			store.Write(ctx, 1, model.UserHistory{
				UserName: "p",
				ChatIDs:  []int64{1},
				Results:  []model.Result{{Points: 300}, {Points: 200}},
			})

			newHigh, err := l.Submit(ctx, 1, model.Result{Points: 250, Date: "01.01.2024"})

			Convey("Then it is slotted in order and is not a new high", func() {
				So(err, ShouldBeNil)
				So(newHigh, ShouldBeFalse)
				h, _ := l.History(ctx, 1)
				So(points(h), ShouldResemble, []int{300, 250, 200})
				So(h.Results[1].Date, ShouldEqual, "01.01.2024")
			})
		})

		Convey("When a player ties their best", func() {
			store.Write(ctx, 1, model.UserHistory{Results: []model.Result{{Points: 300}}})
			newHigh, _ := l.Submit(ctx, 1, model.Result{Points: 300})

			Convey("Then it is not a new high", func() {
				So(newHigh, ShouldBeFalse)
			})
		})

		Convey("When a player with no results scores zero", func() {
			store.Write(ctx, 1, model.UserHistory{Results: []model.Result{}})
			newHigh, _ := l.Submit(ctx, 1, model.Result{Points: 0})

			Convey("Then it still counts as a new high", func() {
				So(newHigh, ShouldBeTrue)
			})
		})

		Convey("When a snapshot was taken before a submission", func() {
			store.Write(ctx, 1, model.UserHistory{Results: []model.Result{{Points: 10}}})
			before, _ := store.Read(ctx, 1)
			_, _ = l.Submit(ctx, 1, model.Result{Points: 20})

			Convey("Then the snapshot is not changed", func() {
				So(points(before), ShouldResemble, []int{10})
			})
		})
	})
}

func TestLedger_HistoryCap(t *testing.T) {
	Convey("Given a ledger with a small history cap", t, func() {
		ctx := context.Background()
		l, _ := newLedger(t, ledger.WithMaxHistory(5))
		_, _ = l.Register(ctx, 9, "cap", 1)

		Convey("When many results are submitted", func() {
			for i := range 20 {
				_, err := l.Submit(ctx, 9, model.Result{Points: (i * 37) % 23})
				So(err, ShouldBeNil)
			}

			Convey("Then only the best five remain, sorted", func() {
				h, _ := l.History(ctx, 9)
				So(len(h.Results), ShouldEqual, 5)
				got := points(h)
				So(slices.IsSortedFunc(got, func(a, b int) int { return b - a }), ShouldBeTrue)
				So(got[0], ShouldEqual, 22)
			})
		})
	})

	Convey("Given the default cap", t, func() {
		ctx := context.Background()
		l, _ := newLedger(t)
		_, _ = l.Register(ctx, 9, "cap", 1)
		for i := range 150 {
			_, _ = l.Submit(ctx, 9, model.Result{Points: i})
		}

		Convey("Then history never exceeds it", func() {
			h, _ := l.History(ctx, 9)
			So(len(h.Results), ShouldEqual, ledger.DefaultMaxHistory)
			So(h.Results[0].Points, ShouldEqual, 149)
			So(h.Results[99].Points, ShouldEqual, 50)
		})
	})
}

func TestLedger_Register(t *testing.T) {
	Convey("Given a registered player", t, func() {
		ctx := context.Background()
		l, store := newLedger(t)
		_, _ = l.Register(ctx, 5, "First Last", 100)

		Convey("When they launch from another chat", func() {
			created, err := l.Register(ctx, 5, "Renamed", 200)

			Convey("Then the chat is added and the name kept", func() {
				So(err, ShouldBeNil)
				So(created, ShouldBeFalse)
				h, _ := l.History(ctx, 5)
				So(h.ChatIDs, ShouldResemble, []int64{100, 200})
				So(h.UserName, ShouldEqual, "First Last")
			})
		})

		Convey("When they launch from a known chat", func() {
			So(store.Flush(ctx), ShouldBeNil)
			created, _ := l.Register(ctx, 5, "First Last", 100)

			Convey("Then nothing is written", func() {
				So(created, ShouldBeFalse)
				So(store.Dirty(), ShouldBeFalse)
			})
		})
	})
}
