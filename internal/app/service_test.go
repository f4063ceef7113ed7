package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	service "github.com/gsbelarus/tetrisbot/internal/app"
	"github.com/gsbelarus/tetrisbot/internal/adapters/repository"
	"github.com/gsbelarus/tetrisbot/internal/domain/ledger"
	"github.com/gsbelarus/tetrisbot/internal/domain/model"
	"github.com/gsbelarus/tetrisbot/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func newStore(t *testing.T) *repository.FileStore[model.UserHistory] {
	t.Helper()
	store, err := repository.NewFileStore[model.UserHistory](context.Background(), filepath.Join(t.TempDir(), "results.json"))
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		store := newStore(t)
		svc := service.New(store)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When getting stats before starting", func() {
			stats := svc.GetStats()

			Convey("Then it should report a stopped service", func() {
				So(stats.Started, ShouldBeFalse)
				So(stats.Players, ShouldEqual, 0)
				So(stats.GoVersion, ShouldNotBeEmpty)
			})
		})

		Convey("When starting and stopping the service", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats().Started, ShouldBeTrue)

			_, _ = svc.RegisterPlayer(ctx, 1, "Ann", 10)
			err := svc.Stop(ctx)

			Convey("Then the final flush writes the store", func() {
				So(err, ShouldBeNil)
				So(svc.GetStats().Started, ShouldBeFalse)
				So(store.Dirty(), ShouldBeFalse)

				reloaded, err := repository.NewFileStore[model.UserHistory](ctx, store.Path())
				So(err, ShouldBeNil)
				So(reloaded.Len(), ShouldEqual, 1)
			})
		})

		Convey("When stopping a service that never started", func() {
			So(svc.Stop(ctx), ShouldBeNil)
		})
	})
}

func TestService_SubmitScore(t *testing.T) {
	Convey("Given a service without a pusher", t, func() {
		ctx := context.Background()
		svc := service.New(newStore(t))

		Convey("When a score arrives for an unknown player", func() {
			newHigh, err := svc.SubmitScore(ctx, model.Submission{ChatID: 5, UserID: 42, Points: 500})

			Convey("Then it is dropped", func() {
				So(errors.Is(err, ledger.ErrUnknownUser), ShouldBeTrue)
				So(newHigh, ShouldBeFalse)
				So(svc.GetStats().Players, ShouldEqual, 0)
			})
		})

		Convey("When the player launched the game first", func() {
			created, err := svc.RegisterPlayer(ctx, 42, "Ann Lee", 5)
			So(err, ShouldBeNil)
			So(created, ShouldBeTrue)

			newHigh, err := svc.SubmitScore(ctx, model.Submission{ChatID: 5, UserID: 42, Points: 500, Level: 2, Duration: 1000})

			Convey("Then the score is recorded as a new high", func() {
				So(err, ShouldBeNil)
				So(newHigh, ShouldBeTrue)
				name, rows, ok := svc.History(ctx, 42)
				So(ok, ShouldBeTrue)
				So(name, ShouldEqual, "Ann Lee")
				So(len(rows), ShouldEqual, 1)
				So(svc.TopN(ctx, 40)[0].Score, ShouldEqual, 500)
			})
		})
	})
}

func TestService_Counters(t *testing.T) {
	Convey("Given a service", t, func() {
		ctx := context.Background()
		ring := logger.NewRing(10)
		_, _ = ring.Write([]byte("one\ntwo\n"))
		svc := service.New(newStore(t), service.WithLogRing(ring))

		Convey("When updates and page loads are counted", func() {
			svc.CallbackReceived()
			svc.CallbackReceived()
			svc.GameServed()
			svc.RememberChat(model.ChatContext{ChatID: 1, MessageID: 3})
			svc.RememberChat(model.ChatContext{ChatID: 1, MessageID: 4})

			Convey("Then diagnostics report them", func() {
				stats := svc.Diagnostics(ctx)
				So(stats.CallbacksReceived, ShouldEqual, 2)
				So(stats.GamesServed, ShouldEqual, 1)
				So(stats.Contexts, ShouldEqual, 1)
				So(stats.LogRecords, ShouldEqual, 2)

				cc, ok := svc.ChatContext(1)
				So(ok, ShouldBeTrue)
				So(cc.MessageID, ShouldEqual, 4)
			})
		})

		Convey("When the same update id is seen twice", func() {
			first := svc.SeenUpdate(ctx, 900)
			second := svc.SeenUpdate(ctx, 900)

			Convey("Then only the second is a duplicate", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
			})
		})
	})
}
