package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	worker "github.com/gsbelarus/tetrisbot/internal/adapters/mq/worker"
	model "github.com/gsbelarus/tetrisbot/internal/domain/model"
	logging "github.com/gsbelarus/tetrisbot/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockQueue struct {
	ch        chan model.ScorePush
	closeOnce sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{ch: make(chan model.ScorePush, 10)}
}

func (mq *mockQueue) Dequeue() <-chan model.ScorePush { return mq.ch }

func (mq *mockQueue) Close() error {
	mq.closeOnce.Do(func() { close(mq.ch) })
	return nil
}

type mockPusher struct {
	mu     sync.Mutex
	pushed []model.ScorePush
	fail   map[int64]error
	block  chan struct{}
}

func newMockPusher() *mockPusher {
	return &mockPusher{fail: make(map[int64]error)}
}

func (mp *mockPusher) PushScore(ctx context.Context, p model.ScorePush) error {
	if mp.block != nil {
		select {
		case <-mp.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if err, ok := mp.fail[p.UserID]; ok {
		return err
	}
	mp.pushed = append(mp.pushed, p)
	return nil
}

func (mp *mockPusher) count() int {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return len(mp.pushed)
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker over a queue", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		pusher := newMockPusher()
		w := worker.NewInMemoryWorker(q, pusher, worker.WithName("test-worker"))

		convey.Convey("When pushes are queued and the queue closes", func() {
			q.ch <- model.ScorePush{UserID: 1, Points: 10}
			q.ch <- model.ScorePush{UserID: 2, Points: 20}
			_ = q.Close()

			w.Run(context.Background())

			convey.Convey("Then every push is delivered before Run returns", func() {
				convey.So(pusher.count(), convey.ShouldEqual, 2)
				_, open := <-w.Done()
				convey.So(open, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When a push fails", func() {
			pusher.fail[1] = errors.New("bad request")
			q.ch <- model.ScorePush{UserID: 1}
			q.ch <- model.ScorePush{UserID: 2}
			_ = q.Close()

			w.Run(context.Background())

			convey.Convey("Then the worker keeps going", func() {
				convey.So(pusher.count(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When a push hangs past its timeout", func() {
			pusher.block = make(chan struct{})
			w := worker.NewInMemoryWorker(q, pusher, worker.WithPushTimeout(20*time.Millisecond))
			q.ch <- model.ScorePush{UserID: 3}
			_ = q.Close()

			start := time.Now()
			w.Run(context.Background())

			convey.Convey("Then it is abandoned", func() {
				convey.So(time.Since(start), convey.ShouldBeLessThan, time.Second)
				convey.So(pusher.count(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			w.Run(ctx)

			convey.Convey("Then Run returns", func() {
				_, open := <-w.Done()
				convey.So(open, convey.ShouldBeFalse)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of workers", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		pusher := newMockPusher()
		pool := worker.NewPool(3, q, pusher)
		pool.Start(context.Background())

		convey.Convey("When pushes arrive and the pool shuts down", func() {
			for i := range 5 {
				q.ch <- model.ScorePush{UserID: int64(i)}
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			err := pool.Shutdown(ctx)

			convey.Convey("Then the queue is drained", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(pusher.count(), convey.ShouldEqual, 5)
				convey.So(pool.Processed(), convey.ShouldEqual, 5)
				convey.So(pool.Failed(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When a worker count below one is given", func() {
			p := worker.NewPool(0, newMockQueue(), pusher)
			convey.So(p, convey.ShouldNotBeNil)
		})
	})
}
