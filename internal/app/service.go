// Package service owns the process-wide state of the bot: the score store,
// the remembered chat contexts, the counters and the score push pipeline.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	eventqueue "github.com/gsbelarus/tetrisbot/internal/adapters/mq/queue"
	workerpool "github.com/gsbelarus/tetrisbot/internal/adapters/mq/worker"
	"github.com/gsbelarus/tetrisbot/internal/adapters/repository"
	"github.com/gsbelarus/tetrisbot/internal/domain/dedupe"
	"github.com/gsbelarus/tetrisbot/internal/domain/leaderboard"
	"github.com/gsbelarus/tetrisbot/internal/domain/ledger"
	"github.com/gsbelarus/tetrisbot/internal/domain/model"
	"github.com/gsbelarus/tetrisbot/internal/domain/types"
	"github.com/gsbelarus/tetrisbot/pkg/logger"
	"github.com/gsbelarus/tetrisbot/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultFlushInterval   = time.Hour
	defaultQueueSize       = 1000
	defaultWorkerCount     = 2
	defaultDedupeSize      = 10_000
	metricsUpdateInterval  = 15 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// Stats is a point-in-time view of the process counters.
type Stats struct {
	Started           bool      `json:"started"`
	StartedAt         time.Time `json:"started_at"`
	Uptime            string    `json:"uptime"`
	GoVersion         string    `json:"go_version"`
	Goroutines        int       `json:"goroutines"`
	HeapAlloc         uint64    `json:"heap_alloc"`
	HeapSys           uint64    `json:"heap_sys"`
	Sys               uint64    `json:"sys"`
	NumGC             uint32    `json:"num_gc"`
	Contexts          int       `json:"contexts"`
	Players           int       `json:"players"`
	Games             int       `json:"games"`
	CallbacksReceived int64     `json:"callbacks_received"`
	GamesServed       int64     `json:"games_served"`
	LogRecords        int       `json:"log_records"`
	QueueLength       int       `json:"queue_length"`
	PushesSent        int64     `json:"pushes_sent"`
	PushesFailed      int64     `json:"pushes_failed"`
	StoreDirty        bool      `json:"store_dirty"`
}

// Service wires the ledger, leaderboard and push pipeline over one store.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store[model.UserHistory]
	ledger  *ledger.Ledger
	board   *leaderboard.Builder
	deduper dedupe.Deduper
	queue   *eventqueue.InMemoryQueue
	pool    *workerpool.Pool
	pusher  workerpool.Pusher
	ring    *logger.Ring

	// Configuration
	flushInterval time.Duration
	queueSize     int
	workerCount   int
	dedupeSize    int
	maxHistory    int
	now           func() time.Time

	// State
	contexts    map[int64]model.ChatContext
	callbacks   atomic.Int64
	gamesServed atomic.Int64
	startedAt   time.Time
	started     bool
	stopCh      chan struct{}
	loops       sync.WaitGroup

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithPusher sets the client that delivers scores to the bot platform.
// Without one, submissions are recorded but never pushed.
func WithPusher(p workerpool.Pusher) Option {
	return func(s *Service) {
		s.pusher = p
	}
}

// WithFlushInterval sets how often the store is written to disk.
func WithFlushInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.flushInterval = d
		}
	}
}

// WithQueueSize sets the maximum number of pending score pushes.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of push workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithDedupeSize sets how many update ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxHistory caps each player's history.
func WithMaxHistory(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxHistory = n
		}
	}
}

// WithLogRing sets the log buffer reported by diagnostics.
func WithLogRing(r *logger.Ring) Option {
	return func(s *Service) {
		s.ring = r
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service over store.
func New(store repository.Store[model.UserHistory], opts ...Option) *Service {
	s := &Service{
		store:         store,
		flushInterval: defaultFlushInterval,
		queueSize:     defaultQueueSize,
		workerCount:   defaultWorkerCount,
		dedupeSize:    defaultDedupeSize,
		maxHistory:    ledger.DefaultMaxHistory,
		now:           time.Now,
		contexts:      make(map[int64]model.ChatContext),
		stopCh:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.ledger = ledger.New(store,
		ledger.WithMaxHistory(s.maxHistory),
		ledger.WithClock(s.now),
	)
	s.board = leaderboard.New(store)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.startedAt = s.now()
	return s
}

// Start launches the push workers, the flush loop and the metrics updater.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.pusher != nil {
		s.pool = workerpool.NewPool(s.workerCount, s.queue, s.pusher)
		s.pool.Start(ctx)
	}

	s.loops.Add(2)
	go s.flushLoop(ctx)
	go s.metricsLoop(ctx)

	s.started = true
	s.startedAt = s.now()
	s.logger.Info(ctx, "service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.String("flush_interval", s.flushInterval.String()),
		logger.Int("players", s.store.Len()),
	)
	return nil
}

// Stop drains pending pushes and performs the final flush. It is safe to
// call on a service that was never started.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	wasStarted := s.started
	if wasStarted {
		close(s.stopCh)
		s.started = false
	}
	pool := s.pool
	s.mu.Unlock()

	if wasStarted {
		s.loops.Wait()
	}

	var errs []error
	if pool != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, defaultShutdownTimeout)
		if err := pool.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		cancel()
	} else {
		_ = s.queue.Close()
	}

	if err := s.Flush(context.WithoutCancel(ctx)); err != nil {
		errs = append(errs, err)
	}

	s.logger.Info(ctx, "service stopped")
	return errors.Join(errs...)
}

func (s *Service) flushLoop(ctx context.Context) {
	defer s.loops.Done()

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if err := s.Flush(ctx); err != nil {
				s.logger.Error(ctx, "scheduled flush failed", logger.Error(err))
			}
		}
	}
}

func (s *Service) metricsLoop(ctx context.Context) {
	defer s.loops.Done()

	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			metrics.UpdateSystemMemoryUsage(ms.HeapAlloc)
			metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
			metrics.UpdateQueueSize(s.queue.Len())
		}
	}
}

// Flush writes pending store changes to disk.
func (s *Service) Flush(ctx context.Context) error {
	if err := s.store.Flush(ctx); err != nil {
		return fmt.Errorf("flush store: %w", err)
	}
	return nil
}

// SubmitScore records a finished game. Unknown players yield
// ledger.ErrUnknownUser. When the game was launched from a remembered chat,
// the score is queued for delivery to the bot platform.
func (s *Service) SubmitScore(ctx context.Context, sub model.Submission) (bool, error) { //nolint:gocritic // hugeParam: value semantics for request data
	newHigh, err := s.ledger.Submit(ctx, sub.UserID, model.Result{
		Points:   sub.Points,
		Lines:    sub.Lines,
		Figures:  sub.Figures,
		Level:    sub.Level,
		Duration: sub.Duration,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrUnknownUser) {
			metrics.RecordSubmissionRejected("unknown_user")
			s.logger.Debug(ctx, "score for unknown player dropped",
				logger.UserID(sub.UserID),
				logger.ChatID(sub.ChatID),
			)
		}
		return false, err
	}

	metrics.RecordScoreSubmitted(newHigh)
	msg := "new score submitted"
	if newHigh {
		msg = "new high score submitted"
	}
	s.logger.Info(ctx, msg,
		logger.UserID(sub.UserID),
		logger.ChatID(sub.ChatID),
		logger.Int("points", sub.Points),
	)

	s.queuePush(ctx, sub)
	return newHigh, nil
}

func (s *Service) queuePush(ctx context.Context, sub model.Submission) { //nolint:gocritic // hugeParam: value semantics for request data
	if s.pusher == nil {
		return
	}
	cc, ok := s.ChatContext(sub.ChatID)
	if !ok {
		return
	}

	err := s.queue.Enqueue(ctx, model.ScorePush{
		UserID:   sub.UserID,
		Points:   sub.Points,
		Context:  cc,
		QueuedAt: s.now(),
	})
	if err != nil {
		metrics.RecordScorePush("dropped")
		s.logger.Warn(ctx, "score push dropped",
			logger.UserID(sub.UserID),
			logger.ChatID(sub.ChatID),
			logger.Error(err),
		)
	}
}

// RegisterPlayer makes sure userID has a record reachable from chatID.
func (s *Service) RegisterPlayer(ctx context.Context, userID int64, name string, chatID int64) (bool, error) {
	return s.ledger.Register(ctx, userID, name, chatID)
}

// RememberChat stores the game message a player launched from, replacing any
// earlier one for the same chat.
func (s *Service) RememberChat(cc model.ChatContext) {
	s.mu.Lock()
	s.contexts[cc.ChatID] = cc
	n := len(s.contexts)
	s.mu.Unlock()

	metrics.UpdateChatContexts(n)
}

// ChatContext returns the remembered game message for chatID.
func (s *Service) ChatContext(chatID int64) (model.ChatContext, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cc, ok := s.contexts[chatID]
	return cc, ok
}

// SeenUpdate reports whether a bot update id was already handled, recording
// it if not.
func (s *Service) SeenUpdate(ctx context.Context, updateID int64) bool {
	seen := s.deduper.SeenAndRecord(ctx, updateID)
	if seen {
		metrics.RecordUpdateDuplicate()
	}
	return seen
}

// CallbackReceived counts one processed bot update.
func (s *Service) CallbackReceived() {
	s.callbacks.Add(1)
}

// GameServed counts one delivery of the game page.
func (s *Service) GameServed() {
	s.gamesServed.Add(1)
	metrics.RecordGameServed()
}

// TopN returns the top n players by best score.
func (s *Service) TopN(ctx context.Context, n int) []types.Entry {
	return s.board.TopN(ctx, n)
}

// History returns a player's name and rendered history rows.
func (s *Service) History(ctx context.Context, userID int64) (string, []string, bool) {
	return s.board.HistoryFor(ctx, userID)
}

// LogRing returns the in-memory log buffer, if any.
func (s *Service) LogRing() *logger.Ring {
	return s.ring
}

// Diagnostics flushes the store and returns the current counters.
func (s *Service) Diagnostics(ctx context.Context) Stats {
	if err := s.Flush(ctx); err != nil {
		s.logger.Error(ctx, "diagnostics flush failed", logger.Error(err))
	}
	return s.GetStats()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() Stats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	s.mu.RLock()
	st := Stats{
		Started:   s.started,
		StartedAt: s.startedAt,
		Contexts:  len(s.contexts),
	}
	pool := s.pool
	s.mu.RUnlock()

	st.Uptime = s.now().Sub(st.StartedAt).Truncate(time.Second).String()
	st.GoVersion = runtime.Version()
	st.Goroutines = runtime.NumGoroutine()
	st.HeapAlloc = ms.HeapAlloc
	st.HeapSys = ms.HeapSys
	st.Sys = ms.Sys
	st.NumGC = ms.NumGC

	for _, h := range s.store.Entries(false) {
		st.Players++
		st.Games += len(h.Results)
	}
	st.CallbacksReceived = s.callbacks.Load()
	st.GamesServed = s.gamesServed.Load()
	if s.ring != nil {
		st.LogRecords = s.ring.Len()
	}
	st.QueueLength = s.queue.Len()
	if pool != nil {
		st.PushesSent = pool.Processed()
		st.PushesFailed = pool.Failed()
	}
	if d, ok := s.store.(interface{ Dirty() bool }); ok {
		st.StoreDirty = d.Dirty()
	}
	return st
}
