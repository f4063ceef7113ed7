// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gsbelarus/tetrisbot/internal/adapters/http/swagger"
	service "github.com/gsbelarus/tetrisbot/internal/app"
	"github.com/gsbelarus/tetrisbot/internal/domain/model"
	"github.com/gsbelarus/tetrisbot/internal/domain/types"
	"github.com/gsbelarus/tetrisbot/pkg/logger"
	"github.com/gsbelarus/tetrisbot/pkg/metrics"
)

// Route paths.
const (
	SubmitPath = "/tetris/telegramBot/v1/submitTetris/"
	GamePrefix = "/tetris/"
)

// Banner is the body of GET /.
const Banner = "@GoldenTetrisBot for Telegram. Copyright (c) 2020 by Golden Software of Belarus, Ltd"

// Dependencies required by HTTP handlers.
type Dependencies interface {
	// SubmitScore records a finished game.
	SubmitScore(ctx context.Context, sub model.Submission) (bool, error)

	// GameServed counts one delivery of the game page.
	GameServed()

	// TopN exposes leaderboard data.
	TopN(ctx context.Context, n int) []types.Entry

	// GetStats exposes process counters.
	GetStats() service.Stats
}

// Server wires HTTP routes for the game backend.
type Server struct {
	submitHandler      *SubmitHandler
	gameHandler        *GameHandler
	leaderboardHandler *LeaderboardHandler
	statsHandler       *StatsHandler
	healthHandler      *HealthHandler
	logHandler         *LogHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := settings{
		assetsDir:           defaultAssetsDir,
		defaultLimit:        defaultLeaderboardLimit,
		maxLeaderboardLimit: defaultMaxLeaderboardLimit,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Get().Named("http")
	}

	return &Server{
		submitHandler:      NewSubmitHandler(deps, cfg.logger),
		gameHandler:        NewGameHandler(cfg.assetsDir, deps),
		leaderboardHandler: NewLeaderboardHandler(deps, cfg.defaultLimit, cfg.maxLeaderboardLimit),
		statsHandler:       NewStatsHandler(deps),
		healthHandler:      NewHealthHandler(),
		logHandler:         NewLogHandler(cfg.ring, cfg.logger),
	}
}

// Register attaches all HTTP routes to r. The submit route is registered, with
// and without its trailing slash, before the game prefix so it is not shadowed
// by the file server.
func (s *Server) Register(ctx context.Context, r *mux.Router) {
	if r == nil {
		panic("router is nil")
	}

	r.Use(RequestIDMiddleware, MetricsMiddleware)

	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet).Name("root")
	r.HandleFunc("/healthz", s.healthHandler.HandleHealth).Methods(http.MethodGet).Name("healthz")
	r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})).
		Methods(http.MethodGet).Name("metrics")
	r.HandleFunc("/stats", s.statsHandler.HandleStats).Methods(http.MethodGet).Name("stats")
	r.HandleFunc("/leaderboard", s.leaderboardHandler.HandleGetLeaderboard).Methods(http.MethodGet).Name("leaderboard")
	r.HandleFunc("/log", s.logHandler.HandleLog).Methods(http.MethodGet).Name("log")
	r.HandleFunc("/log/stream", s.logHandler.HandleStream(ctx)).Methods(http.MethodGet).Name("log_stream")
	swagger.Register(ctx, r)
	for _, path := range []string{SubmitPath, strings.TrimSuffix(SubmitPath, "/")} {
		r.HandleFunc(path, s.submitHandler.HandleSubmit).Methods(http.MethodGet).Name("submit")
	}
	r.PathPrefix(GamePrefix).Handler(s.gameHandler).Methods(http.MethodGet, http.MethodHead).Name("game")
}

// Handler returns a router with every route registered.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := mux.NewRouter()
	s.Register(ctx, r)
	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(Banner))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
