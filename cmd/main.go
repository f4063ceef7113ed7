package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"github.com/gsbelarus/tetrisbot/internal/adapters/http/api"
	"github.com/gsbelarus/tetrisbot/internal/adapters/repository"
	"github.com/gsbelarus/tetrisbot/internal/adapters/telegram"
	app "github.com/gsbelarus/tetrisbot/internal/app"
	"github.com/gsbelarus/tetrisbot/internal/config"
	"github.com/gsbelarus/tetrisbot/internal/domain/model"
	"github.com/gsbelarus/tetrisbot/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
	updatesTimeout    = 60 // seconds, long polling
)

func main() {
	// Initialize logging; re-initialized below once the buffer size is known.
	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(ctx, "fatal", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> optional file -> .env -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ring := logger.NewRing(cfg.LogBufferSize)
	if err := logger.Init(logger.WithBuffer(ring)); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	tlsConfig, err := loadTLSConfig(cfg.TLSCertFile, cfg.TLSKeyFile, cfg.TLSCAFile)
	if err != nil {
		return err
	}

	store, err := repository.NewFileStore[model.UserHistory](ctx, cfg.DataFile)
	if err != nil {
		return fmt.Errorf("open data file: %w", err)
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return fmt.Errorf("connect bot: %w", err)
	}
	log.Info(ctx, "bot authorized", logger.String("username", botAPI.Self.UserName))

	svc := app.New(store,
		app.WithLogger(log.Named("service")),
		app.WithPusher(telegram.NewScorePusher(botAPI, nil)),
		app.WithFlushInterval(cfg.FlushInterval),
		app.WithQueueSize(cfg.PushQueueSize),
		app.WithWorkerCount(cfg.PushWorkers),
		app.WithLogRing(ring),
	)
	// Workers must outlive the signal so Stop can drain them.
	if err := svc.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := svc.Stop(stopCtx); err != nil {
			log.Error(stopCtx, "service stop failed", logger.Error(err))
		}
	}()

	bot := telegram.NewBot(botAPI, svc, cfg.GameRoot(),
		telegram.WithGameShortName(cfg.GameShortName),
		telegram.WithLinks(cfg.FriendsURL(), cfg.SiteURL),
	)
	if err := bot.RegisterCommands(ctx); err != nil {
		log.Error(ctx, "register bot commands failed", logger.Error(err))
	}

	apiServer := api.NewServer(svc,
		api.WithAssetsDir(cfg.AssetsDir),
		api.WithMaxLeaderboardLimit(cfg.MaxLeaderboardLimit),
		api.WithLogRing(ring),
	)
	srv := newHTTPServer(ctx, cfg, apiServer)
	srv.TLSConfig = tlsConfig

	u := tgbotapi.NewUpdate(0)
	u.Timeout = updatesTimeout
	updates := botAPI.GetUpdatesChan(u)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info(gctx, "HTTPS server started", logger.String("host", cfg.Host), logger.Int("port", cfg.Port))
		if err := srv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("https server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info(gctx, "shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		defer botAPI.StopReceivingUpdates()
		return bot.Run(gctx, updates)
	})

	err = g.Wait()
	log.Info(ctx, "server stopped")
	return err
}

func newHTTPServer(ctx context.Context, cfg *config.Config, apiServer *api.Server) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           apiServer.Handler(ctx),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
