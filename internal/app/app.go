package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Ozichk/telegram-grade-bot/internal/config"
	"github.com/Ozichk/telegram-grade-bot/internal/scheduler"
	"github.com/Ozichk/telegram-grade-bot/internal/store"
	"github.com/Ozichk/telegram-grade-bot/internal/telegram"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
	repo    store.Repo
	sched   *scheduler.Scheduler
	router  *telegram.Router
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	// The hosting platform probes GET / for liveness.
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, httpSrv: srv}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting gradebook-bot",
		zap.String("http", a.cfg.HTTPAddr),
		zap.String("tz", a.cfg.DefaultTZ),
	)

	// Open SQLite and run migrations.
	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath, a.cfg.SnapshotRetention)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("sqlite ready")

	loc, err := time.LoadLocation(a.cfg.DefaultTZ)
	if err != nil {
		a.log.Error("load timezone failed", zap.Error(err), zap.String("tz", a.cfg.DefaultTZ))
		return err
	}

	// The scheduler notifies through the router; the router (re)installs
	// triggers through the scheduler. Wire the notifier after both exist.
	a.sched = scheduler.New(a.repo, a.log, nil, loc)
	a.router = telegram.NewRouter(a.bot, a.log, a.repo, a.sched, a.cfg.AdminChatID, a.cfg.DBPath)
	a.sched.SetNotifier(a.router)

	// Triggers do not survive restarts; rebuild them from persisted users.
	if err := a.sched.Restore(ctx); err != nil {
		a.log.Error("restore reminders failed", zap.Error(err))
		return err
	}
	a.sched.Start()

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")

			a.sched.Stop()

			// Create a short-lived shutdown context and cancel it immediately after use.
			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := a.httpSrv.Shutdown(shCtx)
			cancel()

			if err != nil {
				a.log.Warn("http server shutdown error", zap.Error(err))
			}
			if a.repo != nil {
				_ = a.repo.Close()
			}
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}
