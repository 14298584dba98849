package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kanban/internal/board"
	"kanban/internal/notify"
	"kanban/internal/server"
	"kanban/internal/storage/sqlite"
	"kanban/internal/util"
)

func main() {
	addrFlag := flag.String("addr", util.EnvOrDefault("KANBAN_ADDR", ":8080"), "HTTP listen address")
	dbFlag := flag.String("db", util.EnvOrDefault("KANBAN_DB_PATH", "data/kanban.db"), "Path to sqlite database file")
	staticFlag := flag.String("static", util.EnvOrDefault("KANBAN_STATIC_DIR", "web/dist"), "Directory with built frontend")
	tzFlag := flag.String("tz", util.EnvOrDefault("KANBAN_TZ", "UTC"), "Timezone for day boundaries and due dates")
	scanFlag := flag.Duration("scan-interval", time.Hour, "How often to scan for due-soon tasks")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	loc, err := time.LoadLocation(*tzFlag)
	if err != nil {
		logger.Error("invalid timezone", slog.String("tz", *tzFlag), slog.String("error", err.Error()))
		os.Exit(1)
	}

	store, err := sqlite.Open(*dbFlag, logger)
	if err != nil {
		logger.Error("unable to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	notifier := notify.NewLogNotifier(logger)

	srv := server.New(server.Config{
		Projects:  board.NewProjects(store, logger),
		Registry:  board.NewRegistry(store, logger),
		Tasks:     board.NewTasks(store, notifier, logger, loc),
		Ledger:    board.NewLedger(store),
		CFD:       board.NewReconstructor(store, logger, loc),
		Logger:    logger,
		StaticDir: *staticFlag,
	})

	scanCtx, stopScan := context.WithCancel(context.Background())
	defer stopScan()
	scanner := notify.NewScanner(store, notifier, logger, loc)
	go scanner.Run(scanCtx, *scanFlag)

	httpServer := &http.Server{
		Addr:    *addrFlag,
		Handler: srv.Engine(),
	}

	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stopScan()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}
