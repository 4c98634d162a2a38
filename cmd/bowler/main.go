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

	"a3bowler/internal/scheduler"
	"a3bowler/internal/server"
	"a3bowler/internal/storage/postgres"
	"a3bowler/internal/util"
)

func main() {
	addrFlag := flag.String("addr", util.EnvOrDefault("BOWLER_ADDR", ":8080"), "HTTP listen address")
	dbFlag := flag.String("db", util.EnvOrDefault("BOWLER_DATABASE_URL", "postgres://localhost:5432/a3bowler"), "Postgres connection URL")
	staticFlag := flag.String("static", util.EnvOrDefault("BOWLER_STATIC_DIR", "web/dist"), "Directory with built frontend")
	cellFlag := flag.Float64("cell", util.EnvOrDefaultFloat("BOWLER_CELL_WIDTH", 24), "Timeline cell width in pixels per day")
	daysFlag := flag.Int("days", util.EnvOrDefaultInt("BOWLER_WINDOW_DAYS", 42), "Default number of visible timeline days")
	evalFlag := flag.Duration("eval-interval", time.Minute, "How often stored schedules are re-evaluated")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	logger.Info("A3 Bowler dashboard backend starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := postgres.Open(ctx, *dbFlag, logger)
	if err != nil {
		logger.Error("unable to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	srv := server.New(store, logger, *staticFlag, *cellFlag, *daysFlag)

	sched := scheduler.New(store, scheduler.LogSink{Logger: logger}, logger, *evalFlag)
	go sched.Run(ctx)

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

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}
