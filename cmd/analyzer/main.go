// Command analyzer reads one analysis request as JSON on stdin, computes
// the requested indicators, and writes the sanitized payload to stdout.
// With -serve it exposes the same operation over HTTP instead. Redis and
// SQLite persistence plus the metrics server activate when configured;
// without them the command is a pure stdin/stdout filter.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"analysis-systemv1/config"
	"analysis-systemv1/internal/analysis"
	"analysis-systemv1/internal/api"
	"analysis-systemv1/internal/backend"
	"analysis-systemv1/internal/catalog"
	"analysis-systemv1/internal/logger"
	"analysis-systemv1/internal/metrics"
	"analysis-systemv1/internal/notification"
	redisstore "analysis-systemv1/internal/store/redis"
	sqlitestore "analysis-systemv1/internal/store/sqlite"
	"analysis-systemv1/internal/stream"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	describe := flag.Bool("describe", false, "print the indicator catalog and backend availability, then exit")
	persist := flag.Bool("persist", false, "write outcomes to Redis and SQLite")
	serveMetrics := flag.Bool("metrics", false, "serve /metrics and /healthz")
	serve := flag.Bool("serve", false, "serve the HTTP API instead of reading a request from stdin")
	flag.Parse()

	cfg := config.Load()
	slogger := logger.InitTo(os.Stderr, "analyzer", logger.ParseLevel(cfg.LogLevel))

	caps := backend.Detect()
	m := metrics.NewMetrics()

	opts := analysis.Options{
		DefaultIndicators: cfg.ParseIndicators(),
		HistorySize:       cfg.HistorySize,
	}
	switch {
	case cfg.WebhookURL != "":
		opts.Notifier = notification.NewWebhookNotifier(cfg.WebhookURL)
	case cfg.TelegramBotToken != "" && cfg.TelegramChatID != "":
		opts.Notifier = notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	health := metrics.NewHealthStatus()
	health.SetBackendsUsable(countUsable(caps))

	var (
		latestReader   api.LatestReader
		snapshotReader api.SnapshotReader
	)

	if *persist {
		rw, err := redisstore.New(redisstore.WriterConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			slogger.Warn("redis unavailable, persistence disabled", slog.Any("err", err))
		} else {
			defer rw.Close()
			cb := redisstore.NewCircuitBreaker(5, 10*time.Second)
			opts.Redis = redisstore.NewBufferedWriter(ctx, rw, cb, 0)
			latestReader = redisstore.NewReader(rw.Client())
			health.SetRedisConnected(true)
			health.StartLivenessChecker(ctx, rw.Client(), nil, 15*time.Second)
		}

		sw, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: cfg.SQLitePath})
		if err != nil {
			slogger.Warn("sqlite unavailable, snapshots disabled", slog.Any("err", err))
		} else {
			defer sw.Close()
			opts.SQLite = sw
			health.SetSQLiteOK(true)
			if sr, err := sqlitestore.NewReader(cfg.SQLitePath); err == nil {
				defer sr.Close()
				snapshotReader = sr
			} else {
				slogger.Warn("sqlite reader unavailable", slog.Any("err", err))
			}
		}
	}

	if *serveMetrics {
		srv := metrics.NewServer(cfg.MetricsAddr, m, health)
		srv.Start()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 3*time.Second)
			srv.Stop(shutdownCtx)
			shutdownCancel()
		}()
	}

	svc := analysis.NewService(catalog.Default(), caps, m, slogger, opts)

	if *describe {
		emit(svc.Describe())
		return
	}

	if *serve {
		mux := http.NewServeMux()
		hub := stream.NewHub(slogger)
		api.RegisterRoutes(mux, svc, snapshotReader, latestReader, hub, slogger)
		srv := &http.Server{Addr: cfg.APIAddr, Handler: mux}
		go func() {
			slogger.Info("api listening", slog.String("addr", cfg.APIAddr))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slogger.Error("api server", slog.Any("err", err))
				cancel()
			}
		}()
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 3*time.Second)
		srv.Shutdown(shutdownCtx)
		shutdownCancel()
		return
	}

	var req analysis.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		log.Fatalf("[analyzer] bad request: %v", err)
	}

	payload, res, err := svc.Analyze(ctx, req)
	if err != nil {
		log.Fatalf("[analyzer] analysis failed: %v", err)
	}
	health.SetLastAnalysisAt(res.TS)
	emit(payload)
}

func countUsable(caps backend.Capabilities) int {
	n := 0
	for _, ok := range []bool{caps.Manual, caps.Cinar, caps.Talib, caps.Techan} {
		if ok {
			n++
		}
	}
	return n
}

func emit(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		os.Exit(1)
	}
}
