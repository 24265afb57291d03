package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"billtracker/internal/bootstrap"
	"billtracker/internal/shared/config"
	"billtracker/internal/shared/telemetry"
)

const (
	defaultPollIntervalSec    = 3600
	defaultWorkerConcurrency  = 2
	defaultShutdownTimeoutSec = 30
)

// The worker runs both pipeline stages on an interval: poll the inbox, store
// new invoices, then process each stored document inline.
func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pollInterval := time.Duration(envInt("POLL_INTERVAL_SECONDS", defaultPollIntervalSec)) * time.Second
	concurrency := envInt("WORKER_CONCURRENCY", defaultWorkerConcurrency)
	shutdownTimeout := time.Duration(envInt("SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeoutSec)) * time.Second

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	if app.Fetcher == nil {
		log.Fatal("GMAIL_USERNAME and GMAIL_APP_PASSWORD are required")
	}
	// Processing happens inline here, not through the event bus.
	app.Fetcher.Publisher = nil

	sem := make(chan struct{}, max(1, concurrency))
	var wg sync.WaitGroup

	log.Printf("worker started interval=%s concurrency=%d", pollInterval, concurrency)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	runOnce(ctx, app, sem, &wg)

pollLoop:
	for {
		select {
		case <-ctx.Done():
			break pollLoop
		case <-ticker.C:
			runOnce(ctx, app, sem, &wg)
		}
	}

	log.Printf("shutdown requested, waiting up to %s for in-flight documents", shutdownTimeout)
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(shutdownTimeout):
		log.Printf("shutdown timeout reached; exiting with in-flight documents")
	}
}

func runOnce(ctx context.Context, app *bootstrap.App, sem chan struct{}, wg *sync.WaitGroup) {
	result, err := app.Fetcher.Run(ctx)
	if err != nil {
		telemetry.Error("worker.fetch_failed", telemetry.Fields{"error": err.Error()})
		return
	}

	telemetry.Info("worker.fetch_complete", telemetry.Fields{
		"fetched": result.Fetched,
		"stored":  result.Stored,
		"failed":  result.Failed,
	})

	for _, key := range result.Keys {
		select {
		case <-ctx.Done():
			return
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(fileKey string) {
			defer wg.Done()
			defer func() { <-sem }()
			if _, err := app.Processor.ProcessKey(ctx, fileKey); err != nil {
				telemetry.Error("worker.process_failed", telemetry.Fields{
					"file_key": fileKey,
					"error":    err.Error(),
				})
			}
		}(key)
	}
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return def
	}
	return val
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
