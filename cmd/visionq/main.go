package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"visionq/config"
	"visionq/internal/adapter/detector/yolocli"
	HTTPAdapter "visionq/internal/adapter/http"
	"visionq/internal/adapter/queue/redisq"
	"visionq/internal/adapter/queue/sqliteq"
	"visionq/internal/adapter/storage/fsblob"
	"visionq/internal/adapter/storage/jsonfile"
	sqlitestore "visionq/internal/adapter/storage/sqlite"
	"visionq/internal/adapter/transcoder/ffmpeg"
	"visionq/internal/infrastructure/logger"
	"visionq/internal/port"
	"visionq/internal/service"
)

func main() {
	// Load .env if present; plain environment variables work too
	if err := godotenv.Load(); err != nil {
		logger.Debug.Printf("no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error.Printf("failed to load config: %v", err)
		os.Exit(1)
	}

	logger.Info.Printf("starting visionq on port %d, queue=%s, workers=%d", cfg.Port, cfg.QueueBackend, cfg.Workers)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		logger.Error.Printf("failed to create data directory: %v", err)
		os.Exit(1)
	}

	store, err := sqlitestore.NewStore(cfg.DataDir)
	if err != nil {
		logger.Error.Printf("failed to create store: %v", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	jobStore := sqlitestore.NewJobStore(store)

	// Jobs that were RUNNING when the previous process died can never
	// make progress again; close them out before accepting new work.
	if n, err := jobStore.FailStalled(context.Background(), "worker restarted"); err != nil {
		logger.Error.Printf("failed to recover stalled jobs: %v", err)
		os.Exit(1)
	} else if n > 0 {
		logger.Warn.Printf("marked %d stalled jobs as failed", n)
	}

	var queue port.Queue
	switch cfg.QueueBackend {
	case "redis":
		queue = redisq.New(cfg.RedisAddr)
	default:
		queue = sqliteq.New(store)
	}

	blobs, err := fsblob.NewStore(cfg.BlobDir)
	if err != nil {
		logger.Error.Printf("failed to create blob store: %v", err)
		os.Exit(1)
	}

	catalog, err := jsonfile.NewStore(cfg.DataDir)
	if err != nil {
		logger.Error.Printf("failed to create media catalog: %v", err)
		os.Exit(1)
	}

	transcoder := ffmpeg.NewTranscoder(cfg.FFmpegPath, cfg.FFprobePath)
	detector := yolocli.NewDetector(cfg.DetectorPath)

	eventBus := service.NewEventBus()
	cancels := service.NewCancelRegistry()
	reporter := service.NewReporter(jobStore, eventBus, cfg.ProgressInterval)
	coordinator := service.NewCoordinator(jobStore, cancels, eventBus)

	scratchRoot := cfg.DataDir + "/scratch"

	pool := service.NewWorkerPool(
		queue,
		jobStore,
		coordinator,
		cancels,
		reporter,
		cfg.Workers,
		service.NewImageExecutor(blobs, detector, scratchRoot),
		service.NewVideoExecutor(blobs, detector, transcoder, scratchRoot),
		service.NewTranscodeExecutor(blobs, transcoder, scratchRoot),
	)

	dispatcher := service.NewDispatcher(jobStore, queue, catalog)
	jobSvc := service.NewJobService(jobStore, queue, cancels, coordinator, blobs)
	mediaSvc := service.NewMediaService(catalog, blobs, transcoder)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	go coordinator.Run(workerCtx)
	go func() {
		if err := pool.Start(workerCtx); err != nil {
			logger.Error.Printf("worker pool stopped: %v", err)
		}
	}()

	server := HTTPAdapter.NewServer(dispatcher, jobSvc, mediaSvc, eventBus, cfg.MaxUploadSizeMB)

	addr := fmt.Sprintf(":%d", cfg.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info.Printf("received %s, shutting down", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error.Printf("http shutdown error: %v", err)
		}

		// Stop workers (lets in-flight jobs finish their current checkpoint)
		workerCancel()

		logger.Info.Printf("shutdown complete")
	}()

	logger.Info.Printf("server listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error.Printf("server failed: %v", err)
		os.Exit(1)
	}
}
