package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port             int
	DataDir          string
	BlobDir          string
	Workers          int
	QueueBackend     string // "sqlite" or "redis"
	RedisAddr        string
	MaxUploadSizeMB  int
	ProgressInterval time.Duration
	FFmpegPath       string
	FFprobePath      string
	DetectorPath     string
}

func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("PORT", "8800"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	workers, err := strconv.Atoi(getEnv("WORKERS", "2"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKERS: %w", err)
	}
	if workers < 1 {
		return nil, fmt.Errorf("WORKERS must be at least 1")
	}

	maxUploadSizeMB, err := strconv.Atoi(getEnv("MAX_UPLOAD_SIZE_MB", "500"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_SIZE_MB: %w", err)
	}

	progressMS, err := strconv.Atoi(getEnv("PROGRESS_INTERVAL_MS", "500"))
	if err != nil {
		return nil, fmt.Errorf("invalid PROGRESS_INTERVAL_MS: %w", err)
	}

	backend := getEnv("QUEUE_BACKEND", "sqlite")
	if backend != "sqlite" && backend != "redis" {
		return nil, fmt.Errorf("invalid QUEUE_BACKEND %q: must be sqlite or redis", backend)
	}

	dataDir := getEnv("DATA_DIR", "/data")

	return &Config{
		Port:             port,
		DataDir:          dataDir,
		BlobDir:          getEnv("BLOB_DIR", dataDir+"/blobs"),
		Workers:          workers,
		QueueBackend:     backend,
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		MaxUploadSizeMB:  maxUploadSizeMB,
		ProgressInterval: time.Duration(progressMS) * time.Millisecond,
		FFmpegPath:       getEnv("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:      getEnv("FFPROBE_PATH", "ffprobe"),
		DetectorPath:     getEnv("DETECTOR_PATH", "yolo-detect"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
