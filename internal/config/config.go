package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Dataset source kinds accepted by DATASET_SOURCE.
const (
	SourceFile     = "file"
	SourceHTTP     = "http"
	SourcePostgres = "postgres"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DatasetSource  string
	DatasetPath    string
	DatasetURL     string
	DatasetDSN     string
	DatasetTimeout time.Duration
	Preload        bool

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	MapZoomThreshold float64

	// Department aggregate export.
	ExportEnabled         bool
	KafkaBrokers          []string
	KafkaDepartmentsTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	datasetTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("DATASET_TIMEOUT", "10s"))
	if err != nil || datasetTimeout <= 0 {
		return nil, errors.New("invalid DATASET_TIMEOUT")
	}

	zoom, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("MAP_ZOOM_THRESHOLD", "2.5"), 64)
	if err != nil || zoom < 0 {
		return nil, errors.New("invalid MAP_ZOOM_THRESHOLD")
	}

	preload, err := parseBool("PRELOAD", true)
	if err != nil {
		return nil, err
	}
	exportEnabled, err := parseBool("EXPORT_ENABLED", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatasetSource:  sharedcfg.EnvOrDefault("DATASET_SOURCE", SourceFile),
		DatasetPath:    sharedcfg.EnvOrDefault("DATASET_PATH", "data/municipio_predictions.json"),
		DatasetURL:     os.Getenv("DATASET_URL"),
		DatasetDSN:     os.Getenv("DATASET_DSN"),
		DatasetTimeout: datasetTimeout,
		Preload:        preload,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		MapZoomThreshold: zoom,

		ExportEnabled:         exportEnabled,
		KafkaBrokers:          sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaDepartmentsTopic: sharedcfg.EnvOrDefault("KAFKA_DEPARTMENTS_TOPIC", "energy-department-aggregates"),
	}

	switch cfg.DatasetSource {
	case SourceFile:
		if cfg.DatasetPath == "" {
			return nil, errors.New("DATASET_PATH is required when DATASET_SOURCE=file")
		}
	case SourceHTTP:
		if cfg.DatasetURL == "" {
			return nil, errors.New("DATASET_URL is required when DATASET_SOURCE=http")
		}
	case SourcePostgres:
		if cfg.DatasetDSN == "" {
			return nil, errors.New("DATASET_DSN is required when DATASET_SOURCE=postgres")
		}
	default:
		return nil, fmt.Errorf("invalid DATASET_SOURCE %q: want file, http, or postgres", cfg.DatasetSource)
	}

	if cfg.ExportEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when EXPORT_ENABLED=true")
		}
		if cfg.KafkaDepartmentsTopic == "" {
			return nil, errors.New("KAFKA_DEPARTMENTS_TOPIC is required when EXPORT_ENABLED=true")
		}
	}

	return cfg, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
