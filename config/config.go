package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	DefaultRunnerImage       = "gcr.io/oss-fuzz-base/base-runner"
	DefaultCorpusStorageBase = "https://storage.googleapis.com"
	DefaultCrashQueue        = "crash_reports"
)

type AppConfig struct {
	// one-shot target, used when no run plan file is given
	TargetBinary string
	FuzzDuration time.Duration
	ProjectName  string

	OutDir      string
	RunPlanPath string

	RunnerImage       string
	CorpusStorageBase string

	// optional reporting sinks; empty means the sink is disabled
	DatabaseURL string
	RabbitMQURL string
	RedisURL    string
	CrashQueue  string

	LogLevel     string
	ServiceName  string
	OTelEndpoint string // empty disables telemetry
}

func LoadConfig() *AppConfig {
	// use a temporary logger for now
	logger := zap.NewExample().Named("config")

	godotenv.Load()

	config := &AppConfig{
		TargetBinary: os.Getenv("FUZZ_TARGET"),
		FuzzDuration: parseSeconds(os.Getenv("FUZZ_DURATION"), 0),
		ProjectName:  os.Getenv("FUZZ_PROJECT"),

		OutDir:      os.Getenv("OUT_DIR"),
		RunPlanPath: os.Getenv("RUN_PLAN"),

		RunnerImage:       os.Getenv("RUNNER_IMAGE"),
		CorpusStorageBase: os.Getenv("CORPUS_STORAGE_BASE"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RabbitMQURL: os.Getenv("RABBITMQ_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		CrashQueue:  os.Getenv("CRASH_QUEUE"),

		LogLevel:     os.Getenv("LOG_LEVEL"),
		ServiceName:  os.Getenv("SERVICE_NAME"),
		OTelEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if config.RunnerImage == "" {
		config.RunnerImage = DefaultRunnerImage
	}
	if config.CorpusStorageBase == "" {
		config.CorpusStorageBase = DefaultCorpusStorageBase
	}
	if config.CrashQueue == "" {
		config.CrashQueue = DefaultCrashQueue
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.ServiceName == "" {
		config.ServiceName = "fuzzrun"
	}
	if config.OutDir == "" {
		config.OutDir = "/out"
	}

	if config.RunPlanPath == "" && config.TargetBinary == "" {
		logger.Fatal("either RUN_PLAN or FUZZ_TARGET must be set")
	}

	return config
}

// parseSeconds reads a whole number of seconds, matching the run plan units.
func parseSeconds(val string, defaultVal time.Duration) time.Duration {
	if val == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
