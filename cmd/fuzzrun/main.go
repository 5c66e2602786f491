package main

import (
	"fuzzrun/config"
	"fuzzrun/internal/campaign"
	"fuzzrun/internal/corpus"
	"fuzzrun/internal/extract"
	"fuzzrun/internal/report"
	"fuzzrun/internal/runner"
	"fuzzrun/internal/sandbox"
	"fuzzrun/pkg/database"
	"fuzzrun/pkg/logger"
	"fuzzrun/pkg/mq"
	"fuzzrun/pkg/telemetry"
	"fuzzrun/pkg/watchdog"

	_ "go.uber.org/automaxprocs"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,          // inject config
			database.NewDBConnection,   // inject db connection
			database.NewRedisClient,    // inject redis client
			logger.NewLogger,           // inject logger
			mq.NewRabbitMQ,             // inject rabbitmq service
			telemetry.NewTelemetry,     // inject telemetry
			telemetry.NewTracerFactory, // inject telemetry tracer factory
			watchdog.NewFactory,        // inject watchdog factory
			sandbox.NewContainerLookup, // inject ambient container lookup
			sandbox.NewDockerRunner,    // inject docker sandbox
			extract.NewLibFuzzerExtractor,
			corpus.NewFetcher,
			report.NewCrashReporter,
			runner.NewFuzzRunner,
		),
		fx.Invoke(
			campaign.NewCampaign,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			zlogger := fxevent.ZapLogger{Logger: log}
			zlogger.UseLogLevel(zap.DebugLevel)
			return &zlogger
		}),
	)
	app.Run()
}
