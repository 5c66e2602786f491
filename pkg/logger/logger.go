package logger

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/log"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"fuzzrun/config"
	"fuzzrun/pkg/telemetry"
)

type LoggerParams struct {
	fx.In
	Lc        fx.Lifecycle
	AppConfig *config.AppConfig
	Telemetry telemetry.Telemetry `optional:"true"`
}

// NewLogger builds the process logger from config. No package-level logging
// state is initialized; everything flows through the returned logger.
func NewLogger(p LoggerParams) *zap.Logger {
	loggerCtx, cancel := context.WithCancel(context.Background())
	p.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			cancel()
			return nil
		},
	})

	level := zapcore.InfoLevel
	switch strings.ToLower(p.AppConfig.LogLevel) {
	case "debug":
		level = zapcore.DebugLevel
	case "warn", "warning":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	var cfg zap.Config
	if level > zapcore.InfoLevel {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	if p.Telemetry == nil || p.Telemetry.GetLogger() == nil {
		lg, err := cfg.Build()
		if err != nil {
			return zap.NewExample()
		}
		return lg
	}

	lg, err := cfg.Build(
		zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return &otelCore{Core: core, emitter: p.Telemetry.GetLogger(), ctx: loggerCtx}
		}),
		zap.AddCaller(),
	)
	if err != nil {
		return zap.NewExample()
	}
	return lg
}

// otelCore mirrors every log entry into the OpenTelemetry log pipeline,
// converting zap fields into record attributes.
type otelCore struct {
	zapcore.Core
	emitter log.Logger
	ctx     context.Context
}

func (c *otelCore) With(fields []zapcore.Field) zapcore.Core {
	return &otelCore{Core: c.Core.With(fields), emitter: c.emitter, ctx: c.ctx}
}

func (c *otelCore) Check(ent zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return checked.AddCore(ent, c)
	}
	return checked
}

func (c *otelCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	if err := c.Core.Write(ent, fields); err != nil {
		return err
	}

	rec := log.Record{}
	rec.SetTimestamp(ent.Time)
	rec.SetBody(log.StringValue(ent.Message))
	rec.SetSeverityText(ent.Level.String())

	for _, f := range fields {
		rec.AddAttributes(log.KeyValue{Key: f.Key, Value: fieldValue(f)})
	}

	c.emitter.Emit(c.ctx, rec)
	return nil
}

func fieldValue(f zapcore.Field) log.Value {
	switch f.Type {
	case zapcore.BoolType:
		return log.BoolValue(f.Integer != 0)
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return log.Int64Value(f.Integer)
	case zapcore.StringType:
		return log.StringValue(f.String)
	case zapcore.ErrorType:
		if errVal, ok := f.Interface.(error); ok {
			return log.StringValue(errVal.Error())
		}
	case zapcore.DurationType:
		return log.Int64Value(f.Integer)
	}
	return log.StringValue(fmt.Sprint(f.Interface))
}
