package report

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fuzzrun/config"
	"fuzzrun/internal/types"
	"fuzzrun/internal/utils"
	"fuzzrun/pkg/database"
	"fuzzrun/pkg/mq"
)

const dedupeKey = "fuzzrun:crash:%s" // fuzzrun:crash:<content hash>

// Reporter fans a confirmed crash out to the configured sinks. Every sink is
// best-effort: reporting failures are logged and never change the run result.
type Reporter interface {
	Report(ctx context.Context, report *types.CrashReport)
}

type crashReporter struct {
	logger     *zap.Logger
	db         *gorm.DB      // nil when no database is configured
	redis      *redis.Client // nil when no dedupe store is configured
	queue      mq.RabbitMQ   // nil when no message queue is configured
	crashQueue string
}

type ReporterParams struct {
	fx.In

	Logger    *zap.Logger
	AppConfig *config.AppConfig
	DB        *gorm.DB      `optional:"true"`
	Redis     *redis.Client `optional:"true"`
	Queue     mq.RabbitMQ   `optional:"true"`
}

func NewCrashReporter(p ReporterParams) Reporter {
	return &crashReporter{
		logger:     p.Logger,
		db:         p.DB,
		redis:      p.Redis,
		queue:      p.Queue,
		crashQueue: p.AppConfig.CrashQueue,
	}
}

func (r *crashReporter) Report(ctx context.Context, report *types.CrashReport) {
	logger := r.logger.With(
		zap.String("run_id", report.RunID),
		zap.String("target", report.Target),
		zap.String("test_case", report.TestCase))

	hash, err := r.storeTestCase(report)
	if err != nil {
		logger.Error("failed to store crash test case", zap.Error(err))
		return
	}

	if r.alreadySeen(ctx, hash) {
		logger.Info("crash already reported, skipping downstream sinks",
			zap.String("hash", hash))
		return
	}

	if r.db != nil {
		crash := database.NewCrash(report.RunID, report.Target, report.Project,
			report.TestCase, report.DetectedAt)
		if err := database.AddCrash(ctx, r.db, crash); err != nil {
			logger.Error("failed to persist crash record", zap.Error(err))
		}
	}

	if r.queue != nil {
		body, err := json.Marshal(report)
		if err != nil {
			logger.Error("failed to marshal crash message", zap.Error(err))
			return
		}
		if err := r.queue.Publish(ctx, r.crashQueue, body); err != nil {
			logger.Error("failed to publish crash message", zap.Error(err))
		}
	}
}

// storeTestCase keeps a content-addressed copy of the crashing input under
// <out>/crashes so later runs overwriting the artifact do not lose it.
func (r *crashReporter) storeTestCase(report *types.CrashReport) (string, error) {
	data, err := os.ReadFile(report.TestCase)
	if err != nil {
		return "", fmt.Errorf("read test case: %w", err)
	}
	sum := md5.Sum(data)
	hash := hex.EncodeToString(sum[:])

	crashStore := filepath.Join(report.OutDir, "crashes")
	if err := os.MkdirAll(crashStore, 0755); err != nil {
		return "", fmt.Errorf("create crash store: %w", err)
	}
	if err := utils.CopyFile(report.TestCase, filepath.Join(crashStore, hash)); err != nil {
		return "", fmt.Errorf("copy test case: %w", err)
	}
	return hash, nil
}

func (r *crashReporter) alreadySeen(ctx context.Context, hash string) bool {
	if r.redis == nil {
		return false
	}
	fresh, err := r.redis.SetNX(ctx, fmt.Sprintf(dedupeKey, hash), 1, 0).Result()
	if err != nil {
		r.logger.Warn("crash dedupe check failed", zap.Error(err))
		return false
	}
	return !fresh
}
