package campaign

import (
	"context"
	"path/filepath"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"fuzzrun/config"
	"fuzzrun/internal/runner"
	"fuzzrun/internal/types"
)

// Campaign walks the configured targets once, sequentially, and shuts the
// application down when the last run finishes.
type Campaign struct {
	logger     *zap.Logger
	fuzzRunner *runner.FuzzRunner
	appConfig  *config.AppConfig
	shutdowner fx.Shutdowner

	done chan struct{}
}

type CampaignParams struct {
	fx.In

	Lc         fx.Lifecycle
	Logger     *zap.Logger
	FuzzRunner *runner.FuzzRunner
	AppConfig  *config.AppConfig
	Shutdowner fx.Shutdowner
}

func NewCampaign(params CampaignParams) *Campaign {
	campaign := &Campaign{
		params.Logger,
		params.FuzzRunner,
		params.AppConfig,
		params.Shutdowner,
		make(chan struct{}),
	}

	campaignCtx, cancel := context.WithCancel(context.Background())

	params.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go campaign.start(campaignCtx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			<-campaign.done
			return nil
		},
	})
	return campaign
}

func (c *Campaign) start(ctx context.Context) {
	defer close(c.done)
	defer c.shutdowner.Shutdown()

	targets, err := c.loadTargets()
	if err != nil {
		c.logger.Error("failed to load targets", zap.Error(err))
		return
	}

	crashes := 0
	for _, target := range targets {
		select {
		case <-ctx.Done():
			c.logger.Info("campaign interrupted")
			return
		default:
		}

		crash, err := c.fuzzRunner.Fuzz(ctx, target)
		if err != nil {
			c.logger.Error("fuzz run failed", zap.String("target", target.Name), zap.Error(err))
			continue
		}
		if crash != nil {
			crashes++
		}
	}
	c.logger.Info("campaign finished",
		zap.Int("targets", len(targets)),
		zap.Int("confirmed_crashes", crashes))
}

// loadTargets builds the target list from the run plan file when one is
// configured, otherwise from the single-target environment settings. Plan
// targets get their own subdirectory under the output root so artifacts
// never collide.
func (c *Campaign) loadTargets() ([]*types.FuzzTarget, error) {
	if c.appConfig.RunPlanPath == "" {
		target, err := types.NewFuzzTarget(
			c.appConfig.TargetBinary,
			c.appConfig.FuzzDuration,
			c.appConfig.OutDir,
			c.appConfig.ProjectName)
		if err != nil {
			return nil, err
		}
		return []*types.FuzzTarget{target}, nil
	}

	plan, err := config.LoadRunPlan(c.appConfig.RunPlanPath)
	if err != nil {
		return nil, err
	}

	targets := make([]*types.FuzzTarget, 0, len(plan.Targets))
	for _, planned := range plan.Targets {
		outDir := filepath.Join(c.appConfig.OutDir, filepath.Base(planned.Binary))
		target, err := types.NewFuzzTarget(
			planned.Binary,
			time.Duration(planned.Duration)*time.Second,
			outDir,
			planned.Project)
		if err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}
	return targets, nil
}
