package scheduler

import (
	"context"

	"github.com/smallbiznis/pulse/internal/config"
	healthdomain "github.com/smallbiznis/pulse/internal/health/domain"
	"go.uber.org/zap"
)

const scoringJobName = "health.score_all"

// RegisterScoringJob schedules the population-wide scoring run.
func RegisterScoringJob(registry *Registry, cfg config.Config, svc healthdomain.Service, log *zap.Logger) error {
	if !cfg.Batch.Enabled {
		log.Info("batch scoring disabled, job not registered")
		return nil
	}

	jobLog := log.Named("scheduler").With(zap.String("job", scoringJobName))
	return registry.Register(cfg.Batch.CronSpec, scoringJobName, func(ctx context.Context) {
		summary, err := svc.ScoreAll(ctx, cfg.Batch.Concurrency)
		if err != nil {
			jobLog.Error("batch scoring run failed", zap.Error(err))
			return
		}
		fields := []zap.Field{
			zap.Int("calculated", summary.Calculated),
			zap.Int("failed", summary.Failed),
		}
		if summary.Failed > 0 {
			for _, failure := range summary.Errors {
				jobLog.Warn("customer scoring failed",
					zap.String("customer_id", failure.CustomerID.String()),
					zap.String("reason", failure.Reason),
				)
			}
			jobLog.Warn("batch scoring run finished with failures", fields...)
			return
		}
		jobLog.Info("batch scoring run finished", fields...)
	})
}
