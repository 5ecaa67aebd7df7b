package main

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"github.com/jacl-coder/PixelStorm-Arena/internal/store"
)

// startLeaderboardJob 定时从持久化层重建排行榜缓存，启动时立即执行一次
func startLeaderboardJob(lb store.Leaderboard, interval time.Duration, logger zerolog.Logger) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()

			start := time.Now()
			if err := lb.Refresh(ctx); err != nil {
				logger.Error().Err(err).Msg("刷新排行榜失败")
				return
			}
			logger.Debug().Dur("duration", time.Since(start)).Msg("排行榜已刷新")
		}),
		gocron.WithName("leaderboard_refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	return sched, nil
}
