package method

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StartRefreshScheduler 启动时执行一次，之后按间隔执行，ctx取消时退出
func StartRefreshScheduler(ctx context.Context, poller *RefreshPoller, interval time.Duration, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	log.Info("物流刷新调度器启动", zap.Duration("interval", interval))

	run := func() {
		if _, err := poller.RunOnce(ctx); err != nil {
			log.Error("物流刷新任务失败", zap.Error(err))
		}
	}
	run()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("物流刷新调度器已停止")
			return
		case <-ticker.C:
			log.Debug("定时器触发，开始刷新物流状态")
			run()
		}
	}
}
