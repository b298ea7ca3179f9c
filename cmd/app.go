package cmd

import (
	"context"
	"fmt"

	"rto_engine/config"
	"rto_engine/db"
	"rto_engine/method"
	"rto_engine/method/carrier"
	"rto_engine/models"
	"rto_engine/other_method/message"
	"rto_engine/rabbitmq"
	"rto_engine/service/dispute"
	"rto_engine/service/order"
	"rto_engine/service/rtoinventory"
	"rto_engine/utils"

	"go.uber.org/zap"
)

// app 进程内共享的依赖
type app struct {
	cfg      config.Config
	log      *zap.Logger
	orders   *order.Store
	disputes *dispute.Engine
	recorder *rtoinventory.Recorder
	poller   *method.RefreshPoller
	mq       *rabbitmq.RabbitMQ
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := utils.NewLogger(cfg.Log.Dir, cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	utils.SetLogger(logger)

	if err := models.SetIDNode(cfg.Snowflake.Node); err != nil {
		return nil, fmt.Errorf("failed to init id node: %w", err)
	}

	conn, err := db.Open(cfg.DB)
	if err != nil {
		return nil, err
	}
	db.DB = conn

	a := &app{cfg: cfg, log: logger}

	opts := []order.Option{
		order.WithMaxNumberAttempts(cfg.Order.MaxNumberAttempts),
		order.WithRefreshWindow(cfg.Refresh.StaleAfter, cfg.Refresh.BatchSize),
	}
	if cfg.RabbitMQ.URL != "" {
		mq, err := rabbitmq.NewRabbitMQ(cfg.RabbitMQ)
		if err != nil {
			// 消息队列不可用时只记录日志，订单写入不依赖事件
			logger.Warn("RabbitMQ连接失败，订单事件不会发布", zap.Error(err))
		} else {
			a.mq = mq
			opts = append(opts, order.WithPublisher(mq))
		}
	}
	a.orders = order.NewStore(conn, logger, opts...)

	notifier, err := message.NewDisputeNotifier(cfg.SMS, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to init sms client: %w", err)
	}
	a.disputes = dispute.NewEngine(a.orders, logger, dispute.WithNotifier(notifier))
	a.recorder = rtoinventory.NewRecorder(a.orders, logger)

	var locker method.Locker
	if cfg.Redis.Addr != "" {
		client, err := db.OpenRedis(ctx, cfg.Redis)
		if err != nil {
			logger.Warn("Redis连接失败，刷新任务使用进程内锁", zap.Error(err))
		} else {
			db.Redis = client
			locker = method.NewRedisLocker(client)
		}
	}
	if locker == nil {
		locker = method.NewLocalLocker()
	}
	a.poller = method.NewRefreshPoller(a.orders, carrier.NewClient(cfg.Carrier), locker, logger,
		cfg.Refresh.LockTTL, cfg.Refresh.PollConcurrent)

	return a, nil
}

func (a *app) close() {
	if a.mq != nil {
		a.mq.Close()
	}
	if db.Redis != nil {
		_ = db.Redis.Close()
	}
	if db.DB != nil {
		if sqlDB, err := db.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = a.log.Sync()
}
