package method

import (
	"context"
	"errors"
	"sync"
	"time"

	"rto_engine/middleware"
	"rto_engine/models"
	"rto_engine/service/order"

	"go.uber.org/zap"
)

const (
	refreshLockKey = "rto_engine:refresh_sweep"
	stampTimeout   = 3 * time.Second
)

// Tracker 查询运单的物流商接口
type Tracker interface {
	Track(ctx context.Context, awb string) ([]byte, error)
}

// SweepReport 一次刷新的统计
type SweepReport struct {
	Locked       bool `json:"locked"`
	Selected     int  `json:"selected"`
	Polled       int  `json:"polled"`
	NoAWB        int  `json:"no_awb"`
	Failed       int  `json:"failed"`
	Delivered    int  `json:"delivered"`
	RTODelivered int  `json:"rto_delivered"`
}

type RefreshPoller struct {
	orders      *order.Store
	tracker     Tracker
	locker      Locker
	log         *zap.Logger
	lockTTL     time.Duration
	concurrency int
}

func NewRefreshPoller(orders *order.Store, tracker Tracker, locker Locker, log *zap.Logger, lockTTL time.Duration, concurrency int) *RefreshPoller {
	if log == nil {
		log = zap.NewNop()
	}
	if locker == nil {
		locker = NewLocalLocker()
	}
	if lockTTL <= 0 {
		lockTTL = 4 * time.Minute
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &RefreshPoller{
		orders:      orders,
		tracker:     tracker,
		locker:      locker,
		log:         log,
		lockTTL:     lockTTL,
		concurrency: concurrency,
	}
}

// RunOnce 执行一次刷新：选出过期订单，逐个查询物流商并回写，最后记录刷新时间
// 其他实例正在执行时直接返回，Locked 为 false。
func (p *RefreshPoller) RunOnce(ctx context.Context) (SweepReport, error) {
	var report SweepReport

	release, ok, err := p.locker.TryLock(ctx, refreshLockKey, p.lockTTL)
	if err != nil {
		return report, order.StoreFailure("failed to acquire refresh lock", err)
	}
	if !ok {
		p.log.Info("物流刷新任务正在其他实例执行，跳过")
		return report, nil
	}
	defer release()
	report.Locked = true

	stale, err := p.orders.SelectStale(ctx, p.orders.Now())
	if err != nil {
		middleware.RecordOrderOperation("refresh_sweep", false)
		return report, err
	}
	report.Selected = len(stale)
	if len(stale) == 0 {
		middleware.RecordOrderOperation("refresh_sweep", true)
		return report, nil
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, p.concurrency)
	)
dispatch:
	for i := range stale {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break dispatch
		}
		// 等待名额期间任务被取消，剩余订单留到下一轮
		if ctx.Err() != nil {
			<-sem
			break dispatch
		}
		o := &stale[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			outcome := p.pollOne(ctx, o)

			mu.Lock()
			report.add(outcome)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if ctx.Err() != nil {
		p.log.Warn("物流刷新任务被取消", zap.Int("selected", report.Selected), zap.Error(ctx.Err()))
	}
	p.log.Info("物流刷新任务完成",
		zap.Int("selected", report.Selected),
		zap.Int("polled", report.Polled),
		zap.Int("no_awb", report.NoAWB),
		zap.Int("failed", report.Failed),
		zap.Int("delivered", report.Delivered),
		zap.Int("rto_delivered", report.RTODelivered))
	middleware.RecordOrderOperation("refresh_sweep", report.Failed == 0)
	return report, nil
}

type pollOutcome struct {
	noAWB        bool
	polled       bool
	failed       bool
	delivered    bool
	rtoDelivered bool
}

func (r *SweepReport) add(o pollOutcome) {
	switch {
	case o.noAWB:
		r.NoAWB++
	case o.failed:
		r.Failed++
	}
	if o.polled {
		r.Polled++
	}
	if o.delivered {
		r.Delivered++
	}
	if o.rtoDelivered {
		r.RTODelivered++
	}
}

func (p *RefreshPoller) pollOne(ctx context.Context, o *models.Order) (out pollOutcome) {
	log := p.log.With(zap.String("order_id", o.ID.String()), zap.String("order_number", o.OrderNumber))

	// 不论结果如何都记录刷新时间，避免同一订单在窗口期内被反复选中
	// 任务取消后仍需写入，使用独立的超时
	defer func() {
		stampCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stampTimeout)
		defer cancel()
		if err := p.orders.StampRefreshed(stampCtx, o.ID, p.orders.Now()); err != nil {
			log.Error("记录刷新时间失败", zap.Error(err))
			out.failed = true
		}
	}()

	if o.AWBNumber == nil || *o.AWBNumber == "" {
		out.noAWB = true
		return out
	}

	raw, err := p.tracker.Track(ctx, *o.AWBNumber)
	if err != nil {
		log.Warn("查询物流状态失败", zap.String("awb", *o.AWBNumber), zap.Error(err))
		out.failed = true
		return out
	}
	out.polled = true

	result, err := models.ParseCarrierResult(raw)
	if err != nil {
		log.Warn("物流商返回的不是有效JSON", zap.String("awb", *o.AWBNumber), zap.Error(err))
		out.failed = true
		return out
	}

	// 查询结果通常不带运单号，只有物流商返回了新运单号时才改写，否则只覆盖原始结果
	if awb := result.AWB(); awb != nil && *awb != *o.AWBNumber {
		_, err = p.orders.UpdateShippingAPIResult(ctx, models.SystemActor, o.ID, raw)
	} else {
		err = p.orders.RefreshShippingAPIResult(ctx, o.ID, raw)
	}
	if err != nil {
		log.Warn("保存物流结果失败", zap.Error(err))
		out.failed = true
		return out
	}

	if result.IsDelivered() && !o.Delivered {
		_, err := p.orders.MarkDelivered(ctx, models.SystemActor, o.ID, true)
		switch {
		case err == nil:
			out.delivered = true
		case !errors.Is(err, order.ErrAlreadySet):
			log.Warn("标记签收失败", zap.Error(err))
			out.failed = true
		}
	}
	if result.IsRTODelivered() && !o.RTODelivered {
		_, err := p.orders.MarkRTODelivered(ctx, models.SystemActor, o.ID, true)
		switch {
		case err == nil:
			out.rtoDelivered = true
		case !errors.Is(err, order.ErrAlreadySet):
			log.Warn("标记退回签收失败", zap.Error(err))
			out.failed = true
		}
	}
	return out
}
