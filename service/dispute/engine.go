// Package dispute 实现退回争议的两级升级流程
//
// 一级争议只能在仓库登记收货之前发起，二级争议只能在登记之后发起。
// 争议等级只会 0→1→2 或 0→2 前进，不会回退。
package dispute

import (
	"context"

	"rto_engine/models"
	"rto_engine/service/order"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

// Notifier 二级争议成立后的告警通知
type Notifier interface {
	NotifyDispute(ctx context.Context, o *models.Order, status string) error
}

type nopNotifier struct{}

func (nopNotifier) NotifyDispute(context.Context, *models.Order, string) error { return nil }

// UploadedMedia 证据图片，文件已由上传服务处理，这里只保存引用
type UploadedMedia struct {
	PackingGallery  models.FileRefs `json:"packing_gallery"`
	UnboxingGallery models.FileRefs `json:"unboxing_gallery"`
}

type Case1Input struct {
	OrderID snowflake.ID
	Status  string
}

type Case2Input struct {
	OrderID       snowflake.ID
	Status        string
	UploadedMedia *UploadedMedia
}

type Engine struct {
	orders   *order.Store
	log      *zap.Logger
	notifier Notifier
}

type Option func(*Engine)

func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		if n != nil {
			e.notifier = n
		}
	}
}

func NewEngine(orders *order.Store, log *zap.Logger, opts ...Option) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{orders: orders, log: log, notifier: nopNotifier{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RaiseCase1 发起一级争议（未收到退回包裹）
func (e *Engine) RaiseCase1(ctx context.Context, actor models.Actor, in Case1Input) (*models.Order, error) {
	status, err := ParseCase1Status(in.Status)
	if err != nil {
		return nil, err
	}

	o, err := e.orders.Get(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if err := requireRTODelivered(o); err != nil {
		return nil, err
	}
	if o.CollectedAtWarehouse != nil {
		return nil, order.InvalidTransition("order is already collected at warehouse, raise case 2 instead", nil)
	}
	switch o.DisputeLevel() {
	case models.DisputeCase2:
		return nil, order.InvalidTransition("order is already in dispute case 2", nil)
	case models.DisputeCase1:
		return nil, order.InvalidTransition("dispute case 1 is already raised", nil)
	}

	fields := map[string]interface{}{
		"dispute_case":          models.DisputeCase1,
		"supplier_rto_response": string(status),
		"packing_gallery":       nil,
		"unboxing_gallery":      nil,
		"updated_by":            actor.ID,
		"updated_by_role":       actor.Role,
	}
	err = e.apply(ctx, o, fields, "collected_at_warehouse IS NULL")
	if err != nil {
		return nil, err
	}

	updated, err := e.orders.Get(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	e.log.Info("一级争议已发起",
		zap.String("order_id", o.ID.String()),
		zap.String("status", string(status)),
		zap.Int64("actor", actor.ID))
	e.orders.Publish(ctx, models.EventDisputeCase1, updated, map[string]interface{}{"status": string(status)})
	return updated, nil
}

// RaiseCase2 发起二级争议，可以从无争议或一级争议升级
func (e *Engine) RaiseCase2(ctx context.Context, actor models.Actor, in Case2Input) (*models.Order, error) {
	status, err := ParseCase2Status(in.Status)
	if err != nil {
		return nil, err
	}

	var packing, unboxing models.FileRefs
	if status == Case2WrongItemReceived {
		if in.UploadedMedia != nil {
			packing = in.UploadedMedia.PackingGallery.Clean()
			unboxing = in.UploadedMedia.UnboxingGallery.Clean()
		}
		if len(packing) == 0 || len(unboxing) == 0 {
			return nil, order.InvalidInput("packing and unboxing galleries are required for wrong item received", nil)
		}
	}

	o, err := e.orders.Get(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if err := requireRTODelivered(o); err != nil {
		return nil, err
	}
	if o.CollectedAtWarehouse == nil {
		return nil, order.InvalidTransition("order is not collected at warehouse yet, raise case 1 instead", nil)
	}
	if o.DisputeLevel() == models.DisputeCase2 {
		return nil, order.InvalidTransition("order is already in dispute case 2", nil)
	}

	fields := map[string]interface{}{
		"dispute_case":          models.DisputeCase2,
		"supplier_rto_response": string(status),
		"packing_gallery":       packing,
		"unboxing_gallery":      unboxing,
		"updated_by":            actor.ID,
		"updated_by_role":       actor.Role,
	}
	err = e.apply(ctx, o, fields, "collected_at_warehouse IS NOT NULL")
	if err != nil {
		return nil, err
	}

	updated, err := e.orders.Get(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	e.log.Info("二级争议已发起",
		zap.String("order_id", o.ID.String()),
		zap.String("status", string(status)),
		zap.Int("from_case", o.DisputeLevel()),
		zap.Int64("actor", actor.ID))
	e.orders.Publish(ctx, models.EventDisputeCase2, updated, map[string]interface{}{
		"status":    string(status),
		"from_case": o.DisputeLevel(),
	})
	if err := e.notifier.NotifyDispute(ctx, updated, string(status)); err != nil {
		e.log.Warn("争议告警发送失败", zap.String("order_id", o.ID.String()), zap.Error(err))
	}
	return updated, nil
}

// apply 以读取时的争议等级为条件更新，并发发起时只有一个能成功
func (e *Engine) apply(ctx context.Context, o *models.Order, fields map[string]interface{}, collectedCond string) error {
	q := e.orders.DB().WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", o.ID).
		Where("rto_delivered = ?", true).
		Where(collectedCond)
	if level := o.DisputeLevel(); level == models.DisputeCaseNone {
		q = q.Where("dispute_case IS NULL OR dispute_case = ?", models.DisputeCaseNone)
	} else {
		q = q.Where("dispute_case = ?", level)
	}

	res := q.Updates(fields)
	if res.Error != nil {
		return order.StoreFailure("failed to update dispute", res.Error)
	}
	if res.RowsAffected == 0 {
		return order.InvalidTransition("order dispute state changed concurrently", nil)
	}
	return nil
}

func requireRTODelivered(o *models.Order) error {
	if !o.RTODelivered || o.RTODeliveredDate == nil {
		return order.InvalidTransition("order has not been rto delivered", nil)
	}
	return nil
}
