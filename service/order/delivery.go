package order

import (
	"context"
	"encoding/json"
	"time"

	"rto_engine/models"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// setOnce 条件更新：仅当 guardColumn 为空时写入 fields
// 没有命中行时区分订单不存在和字段已被设置
func (s *Store) setOnce(ctx context.Context, id snowflake.ID, guardColumn string, extra string, fields map[string]interface{}) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.Order{}).Where("id = ?", id).Where(guardColumn + " IS NULL")
		if extra != "" {
			q = q.Where(extra)
		}
		res := q.Updates(fields)
		if res.Error != nil {
			return StoreFailure("failed to update order", res.Error)
		}
		if res.RowsAffected > 0 {
			return nil
		}

		var o models.Order
		if err := tx.Select("id", guardColumn, "rto_delivered").First(&o, "id = ?", id).Error; err != nil {
			return mapFindErr(err, "failed to load order")
		}
		return InvalidTransition(guardColumn+" is already set", ErrAlreadySet)
	})
}

// MarkDelivered 设置签收标记，签收日期只能写入一次
func (s *Store) MarkDelivered(ctx context.Context, actor models.Actor, id snowflake.ID, value bool) (*models.Order, error) {
	fields := map[string]interface{}{
		"delivered":       value,
		"delivered_date":  s.now(),
		"updated_by":      actor.ID,
		"updated_by_role": actor.Role,
	}
	if value {
		fields["status"] = models.OrderStatusDelivered
	}
	if err := s.setOnce(ctx, id, "delivered_date", "", fields); err != nil {
		return nil, asError(err, "failed to mark delivered")
	}

	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info("订单已标记签收", zap.String("order_id", id.String()), zap.Bool("value", value), zap.Int64("actor", actor.ID))
	s.publish(ctx, models.EventOrderDelivered, o, map[string]interface{}{"value": value})
	return o, nil
}

// MarkRTODelivered 设置退回签收标记，退回签收日期只能写入一次
func (s *Store) MarkRTODelivered(ctx context.Context, actor models.Actor, id snowflake.ID, value bool) (*models.Order, error) {
	fields := map[string]interface{}{
		"rto_delivered":      value,
		"rto_delivered_date": s.now(),
		"updated_by":         actor.ID,
		"updated_by_role":    actor.Role,
	}
	if value {
		fields["status"] = models.OrderStatusRTO
	}
	if err := s.setOnce(ctx, id, "rto_delivered_date", "", fields); err != nil {
		return nil, asError(err, "failed to mark rto delivered")
	}

	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info("订单已标记退回签收", zap.String("order_id", id.String()), zap.Bool("value", value), zap.Int64("actor", actor.ID))
	s.publish(ctx, models.EventOrderRTODelivered, o, map[string]interface{}{"value": value})
	return o, nil
}

// MarkCollectedAtWarehouse 仓库登记收到退回包裹，要求已退回签收
func (s *Store) MarkCollectedAtWarehouse(ctx context.Context, actor models.Actor, id snowflake.ID) (*models.Order, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.RTODelivered || current.RTODeliveredDate == nil {
		return nil, InvalidTransition("order has not been rto delivered", nil)
	}

	fields := map[string]interface{}{
		"collected_at_warehouse": s.now(),
		"updated_by":             actor.ID,
		"updated_by_role":        actor.Role,
	}
	err = s.setOnce(ctx, id, "collected_at_warehouse", "rto_delivered = true", fields)
	if err != nil {
		return nil, asError(err, "failed to mark collected")
	}

	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info("退回包裹已入仓", zap.String("order_id", id.String()), zap.Int64("actor", actor.ID))
	s.publish(ctx, models.EventOrderCollected, o, nil)
	return o, nil
}

// UpdateShippingAPIResult 保存物流商结果并提取运单号，缺少 data.awb_number 时运单号置空
func (s *Store) UpdateShippingAPIResult(ctx context.Context, actor models.Actor, id snowflake.ID, raw []byte) (*models.Order, error) {
	result, err := models.ParseCarrierResult(raw)
	if err != nil {
		return nil, InvalidInput("shipping api result is not valid json", err)
	}

	err = s.updateByID(ctx, id, map[string]interface{}{
		"awb_number":          result.AWB(),
		"shipping_api_result": datatypes.JSON(raw),
		"updated_by":          actor.ID,
		"updated_by_role":     actor.Role,
		"updated_at":          s.now(),
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// RefreshShippingAPIResult 只覆盖原始结果，不改运单号和状态标记
func (s *Store) RefreshShippingAPIResult(ctx context.Context, id snowflake.ID, raw []byte) error {
	if !json.Valid(raw) {
		return InvalidInput("shipping api result is not valid json", nil)
	}
	res := s.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).
		UpdateColumn("shipping_api_result", datatypes.JSON(raw))
	if res.Error != nil {
		return StoreFailure("failed to refresh shipping api result", res.Error)
	}
	if res.RowsAffected == 0 {
		return s.notFoundUnlessExists(ctx, id)
	}
	return nil
}

// StampRefreshed 记录最近一次轮询时间，不论轮询是否成功
func (s *Store) StampRefreshed(ctx context.Context, id snowflake.ID, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).
		UpdateColumn("last_refresh_at", at)
	if res.Error != nil {
		return StoreFailure("failed to stamp refresh time", res.Error)
	}
	if res.RowsAffected == 0 {
		return s.notFoundUnlessExists(ctx, id)
	}
	return nil
}

// MySQL 对值未变化的更新返回0行，需要再确认订单是否存在
func (s *Store) notFoundUnlessExists(ctx context.Context, id snowflake.ID) error {
	exists, err := s.exists(ctx, id, false)
	if err != nil {
		return err
	}
	if !exists {
		return NotFound("order not found", ErrOrderNotFound)
	}
	return nil
}
