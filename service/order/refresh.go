package order

import (
	"context"
	"time"

	"rto_engine/models"
)

const (
	defaultStaleAfter       = time.Hour
	defaultRefreshBatchSize = 100
)

// SelectStale 选出需要重新查询物流状态的订单
// 条件：未签收，且从未刷新或上次刷新早于 now-staleAfter，按上次刷新时间升序，从未刷新的排最前。
// 这里只负责挑选，last_refresh_at 由调用方在轮询后写入。
func (s *Store) SelectStale(ctx context.Context, now time.Time) ([]models.Order, error) {
	cutoff := now.Add(-s.staleAfter)

	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		Preload("Items.Variant").
		Where("delivered = ?", false).
		Where("last_refresh_at IS NULL OR last_refresh_at < ?", cutoff).
		Order("CASE WHEN last_refresh_at IS NULL THEN 0 ELSE 1 END, last_refresh_at ASC, id ASC").
		Limit(s.refreshBatchSize).
		Find(&orders).Error
	if err != nil {
		return nil, StoreFailure("failed to select stale orders", err)
	}
	return orders, nil
}
