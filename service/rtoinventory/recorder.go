// Package rtoinventory 记录退回入库的库存，每个订单商品行最多一条
package rtoinventory

import (
	"context"
	"errors"

	"rto_engine/models"
	"rto_engine/service/order"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrAlreadyRecorded = errors.New("rto inventory already recorded for order item")

type RecordInput struct {
	OrderID       snowflake.ID
	OrderItemID   snowflake.ID
	DropshipperID snowflake.ID
	ProductID     snowflake.ID
	VariantID     *snowflake.ID
	Quantity      int
	Price         decimal.Decimal
}

type Recorder struct {
	orders *order.Store
	log    *zap.Logger
}

func NewRecorder(orders *order.Store, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{orders: orders, log: log}
}

// Record 记录退回入库；该商品行已有记录时返回已有记录和 ErrAlreadyRecorded
func (r *Recorder) Record(ctx context.Context, actor models.Actor, in RecordInput) (*models.RTOInventory, bool, error) {
	if in.Quantity <= 0 {
		return nil, false, order.InvalidInput("quantity must be positive", nil)
	}
	if in.Price.IsNegative() {
		return nil, false, order.InvalidInput("price must not be negative", nil)
	}
	if in.ProductID == 0 {
		return nil, false, order.InvalidInput("product is required", nil)
	}

	o, err := r.orders.Get(ctx, in.OrderID)
	if err != nil {
		return nil, false, err
	}
	// 只有退回签收并已入仓的订单才能入库
	if !o.RTODelivered || o.RTODeliveredDate == nil {
		return nil, false, order.InvalidTransition("order has not been rto delivered", nil)
	}
	if o.CollectedAtWarehouse == nil {
		return nil, false, order.InvalidTransition("order is not collected at warehouse yet", nil)
	}
	if _, err := r.orders.ValidateItemForOrder(ctx, in.OrderID, in.OrderItemID); err != nil {
		return nil, false, err
	}

	existing, err := r.findByItem(ctx, in.OrderItemID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, order.Conflict("rto inventory already recorded", ErrAlreadyRecorded)
	}

	row := &models.RTOInventory{
		OrderID:       in.OrderID,
		OrderItemID:   in.OrderItemID,
		DropshipperID: in.DropshipperID,
		ProductID:     in.ProductID,
		VariantID:     in.VariantID,
		Quantity:      in.Quantity,
		Price:         in.Price,
		CreatedBy:     actor.ID,
		CreatedByRole: actor.Role,
	}
	if row.DropshipperID == 0 {
		row.DropshipperID = o.DropshipperID
	}
	if err := r.orders.DB().WithContext(ctx).Create(row).Error; err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, false, order.StoreFailure("failed to record rto inventory", err)
		}
		// 并发写入被唯一索引拦下，返回先写入的那条
		existing, findErr := r.findByItem(ctx, in.OrderItemID)
		if findErr != nil {
			return nil, false, findErr
		}
		if existing == nil {
			return nil, false, order.StoreFailure("failed to record rto inventory", err)
		}
		return existing, false, order.Conflict("rto inventory already recorded", ErrAlreadyRecorded)
	}

	r.log.Info("退回库存已入库",
		zap.String("order_id", in.OrderID.String()),
		zap.String("order_item_id", in.OrderItemID.String()),
		zap.Int("quantity", in.Quantity),
		zap.Int64("actor", actor.ID))
	r.orders.Publish(ctx, models.EventRTOInventoryCreated, o, map[string]interface{}{
		"order_item_id": in.OrderItemID.String(),
		"quantity":      in.Quantity,
	})
	return row, true, nil
}

// ListForOrder 订单下的全部退回入库记录
func (r *Recorder) ListForOrder(ctx context.Context, orderID snowflake.ID) ([]models.RTOInventory, error) {
	var rows []models.RTOInventory
	err := r.orders.DB().WithContext(ctx).Where("order_id = ?", orderID).Order("created_at ASC, id ASC").Find(&rows).Error
	if err != nil {
		return nil, order.StoreFailure("failed to list rto inventory", err)
	}
	return rows, nil
}

func (r *Recorder) findByItem(ctx context.Context, itemID snowflake.ID) (*models.RTOInventory, error) {
	var row models.RTOInventory
	err := r.orders.DB().WithContext(ctx).Where("order_item_id = ?", itemID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, order.StoreFailure("failed to load rto inventory", err)
	}
	return &row, nil
}
