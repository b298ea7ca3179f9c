package order

import (
	"context"
	"errors"

	"rto_engine/models"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ItemsForOrder 订单的全部商品行
func (s *Store) ItemsForOrder(ctx context.Context, orderID snowflake.ID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&items).Error
	if err != nil {
		return nil, StoreFailure("failed to load order items", err)
	}
	return items, nil
}

func (s *Store) GetItem(ctx context.Context, itemID snowflake.ID) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := s.db.WithContext(ctx).First(&item, "id = ?", itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("order item not found", ErrItemNotFound)
		}
		return nil, StoreFailure("failed to load order item", err)
	}
	return &item, nil
}

// ValidateItemForOrder 商品行必须属于该订单，不一致视为不存在
func (s *Store) ValidateItemForOrder(ctx context.Context, orderID, itemID snowflake.ID) (*models.OrderItem, error) {
	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OrderID != orderID {
		return nil, NotFound("order item does not belong to order", ErrItemOrderMismatch)
	}
	return item, nil
}
