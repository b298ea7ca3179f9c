package order

import (
	"context"
	"errors"
	"time"

	"rto_engine/models"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const createAttempts = 3

// Publisher 订单事件发布
type Publisher interface {
	Publish(ctx context.Context, event models.OrderEvent) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, models.OrderEvent) error { return nil }

// Store 订单记录存储
type Store struct {
	db                *gorm.DB
	log               *zap.Logger
	publisher         Publisher
	now               func() time.Time
	randomBase        func() string
	maxNumberAttempts int
	staleAfter        time.Duration
	refreshBatchSize  int
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithPublisher(p Publisher) Option {
	return func(s *Store) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithMaxNumberAttempts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxNumberAttempts = n
		}
	}
}

// WithRandomBase 替换随机订单号生成函数
func WithRandomBase(fn func() string) Option {
	return func(s *Store) { s.randomBase = fn }
}

// WithRefreshWindow 设置刷新任务的过期窗口和每批数量
func WithRefreshWindow(staleAfter time.Duration, batchSize int) Option {
	return func(s *Store) {
		if staleAfter > 0 {
			s.staleAfter = staleAfter
		}
		if batchSize > 0 {
			s.refreshBatchSize = batchSize
		}
	}
}

func NewStore(db *gorm.DB, log *zap.Logger, opts ...Option) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		db:                db,
		log:               log,
		publisher:         nopPublisher{},
		now:               func() time.Time { return time.Now().UTC() },
		randomBase:        RandomBase,
		maxNumberAttempts: defaultMaxNumberTrials,
		staleAfter:        defaultStaleAfter,
		refreshBatchSize:  defaultRefreshBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB 底层连接，供同一事务边界内的其他组件使用
func (s *Store) DB() *gorm.DB { return s.db }

// Now 当前时间
func (s *Store) Now() time.Time { return s.now() }

// CreateItemInput 下单商品行
type CreateItemInput struct {
	ProductID snowflake.ID
	VariantID *snowflake.ID
	Quantity  int
	Price     decimal.Decimal
}

// CreateOrderInput 下单参数
type CreateOrderInput struct {
	BaseNumber    string
	DropshipperID snowflake.ID
	SubTotal      decimal.Decimal
	Tax           decimal.Decimal
	Discount      decimal.Decimal
	TotalAmount   decimal.Decimal
	Currency      string
	Shipping      models.Address
	Billing       models.Address
	PaymentID     *snowflake.ID
	Items         []CreateItemInput
}

func (in CreateOrderInput) validate() error {
	if len(in.Items) == 0 {
		return InvalidInput("order must contain at least one item", nil)
	}
	for _, item := range in.Items {
		if item.ProductID == 0 {
			return InvalidInput("order item is missing product", nil)
		}
		if item.Quantity <= 0 {
			return InvalidInput("order item quantity must be positive", nil)
		}
		if item.Price.IsNegative() {
			return InvalidInput("order item price must not be negative", nil)
		}
	}
	if in.Tax.IsNegative() || in.Discount.IsNegative() {
		return InvalidInput("tax and discount must not be negative", nil)
	}
	return nil
}

// Create 生成订单号并保存订单及其商品行
func (s *Store) Create(ctx context.Context, actor models.Actor, in CreateOrderInput) (*models.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	subTotal := in.SubTotal
	if subTotal.IsZero() {
		for _, item := range in.Items {
			subTotal = subTotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}
	total := in.TotalAmount
	if total.IsZero() {
		total = subTotal.Add(in.Tax).Sub(in.Discount)
	}
	currency := in.Currency
	if currency == "" {
		currency = "INR"
	}

	var created *models.Order
	for attempt := 1; attempt <= createAttempts; attempt++ {
		o := &models.Order{
			Status:        models.OrderStatusPending,
			IsActive:      true,
			SubTotal:      subTotal,
			Tax:           in.Tax,
			Discount:      in.Discount,
			TotalAmount:   total,
			Currency:      currency,
			Shipping:      in.Shipping,
			Billing:       in.Billing,
			PaymentID:     in.PaymentID,
			DropshipperID: in.DropshipperID,
			CreatedBy:     actor.ID,
			CreatedByRole: actor.Role,
		}
		for _, item := range in.Items {
			o.Items = append(o.Items, models.OrderItem{
				ProductID: item.ProductID,
				VariantID: item.VariantID,
				Quantity:  item.Quantity,
				Price:     item.Price,
			})
		}

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			number, err := s.generateOrderNumber(ctx, tx, in.BaseNumber)
			if err != nil {
				return err
			}
			o.OrderNumber = number
			return tx.Create(o).Error
		})
		if err == nil {
			created = o
			break
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) && attempt < createAttempts {
			// 并发下单抢占了同一订单号，重新生成
			s.log.Warn("订单号冲突，重新生成", zap.String("order_number", o.OrderNumber), zap.Int("attempt", attempt))
			continue
		}
		var appErr *Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, Conflict("order number already taken", err)
		}
		return nil, StoreFailure("failed to create order", err)
	}

	s.log.Info("订单创建成功",
		zap.String("order_id", created.ID.String()),
		zap.String("order_number", created.OrderNumber),
		zap.Int64("actor", actor.ID))
	s.publish(ctx, models.EventOrderCreated, created, nil)
	return created, nil
}

// Get 按ID查询订单及商品行
func (s *Store) Get(ctx context.Context, id snowflake.ID) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).Preload("Items").First(&o, "id = ?", id).Error
	if err != nil {
		return nil, mapFindErr(err, "failed to load order")
	}
	return &o, nil
}

// GetByNumber 按订单号查询
func (s *Store) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).Preload("Items").First(&o, "order_number = ?", number).Error
	if err != nil {
		return nil, mapFindErr(err, "failed to load order")
	}
	return &o, nil
}

// UpdateOrderInput 订单业务字段的整体更新
type UpdateOrderInput struct {
	Status      models.OrderStatus
	SubTotal    decimal.Decimal
	Tax         decimal.Decimal
	Discount    decimal.Decimal
	TotalAmount decimal.Decimal
	Currency    string
	Shipping    models.Address
	Billing     models.Address
	PaymentID   *snowflake.ID
}

// Update 更新订单业务字段并记录操作人
func (s *Store) Update(ctx context.Context, actor models.Actor, id snowflake.ID, in UpdateOrderInput) (*models.Order, error) {
	if _, err := models.ParseOrderStatus(string(in.Status)); err != nil {
		return nil, InvalidInput("invalid order status", err)
	}
	if in.Tax.IsNegative() || in.Discount.IsNegative() || in.TotalAmount.IsNegative() {
		return nil, InvalidInput("amounts must not be negative", nil)
	}

	fields := map[string]interface{}{
		"status":          in.Status,
		"sub_total":       in.SubTotal,
		"tax":             in.Tax,
		"discount":        in.Discount,
		"total_amount":    in.TotalAmount,
		"currency":        in.Currency,
		"payment_id":      in.PaymentID,
		"updated_by":      actor.ID,
		"updated_by_role": actor.Role,
		"updated_at":      s.now(),
	}
	addAddressColumns(fields, "shipping_", in.Shipping)
	addAddressColumns(fields, "billing_", in.Billing)

	if err := s.updateByID(ctx, id, fields); err != nil {
		return nil, err
	}
	s.log.Info("订单更新成功", zap.String("order_id", id.String()), zap.Int64("actor", actor.ID))
	return s.Get(ctx, id)
}

// SetActive 启用或停用订单
func (s *Store) SetActive(ctx context.Context, actor models.Actor, id snowflake.ID, active bool) (*models.Order, error) {
	err := s.updateByID(ctx, id, map[string]interface{}{
		"is_active":       active,
		"updated_by":      actor.ID,
		"updated_by_role": actor.Role,
		"updated_at":      s.now(),
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// SoftDelete 软删除订单并记录删除人
func (s *Store) SoftDelete(ctx context.Context, actor models.Actor, id snowflake.ID) error {
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"deleted_at":      s.now(),
			"deleted_by":      actor.ID,
			"deleted_by_role": actor.Role,
		})
	if res.Error != nil {
		return StoreFailure("failed to delete order", res.Error)
	}
	if res.RowsAffected == 0 {
		exists, err := s.exists(ctx, id, true)
		if err != nil {
			return err
		}
		if exists {
			return InvalidTransition("order is already deleted", ErrAlreadySet)
		}
		return NotFound("order not found", ErrOrderNotFound)
	}
	s.log.Info("订单已软删除", zap.String("order_id", id.String()), zap.Int64("actor", actor.ID))
	return nil
}

// Restore 恢复软删除的订单
func (s *Store) Restore(ctx context.Context, actor models.Actor, id snowflake.ID) (*models.Order, error) {
	res := s.db.WithContext(ctx).Unscoped().Model(&models.Order{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Updates(map[string]interface{}{
			"deleted_at":      nil,
			"deleted_by":      nil,
			"deleted_by_role": "",
			"updated_by":      actor.ID,
			"updated_by_role": actor.Role,
			"updated_at":      s.now(),
		})
	if res.Error != nil {
		return nil, StoreFailure("failed to restore order", res.Error)
	}
	if res.RowsAffected == 0 {
		exists, err := s.exists(ctx, id, true)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, InvalidTransition("order is not deleted", nil)
		}
		return nil, NotFound("order not found", ErrOrderNotFound)
	}
	s.log.Info("订单已恢复", zap.String("order_id", id.String()), zap.Int64("actor", actor.ID))
	return s.Get(ctx, id)
}

// HardDelete 物理删除订单及商品行，已有退回入库记录的订单不允许删除
func (s *Store) HardDelete(ctx context.Context, id snowflake.ID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Unscoped().Model(&models.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return StoreFailure("failed to load order", err)
		}
		if count == 0 {
			return NotFound("order not found", ErrOrderNotFound)
		}
		var stock int64
		if err := tx.Model(&models.RTOInventory{}).Where("order_id = ?", id).Count(&stock).Error; err != nil {
			return StoreFailure("failed to check rto inventory", err)
		}
		if stock > 0 {
			return Conflict("order has rto inventory records", nil)
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return StoreFailure("failed to delete order items", err)
		}
		if err := tx.Unscoped().Where("id = ?", id).Delete(&models.Order{}).Error; err != nil {
			return StoreFailure("failed to delete order", err)
		}
		return nil
	})
	if err != nil {
		return asError(err, "failed to delete order")
	}
	s.log.Warn("订单已物理删除", zap.String("order_id", id.String()))
	return nil
}

func (s *Store) updateByID(ctx context.Context, id snowflake.ID, fields map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return StoreFailure("failed to update order", res.Error)
	}
	if res.RowsAffected == 0 {
		return NotFound("order not found", ErrOrderNotFound)
	}
	return nil
}

func (s *Store) exists(ctx context.Context, id snowflake.ID, includeDeleted bool) (bool, error) {
	q := s.db.WithContext(ctx).Model(&models.Order{})
	if includeDeleted {
		q = q.Unscoped()
	}
	var count int64
	if err := q.Where("id = ?", id).Count(&count).Error; err != nil {
		return false, StoreFailure("failed to load order", err)
	}
	return count > 0, nil
}

func (s *Store) publish(ctx context.Context, eventType string, o *models.Order, data map[string]interface{}) {
	event := models.OrderEvent{
		Type:        eventType,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Status:      string(o.Status),
		Occurred:    s.now(),
		Data:        data,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn("订单事件发布失败", zap.String("type", eventType), zap.String("order_id", o.ID.String()), zap.Error(err))
	}
}

// Publish 发布订单事件，失败只记录日志
func (s *Store) Publish(ctx context.Context, eventType string, o *models.Order, data map[string]interface{}) {
	s.publish(ctx, eventType, o, data)
}

func addAddressColumns(fields map[string]interface{}, prefix string, a models.Address) {
	fields[prefix+"name"] = a.Name
	fields[prefix+"phone"] = a.Phone
	fields[prefix+"email"] = a.Email
	fields[prefix+"address"] = a.Address
	fields[prefix+"zip"] = a.Zip
	fields[prefix+"country"] = a.Country
	fields[prefix+"state"] = a.State
	fields[prefix+"city"] = a.City
}

func mapFindErr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound("order not found", ErrOrderNotFound)
	}
	return StoreFailure(msg, err)
}

// asError 保留已分类的错误，其余视为存储失败
func asError(err error, msg string) error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return StoreFailure(msg, err)
}
