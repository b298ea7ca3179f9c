package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rto_engine/models"
	"rto_engine/utils"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

const maxPageSize = 100

// ListStatus 订单列表的状态筛选
type ListStatus string

const (
	ListActive         ListStatus = "active"
	ListInactive       ListStatus = "inactive"
	ListDeleted        ListStatus = "deleted"
	ListNotDeleted     ListStatus = "notDeleted"
	ListDelivered      ListStatus = "delivered"
	ListRTO            ListStatus = "RTO"
	ListDeliveredOrRTO ListStatus = "deliveredOrRto"
)

var listStatuses = []ListStatus{
	ListActive, ListInactive, ListDeleted, ListNotDeleted,
	ListDelivered, ListRTO, ListDeliveredOrRTO,
}

// ParseListStatus 大小写不敏感，空串视为 notDeleted
func ParseListStatus(s string) (ListStatus, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ListNotDeleted, nil
	}
	for _, st := range listStatuses {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", InvalidInput(fmt.Sprintf("unknown status filter %q", s), nil)
}

// ListFilter 订单列表查询条件
type ListFilter struct {
	Status        ListStatus
	From          *time.Time
	To            *time.Time
	DropshipperID *snowflake.ID
	SupplierID    *snowflake.ID
	Page          int
	PageSize      int
}

type ListResult struct {
	Orders   []models.Order `json:"orders"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// List 按状态、日期区间和归属筛选订单
func (s *Store) List(ctx context.Context, f ListFilter) (*ListResult, error) {
	if f.Status == "" {
		f.Status = ListNotDeleted
	}
	if f.DropshipperID != nil && f.SupplierID != nil {
		return nil, InvalidInput("dropshipper and supplier scope are mutually exclusive", nil)
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, InvalidInput("date range end is before start", nil)
	}

	q, err := s.statusScope(s.db.WithContext(ctx).Model(&models.Order{}), f.Status)
	if err != nil {
		return nil, err
	}
	q = dateScope(q, f)

	switch {
	case f.DropshipperID != nil:
		q = q.Where("orders.dropshipper_id = ?", *f.DropshipperID)
	case f.SupplierID != nil:
		q = q.Where(`EXISTS (SELECT 1 FROM order_items oi JOIN products p ON p.id = oi.product_id
			WHERE oi.order_id = orders.id AND p.supplier_id = ?)`, *f.SupplierID)
	}

	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, StoreFailure("failed to count orders", err)
	}

	offset, size := utils.Pagination(f.Page, f.PageSize, maxPageSize)
	var orders []models.Order
	err = q.Preload("Items").
		Order("orders.created_at DESC, orders.id DESC").
		Offset(offset).Limit(size).
		Find(&orders).Error
	if err != nil {
		return nil, StoreFailure("failed to list orders", err)
	}

	page := f.Page
	if page <= 0 {
		page = 1
	}
	return &ListResult{Orders: orders, Total: total, Page: page, PageSize: size}, nil
}

func (s *Store) statusScope(q *gorm.DB, status ListStatus) (*gorm.DB, error) {
	switch status {
	case ListActive:
		return q.Where("orders.is_active = ?", true), nil
	case ListInactive:
		return q.Where("orders.is_active = ?", false), nil
	case ListDeleted:
		return q.Unscoped().Where("orders.deleted_at IS NOT NULL"), nil
	case ListNotDeleted:
		return q, nil
	case ListDelivered:
		return q.Where("orders.delivered = ?", true), nil
	case ListRTO:
		return q.Where("orders.rto_delivered = ?", true), nil
	case ListDeliveredOrRTO:
		return q.Where("orders.delivered = ? OR orders.rto_delivered = ?", true, true), nil
	}
	return nil, InvalidInput(fmt.Sprintf("unknown status filter %q", status), nil)
}

// dateScope 供应商和后台视图按状态选择日期列；代发视图始终按下单时间
func dateScope(q *gorm.DB, f ListFilter) *gorm.DB {
	if f.From == nil && f.To == nil {
		return q
	}
	if f.DropshipperID != nil {
		return rangeOn(q, "orders.created_at", f.From, f.To)
	}

	switch f.Status {
	case ListDelivered:
		return rangeOn(q, "orders.delivered_date", f.From, f.To)
	case ListRTO:
		return rangeOn(q, "orders.rto_delivered_date", f.From, f.To)
	case ListDeliveredOrRTO:
		delivered, dArgs := rangeExpr("orders.delivered_date", f.From, f.To)
		rto, rArgs := rangeExpr("orders.rto_delivered_date", f.From, f.To)
		return q.Where("("+delivered+") OR ("+rto+")", append(dArgs, rArgs...)...)
	}
	return rangeOn(q, "orders.created_at", f.From, f.To)
}

func rangeOn(q *gorm.DB, column string, from, to *time.Time) *gorm.DB {
	expr, args := rangeExpr(column, from, to)
	return q.Where(expr, args...)
}

func rangeExpr(column string, from, to *time.Time) (string, []interface{}) {
	var parts []string
	var args []interface{}
	if from != nil {
		parts = append(parts, column+" >= ?")
		args = append(args, *from)
	}
	if to != nil {
		parts = append(parts, column+" <= ?")
		args = append(args, *to)
	}
	return strings.Join(parts, " AND "), args
}
