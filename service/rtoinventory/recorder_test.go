package rtoinventory_test

import (
	"context"
	"errors"
	"testing"

	"rto_engine/db/dbtest"
	"rto_engine/models"
	"rto_engine/service/order"
	"rto_engine/service/rtoinventory"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var warehouse = models.Actor{ID: 5, Role: models.RoleAdmin}

func setup(t *testing.T) (*rtoinventory.Recorder, *models.Order, *gorm.DB) {
	t.Helper()
	r, store, o, conn := setupOrder(t)
	ctx := context.Background()
	if _, err := store.MarkRTODelivered(ctx, models.SystemActor, o.ID, true); err != nil {
		t.Fatalf("mark rto: %v", err)
	}
	if _, err := store.MarkCollectedAtWarehouse(ctx, warehouse, o.ID); err != nil {
		t.Fatalf("mark collected: %v", err)
	}
	return r, o, conn
}

// setupOrder 创建尚未退回的订单
func setupOrder(t *testing.T) (*rtoinventory.Recorder, *order.Store, *models.Order, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	store := order.NewStore(conn, zap.NewNop())

	p := models.Product{SupplierID: 4, Name: "Desk Lamp", Price: decimal.RequireFromString("899")}
	if err := conn.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	o, err := store.Create(context.Background(), warehouse, order.CreateOrderInput{
		DropshipperID: 12,
		Items: []order.CreateItemInput{
			{ProductID: p.ID, Quantity: 2, Price: decimal.RequireFromString("899")},
			{ProductID: p.ID, Quantity: 1, Price: decimal.RequireFromString("899")},
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return rtoinventory.NewRecorder(store, zap.NewNop()), store, o, conn
}

func inputFor(o *models.Order, item models.OrderItem) rtoinventory.RecordInput {
	return rtoinventory.RecordInput{
		OrderID:       o.ID,
		OrderItemID:   item.ID,
		DropshipperID: o.DropshipperID,
		ProductID:     item.ProductID,
		Quantity:      item.Quantity,
		Price:         item.Price,
	}
}

func TestRecordIsIdempotentPerItem(t *testing.T) {
	r, o, conn := setup(t)
	ctx := context.Background()
	in := inputFor(o, o.Items[0])

	first, created, err := r.Record(ctx, warehouse, in)
	if err != nil || !created {
		t.Fatalf("first record: created=%v err=%v", created, err)
	}

	second, created, err := r.Record(ctx, warehouse, in)
	if created {
		t.Fatal("second record should not create a row")
	}
	if order.KindOf(err) != order.KindConflict || !errors.Is(err, rtoinventory.ErrAlreadyRecorded) {
		t.Fatalf("expected already recorded conflict, got %v", err)
	}
	if second == nil || second.ID != first.ID {
		t.Fatalf("expected the first row back, got %+v", second)
	}

	var count int64
	if err := conn.Model(&models.RTOInventory{}).Where("order_item_id = ?", in.OrderItemID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one row, got %d", count)
	}
}

func TestUniqueIndexBacksIdempotence(t *testing.T) {
	_, o, conn := setup(t)
	item := o.Items[0]

	row := models.RTOInventory{OrderID: o.ID, OrderItemID: item.ID, ProductID: item.ProductID, Quantity: 1, Price: item.Price}
	if err := conn.Create(&row).Error; err != nil {
		t.Fatalf("first insert: %v", err)
	}
	dup := models.RTOInventory{OrderID: o.ID, OrderItemID: item.ID, ProductID: item.ProductID, Quantity: 1, Price: item.Price}
	if err := conn.Create(&dup).Error; !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected duplicated key, got %v", err)
	}
}

func TestRecordValidatesItemOwnership(t *testing.T) {
	r, o, _ := setup(t)
	in := inputFor(o, o.Items[0])
	in.OrderItemID = 424242

	_, _, err := r.Record(context.Background(), warehouse, in)
	if order.KindOf(err) != order.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	in = inputFor(o, o.Items[0])
	in.Quantity = 0
	_, _, err = r.Record(context.Background(), warehouse, in)
	if order.KindOf(err) != order.KindInvalidInput {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestListForOrder(t *testing.T) {
	r, o, _ := setup(t)
	ctx := context.Background()
	for _, item := range o.Items {
		if _, _, err := r.Record(ctx, warehouse, inputFor(o, item)); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	rows, err := r.ListForOrder(ctx, o.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
}

func TestRecordRequiresReturnedOrder(t *testing.T) {
	r, store, o, conn := setupOrder(t)
	ctx := context.Background()
	in := inputFor(o, o.Items[0])

	_, created, err := r.Record(ctx, warehouse, in)
	if created || order.KindOf(err) != order.KindInvalidTransition {
		t.Fatalf("order never returned: created=%v err=%v", created, err)
	}

	if _, err := store.MarkRTODelivered(ctx, models.SystemActor, o.ID, true); err != nil {
		t.Fatalf("mark rto: %v", err)
	}
	_, created, err = r.Record(ctx, warehouse, in)
	if created || order.KindOf(err) != order.KindInvalidTransition {
		t.Fatalf("order not collected: created=%v err=%v", created, err)
	}

	var count int64
	if err := conn.Model(&models.RTOInventory{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejected records must not write rows, got %d", count)
	}

	if _, err := store.MarkCollectedAtWarehouse(ctx, warehouse, o.ID); err != nil {
		t.Fatalf("mark collected: %v", err)
	}
	if _, created, err = r.Record(ctx, warehouse, in); err != nil || !created {
		t.Fatalf("returned order: created=%v err=%v", created, err)
	}
}
