package order_test

import (
	"context"
	"testing"
	"time"

	"rto_engine/db/dbtest"
	"rto_engine/models"
	"rto_engine/service/order"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	testNow   = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	testAdmin = models.Actor{ID: 1, Role: models.RoleAdmin}
)

type recordingPublisher struct {
	events []models.OrderEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e models.OrderEvent) error {
	p.events = append(p.events, e)
	return nil
}

func newTestStore(t *testing.T, opts ...order.Option) (*order.Store, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	opts = append([]order.Option{order.WithClock(func() time.Time { return testNow })}, opts...)
	return order.NewStore(conn, zap.NewNop(), opts...), conn
}

func seedProduct(t *testing.T, conn *gorm.DB, supplierID snowflake.ID) models.Product {
	t.Helper()
	p := models.Product{SupplierID: supplierID, Name: "Cotton Kurta", Price: decimal.RequireFromString("499.00")}
	if err := conn.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

func orderInput(base string, productID snowflake.ID) order.CreateOrderInput {
	return order.CreateOrderInput{
		BaseNumber:    base,
		DropshipperID: 77,
		Shipping:      models.Address{Name: "Asha", City: "Pune", Country: "IN"},
		Items: []order.CreateItemInput{
			{ProductID: productID, Quantity: 2, Price: decimal.RequireFromString("250.50")},
		},
	}
}

func mustCreate(t *testing.T, s *order.Store, in order.CreateOrderInput) *models.Order {
	t.Helper()
	o, err := s.Create(context.Background(), testAdmin, in)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return o
}

func assertKind(t *testing.T, err error, want order.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := order.KindOf(err); got != want {
		t.Fatalf("expected %s error, got %s (%v)", want, got, err)
	}
}
