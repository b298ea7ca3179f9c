package db_test

import (
	"testing"

	"rto_engine/db/dbtest"
)

func TestRunMigrationsCreatesTables(t *testing.T) {
	conn := dbtest.Open(t)

	for _, table := range []string{"orders", "order_items", "rto_inventories", "products", "product_variants", "payments"} {
		if !conn.Migrator().HasTable(table) {
			t.Errorf("expected table %s", table)
		}
	}
	if !conn.Migrator().HasIndex("rto_inventories", "idx_rto_inventories_order_item_id") {
		t.Error("expected unique index on rto_inventories.order_item_id")
	}
	if !conn.Migrator().HasIndex("orders", "idx_orders_order_number") {
		t.Error("expected unique index on orders.order_number")
	}
}
