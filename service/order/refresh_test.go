package order_test

import (
	"context"
	"testing"
	"time"

	"rto_engine/models"
	"rto_engine/service/order"
)

func TestSelectStaleHonoursWindow(t *testing.T) {
	s, conn := newTestStore(t)
	p := seedProduct(t, conn, 9)
	ctx := context.Background()

	old := mustCreate(t, s, orderInput("OLD", p.ID))
	recent := mustCreate(t, s, orderInput("RECENT", p.ID))
	never := mustCreate(t, s, orderInput("NEVER", p.ID))
	delivered := mustCreate(t, s, orderInput("DONE", p.ID))

	if err := s.StampRefreshed(ctx, old.ID, testNow.Add(-2*time.Hour)); err != nil {
		t.Fatalf("stamp: %v", err)
	}
	if err := s.StampRefreshed(ctx, recent.ID, testNow.Add(-30*time.Minute)); err != nil {
		t.Fatalf("stamp: %v", err)
	}
	if _, err := s.MarkDelivered(ctx, testAdmin, delivered.ID, true); err != nil {
		t.Fatalf("mark delivered: %v", err)
	}

	stale, err := s.SelectStale(ctx, testNow)
	if err != nil {
		t.Fatalf("select stale: %v", err)
	}
	if len(stale) != 2 {
		t.Fatalf("expected 2 stale orders, got %d", len(stale))
	}
	if stale[0].ID != never.ID || stale[1].ID != old.ID {
		t.Fatalf("expected never-refreshed first then oldest, got %s, %s", stale[0].OrderNumber, stale[1].OrderNumber)
	}
	if len(stale[0].Items) != 1 || stale[0].Items[0].Product == nil || stale[0].Items[0].Product.ID != p.ID {
		t.Fatalf("items and product not preloaded: %+v", stale[0].Items)
	}
}

func TestSelectStaleRespectsBatchSize(t *testing.T) {
	s, conn := newTestStore(t, order.WithRefreshWindow(time.Hour, 2))
	p := seedProduct(t, conn, 9)
	for _, base := range []string{"B1", "B2", "B3"} {
		mustCreate(t, s, orderInput(base, p.ID))
	}

	stale, err := s.SelectStale(context.Background(), testNow)
	if err != nil {
		t.Fatalf("select stale: %v", err)
	}
	if len(stale) != 2 {
		t.Fatalf("expected batch of 2, got %d", len(stale))
	}
}

func TestSelectStaleSkipsDeleted(t *testing.T) {
	s, conn := newTestStore(t)
	p := seedProduct(t, conn, 9)
	o := mustCreate(t, s, orderInput("X", p.ID))
	if err := s.SoftDelete(context.Background(), models.SystemActor, o.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	stale, err := s.SelectStale(context.Background(), testNow)
	if err != nil || len(stale) != 0 {
		t.Fatalf("expected nothing stale, got %d (%v)", len(stale), err)
	}
}
