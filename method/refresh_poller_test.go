package method

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"rto_engine/db/dbtest"
	"rto_engine/models"
	"rto_engine/service/order"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var sweepNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeTracker struct {
	mu        sync.Mutex
	responses map[string]string
	calls     []string
}

func (f *fakeTracker) Track(_ context.Context, awb string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, awb)
	body, ok := f.responses[awb]
	if !ok {
		return nil, errors.New("carrier timeout")
	}
	return []byte(body), nil
}

func newSweepStore(t *testing.T) (*order.Store, models.Product) {
	t.Helper()
	conn := dbtest.Open(t)
	store := order.NewStore(conn, zap.NewNop(), order.WithClock(func() time.Time { return sweepNow }))
	p := models.Product{SupplierID: 1, Name: "Mug", Price: decimal.RequireFromString("99")}
	if err := conn.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return store, p
}

func createWithAWB(t *testing.T, s *order.Store, p models.Product, awb string) *models.Order {
	t.Helper()
	ctx := context.Background()
	o, err := s.Create(ctx, models.SystemActor, order.CreateOrderInput{
		Items: []order.CreateItemInput{{ProductID: p.ID, Quantity: 1, Price: p.Price}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if awb != "" {
		raw := fmt.Sprintf(`{"data":{"awb_number":%q,"current_status":"In Transit"}}`, awb)
		if _, err := s.UpdateShippingAPIResult(ctx, models.SystemActor, o.ID, []byte(raw)); err != nil {
			t.Fatalf("set awb: %v", err)
		}
	}
	return o
}

func TestRunOncePollsAndStamps(t *testing.T) {
	s, p := newSweepStore(t)
	ctx := context.Background()

	delivered := createWithAWB(t, s, p, "AWB-D")
	rto := createWithAWB(t, s, p, "AWB-R")
	failing := createWithAWB(t, s, p, "AWB-X")
	noAWB := createWithAWB(t, s, p, "")

	tracker := &fakeTracker{responses: map[string]string{
		"AWB-D": `{"data":{"awb_number":"AWB-D","current_status":"Delivered"}}`,
		"AWB-R": `{"data":{"awb_number":"AWB-R","current_status":"RTO DELIVERED"}}`,
	}}
	poller := NewRefreshPoller(s, tracker, nil, zap.NewNop(), time.Minute, 2)

	report, err := poller.RunOnce(ctx)
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	want := SweepReport{Locked: true, Selected: 4, Polled: 2, NoAWB: 1, Failed: 1, Delivered: 1, RTODelivered: 1}
	if report != want {
		t.Fatalf("unexpected report %+v, want %+v", report, want)
	}

	for _, o := range []*models.Order{delivered, rto, failing, noAWB} {
		got, err := s.Get(ctx, o.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.LastRefreshAt == nil || !got.LastRefreshAt.Equal(sweepNow) {
			t.Fatalf("order %s not stamped: %v", got.OrderNumber, got.LastRefreshAt)
		}
	}
	if got, _ := s.Get(ctx, delivered.ID); !got.Delivered {
		t.Fatal("carrier delivered status should mark the order delivered")
	}
	if got, _ := s.Get(ctx, rto.ID); !got.RTODelivered {
		t.Fatal("carrier rto status should mark the order rto delivered")
	}

	// 刚刷新过的订单在窗口期内不会再被选中
	report, err = poller.RunOnce(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.Selected != 0 {
		t.Fatalf("expected nothing stale right after a sweep, got %d", report.Selected)
	}
}

type busyLocker struct{}

func (busyLocker) TryLock(context.Context, string, time.Duration) (func(), bool, error) {
	return func() {}, false, nil
}

func TestRunOnceSkipsWhenLocked(t *testing.T) {
	s, p := newSweepStore(t)
	createWithAWB(t, s, p, "AWB-1")
	tracker := &fakeTracker{}

	report, err := NewRefreshPoller(s, tracker, busyLocker{}, zap.NewNop(), time.Minute, 1).RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if report.Locked || report.Selected != 0 || len(tracker.calls) != 0 {
		t.Fatalf("locked sweep should do nothing, got %+v calls=%v", report, tracker.calls)
	}
}

func TestLocalLockerIsExclusive(t *testing.T) {
	l := NewLocalLocker()
	release, ok, _ := l.TryLock(context.Background(), "k", time.Second)
	if !ok {
		t.Fatal("first lock should succeed")
	}
	if _, ok, _ := l.TryLock(context.Background(), "k", time.Second); ok {
		t.Fatal("second lock should fail while held")
	}
	release()
	if _, ok, _ := l.TryLock(context.Background(), "k", time.Second); !ok {
		t.Fatal("lock should be available after release")
	}
}

func TestSchedulerStopsOnCancel(t *testing.T) {
	s, _ := newSweepStore(t)
	poller := NewRefreshPoller(s, &fakeTracker{}, nil, zap.NewNop(), time.Minute, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		StartRefreshScheduler(ctx, poller, 10*time.Millisecond, zap.NewNop())
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}

func TestRunOnceKeepsAWBWhenCarrierOmitsIt(t *testing.T) {
	s, p := newSweepStore(t)
	ctx := context.Background()
	o := createWithAWB(t, s, p, "AWB-1")

	tracker := &fakeTracker{responses: map[string]string{
		"AWB-1": `{"data":{"current_status":"In Transit","scan":"Hub"}}`,
	}}
	poller := NewRefreshPoller(s, tracker, nil, zap.NewNop(), time.Minute, 1)
	if _, err := poller.RunOnce(ctx); err != nil {
		t.Fatalf("run once: %v", err)
	}

	got, err := s.Get(ctx, o.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.AWBNumber == nil || *got.AWBNumber != "AWB-1" {
		t.Fatalf("awb should survive a response without awb_number, got %v", got.AWBNumber)
	}
	if !strings.Contains(string(got.ShippingAPIResult), `"Hub"`) {
		t.Fatalf("raw result should be refreshed, got %s", got.ShippingAPIResult)
	}
}

func TestRunOnceTakesNewAWBFromCarrier(t *testing.T) {
	s, p := newSweepStore(t)
	ctx := context.Background()
	o := createWithAWB(t, s, p, "AWB-OLD")

	tracker := &fakeTracker{responses: map[string]string{
		"AWB-OLD": `{"data":{"awb_number":"AWB-NEW","current_status":"In Transit"}}`,
	}}
	if _, err := NewRefreshPoller(s, tracker, nil, zap.NewNop(), time.Minute, 1).RunOnce(ctx); err != nil {
		t.Fatalf("run once: %v", err)
	}
	got, _ := s.Get(ctx, o.ID)
	if got.AWBNumber == nil || *got.AWBNumber != "AWB-NEW" {
		t.Fatalf("expected reassigned awb, got %v", got.AWBNumber)
	}
}

// blockingTracker 阻塞到上下文取消
type blockingTracker struct {
	mu      sync.Mutex
	started chan string
	calls   []string
}

func (b *blockingTracker) Track(ctx context.Context, awb string) ([]byte, error) {
	b.mu.Lock()
	b.calls = append(b.calls, awb)
	b.mu.Unlock()
	b.started <- awb
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRunOnceStopsDispatchingOnCancel(t *testing.T) {
	s, p := newSweepStore(t)
	for _, awb := range []string{"AWB-1", "AWB-2", "AWB-3"} {
		createWithAWB(t, s, p, awb)
	}

	tracker := &blockingTracker{started: make(chan string, 3)}
	poller := NewRefreshPoller(s, tracker, nil, zap.NewNop(), time.Minute, 1)

	ctx, cancel := context.WithCancel(context.Background())
	type result struct {
		report SweepReport
		err    error
	}
	done := make(chan result, 1)
	go func() {
		report, err := poller.RunOnce(ctx)
		done <- result{report, err}
	}()

	var first string
	select {
	case first = <-tracker.started:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep did not start polling")
	}
	cancel()

	var res result
	select {
	case res = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep did not return after cancel")
	}
	if res.err != nil {
		t.Fatalf("run once: %v", res.err)
	}
	if res.report.Selected != 3 || res.report.Failed != 1 || res.report.Polled != 0 {
		t.Fatalf("unexpected report %+v", res.report)
	}
	tracker.mu.Lock()
	calls := len(tracker.calls)
	tracker.mu.Unlock()
	if calls != 1 {
		t.Fatalf("no further orders should be dispatched after cancel, got %d calls", calls)
	}

	// 被取消的那一单仍然记录了刷新时间，其余订单留到下一轮
	stale, err := s.SelectStale(context.Background(), sweepNow)
	if err != nil {
		t.Fatalf("select stale: %v", err)
	}
	if len(stale) != 2 {
		t.Fatalf("expected 2 orders left for the next sweep, got %d", len(stale))
	}
	for _, o := range stale {
		if o.AWBNumber != nil && *o.AWBNumber == first {
			t.Fatalf("cancelled order %s should have been stamped", first)
		}
	}
}
