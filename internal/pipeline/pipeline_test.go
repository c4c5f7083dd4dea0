package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/grocery-scan/internal/backend"
	"github.com/example/grocery-scan/internal/basket"
	"github.com/example/grocery-scan/internal/catalog"
	"github.com/example/grocery-scan/internal/events"
	"github.com/example/grocery-scan/internal/scanner"
)

type stubResolver struct {
	mu       sync.Mutex
	products map[string]*catalog.Product
	err      error
	calls    []string
}

func (r *stubResolver) Resolve(ctx context.Context, barcode string) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, barcode)
	if r.err != nil {
		return nil, r.err
	}
	return r.products[barcode], nil
}

func (r *stubResolver) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type recordingStatus struct {
	mu       sync.Mutex
	messages []string
	types    []scanner.StatusType
}

func (s *recordingStatus) SetLoading(loading bool) {}

func (s *recordingStatus) Report(message string, statusType scanner.StatusType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, message)
	s.types = append(s.types, statusType)
}

func (s *recordingStatus) last() (string, scanner.StatusType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		return "", ""
	}
	return s.messages[len(s.messages)-1], s.types[len(s.types)-1]
}

func newTestPipeline(r *stubResolver) (*Pipeline, *basket.Basket, *recordingStatus, *events.Bus) {
	bus := events.NewBus()
	b := basket.New("s-1")
	status := &recordingStatus{}
	p := New("s-1", r, b, status, bus)
	return p, b, status, bus
}

func TestPipeline_ScanAddsAvailableProduct(t *testing.T) {
	r := &stubResolver{products: map[string]*catalog.Product{
		"P001": {ProductID: "P001", Name: "Milk", MRPPrice: 45},
	}}
	p, b, status, bus := newTestPipeline(r)

	var changes []events.BasketChanged
	bus.SubscribeBasketChange(func(evt events.BasketChanged) { changes = append(changes, evt) })

	bus.PublishScan(events.ScanDetected{SessionID: "s-1", Barcode: "P001"})
	p.Wait()

	assert.Equal(t, 1, b.Totals().ItemCount)
	msg, typ := status.last()
	assert.Equal(t, "Added Milk", msg)
	assert.Equal(t, scanner.StatusSuccess, typ)
	require.Len(t, changes, 1)
	assert.Equal(t, "add", changes[0].Op)
	assert.Equal(t, 1, changes[0].ItemCount)
}

func TestPipeline_RepeatScanIncrements(t *testing.T) {
	r := &stubResolver{products: map[string]*catalog.Product{
		"P001": {ProductID: "P001", Name: "Milk", MRPPrice: 45},
	}}
	p, b, _, bus := newTestPipeline(r)

	bus.PublishScan(events.ScanDetected{Barcode: "P001"})
	p.Wait()
	bus.PublishScan(events.ScanDetected{Barcode: "P001"})
	p.Wait()

	item, ok := b.Get("P001")
	require.True(t, ok)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, 2, b.Totals().ItemCount)
}

func TestPipeline_NotFound(t *testing.T) {
	r := &stubResolver{products: map[string]*catalog.Product{}}
	p, b, status, bus := newTestPipeline(r)

	bus.PublishScan(events.ScanDetected{Barcode: "unknown"})
	p.Wait()

	assert.Empty(t, b.Items())
	msg, typ := status.last()
	assert.Equal(t, "Product not found: unknown", msg)
	assert.Equal(t, scanner.StatusError, typ)
}

func TestPipeline_NetworkError(t *testing.T) {
	r := &stubResolver{err: &backend.APIError{Kind: backend.KindServer, Message: "boom"}}
	p, b, status, bus := newTestPipeline(r)

	bus.PublishScan(events.ScanDetected{Barcode: "P001"})
	p.Wait()

	assert.Empty(t, b.Items())
	_, typ := status.last()
	assert.Equal(t, scanner.StatusError, typ)
}

func TestPipeline_AvailabilityGate(t *testing.T) {
	zero := 0
	r := &stubResolver{products: map[string]*catalog.Product{
		"P001": {ProductID: "P001", Name: "Milk", MRPPrice: 45, Stock: &zero},
		"P002": {ProductID: "P002", Name: "Yogurt", MRPPrice: 30, ExpiryDate: "2020-01-01"},
	}}
	p, b, status, bus := newTestPipeline(r)
	p.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }

	bus.PublishScan(events.ScanDetected{Barcode: "P001"})
	p.Wait()
	msg, typ := status.last()
	assert.Equal(t, "Milk is out of stock", msg)
	assert.Equal(t, scanner.StatusError, typ)

	bus.PublishScan(events.ScanDetected{Barcode: "P002"})
	p.Wait()
	msg, _ = status.last()
	assert.Equal(t, "Yogurt is expired", msg)

	assert.Empty(t, b.Items(), "unavailable products never mutate the basket")
}

func TestPipeline_UnknownStockIsSellable(t *testing.T) {
	r := &stubResolver{products: map[string]*catalog.Product{
		"P001": {ProductID: "P001", Name: "Rice", MRPPrice: 80},
	}}
	p, b, _, bus := newTestPipeline(r)

	bus.PublishScan(events.ScanDetected{Barcode: "P001"})
	p.Wait()

	assert.Equal(t, 1, b.Totals().ItemCount)
	assert.Equal(t, 1, r.callCount())
}
