package basket

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/grocery-scan/internal/backend"
	"github.com/example/grocery-scan/internal/catalog"
	"github.com/example/grocery-scan/internal/storage"
)

// mockSyncer records remote calls and can be made to fail or block.
type mockSyncer struct {
	mu      sync.Mutex
	Calls   []string
	Err     error
	Lines   []backend.CartLine
	GetErr  error
	blockCh chan struct{}
}

func (m *mockSyncer) record(call string) error {
	if m.blockCh != nil {
		<-m.blockCh
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
	return m.Err
}

func (m *mockSyncer) CallList() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Calls...)
}

func (m *mockSyncer) GetCart(ctx context.Context, sessionID string) ([]backend.CartLine, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.Lines, nil
}

func (m *mockSyncer) AddCartItem(ctx context.Context, sessionID, productID string, quantity int) error {
	return m.record("add:" + productID)
}

func (m *mockSyncer) UpdateCartItem(ctx context.Context, sessionID, productID string, quantity int) error {
	return m.record("update:" + productID)
}

func (m *mockSyncer) RemoveCartItem(ctx context.Context, sessionID, productID string) error {
	return m.record("remove:" + productID)
}

func (m *mockSyncer) ClearCart(ctx context.Context, sessionID string) error {
	return m.record("clear")
}

func milk() *catalog.Product {
	return &catalog.Product{ProductID: "P001", Name: "Milk", MRPPrice: 45.5, Category: "dairy"}
}

func bread() *catalog.Product {
	return &catalog.Product{ProductID: "P002", Name: "Bread", MRPPrice: 30, Category: "bakery"}
}

// ============================================
// Local Mutation Tests
// ============================================

func TestBasket_AddOrIncrement_Uniqueness(t *testing.T) {
	b := New("s-1")

	b.AddOrIncrement(milk())
	b.AddOrIncrement(milk())
	b.AddOrIncrement(bread())
	b.AddOrIncrement(milk())

	items := b.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "P001", items[0].ID)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, 1, items[1].Quantity)
}

func TestBasket_AddOrIncrement_PriceSnapshot(t *testing.T) {
	b := New("s-1")
	p := milk()
	b.AddOrIncrement(p)

	// A later catalog price change must not alter the stored line price.
	p.MRPPrice = 99
	b.AddOrIncrement(p)

	item, ok := b.Get("P001")
	require.True(t, ok)
	assert.Equal(t, 45.5, item.Price)
	assert.Equal(t, 2, item.Quantity)
}

func TestBasket_SetQuantity(t *testing.T) {
	b := New("s-1")
	b.AddOrIncrement(milk())

	b.SetQuantity("P001", 5)
	item, _ := b.Get("P001")
	assert.Equal(t, 5, item.Quantity)

	// Exact set, not a delta
	b.SetQuantity("P001", 2)
	item, _ = b.Get("P001")
	assert.Equal(t, 2, item.Quantity)

	// Unknown id is a no-op
	b.SetQuantity("P999", 4)
	assert.Len(t, b.Items(), 1)
}

func TestBasket_SetQuantity_ZeroRemoves(t *testing.T) {
	b := New("s-1")
	b.AddOrIncrement(milk())
	b.SetQuantity("P001", 3)

	b.SetQuantity("P001", 0)

	_, ok := b.Get("P001")
	assert.False(t, ok)
	assert.Equal(t, 0, b.Totals().ItemCount)

	b.AddOrIncrement(milk())
	b.SetQuantity("P001", -2)
	assert.Empty(t, b.Items())
}

func TestBasket_Remove(t *testing.T) {
	b := New("s-1")
	b.AddOrIncrement(milk())

	b.Remove("P001")
	assert.Empty(t, b.Items())

	// Removing an absent id is a no-op
	b.Remove("P001")
	assert.Empty(t, b.Items())
}

func TestBasket_Clear(t *testing.T) {
	b := New("s-1")
	b.AddOrIncrement(milk())
	b.AddOrIncrement(bread())
	for i := 0; i < 3; i++ {
		b.AddOrIncrement(&catalog.Product{ProductID: "P10" + string(rune('0'+i)), Name: "X", MRPPrice: 1})
	}
	require.Len(t, b.Items(), 5)

	b.Clear()

	assert.Empty(t, b.Items())
	assert.Equal(t, Totals{DeliveryFee: DeliveryFee}, b.Totals())
}

func TestBasket_Totals(t *testing.T) {
	b := New("s-1")
	b.AddOrIncrement(milk())  // 45.5
	b.AddOrIncrement(milk())  // 91.0
	b.AddOrIncrement(bread()) // 121.0

	totals := b.Totals()
	assert.InDelta(t, 121.0, totals.Subtotal, 1e-9)
	assert.Equal(t, 3, totals.ItemCount)
	assert.Equal(t, 0.0, totals.DeliveryFee)
	assert.InDelta(t, 121.0, totals.Total, 1e-9)

	// Recomputed fresh after every mutation
	b.SetQuantity("P002", 2)
	assert.InDelta(t, 151.0, b.Totals().Subtotal, 1e-9)
}

// ============================================
// Optimistic Sync Tests
// ============================================

func TestBasket_OptimisticAdd_LocalStateBeforeSyncCompletes(t *testing.T) {
	syncer := &mockSyncer{blockCh: make(chan struct{})}
	b := New("s-1", WithSyncer(syncer))

	b.AddOrIncrement(milk())

	// The remote call is still blocked; local state already reflects the add.
	assert.Equal(t, 1, b.Totals().ItemCount)
	assert.Empty(t, syncer.CallList())

	close(syncer.blockCh)
	b.Flush()
	assert.Equal(t, []string{"add:P001"}, syncer.CallList())
}

func TestBasket_SyncFailureDoesNotRollBack(t *testing.T) {
	syncer := &mockSyncer{Err: errors.New("backend down")}
	b := New("s-1", WithSyncer(syncer))

	b.AddOrIncrement(milk())
	b.Flush()

	item, ok := b.Get("P001")
	require.True(t, ok)
	assert.Equal(t, 1, item.Quantity)
}

func TestBasket_MutationsIssueMatchingSyncCalls(t *testing.T) {
	syncer := &mockSyncer{}
	b := New("s-1", WithSyncer(syncer), WithSyncTimeout(time.Second))

	b.AddOrIncrement(milk())
	b.Flush()
	b.SetQuantity("P001", 4)
	b.Flush()
	b.SetQuantity("P001", 0)
	b.Flush()
	b.AddOrIncrement(bread())
	b.Flush()
	b.Clear()
	b.Flush()

	assert.Equal(t, []string{"add:P001", "update:P001", "remove:P001", "add:P002", "clear"}, syncer.CallList())
}

func TestBasket_NoSyncWithoutSyncer(t *testing.T) {
	b := New("s-1")
	b.AddOrIncrement(milk())
	b.Flush() // must not hang or panic
	assert.Equal(t, 1, b.Totals().ItemCount)
}

// ============================================
// Refresh / Persistence Tests
// ============================================

func TestBasket_Refresh_ReplacesLocalState(t *testing.T) {
	syncer := &mockSyncer{Lines: []backend.CartLine{
		{ID: "P005", Name: "Eggs", Price: 60, Quantity: 2},
		{ID: "P006", Name: "Ghost", Price: 10, Quantity: 0}, // dropped
	}}
	b := New("s-1", WithSyncer(syncer))
	b.AddOrIncrement(milk())

	require.NoError(t, b.Refresh(context.Background()))

	items := b.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "P005", items[0].ID)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestBasket_Refresh_ErrorKeepsLocalState(t *testing.T) {
	syncer := &mockSyncer{GetErr: errors.New("unreachable")}
	b := New("s-1", WithSyncer(syncer))
	b.AddOrIncrement(milk())

	err := b.Refresh(context.Background())

	assert.Error(t, err)
	assert.Equal(t, 1, b.Totals().ItemCount)
}

func TestBasket_SnapshotSurvivesRestart(t *testing.T) {
	store := storage.NewMemoryStore()

	b := New("s-1", WithStore(store))
	b.AddOrIncrement(milk())
	b.AddOrIncrement(milk())
	b.AddOrIncrement(bread())

	restored := New("s-1", WithStore(store))

	items := restored.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[0].Quantity)
	assert.InDelta(t, 121.0, restored.Totals().Subtotal, 1e-9)
}
