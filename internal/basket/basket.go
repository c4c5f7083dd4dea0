package basket

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/example/grocery-scan/internal/backend"
	"github.com/example/grocery-scan/internal/catalog"
	"github.com/example/grocery-scan/internal/storage"
)

// DeliveryFee is the flat delivery charge added to every order.
const DeliveryFee = 0.0

const snapshotKey = "basket:snapshot"

// Item is one product's presence in the basket. Price is a snapshot of the
// catalog price at the moment the item was first added.
type Item struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Image    string  `json:"image,omitempty"`
	Category string  `json:"category,omitempty"`
	Discount string  `json:"discount,omitempty"`
	Quantity int     `json:"quantity"`
}

// Totals is derived state, recomputed on every read.
type Totals struct {
	Subtotal    float64 `json:"subtotal"`
	ItemCount   int     `json:"itemCount"`
	DeliveryFee float64 `json:"deliveryFee"`
	Total       float64 `json:"total"`
}

// Syncer mirrors local mutations to the remote cart. *backend.Client
// satisfies it.
type Syncer interface {
	GetCart(ctx context.Context, sessionID string) ([]backend.CartLine, error)
	AddCartItem(ctx context.Context, sessionID, productID string, quantity int) error
	UpdateCartItem(ctx context.Context, sessionID, productID string, quantity int) error
	RemoveCartItem(ctx context.Context, sessionID, productID string) error
	ClearCart(ctx context.Context, sessionID string) error
}

// Basket holds the session's line items. Every mutation is applied locally
// first, then mirrored to the remote cart in the background; a failed sync is
// logged and never rolls the local state back.
type Basket struct {
	mu    sync.Mutex
	items map[string]*Item

	sessionID   string
	syncer      Syncer
	store       storage.Store
	syncTimeout time.Duration

	pending sync.WaitGroup
}

// Option configures a Basket.
type Option func(*Basket)

// WithSyncer enables background synchronization to the remote cart.
func WithSyncer(s Syncer) Option {
	return func(b *Basket) { b.syncer = s }
}

// WithStore enables local snapshot persistence across restarts.
func WithStore(s storage.Store) Option {
	return func(b *Basket) { b.store = s }
}

// WithSyncTimeout bounds each background sync call.
func WithSyncTimeout(d time.Duration) Option {
	return func(b *Basket) { b.syncTimeout = d }
}

// New creates a basket for the session, restoring any persisted snapshot.
func New(sessionID string, opts ...Option) *Basket {
	b := &Basket{
		items:       make(map[string]*Item),
		sessionID:   sessionID,
		syncTimeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.restore()
	return b
}

// AddOrIncrement inserts the product at quantity 1, or bumps the existing
// line by one. The local state reflects the change before any remote call
// is issued.
func (b *Basket) AddOrIncrement(product *catalog.Product) {
	if product == nil || product.ProductID == "" {
		return
	}

	b.mu.Lock()
	item, ok := b.items[product.ProductID]
	if ok {
		item.Quantity++
	} else {
		b.items[product.ProductID] = &Item{
			ID:       product.ProductID,
			Name:     product.Name,
			Price:    product.MRPPrice,
			Image:    product.Image,
			Category: product.Category,
			Discount: product.Discounts,
			Quantity: 1,
		}
	}
	b.persistLocked()
	b.mu.Unlock()

	b.syncAsync("add", func(ctx context.Context, s Syncer) error {
		return s.AddCartItem(ctx, b.sessionID, product.ProductID, 1)
	})
}

// SetQuantity pins the line item to an exact quantity. A quantity of zero or
// less removes the item.
func (b *Basket) SetQuantity(id string, quantity int) {
	if quantity <= 0 {
		b.Remove(id)
		return
	}

	b.mu.Lock()
	item, ok := b.items[id]
	if !ok {
		b.mu.Unlock()
		return
	}
	item.Quantity = quantity
	b.persistLocked()
	b.mu.Unlock()

	b.syncAsync("update", func(ctx context.Context, s Syncer) error {
		return s.UpdateCartItem(ctx, b.sessionID, id, quantity)
	})
}

// Remove deletes the line item if present; removing an absent id is a no-op.
func (b *Basket) Remove(id string) {
	b.mu.Lock()
	_, ok := b.items[id]
	if !ok {
		b.mu.Unlock()
		return
	}
	delete(b.items, id)
	b.persistLocked()
	b.mu.Unlock()

	b.syncAsync("remove", func(ctx context.Context, s Syncer) error {
		return s.RemoveCartItem(ctx, b.sessionID, id)
	})
}

// Clear empties the basket.
func (b *Basket) Clear() {
	b.mu.Lock()
	b.items = make(map[string]*Item)
	b.persistLocked()
	b.mu.Unlock()

	b.syncAsync("clear", func(ctx context.Context, s Syncer) error {
		return s.ClearCart(ctx, b.sessionID)
	})
}

// Items returns the line items ordered by id for stable display.
func (b *Basket) Items() []Item {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Item, 0, len(b.items))
	for _, item := range b.items {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns a copy of one line item.
func (b *Basket) Get(id string) (Item, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	item, ok := b.items[id]
	if !ok {
		return Item{}, false
	}
	return *item, true
}

// Totals recomputes the derived totals from scratch on every call.
func (b *Basket) Totals() Totals {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := Totals{DeliveryFee: DeliveryFee}
	for _, item := range b.items {
		t.Subtotal += item.Price * float64(item.Quantity)
		t.ItemCount += item.Quantity
	}
	t.Total = t.Subtotal + t.DeliveryFee
	return t
}

// Refresh replaces the local basket with the authoritative remote cart. This
// is the only drift-correction mechanism; it runs at startup and on explicit
// user request, never automatically after a failed sync.
func (b *Basket) Refresh(ctx context.Context) error {
	if b.syncer == nil {
		return nil
	}
	lines, err := b.syncer.GetCart(ctx, b.sessionID)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = make(map[string]*Item, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		b.items[line.ID] = &Item{
			ID:       line.ID,
			Name:     line.Name,
			Price:    line.Price,
			Image:    line.Image,
			Category: line.Category,
			Discount: line.Discount,
			Quantity: line.Quantity,
		}
	}
	b.persistLocked()
	return nil
}

// Flush waits for in-flight background syncs to finish. Called at shutdown.
func (b *Basket) Flush() {
	b.pending.Wait()
}

// syncAsync mirrors one mutation to the remote cart without blocking the
// caller. Failures are logged only; local state stays authoritative for the
// session.
func (b *Basket) syncAsync(op string, fn func(ctx context.Context, s Syncer) error) {
	if b.syncer == nil {
		return
	}
	b.pending.Add(1)
	go func() {
		defer b.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), b.syncTimeout)
		defer cancel()
		if err := fn(ctx, b.syncer); err != nil {
			log.Printf("[Basket] Background %s sync failed (local state kept): %v", op, err)
		}
	}()
}

// persistLocked snapshots the items to the local store. Caller holds b.mu.
func (b *Basket) persistLocked() {
	if b.store == nil {
		return
	}
	if err := storage.SetJSON(b.store, snapshotKey, b.items); err != nil {
		log.Printf("[Basket] Failed to persist snapshot: %v", err)
	}
}

// restore loads the persisted snapshot, dropping any invalid lines.
func (b *Basket) restore() {
	if b.store == nil {
		return
	}
	var items map[string]*Item
	ok, err := storage.GetJSON(b.store, snapshotKey, &items)
	if err != nil {
		log.Printf("[Basket] Failed to restore snapshot: %v", err)
		return
	}
	if !ok {
		return
	}
	for id, item := range items {
		if item == nil || item.Quantity <= 0 || id == "" {
			delete(items, id)
		}
	}
	b.items = items
	if b.items == nil {
		b.items = make(map[string]*Item)
	}
}
