package pipeline

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/example/grocery-scan/internal/basket"
	"github.com/example/grocery-scan/internal/catalog"
	"github.com/example/grocery-scan/internal/events"
	"github.com/example/grocery-scan/internal/scanner"
)

// ProductResolver maps a barcode to a catalog product.
type ProductResolver interface {
	Resolve(ctx context.Context, barcode string) (*catalog.Product, error)
}

// BasketSink receives available products.
type BasketSink interface {
	AddOrIncrement(product *catalog.Product)
	Totals() basket.Totals
}

// StatusReporter is the single user-visible error surface: one status line
// with a severity. *scanner.Scanner satisfies it.
type StatusReporter interface {
	SetLoading(loading bool)
	Report(message string, statusType scanner.StatusType)
}

// Pipeline subscribes to scan detections and drives resolution, the
// availability gate, and basket reconciliation. Each detection is processed
// on its own goroutine so the acquisition loop never blocks on the network.
type Pipeline struct {
	resolver  ProductResolver
	basket    BasketSink
	status    StatusReporter
	bus       *events.Bus
	sessionID string
	timeout   time.Duration
	now       func() time.Time

	wg sync.WaitGroup
}

func New(sessionID string, r ProductResolver, b BasketSink, status StatusReporter, bus *events.Bus) *Pipeline {
	p := &Pipeline{
		resolver:  r,
		basket:    b,
		status:    status,
		bus:       bus,
		sessionID: sessionID,
		timeout:   30 * time.Second,
		now:       time.Now,
	}
	bus.SubscribeScan(p.handleScan)
	return p
}

// handleScan runs on the publisher's goroutine; the heavy lifting moves off
// it immediately.
func (p *Pipeline) handleScan(evt events.ScanDetected) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.process(evt)
	}()
}

// Wait blocks until all in-flight detections have been processed. Used at
// shutdown and in tests.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

func (p *Pipeline) process(evt events.ScanDetected) {
	p.status.SetLoading(true)
	defer p.status.SetLoading(false)

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	product, err := p.resolver.Resolve(ctx, evt.Barcode)
	if err != nil {
		log.Printf("[Pipeline] Resolution of %q failed: %v", evt.Barcode, err)
		p.status.Report("Network error while looking up "+evt.Barcode, scanner.StatusError)
		return
	}
	if product == nil {
		p.status.Report("Product not found: "+evt.Barcode, scanner.StatusError)
		return
	}

	if avail := product.CheckAvailability(p.now()); avail != catalog.Available {
		p.status.Report(product.Name+" is "+avail.String(), scanner.StatusError)
		return
	}

	p.basket.AddOrIncrement(product)
	p.status.Report("Added "+product.Name, scanner.StatusSuccess)

	totals := p.basket.Totals()
	p.bus.PublishBasketChange(events.BasketChanged{
		SessionID: p.sessionID,
		Op:        "add",
		ProductID: product.ProductID,
		ItemCount: totals.ItemCount,
		Subtotal:  totals.Subtotal,
		At:        p.now(),
	})
}
