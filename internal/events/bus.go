package events

import (
	"log"

	evbus "github.com/asaskevich/EventBus"
)

// Bus is the in-process channel between the scan source and the basket sink.
// Publishing is synchronous: subscribers run before Publish returns, which
// preserves the ordering guarantees of the pipeline.
type Bus struct {
	bus evbus.Bus
}

func NewBus() *Bus {
	return &Bus{bus: evbus.New()}
}

func (b *Bus) PublishScan(evt ScanDetected) {
	b.bus.Publish(TopicScanDetected, evt)
}

func (b *Bus) SubscribeScan(handler func(ScanDetected)) {
	if err := b.bus.Subscribe(TopicScanDetected, handler); err != nil {
		log.Printf("[Events] Failed to subscribe to %s: %v", TopicScanDetected, err)
	}
}

func (b *Bus) PublishBasketChange(evt BasketChanged) {
	b.bus.Publish(TopicBasketChanged, evt)
}

func (b *Bus) SubscribeBasketChange(handler func(BasketChanged)) {
	if err := b.bus.Subscribe(TopicBasketChanged, handler); err != nil {
		log.Printf("[Events] Failed to subscribe to %s: %v", TopicBasketChanged, err)
	}
}
