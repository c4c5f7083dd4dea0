package events

import "time"

const (
	TopicScanDetected  = "scan.detected"
	TopicBasketChanged = "basket.changed"
)

// ScanDetected is published once per accepted (non-duplicate) barcode hit.
type ScanDetected struct {
	SessionID string    `json:"sessionId"`
	Barcode   string    `json:"barcode"`
	Format    string    `json:"format"`
	At        time.Time `json:"at"`
}

// BasketChanged is published after every local basket mutation.
type BasketChanged struct {
	SessionID string    `json:"sessionId"`
	Op        string    `json:"op"` // add, update, remove, clear, refresh
	ProductID string    `json:"productId,omitempty"`
	ItemCount int       `json:"itemCount"`
	Subtotal  float64   `json:"subtotal"`
	At        time.Time `json:"at"`
}
