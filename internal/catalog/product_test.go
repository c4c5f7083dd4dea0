package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intPtr(n int) *int { return &n }

// ============================================
// Availability Tests
// ============================================

func TestProduct_CheckAvailability_StockAsymmetry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		stock    *int
		expected Availability
	}{
		{"absent stock is available", nil, Available},
		{"zero stock is out of stock", intPtr(0), OutOfStock},
		{"negative stock is out of stock", intPtr(-2), OutOfStock},
		{"positive stock is available", intPtr(7), Available},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Product{ProductID: "P001", Name: "Milk", MRPPrice: 45, Stock: tt.stock}
			assert.Equal(t, tt.expected, p.CheckAvailability(now))
		})
	}
}

func TestProduct_CheckAvailability_Expiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		expiry   string
		expected Availability
	}{
		{"no expiry date", "", Available},
		{"future expiry", "2026-06-01", Available},
		{"same-day expiry still sellable", "2026-03-01", Available},
		{"past expiry", "2026-02-27", Expired},
		{"unparseable expiry ignored", "soon", Available},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Product{ProductID: "P001", Name: "Yogurt", MRPPrice: 30, ExpiryDate: tt.expiry}
			assert.Equal(t, tt.expected, p.CheckAvailability(now))
		})
	}
}

func TestProduct_CheckAvailability_OutOfStockWinsOverExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	p := &Product{ProductID: "P001", Stock: intPtr(0), ExpiryDate: "2020-01-01"}

	assert.Equal(t, OutOfStock, p.CheckAvailability(now))
	assert.False(t, p.IsAvailable(now))
}

func TestAvailability_String(t *testing.T) {
	assert.Equal(t, "available", Available.String())
	assert.Equal(t, "out of stock", OutOfStock.String())
	assert.Equal(t, "expired", Expired.String())
}
