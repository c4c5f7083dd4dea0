package catalog

import "time"

// Product is a catalog entry as served by the backend. It is read-only on
// the client side; identity is ProductID.
type Product struct {
	ProductID  string  `json:"productId"`
	Name       string  `json:"name"`
	MRPPrice   float64 `json:"mrpPrice"`
	Image      string  `json:"image,omitempty"`
	Category   string  `json:"category,omitempty"`
	Discounts  string  `json:"discounts,omitempty"`
	Stock      *int    `json:"stock,omitempty"`
	ExpiryDate string  `json:"expiryDate,omitempty"`
}

const expiryLayout = "2006-01-02"

// Availability describes why a product can or cannot be sold.
type Availability int

const (
	Available Availability = iota
	OutOfStock
	Expired
)

func (a Availability) String() string {
	switch a {
	case OutOfStock:
		return "out of stock"
	case Expired:
		return "expired"
	default:
		return "available"
	}
}

// CheckAvailability applies the sale gate. Absent stock means unknown and is
// treated as available; only a present zero (or negative) stock blocks the
// sale. An expiry date that does not parse is ignored.
func (p *Product) CheckAvailability(now time.Time) Availability {
	if p.Stock != nil && *p.Stock <= 0 {
		return OutOfStock
	}
	if p.ExpiryDate != "" {
		if exp, err := time.Parse(expiryLayout, p.ExpiryDate); err == nil {
			if exp.Before(now.Truncate(24 * time.Hour)) {
				return Expired
			}
		}
	}
	return Available
}

// IsAvailable reports whether the product passes the sale gate.
func (p *Product) IsAvailable(now time.Time) bool {
	return p.CheckAvailability(now) == Available
}
