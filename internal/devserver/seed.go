package devserver

import "github.com/example/grocery-scan/internal/catalog"

func intPtr(n int) *int { return &n }

// SeedProducts is the default catalog fixture set. It includes an
// out-of-stock and an expired product so client flows can exercise the
// availability gate locally.
func SeedProducts() []catalog.Product {
	return []catalog.Product{
		{ProductID: "P001", Name: "Whole Milk 1L", MRPPrice: 45.5, Category: "dairy", Image: "/img/p001.jpg", Stock: intPtr(24)},
		{ProductID: "P002", Name: "Brown Bread", MRPPrice: 30, Category: "bakery", Image: "/img/p002.jpg", Stock: intPtr(12)},
		{ProductID: "P003", Name: "Basmati Rice 5kg", MRPPrice: 420, Category: "staples", Discounts: "10% off"},
		{ProductID: "P004", Name: "Free Range Eggs 12pk", MRPPrice: 72, Category: "dairy", Stock: intPtr(0)},
		{ProductID: "P005", Name: "Greek Yogurt 400g", MRPPrice: 85, Category: "dairy", ExpiryDate: "2024-01-15"},
		{ProductID: "8901234567890", Name: "Instant Coffee 100g", MRPPrice: 210, Category: "beverages", Stock: intPtr(7)},
	}
}
