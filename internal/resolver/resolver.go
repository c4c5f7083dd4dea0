package resolver

import (
	"context"
	"errors"
	"log"

	"github.com/example/grocery-scan/internal/backend"
	"github.com/example/grocery-scan/internal/catalog"
)

var ErrEmptyBarcode = errors.New("barcode is empty")

// CatalogClient is the slice of the backend client the resolver needs.
type CatalogClient interface {
	GetProduct(ctx context.Context, productID string) (*catalog.Product, error)
	ListProducts(ctx context.Context, query backend.ProductQuery) ([]catalog.Product, *backend.Pagination, error)
}

// Resolver maps a raw barcode value to a catalog product. By convention the
// barcode equals the catalog productId, so the direct lookup is tried first
// and a free-text search is the fallback.
type Resolver struct {
	catalog CatalogClient
}

func New(catalogClient CatalogClient) *Resolver {
	return &Resolver{catalog: catalogClient}
}

// Resolve returns the product for barcode, or (nil, nil) when nothing in the
// catalog matches. Errors are only returned when both the direct lookup and
// the search fallback failed for reasons other than an empty result.
func (r *Resolver) Resolve(ctx context.Context, barcode string) (*catalog.Product, error) {
	if barcode == "" {
		return nil, ErrEmptyBarcode
	}

	product, err := r.catalog.GetProduct(ctx, barcode)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, backend.ErrNotFound) {
		log.Printf("[Resolver] Direct lookup for %q failed, falling back to search: %v", barcode, err)
	}

	results, _, searchErr := r.catalog.ListProducts(ctx, backend.ProductQuery{Search: barcode})
	if searchErr != nil {
		return nil, searchErr
	}
	for i := range results {
		if results[i].ProductID == barcode {
			return &results[i], nil
		}
	}
	if len(results) > 0 {
		return &results[0], nil
	}
	return nil, nil
}
