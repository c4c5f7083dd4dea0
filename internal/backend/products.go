package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/example/grocery-scan/internal/catalog"
)

// ProductQuery narrows a catalog listing.
type ProductQuery struct {
	Search   string
	Category string
	InStock  bool
	Page     int
	Limit    int
}

func (q ProductQuery) values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.InStock {
		v.Set("inStock", "true")
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// ListProducts fetches a page of the catalog, optionally filtered.
func (c *Client) ListProducts(ctx context.Context, query ProductQuery) ([]catalog.Product, *Pagination, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/products", query.values(), nil)
	if err != nil {
		return nil, nil, err
	}

	var products []catalog.Product
	if err := decodeData(env, &products); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, env.Pagination, nil
		}
		return nil, nil, err
	}
	return products, env.Pagination, nil
}

// GetProduct looks up one product by id. A 404 maps to ErrNotFound.
func (c *Client) GetProduct(ctx context.Context, productID string) (*catalog.Product, error) {
	if productID == "" {
		return nil, &APIError{Kind: KindValidation, Message: "productId is required"}
	}

	env, err := c.do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(productID), nil, nil)
	if err != nil {
		if apiErr, ok := AsAPIError(err); ok && apiErr.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var product catalog.Product
	if err := decodeData(env, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct registers a new catalog entry (admin surface).
func (c *Client) CreateProduct(ctx context.Context, product catalog.Product) (*catalog.Product, error) {
	if product.ProductID == "" || product.Name == "" {
		return nil, &APIError{Kind: KindValidation, Message: "productId and name are required"}
	}
	if product.MRPPrice < 0 {
		return nil, &APIError{Kind: KindValidation, Message: "mrpPrice must be non-negative"}
	}

	env, err := c.do(ctx, http.MethodPost, "/api/products", nil, product)
	if err != nil {
		return nil, err
	}
	var created catalog.Product
	if err := decodeData(env, &created); err != nil {
		if errors.Is(err, ErrNotFound) {
			return &product, nil
		}
		return nil, err
	}
	return &created, nil
}

// UpdateProduct replaces a catalog entry (admin surface).
func (c *Client) UpdateProduct(ctx context.Context, product catalog.Product) error {
	if product.ProductID == "" {
		return &APIError{Kind: KindValidation, Message: "productId is required"}
	}
	_, err := c.do(ctx, http.MethodPut, "/api/products/"+url.PathEscape(product.ProductID), nil, product)
	return err
}

// DeleteProduct removes a catalog entry (admin surface).
func (c *Client) DeleteProduct(ctx context.Context, productID string) error {
	if productID == "" {
		return &APIError{Kind: KindValidation, Message: "productId is required"}
	}
	_, err := c.do(ctx, http.MethodDelete, "/api/products/"+url.PathEscape(productID), nil, nil)
	return err
}
