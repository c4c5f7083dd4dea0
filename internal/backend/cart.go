package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

// CartLine is a basket line item as the backend stores it.
type CartLine struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Image    string  `json:"image,omitempty"`
	Category string  `json:"category,omitempty"`
	Discount string  `json:"discount,omitempty"`
	Quantity int     `json:"quantity"`
}

func cartPath(sessionID string) string {
	return "/api/cart/" + url.PathEscape(sessionID)
}

// GetCart fetches the remote cart for a session. An empty cart returns an
// empty slice, not an error.
func (c *Client) GetCart(ctx context.Context, sessionID string) ([]CartLine, error) {
	if sessionID == "" {
		return nil, &APIError{Kind: KindValidation, Message: "sessionId is required"}
	}

	env, err := c.do(ctx, http.MethodGet, cartPath(sessionID), nil, nil)
	if err != nil {
		return nil, err
	}

	var lines []CartLine
	if err := decodeData(env, &lines); err != nil {
		if errors.Is(err, ErrNotFound) {
			return []CartLine{}, nil
		}
		return nil, err
	}
	return lines, nil
}

// AddCartItem appends quantity of a product to the remote cart.
func (c *Client) AddCartItem(ctx context.Context, sessionID, productID string, quantity int) error {
	if sessionID == "" || productID == "" {
		return &APIError{Kind: KindValidation, Message: "sessionId and productId are required"}
	}
	if quantity <= 0 {
		return &APIError{Kind: KindValidation, Message: "quantity must be positive"}
	}

	body := struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}{ProductID: productID, Quantity: quantity}

	_, err := c.do(ctx, http.MethodPost, cartPath(sessionID)+"/items", nil, body)
	return err
}

// UpdateCartItem sets the exact quantity of a line item in the remote cart.
func (c *Client) UpdateCartItem(ctx context.Context, sessionID, productID string, quantity int) error {
	if sessionID == "" || productID == "" {
		return &APIError{Kind: KindValidation, Message: "sessionId and productId are required"}
	}
	if quantity <= 0 {
		return &APIError{Kind: KindValidation, Message: "quantity must be positive"}
	}

	body := struct {
		Quantity int `json:"quantity"`
	}{Quantity: quantity}

	_, err := c.do(ctx, http.MethodPut, cartPath(sessionID)+"/items/"+url.PathEscape(productID), nil, body)
	return err
}

// RemoveCartItem deletes a line item from the remote cart.
func (c *Client) RemoveCartItem(ctx context.Context, sessionID, productID string) error {
	if sessionID == "" || productID == "" {
		return &APIError{Kind: KindValidation, Message: "sessionId and productId are required"}
	}
	_, err := c.do(ctx, http.MethodDelete, cartPath(sessionID)+"/items/"+url.PathEscape(productID), nil, nil)
	return err
}

// ClearCart empties the remote cart.
func (c *Client) ClearCart(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return &APIError{Kind: KindValidation, Message: "sessionId is required"}
	}
	_, err := c.do(ctx, http.MethodDelete, cartPath(sessionID)+"/items", nil, nil)
	return err
}
