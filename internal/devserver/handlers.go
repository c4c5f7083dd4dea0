package devserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/example/grocery-scan/internal/catalog"
)

const (
	serviceName    = "grocery-devserver"
	serviceVersion = "1.0.0"
)

// envelope is the common response wrapper.
type envelope struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Message    string      `json:"message,omitempty"`
	Pagination *pagination `json:"pagination,omitempty"`
	Timestamp  string      `json:"timestamp,omitempty"`
}

type pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func respondJSON(w http.ResponseWriter, status int, env envelope) {
	env.Timestamp = time.Now().UTC().Format(time.RFC3339)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}

func respondData(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, envelope{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, envelope{Success: false, Error: message})
}

// Handlers serves the product, cart, and health routes.
type Handlers struct {
	store *Store
}

func NewHandlers(store *Store) *Handlers {
	return &Handlers{store: store}
}

// Health reports liveness. Unlike the API routes it replies without the
// envelope.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   serviceName,
		"version":   serviceVersion,
	})
}

// Product Handlers

func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := ProductQuery{
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
		InStock:  r.URL.Query().Get("inStock") == "true",
	}
	q.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	q.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))

	products, total := h.store.ListProducts(q)

	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	totalPages := (total + limit - 1) / limit
	respondJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    products,
		Pagination: &pagination{
			Page: page, Limit: limit, Total: total, TotalPages: totalPages,
		},
	})
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, ok := h.store.GetProduct(r.PathValue("productId"))
	if !ok {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}
	respondData(w, http.StatusOK, product)
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	product, ok := decodeProduct(w, r)
	if !ok {
		return
	}
	if _, exists := h.store.GetProduct(product.ProductID); exists {
		respondError(w, http.StatusConflict, "Product already exists")
		return
	}
	h.store.PutProduct(product)
	respondData(w, http.StatusCreated, product)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	product, ok := decodeProduct(w, r)
	if !ok {
		return
	}
	product.ProductID = r.PathValue("productId")
	if _, exists := h.store.GetProduct(product.ProductID); !exists {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}
	h.store.PutProduct(product)
	respondData(w, http.StatusOK, product)
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if !h.store.DeleteProduct(r.PathValue("productId")) {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}
	respondJSON(w, http.StatusOK, envelope{Success: true, Message: "Product deleted"})
}

// Cart Handlers

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, h.store.GetCart(r.PathValue("sessionId")))
}

func (h *Handlers) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ProductID == "" || req.Quantity <= 0 {
		respondError(w, http.StatusBadRequest, "productId and a positive quantity are required")
		return
	}

	sessionID := r.PathValue("sessionId")
	if err := h.store.AddCartItem(sessionID, req.ProductID, req.Quantity); err != nil {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}
	respondData(w, http.StatusOK, h.store.GetCart(sessionID))
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sessionID := r.PathValue("sessionId")
	h.store.SetCartQuantity(sessionID, r.PathValue("productId"), req.Quantity)
	respondData(w, http.StatusOK, h.store.GetCart(sessionID))
}

func (h *Handlers) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	h.store.RemoveCartItem(r.PathValue("sessionId"), r.PathValue("productId"))
	respondJSON(w, http.StatusOK, envelope{Success: true, Message: "Item removed"})
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.store.ClearCart(r.PathValue("sessionId"))
	respondJSON(w, http.StatusOK, envelope{Success: true, Message: "Cart cleared"})
}

func decodeProduct(w http.ResponseWriter, r *http.Request) (catalog.Product, bool) {
	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return p, false
	}
	if p.ProductID == "" && r.PathValue("productId") == "" {
		respondError(w, http.StatusBadRequest, "productId is required")
		return p, false
	}
	if p.MRPPrice < 0 {
		respondError(w, http.StatusBadRequest, "mrpPrice must be non-negative")
		return p, false
	}
	return p, true
}
