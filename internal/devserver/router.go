package devserver

import (
	"log"
	"net/http"
)

// NewRouter assembles the full dev-server HTTP surface.
func NewRouter(handlers *Handlers, authHandlers *AuthHandlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handlers.Health)

	// Products
	mux.HandleFunc("GET /api/products", handlers.ListProducts)
	mux.HandleFunc("POST /api/products", handlers.CreateProduct)
	mux.HandleFunc("GET /api/products/{productId}", handlers.GetProduct)
	mux.HandleFunc("PUT /api/products/{productId}", handlers.UpdateProduct)
	mux.HandleFunc("DELETE /api/products/{productId}", handlers.DeleteProduct)

	// Cart
	mux.HandleFunc("GET /api/cart/{sessionId}", handlers.GetCart)
	mux.HandleFunc("POST /api/cart/{sessionId}/items", handlers.AddCartItem)
	mux.HandleFunc("DELETE /api/cart/{sessionId}/items", handlers.ClearCart)
	mux.HandleFunc("PUT /api/cart/{sessionId}/items/{productId}", handlers.UpdateCartItem)
	mux.HandleFunc("DELETE /api/cart/{sessionId}/items/{productId}", handlers.RemoveCartItem)

	// Auth
	mux.HandleFunc("POST /api/auth/register", authHandlers.Register)
	mux.HandleFunc("POST /api/auth/login", authHandlers.Login)
	mux.HandleFunc("POST /api/auth/logout", authHandlers.Logout)
	mux.HandleFunc("POST /api/auth/refresh", authHandlers.Refresh)
	mux.HandleFunc("GET /api/auth/profile", authHandlers.Profile)

	return withLogging(mux)
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[DevServer] %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
