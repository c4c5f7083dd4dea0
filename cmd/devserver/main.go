package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/grocery-scan/internal/auth"
	"github.com/example/grocery-scan/internal/devserver"
)

func main() {
	addr := getEnv("DEVSERVER_ADDR", ":8080")
	jwtSecret := getEnv("JWT_SECRET", "local-development-secret-do-not-ship")
	if len(jwtSecret) < 32 {
		log.Fatal("[DevServer] JWT_SECRET must be at least 32 characters long")
	}

	store := devserver.NewStore()
	store.Seed(devserver.SeedProducts())

	issuer := auth.NewTokenIssuer(
		jwtSecret,
		15*time.Minute, // Access token expiry
		7*24*time.Hour, // Refresh token expiry (7 days)
	)

	router := devserver.NewRouter(
		devserver.NewHandlers(store),
		devserver.NewAuthHandlers(store, issuer),
	)

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Println("[DevServer] ========================================")
		log.Printf("[DevServer] Grocery dev backend on %s", addr)
		log.Println("[DevServer] In-memory stores, seeded catalog")
		log.Println("[DevServer] ========================================")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[DevServer] Server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[DevServer] Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
