package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/example/grocery-scan/internal/backend"
	"github.com/example/grocery-scan/internal/basket"
	"github.com/example/grocery-scan/internal/config"
	"github.com/example/grocery-scan/internal/events"
	"github.com/example/grocery-scan/internal/resilience"
	"github.com/example/grocery-scan/internal/session"
	"github.com/example/grocery-scan/internal/storage"
)

// app bundles the long-lived client objects every subcommand needs. The
// wiring order matters: the session manager supplies tokens to the client,
// and the client performs the manager's auth calls.
type app struct {
	cfg     config.Config
	store   storage.Store
	session *session.Manager
	client  *backend.Client
	basket  *basket.Basket
	bus     *events.Bus
	kafka   *events.KafkaSink
}

func newApp() (*app, error) {
	cfg := config.Load()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	store, err := storage.OpenBolt(filepath.Join(cfg.DataDir, "grocery.db"))
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	sess := session.NewManager(store)
	client := backend.NewClient(backend.Config{
		BaseURL: cfg.APIURL,
		Timeout: cfg.RequestTimeout,
		Retry: &resilience.RetryConfig{
			MaxAttempts: cfg.RetryAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
		},
	}, sess)
	sess.Bind(client)

	bus := events.NewBus()
	a := &app{
		cfg:     cfg,
		store:   store,
		session: sess,
		client:  client,
		basket:  basket.New(sess.GuestID(), basket.WithSyncer(client), basket.WithStore(store)),
		bus:     bus,
	}
	if len(cfg.KafkaBrokers) > 0 {
		a.kafka = events.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		a.kafka.Attach(bus)
	}
	return a, nil
}

// Close flushes pending basket syncs and releases local resources.
func (a *app) Close() {
	a.basket.Flush()
	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil {
			log.Printf("[App] Failed to close Kafka sink: %v", err)
		}
	}
	if err := a.store.Close(); err != nil {
		log.Printf("[App] Failed to close local store: %v", err)
	}
}
