package storage

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrClosed = errors.New("store is closed")

// Store is a small key-value persistence surface. Values are opaque bytes;
// callers that need structure go through the JSON helpers so the
// serialization contract stays in one place.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// GetJSON loads and unmarshals the value at key into out. Returns false when
// the key is absent.
func GetJSON(s Store, key string, out any) (bool, error) {
	data, ok, err := s.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to decode value for %q: %w", key, err)
	}
	return true, nil
}

// SetJSON marshals value and stores it at key.
func SetJSON(s Store, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value for %q: %w", key, err)
	}
	return s.Set(key, data)
}
