package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/example/grocery-scan/internal/backend"
	"github.com/example/grocery-scan/internal/storage"
)

const (
	keyAccessToken  = "auth:accessToken"
	keyRefreshToken = "auth:refreshToken"
	keyGuestID      = "session:guestId"
	keyUser         = "auth:user"
)

// AuthClient is the slice of the backend client the session manager drives.
type AuthClient interface {
	Register(ctx context.Context, email, password, name string) (*backend.AuthData, error)
	Login(ctx context.Context, email, password string) (*backend.AuthData, error)
	Logout(ctx context.Context) error
	RefreshToken(ctx context.Context, refreshToken string) (*backend.AuthData, error)
	Profile(ctx context.Context) (*backend.User, error)
}

// Manager owns the client-side identity: a durable guest id used as the cart
// session key, and an optional access token for an authenticated account.
// It implements backend.TokenProvider.
type Manager struct {
	mu    sync.Mutex
	store storage.Store
	api   AuthClient

	token      string
	refresh    string
	user       *backend.User
	refreshing bool
}

// NewManager loads persisted identity from the store.
func NewManager(store storage.Store) *Manager {
	m := &Manager{store: store}
	if token, ok, err := store.Get(keyAccessToken); err == nil && ok {
		m.token = string(token)
	}
	if token, ok, err := store.Get(keyRefreshToken); err == nil && ok {
		m.refresh = string(token)
	}
	var user backend.User
	if ok, err := storage.GetJSON(store, keyUser, &user); err == nil && ok {
		m.user = &user
	}
	return m
}

// Bind attaches the backend client once it exists. The client and manager
// reference each other, so construction happens in two steps.
func (m *Manager) Bind(api AuthClient) {
	m.mu.Lock()
	m.api = api
	m.mu.Unlock()
}

// GuestID returns the durable guest identifier, creating and persisting one
// on first use. It keys the remote cart.
func (m *Manager) GuestID() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if raw, ok, err := m.store.Get(keyGuestID); err == nil && ok {
		return string(raw)
	}
	id := "guest-" + uuid.New().String()
	if err := m.store.Set(keyGuestID, []byte(id)); err != nil {
		log.Printf("[Session] Failed to persist guest id: %v", err)
	}
	return id
}

// User returns the logged-in account, if any.
func (m *Manager) User() *backend.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// AccessToken implements backend.TokenProvider. An expired token triggers
// one refresh attempt; on failure the session degrades to guest.
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	token := m.token
	refresh := m.refresh
	api := m.api
	refreshing := m.refreshing
	m.mu.Unlock()

	if token == "" || !tokenExpired(token) {
		return token
	}
	if api == nil || refreshing {
		// The refresh call itself lands here; send no stale token with it.
		return ""
	}
	if refresh == "" {
		log.Printf("[Session] Access token expired with no refresh token, continuing as guest")
		m.clearToken()
		return ""
	}

	m.mu.Lock()
	m.refreshing = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.refreshing = false
		m.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	data, err := api.RefreshToken(ctx, refresh)
	if err != nil {
		log.Printf("[Session] Token refresh failed, continuing as guest: %v", err)
		m.clearToken()
		return ""
	}
	m.storeAuth(data)
	return data.AccessToken
}

// Register creates an account and logs in.
func (m *Manager) Register(ctx context.Context, email, password, name string) (*backend.User, error) {
	data, err := m.apiClient().Register(ctx, email, password, name)
	if err != nil {
		return nil, err
	}
	m.storeAuth(data)
	return &data.User, nil
}

// Login authenticates and caches the token.
func (m *Manager) Login(ctx context.Context, email, password string) (*backend.User, error) {
	data, err := m.apiClient().Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	m.storeAuth(data)
	return &data.User, nil
}

// Logout drops local credentials; the remote call is best effort.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.apiClient().Logout(ctx); err != nil {
		log.Printf("[Session] Remote logout failed: %v", err)
	}
	m.clearToken()
}

func (m *Manager) apiClient() AuthClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.api
}

func (m *Manager) storeAuth(data *backend.AuthData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = data.AccessToken
	m.refresh = data.RefreshToken
	m.user = &data.User
	if err := m.store.Set(keyAccessToken, []byte(data.AccessToken)); err != nil {
		log.Printf("[Session] Failed to persist access token: %v", err)
	}
	if err := m.store.Set(keyRefreshToken, []byte(data.RefreshToken)); err != nil {
		log.Printf("[Session] Failed to persist refresh token: %v", err)
	}
	if err := storage.SetJSON(m.store, keyUser, data.User); err != nil {
		log.Printf("[Session] Failed to persist user: %v", err)
	}
}

func (m *Manager) clearToken() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.refresh = ""
	m.user = nil
	if err := m.store.Delete(keyAccessToken); err != nil {
		log.Printf("[Session] Failed to clear access token: %v", err)
	}
	if err := m.store.Delete(keyRefreshToken); err != nil {
		log.Printf("[Session] Failed to clear refresh token: %v", err)
	}
	if err := m.store.Delete(keyUser); err != nil {
		log.Printf("[Session] Failed to clear user: %v", err)
	}
}

// tokenExpired inspects the exp claim without verifying the signature; the
// client has no signing secret and only needs the expiry.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		// Opaque token: let the backend decide.
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now().Add(30 * time.Second))
}
