package devserver

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/grocery-scan/internal/catalog"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrEmailTaken      = errors.New("email already registered")
)

// CartLine mirrors the wire shape of a basket line item.
type CartLine struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Image    string  `json:"image,omitempty"`
	Category string  `json:"category,omitempty"`
	Discount string  `json:"discount,omitempty"`
	Quantity int     `json:"quantity"`
}

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Store keeps all dev-server state in memory: the product catalog, one cart
// per session id, and registered users.
type Store struct {
	mu       sync.RWMutex
	products map[string]catalog.Product
	carts    map[string]map[string]*CartLine
	users    map[string]*User // keyed by id
	byEmail  map[string]string
}

func NewStore() *Store {
	return &Store{
		products: make(map[string]catalog.Product),
		carts:    make(map[string]map[string]*CartLine),
		users:    make(map[string]*User),
		byEmail:  make(map[string]string),
	}
}

// Seed loads catalog fixtures, replacing entries with the same id.
func (s *Store) Seed(products []catalog.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range products {
		s.products[p.ProductID] = p
	}
}

// ProductQuery filters ListProducts.
type ProductQuery struct {
	Search   string
	Category string
	InStock  bool
	Page     int
	Limit    int
}

// ListProducts returns one page of matching products plus the total match
// count before paging.
func (s *Store) ListProducts(q ProductQuery) ([]catalog.Product, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]catalog.Product, 0, len(s.products))
	search := strings.ToLower(q.Search)
	for _, p := range s.products {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.ProductID), search) {
			continue
		}
		if q.Category != "" && !strings.EqualFold(p.Category, q.Category) {
			continue
		}
		if q.InStock && p.Stock != nil && *p.Stock <= 0 {
			continue
		}
		matches = append(matches, p)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ProductID < matches[j].ProductID })

	total := len(matches)
	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	start := (page - 1) * limit
	if start >= total {
		return []catalog.Product{}, total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matches[start:end], total
}

func (s *Store) GetProduct(id string) (catalog.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	return p, ok
}

func (s *Store) PutProduct(p catalog.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ProductID] = p
}

func (s *Store) DeleteProduct(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return false
	}
	delete(s.products, id)
	return true
}

// GetCart returns the lines of a session's cart, id-ordered.
func (s *Store) GetCart(sessionID string) []CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := make([]CartLine, 0, len(s.carts[sessionID]))
	for _, line := range s.carts[sessionID] {
		lines = append(lines, *line)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ID < lines[j].ID })
	return lines
}

// AddCartItem merges quantity of the product into the session's cart,
// snapshotting the catalog price on first add.
func (s *Store) AddCartItem(sessionID, productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return ErrProductNotFound
	}
	cart := s.carts[sessionID]
	if cart == nil {
		cart = make(map[string]*CartLine)
		s.carts[sessionID] = cart
	}
	if line, ok := cart[productID]; ok {
		line.Quantity += quantity
		return nil
	}
	cart[productID] = &CartLine{
		ID:       p.ProductID,
		Name:     p.Name,
		Price:    p.MRPPrice,
		Image:    p.Image,
		Category: p.Category,
		Discount: p.Discounts,
		Quantity: quantity,
	}
	return nil
}

// SetCartQuantity pins a line to an exact quantity; zero or less removes it.
func (s *Store) SetCartQuantity(sessionID, productID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.carts[sessionID]
	if cart == nil {
		return
	}
	if quantity <= 0 {
		delete(cart, productID)
		return
	}
	if line, ok := cart[productID]; ok {
		line.Quantity = quantity
	}
}

func (s *Store) RemoveCartItem(sessionID, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts[sessionID], productID)
}

func (s *Store) ClearCart(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
}

// CreateUser registers an account with an already-hashed password.
func (s *Store) CreateUser(email, name, passwordHash string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(email)
	if _, ok := s.byEmail[key]; ok {
		return nil, ErrEmailTaken
	}
	user := &User{
		ID:           "u-" + uuid.New().String(),
		Email:        email,
		Name:         name,
		Role:         "customer",
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	s.users[user.ID] = user
	s.byEmail[key] = user.ID
	return user, nil
}

func (s *Store) UserByEmail(email string) (*User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, false
	}
	return s.users[id], true
}

func (s *Store) UserByID(id string) (*User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}
