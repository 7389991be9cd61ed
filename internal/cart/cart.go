// Package cart implements the per-tenant cart aggregate. The cart is a
// convenience cache, not the system of record: it lives in an injected
// storage backend keyed by tenant subdomain and is only read back at
// checkout time.
package cart

import (
	"encoding/json"
	"sync"
)

// Item is one cart line. At most one entry exists per (product_id, size) pair.
type Item struct {
	ProductID uint     `json:"product_id"`
	Name      string   `json:"name"`
	Price     float64  `json:"price"`
	ImageURLs []string `json:"image_urls,omitempty"`
	Size      string   `json:"size,omitempty"`
	Quantity  int      `json:"quantity"`
	SellerID  uint     `json:"seller_id"`
}

// Product is the subset of catalog data a cart line snapshots.
type Product struct {
	ID        uint
	Name      string
	Price     float64
	ImageURLs []string
	SellerID  uint
}

// Storage persists the serialized cart. Implementations may be backed by
// browser-local storage, a session store, or memory in tests.
type Storage interface {
	Load(key string) ([]byte, bool)
	Save(key string, data []byte)
	Delete(key string)
}

// Subscriber receives a notification after every cart mutation.
type Subscriber func()

// Manager manipulates the cart for one tenant.
type Manager struct {
	subdomain   string
	storageKey  string
	storage     Storage
	mu          sync.Mutex
	subscribers []Subscriber
}

// NewManager creates a cart manager for the given tenant subdomain.
func NewManager(subdomain string, storage Storage) *Manager {
	return &Manager{
		subdomain:  subdomain,
		storageKey: "cart_" + subdomain,
		storage:    storage,
	}
}

// Subscribe registers a callback invoked after every mutation, so observers
// such as a cart-count badge can refresh without a full reload.
func (m *Manager) Subscribe(fn Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

// Items returns the current cart contents. Storage unavailability or a
// corrupt payload is treated as an empty cart.
func (m *Manager) Items() []Item {
	data, ok := m.storage.Load(m.storageKey)
	if !ok {
		return nil
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	return items
}

// AddItem adds quantity of a product to the cart. An existing
// (product_id, size) entry has its quantity incremented rather than being
// duplicated.
func (m *Manager) AddItem(product Product, size string, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	items := m.Items()
	found := false
	for i := range items {
		if items[i].ProductID == product.ID && items[i].Size == size {
			items[i].Quantity += quantity
			found = true
			break
		}
	}

	if !found {
		items = append(items, Item{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			ImageURLs: product.ImageURLs,
			Size:      size,
			Quantity:  quantity,
			SellerID:  product.SellerID,
		})
	}

	m.save(items)
}

// UpdateQuantity sets the quantity for a (product_id, size) entry. A
// quantity of zero or less removes the entry.
func (m *Manager) UpdateQuantity(productID uint, size string, quantity int) {
	items := m.Items()
	for i := range items {
		if items[i].ProductID == productID && items[i].Size == size {
			if quantity <= 0 {
				items = append(items[:i], items[i+1:]...)
			} else {
				items[i].Quantity = quantity
			}
			m.save(items)
			return
		}
	}
}

// RemoveItem removes the (product_id, size) entry from the cart.
func (m *Manager) RemoveItem(productID uint, size string) {
	items := m.Items()
	kept := items[:0]
	for _, it := range items {
		if !(it.ProductID == productID && it.Size == size) {
			kept = append(kept, it)
		}
	}
	m.save(kept)
}

// Clear empties the cart. Called by the buyer flow only after a successful
// checkout response.
func (m *Manager) Clear() {
	m.storage.Delete(m.storageKey)
	m.notify()
}

// ItemCount returns the total quantity across all lines.
func (m *Manager) ItemCount() int {
	count := 0
	for _, it := range m.Items() {
		count += it.Quantity
	}
	return count
}

// Total returns the sum of price times quantity across all lines.
func (m *Manager) Total() float64 {
	total := 0.0
	for _, it := range m.Items() {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

func (m *Manager) save(items []Item) {
	data, err := json.Marshal(items)
	if err != nil {
		return
	}
	m.storage.Save(m.storageKey, data)
	m.notify()
}

func (m *Manager) notify() {
	m.mu.Lock()
	subs := make([]Subscriber, len(m.subscribers))
	copy(subs, m.subscribers)
	m.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// MemoryStorage is an in-process Storage implementation.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStorage creates an empty in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

func (s *MemoryStorage) Load(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[key]
	return data, ok
}

func (s *MemoryStorage) Save(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = data
}

func (s *MemoryStorage) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}
