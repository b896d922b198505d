// Package catalog keeps an in-memory snapshot of the product catalog used
// to ground order parsing. Snapshots are immutable and versioned; readers
// always see a complete catalog while a reload is in flight.
package catalog

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

type Product struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	UnitPrice float64 `json:"unit_price"`
	InStock   bool    `json:"in_stock"`
}

// Snapshot is one immutable catalog version. Products are ordered by name.
type Snapshot struct {
	Version  int64     `json:"version"`
	LoadedAt time.Time `json:"loaded_at"`
	Products []Product `json:"products"`
}

// Lister loads the full product list from the backing store.
type Lister interface {
	ListProducts(ctx context.Context) ([]Product, error)
}

// Store holds the current snapshot. Reads are lock-free; Reload serializes
// writers so concurrent reloads cannot interleave versions.
type Store struct {
	lister  Lister
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
}

func NewStore(lister Lister) *Store {
	s := &Store{lister: lister}
	s.current.Store(&Snapshot{Products: []Product{}})
	return s
}

// Current returns the latest snapshot. Version 0 means no reload has
// succeeded yet.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Reload fetches the product list and publishes it as a new snapshot. On
// failure the previous snapshot stays current.
func (s *Store) Reload(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.lister.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if products == nil {
		products = []Product{}
	}

	snapshot := &Snapshot{
		Version:  s.current.Load().Version + 1,
		LoadedAt: time.Now().UTC(),
		Products: products,
	}
	s.current.Store(snapshot)
	return snapshot, nil
}

// FindByName returns the product whose name matches exactly, if any.
func (s *Snapshot) FindByName(name string) (Product, bool) {
	for _, product := range s.Products {
		if product.Name == name {
			return product, true
		}
	}
	return Product{}, false
}
