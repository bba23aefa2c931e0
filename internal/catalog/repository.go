package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a product does not exist.
var ErrNotFound = errors.New("catalog: product not found")

// Filter narrows product listings.
type Filter struct {
	Category   string
	ActiveOnly bool
}

// Repository persists catalog products.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// MemoryRepository keeps products in process memory.
type MemoryRepository struct {
	mu       sync.RWMutex
	products map[string]Product
	now      func() time.Time
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{products: map[string]Product{}, now: time.Now}
}

func (m *MemoryRepository) List(_ context.Context, f Filter) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Product, 0, len(m.products))
	for _, p := range m.products {
		if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
			continue
		}
		if f.ActiveOnly && !p.Active {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *MemoryRepository) Get(_ context.Context, id string) (Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryRepository) Create(_ context.Context, p Product) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := m.now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	m.products[p.ID] = p
	return p, nil
}

func (m *MemoryRepository) SetActive(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return ErrNotFound
	}
	p.Active = active
	p.UpdatedAt = m.now().UTC()
	m.products[id] = p
	return nil
}
