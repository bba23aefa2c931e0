package order

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Ledger persists orders. Implementations must return ErrNotFound for unknown ids
// and list orders newest first. UpdateOrderStatus only writes when the stored
// status still equals from and returns ErrInvalidTransition otherwise.
type Ledger interface {
	CreateOrder(ctx context.Context, o Order) (string, error)
	GetOrder(ctx context.Context, id string) (Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, id string, from, to Status) error
}

// MemoryLedger keeps orders in process memory.
type MemoryLedger struct {
	mu     sync.RWMutex
	orders map[string]Order
}

// NewMemoryLedger returns an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{orders: map[string]Order{}}
}

func (m *MemoryLedger) CreateOrder(_ context.Context, o Order) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o = cloneOrder(o)
	o.ID = uuid.NewString()
	m.orders[o.ID] = o
	return o.ID, nil
}

func (m *MemoryLedger) GetOrder(_ context.Context, id string) (Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return cloneOrder(o), nil
}

func (m *MemoryLedger) ListOrders(context.Context) ([]Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, cloneOrder(o))
	}
	sortNewestFirst(out)
	return out, nil
}

func (m *MemoryLedger) UpdateOrderStatus(_ context.Context, id string, from, to Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	if o.Status != from {
		return ErrInvalidTransition
	}
	o.Status = to
	m.orders[id] = o
	return nil
}

func sortNewestFirst(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].OrderDate.Equal(orders[j].OrderDate) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].OrderDate.After(orders[j].OrderDate)
	})
}
