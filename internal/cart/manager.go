package cart

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/pkg/kv"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

// Manager owns the in-memory cart and keeps it mirrored in the persistent
// store. Every mutation and its write-through happen under one lock, so a
// caller never observes a mutation without its persistence half.
//
// Lines keep insertion order; the order carries no meaning but must stay
// stable for display.
type Manager struct {
	mu      sync.Mutex
	store   kv.Store
	cartKey string
	logger  *logger.Logger
	metrics *metrics.ClientMetrics

	lines []Line
}

// NewManager constructs the container and loads any previously persisted
// cart. Corrupt or absent data degrades to an empty cart; no write can
// happen before this load because mutations require the returned *Manager.
func NewManager(ctx context.Context, store kv.Store, cartKey string, logg *logger.Logger, m *metrics.ClientMetrics) (*Manager, error) {
	if store == nil {
		return nil, errors.New("cart store is required")
	}
	if cartKey == "" {
		return nil, errors.New("cart key is required")
	}
	if logg == nil {
		return nil, errors.New("cart logger is required")
	}

	mgr := &Manager{
		store:   store,
		cartKey: cartKey,
		logger:  logg,
		metrics: m,
		lines:   []Line{},
	}
	mgr.load(ctx)
	return mgr, nil
}

func (m *Manager) load(ctx context.Context) {
	raw, err := m.store.Get(ctx, m.cartKey)
	if kv.IsNotFound(err) {
		return
	}
	if err != nil {
		m.logger.Warn(m.logger.WithField(ctx, "error", err.Error()), "could not read stored cart")
		return
	}

	var lines []Line
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		m.logger.Warn(m.logger.WithField(ctx, "error", err.Error()), "stored cart is corrupt, starting empty")
		return
	}
	if lines == nil {
		lines = []Line{}
	}
	m.lines = lines
	m.logger.Debug(ctx, "cart loaded from store")
}

// Add merges quantity into the existing line for the product, or appends a
// new line. Quantity is taken as given; callers are expected to pass >= 1.
func (m *Manager) Add(ctx context.Context, product catalog.Product, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := false
	for i := range m.lines {
		if m.lines[i].ID == product.ID {
			m.lines[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		m.lines = append(m.lines, Line{Product: product, Quantity: quantity})
	}

	m.metrics.IncMutation("add")
	return m.persistLocked(ctx)
}

// UpdateQuantity replaces the quantity of the matching line. The raw value
// may be a numeric string; anything that does not parse to an integer >= 1
// is a removal request. Unknown ids are a no-op.
func (m *Manager) UpdateQuantity(ctx context.Context, productID int64, raw string) error {
	quantity, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || quantity < 1 {
		return m.Remove(ctx, productID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.lines {
		if m.lines[i].ID == productID {
			m.lines[i].Quantity = quantity
			break
		}
	}

	m.metrics.IncMutation("update")
	return m.persistLocked(ctx)
}

// Remove drops the line with the matching id; absent ids are not an error.
func (m *Manager) Remove(ctx context.Context, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.lines[:0]
	for _, line := range m.lines {
		if line.ID != productID {
			kept = append(kept, line)
		}
	}
	m.lines = kept

	m.metrics.IncMutation("remove")
	return m.persistLocked(ctx)
}

// Clear empties the cart unconditionally.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lines = []Line{}

	m.metrics.IncMutation("clear")
	return m.persistLocked(ctx)
}

// Lines returns a copy of the cart in insertion order.
func (m *Manager) Lines() []Line {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Line, len(m.lines))
	copy(out, m.lines)
	return out
}

// Count is the sum of quantities across all lines, recomputed on every call.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, line := range m.lines {
		total += line.Quantity
	}
	return total
}

// Total is the sum of price times quantity, recomputed on every call.
func (m *Manager) Total() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, line := range m.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

func (m *Manager) persistLocked(ctx context.Context) error {
	raw, err := json.Marshal(m.lines)
	if err != nil {
		m.logger.Error(ctx, "encoding cart", err)
		return err
	}
	if err := m.store.Set(ctx, m.cartKey, string(raw)); err != nil {
		m.logger.Error(ctx, "persisting cart", err)
		return err
	}
	return nil
}
