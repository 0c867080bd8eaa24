// Package catalog stores item type metadata (names, categories, sell prices)
// keyed by cargo.ItemType, with numeric handles for compact transport.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gravitas-games/cargoyard/pkg/cargo"
)

var (
	// ErrUnknownType is returned for item types that were never registered.
	ErrUnknownType = errors.New("catalog: unknown item type")
	// ErrNumericIDConflict is returned when a numeric id is reused.
	ErrNumericIDConflict = errors.New("catalog: numeric id conflict")
)

// NumericID is a compact handle for an item type. IDs start at 1.
type NumericID int64

// ItemType captures what the simulation knows about a kind of cargo.
type ItemType struct {
	ID         cargo.ItemType    `yaml:"id" json:"id"`
	NumericID  NumericID         `yaml:"numeric_id" json:"numericId,omitempty"`
	Name       string            `yaml:"name" json:"name,omitempty"`
	Category   string            `yaml:"category" json:"category,omitempty"`
	Price      int               `yaml:"price" json:"price"`
	Attributes map[string]string `yaml:"attributes" json:"attributes,omitempty"`
}

// Catalog is safe for concurrent use.
type Catalog struct {
	mu     sync.RWMutex
	types  map[cargo.ItemType]ItemType
	byNum  map[NumericID]cargo.ItemType
	nextID NumericID
}

// New builds a catalog seeded with types. Invalid seeds are reported.
func New(types ...ItemType) (*Catalog, error) {
	c := &Catalog{
		types: make(map[cargo.ItemType]ItemType, len(types)),
		byNum: make(map[NumericID]cargo.ItemType, len(types)),
	}
	for _, t := range types {
		if err := c.Register(t); err != nil {
			return nil, fmt.Errorf("seed %q: %w", t.ID, err)
		}
	}
	return c, nil
}

// Register inserts or updates an item type. An existing numeric id is kept
// when the update leaves it zero.
func (c *Catalog) Register(t ItemType) error {
	if t.ID == "" {
		return errors.New("catalog: item type missing id")
	}
	if t.Price < 0 {
		return fmt.Errorf("catalog: negative price for %q", t.ID)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.types[t.ID]; ok {
		if t.NumericID == 0 {
			t.NumericID = existing.NumericID
		} else if t.NumericID != existing.NumericID {
			return fmt.Errorf("%w: %q already has %d", ErrNumericIDConflict, t.ID, existing.NumericID)
		}
	}
	switch {
	case t.NumericID == 0:
		c.nextID++
		t.NumericID = c.nextID
	case t.NumericID < 0:
		return fmt.Errorf("catalog: numeric id must be positive for %q", t.ID)
	default:
		if owner, taken := c.byNum[t.NumericID]; taken && owner != t.ID {
			return fmt.Errorf("%w: %d belongs to %q", ErrNumericIDConflict, t.NumericID, owner)
		}
		if t.NumericID > c.nextID {
			c.nextID = t.NumericID
		}
	}
	c.types[t.ID] = t
	c.byNum[t.NumericID] = t.ID
	return nil
}

// Lookup returns the item type, if present.
func (c *Catalog) Lookup(id cargo.ItemType) (ItemType, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.types[id]
	return t, ok
}

// LookupNumeric resolves a numeric handle.
func (c *Catalog) LookupNumeric(n NumericID) (ItemType, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byNum[n]
	if !ok {
		return ItemType{}, false
	}
	t, ok := c.types[id]
	return t, ok
}

// PriceOf returns the sell price of one unit.
func (c *Catalog) PriceOf(id cargo.ItemType) (int, error) {
	t, ok := c.Lookup(id)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, id)
	}
	return t.Price, nil
}

// Export lists all types ordered by numeric id.
func (c *Catalog) Export() []ItemType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ItemType, 0, len(c.types))
	for _, t := range c.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NumericID < out[j].NumericID })
	return out
}
