package spiketrain

import (
	"errors"
	"fmt"
	"slices"

	"neuroscope/internal/extractor"
)

var (
	// ErrUnknownUnit is returned when a unit id is not present in a collection.
	ErrUnknownUnit = errors.New("unknown unit")
	// ErrDuplicateUnit is returned when adding a unit id that already exists.
	ErrDuplicateUnit = errors.New("duplicate unit")
)

// Unit is a single sorted spike source.
type Unit struct {
	ID    int
	Times []int64
}

// Collection is an ordered set of units.
type Collection struct {
	units []Unit
	index map[int]int
}

// New builds a collection from units, in the given order.
func New(units ...Unit) (*Collection, error) {
	c := &Collection{index: make(map[int]int, len(units))}
	for _, u := range units {
		if err := c.AddUnit(u.ID, u.Times); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Len returns the number of units.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.units)
}

// UnitIDs returns unit ids in collection order.
func (c *Collection) UnitIDs() []int {
	if c == nil {
		return nil
	}
	ids := make([]int, len(c.units))
	for i, u := range c.units {
		ids[i] = u.ID
	}
	return ids
}

// Units returns a deep copy of the units in collection order.
func (c *Collection) Units() []Unit {
	if c == nil {
		return nil
	}
	out := make([]Unit, len(c.units))
	for i, u := range c.units {
		out[i] = Unit{ID: u.ID, Times: slices.Clone(u.Times)}
	}
	return out
}

// NumSpikes returns the total spike count across units.
func (c *Collection) NumSpikes() int {
	if c == nil {
		return 0
	}
	total := 0
	for _, u := range c.units {
		total += len(u.Times)
	}
	return total
}

// AddUnit appends a unit. The spike times are copied.
func (c *Collection) AddUnit(id int, times []int64) error {
	if c.index == nil {
		c.index = make(map[int]int)
	}
	if _, ok := c.index[id]; ok {
		return fmt.Errorf("add unit %d: %w", id, ErrDuplicateUnit)
	}
	c.index[id] = len(c.units)
	c.units = append(c.units, Unit{ID: id, Times: slices.Clone(times)})
	return nil
}

// SpikeTrain returns the spike times of a unit that fall inside r, in stored order.
func (c *Collection) SpikeTrain(id int, r extractor.FrameRange) ([]int64, error) {
	if c == nil {
		return nil, fmt.Errorf("unit %d: %w", id, ErrUnknownUnit)
	}
	pos, ok := c.index[id]
	if !ok {
		return nil, fmt.Errorf("unit %d: %w", id, ErrUnknownUnit)
	}
	times := c.units[pos].Times
	out := make([]int64, 0, len(times))
	for _, t := range times {
		if r.Contains(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// ShiftUnitIDs returns a copy of the collection with every unit id offset by shift.
func (c *Collection) ShiftUnitIDs(shift int) *Collection {
	out := &Collection{index: make(map[int]int, c.Len())}
	for _, u := range c.Units() {
		u.ID += shift
		out.index[u.ID] = len(out.units)
		out.units = append(out.units, u)
	}
	return out
}

// Clone returns a deep copy of the collection.
func (c *Collection) Clone() *Collection {
	return c.ShiftUnitIDs(0)
}
