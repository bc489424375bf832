package rotation

// DefaultGridSize is the 6x4 price board
const DefaultGridSize = 24

// Slot is one grid cell. Item is nil when the slot is empty.
type Slot struct {
	Index int
	Item  *Item
}

// Grid is the result of Allocate
type Grid struct {
	// Slots always has one entry per grid cell, empty ones included
	Slots []Slot
	// Dropped holds items that did not fit, in input order
	Dropped []Item
}

// Filled returns the number of occupied slots
func (g Grid) Filled() int {
	n := 0
	for _, s := range g.Slots {
		if s.Item != nil {
			n++
		}
	}
	return n
}

// Allocate places items into a grid of size slots. Items whose ordinal is in
// [1,size] claim slot ordinal-1 in input order; every other item, including
// the loser of a duplicate ordinal, fills the first empty slot in input
// order. Items beyond capacity are returned in Dropped.
func Allocate(items []Item, size int) Grid {
	if size < 0 {
		size = 0
	}

	slots := make([]Slot, size)
	for i := range slots {
		slots[i].Index = i
	}

	placed := make([]bool, len(items))
	for i := range items {
		k := items[i].Ordinal
		if k < 1 || k > size || slots[k-1].Item != nil {
			continue
		}
		item := items[i]
		slots[k-1].Item = &item
		placed[i] = true
	}

	var dropped []Item
	free := 0
	for i := range items {
		if placed[i] {
			continue
		}
		for free < size && slots[free].Item != nil {
			free++
		}
		if free == size {
			dropped = append(dropped, items[i])
			continue
		}
		item := items[i]
		slots[free].Item = &item
		free++
	}

	return Grid{Slots: slots, Dropped: dropped}
}
