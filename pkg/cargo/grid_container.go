package cargo

// GridContainer implements Container over a GridSpec.
//
// occupied is both the number of tracked items and the scan start for
// OccupyNextSlot. It moves by exactly one per occupy/release and is clamped
// to [0, capacity].
type GridContainer struct {
	spec     GridSpec
	itemType ItemType
	slots    []Slot

	slotToItem map[int]ItemID
	itemToSlot map[ItemID]int
	occupied   int
	highest    Pose

	bottomCursor int

	onOccupy  handlerList
	onRelease handlerList
}

// NewGridContainer builds an empty container for items of itemType.
func NewGridContainer(itemType ItemType, spec GridSpec) (*GridContainer, error) {
	slots, err := spec.Slots()
	if err != nil {
		return nil, err
	}
	c := &GridContainer{
		spec:       spec,
		itemType:   itemType,
		slots:      slots,
		slotToItem: make(map[int]ItemID, len(slots)),
		itemToSlot: make(map[ItemID]int, len(slots)),
	}
	c.highest = slots[0].Pose
	return c, nil
}

func (c *GridContainer) ItemType() ItemType { return c.itemType }
func (c *GridContainer) Capacity() int      { return len(c.slots) }
func (c *GridContainer) LayerSize() int     { return c.spec.LayerSize() }
func (c *GridContainer) Extent() Vec3       { return c.spec.Extent() }

// Slots returns a copy of the slot sequence.
func (c *GridContainer) Slots() []Slot {
	out := make([]Slot, len(c.slots))
	copy(out, c.slots)
	return out
}

func (c *GridContainer) OccupiedSlotsCount() int   { return c.occupied }
func (c *GridContainer) IsFull() bool              { return c.occupied >= len(c.slots) }
func (c *GridContainer) IsEmpty() bool             { return len(c.itemToSlot) == 0 }
func (c *GridContainer) HighestItemPosition() Pose { return c.highest }

func (c *GridContainer) Items() []ItemID {
	out := make([]ItemID, 0, len(c.itemToSlot))
	for i := range c.slots {
		if item, ok := c.slotToItem[i]; ok {
			out = append(out, item)
		}
	}
	return out
}

func (c *GridContainer) OnOccupy(fn SlotHandler) func()  { return c.onOccupy.add(fn) }
func (c *GridContainer) OnRelease(fn SlotHandler) func() { return c.onRelease.add(fn) }

// OccupyNextSlot places item in the first free slot at or above the
// high-water mark. Free slots below the mark are only used when nothing above
// it is free. An item that is already tracked keeps its slot.
func (c *GridContainer) OccupyNextSlot(item ItemID) Slot {
	if idx, ok := c.itemToSlot[item]; ok {
		return c.slots[idx]
	}
	last := c.slots[len(c.slots)-1]
	if c.occupied >= len(c.slots) {
		return last
	}
	for i := c.occupied; i < len(c.slots); i++ {
		if _, busy := c.slotToItem[i]; !busy {
			c.OccupySlot(item, c.slots[i], true)
			return c.slots[i]
		}
	}
	for i := 0; i < c.occupied; i++ {
		if _, busy := c.slotToItem[i]; !busy {
			c.OccupySlot(item, c.slots[i], true)
			return c.slots[i]
		}
	}
	return last
}

// OccupySlot records item at slot. A busy or out-of-range slot is left
// untouched. If item is tracked elsewhere it is moved.
func (c *GridContainer) OccupySlot(item ItemID, slot Slot, fireEvent bool) {
	if slot.Index < 0 || slot.Index >= len(c.slots) {
		return
	}
	if _, busy := c.slotToItem[slot.Index]; busy {
		return
	}
	if _, tracked := c.itemToSlot[item]; tracked {
		c.ReleaseItemFromSlot(item, false)
	}
	slot = c.slots[slot.Index]
	c.slotToItem[slot.Index] = item
	c.itemToSlot[item] = slot.Index
	c.occupied++
	if c.occupied > len(c.slots) {
		c.occupied = len(c.slots)
	}
	c.updateHighest()
	if fireEvent {
		c.onOccupy.fire(slot, item)
	}
}

// ReleaseItemFromSlot forgets item. Untracked items are ignored.
func (c *GridContainer) ReleaseItemFromSlot(item ItemID, fireEvent bool) {
	idx, ok := c.itemToSlot[item]
	if !ok {
		return
	}
	delete(c.itemToSlot, item)
	delete(c.slotToItem, idx)
	c.occupied--
	if c.occupied < 0 {
		c.occupied = 0
	}
	c.updateHighest()
	if fireEvent {
		c.onRelease.fire(c.slots[idx], item)
	}
}

func (c *GridContainer) updateHighest() {
	if c.occupied > 0 {
		top := c.occupied
		if top > len(c.slots) {
			top = len(c.slots)
		}
		c.highest = c.slots[top-1].Pose
		return
	}
	c.highest = c.slots[0].Pose
}

// TryReleaseTopItem releases the item at index occupied-1. It fails when the
// container is empty or that slot is a hole left by compaction.
func (c *GridContainer) TryReleaseTopItem() (ItemID, Slot, bool) {
	if c.occupied == 0 {
		return NoItem, Slot{}, false
	}
	slot := c.slots[c.occupied-1]
	item, ok := c.slotToItem[slot.Index]
	if !ok {
		return NoItem, Slot{}, false
	}
	c.ReleaseItemFromSlot(item, true)
	return item, slot, true
}

// TryReleaseBottomItem releases one item from the bottom layer, scanning
// round-robin from an internal cursor so repeated calls drain columns evenly.
// With fall set, items above are compacted by one layer afterwards.
func (c *GridContainer) TryReleaseBottomItem(fall bool) (ItemID, bool) {
	layer := c.LayerSize()
	for k := 0; k < layer; k++ {
		idx := (c.bottomCursor + k) % layer
		item, ok := c.slotToItem[idx]
		if !ok {
			continue
		}
		c.bottomCursor = (c.bottomCursor + 1) % layer
		c.ReleaseItemFromSlot(item, true)
		if fall {
			c.CalculateFall()
		}
		return item, true
	}
	return NoItem, false
}

// CalculateFall sweeps slots low to high and pulls every item whose slot
// directly below is free down by one layer. One call moves an item at most
// one layer; no events are fired.
//
// The sweep covers occupied+layer slots and extends to the highest tracked
// slot, so items stranded above the high-water mark still settle.
func (c *GridContainer) CalculateFall() {
	layer := c.LayerSize()
	end := c.occupied + layer
	if top := c.topIndex() + 1; top > end {
		end = top
	}
	if end > len(c.slots) {
		end = len(c.slots)
	}
	for i := 1; i < end; i++ {
		lower := i - layer
		if lower < 0 {
			continue
		}
		item, ok := c.slotToItem[i]
		if !ok {
			continue
		}
		if _, busy := c.slotToItem[lower]; busy {
			continue
		}
		c.ReleaseItemFromSlot(item, false)
		c.OccupySlot(item, c.slots[lower], false)
	}
}

func (c *GridContainer) topIndex() int {
	top := -1
	for idx := range c.slotToItem {
		if idx > top {
			top = idx
		}
	}
	return top
}

// FreeAllSlots releases every tracked item, firing release events.
func (c *GridContainer) FreeAllSlots() {
	for _, item := range c.Items() {
		c.ReleaseItemFromSlot(item, true)
	}
}

func (c *GridContainer) IsSlotBusy(slot Slot) bool {
	_, busy := c.slotToItem[slot.Index]
	return busy
}

func (c *GridContainer) TryGetSlotItem(slot Slot) (ItemID, bool) {
	item, ok := c.slotToItem[slot.Index]
	return item, ok
}

func (c *GridContainer) TryGetItemSlot(item ItemID) (Slot, bool) {
	idx, ok := c.itemToSlot[item]
	if !ok {
		return Slot{}, false
	}
	return c.slots[idx], true
}

var _ Container = (*GridContainer)(nil)
