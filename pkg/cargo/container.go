package cargo

// SlotHandler observes occupancy changes. It is called synchronously after the
// container state has been committed.
type SlotHandler func(slot Slot, item ItemID)

// Container is the occupancy contract shared by every cargo holder. Callers
// such as selling zones and pre-spawners depend only on this interface.
//
// None of the operations fail loudly: lookups and extractions report success
// with a bool and releasing an untracked item is a no-op.
type Container interface {
	ItemType() ItemType
	Capacity() int
	LayerSize() int
	Slots() []Slot
	// Extent is the size of the container along each local axis.
	Extent() Vec3

	OccupiedSlotsCount() int
	IsFull() bool
	IsEmpty() bool
	// Items lists tracked items in ascending slot order.
	Items() []ItemID
	HighestItemPosition() Pose

	// OccupyNextSlot always returns a slot. When the container is already
	// full it returns the last slot without tracking item.
	OccupyNextSlot(item ItemID) Slot
	OccupySlot(item ItemID, slot Slot, fireEvent bool)
	ReleaseItemFromSlot(item ItemID, fireEvent bool)
	TryReleaseTopItem() (ItemID, Slot, bool)
	TryReleaseBottomItem(fall bool) (ItemID, bool)
	CalculateFall()
	FreeAllSlots()

	IsSlotBusy(slot Slot) bool
	TryGetSlotItem(slot Slot) (ItemID, bool)
	TryGetItemSlot(item ItemID) (Slot, bool)

	// OnOccupy and OnRelease register observers and return a func that
	// removes the registration.
	OnOccupy(fn SlotHandler) (unsubscribe func())
	OnRelease(fn SlotHandler) (unsubscribe func())
}

type handlerEntry struct {
	id int
	fn SlotHandler
}

// handlerList is an ordered set of observers. Dispatch iterates a copy so a
// handler may unsubscribe itself.
type handlerList struct {
	nextID  int
	entries []handlerEntry
}

func (l *handlerList) add(fn SlotHandler) func() {
	if fn == nil {
		return func() {}
	}
	l.nextID++
	id := l.nextID
	l.entries = append(l.entries, handlerEntry{id: id, fn: fn})
	return func() { l.remove(id) }
}

func (l *handlerList) remove(id int) {
	for i, e := range l.entries {
		if e.id == id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return
		}
	}
}

func (l *handlerList) fire(slot Slot, item ItemID) {
	if len(l.entries) == 0 {
		return
	}
	snapshot := make([]handlerEntry, len(l.entries))
	copy(snapshot, l.entries)
	for _, e := range snapshot {
		e.fn(slot, item)
	}
}
