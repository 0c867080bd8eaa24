package cargo

import "testing"

func newTestContainer(t *testing.T, x, y, z int) *GridContainer {
	t.Helper()
	c, err := NewGridContainer("corn", GridSpec{CountX: x, CountY: y, CountZ: z, IntervalX: 1, IntervalY: 1, IntervalZ: 1})
	if err != nil {
		t.Fatalf("unexpected construction error: %v", err)
	}
	return c
}

// checkBijection verifies both maps agree and the count matches.
func checkBijection(t *testing.T, c *GridContainer) {
	t.Helper()
	if len(c.slotToItem) != len(c.itemToSlot) {
		t.Fatalf("map sizes differ: slots=%d items=%d", len(c.slotToItem), len(c.itemToSlot))
	}
	for item, idx := range c.itemToSlot {
		if c.slotToItem[idx] != item {
			t.Fatalf("item %d maps to slot %d but slot holds %d", item, idx, c.slotToItem[idx])
		}
	}
	if c.occupied < 0 || c.occupied > c.Capacity() {
		t.Fatalf("occupied out of range: %d", c.occupied)
	}
}

func TestOccupyOrderingAndOverflow(t *testing.T) {
	c := newTestContainer(t, 2, 2, 2)
	n := c.Capacity()
	for i := 0; i < n; i++ {
		slot := c.OccupyNextSlot(ItemID(i + 1))
		if slot.Index != i {
			t.Fatalf("call %d: expected slot %d, got %d", i, i, slot.Index)
		}
	}
	if !c.IsFull() {
		t.Fatalf("expected container to be full")
	}
	slot := c.OccupyNextSlot(ItemID(100))
	if slot.Index != n-1 {
		t.Fatalf("expected overflow to return last slot %d, got %d", n-1, slot.Index)
	}
	if c.OccupiedSlotsCount() != n {
		t.Fatalf("expected count to stay %d, got %d", n, c.OccupiedSlotsCount())
	}
	if _, ok := c.TryGetItemSlot(ItemID(100)); ok {
		t.Fatalf("overflow item must not be tracked")
	}
	checkBijection(t, c)
}

func TestOccupyEventsAndHighest(t *testing.T) {
	c := newTestContainer(t, 1, 3, 1)
	var occupied, released []int
	unsub := c.OnOccupy(func(s Slot, _ ItemID) { occupied = append(occupied, s.Index) })
	c.OnRelease(func(s Slot, _ ItemID) { released = append(released, s.Index) })

	c.OccupyNextSlot(1)
	c.OccupyNextSlot(2)
	if got := c.HighestItemPosition().Position; got != (Vec3{Y: 1}) {
		t.Fatalf("expected highest at y=1, got %+v", got)
	}
	c.ReleaseItemFromSlot(2, true)
	c.ReleaseItemFromSlot(2, true)
	c.ReleaseItemFromSlot(99, true)
	if got := c.HighestItemPosition().Position; got != (Vec3{}) {
		t.Fatalf("expected highest at origin, got %+v", got)
	}
	unsub()
	c.OccupySlot(3, c.Slots()[2], true)
	c.OccupySlot(4, c.Slots()[2], true) // busy, ignored

	if len(occupied) != 2 || occupied[0] != 0 || occupied[1] != 1 {
		t.Fatalf("unexpected occupy events: %v", occupied)
	}
	if len(released) != 1 || released[0] != 1 {
		t.Fatalf("unexpected release events: %v", released)
	}
	if item, ok := c.TryGetSlotItem(c.Slots()[2]); !ok || item != 3 {
		t.Fatalf("expected item 3 at slot 2, got %d ok=%v", item, ok)
	}
	if _, ok := c.TryGetItemSlot(4); ok {
		t.Fatalf("item 4 must not be tracked")
	}
	checkBijection(t, c)
}

func TestReleaseTopDrainsInReverse(t *testing.T) {
	c := newTestContainer(t, 2, 2, 1)
	k := 3
	for i := 1; i <= k; i++ {
		c.OccupyNextSlot(ItemID(i))
	}
	for i := k; i >= 1; i-- {
		item, slot, ok := c.TryReleaseTopItem()
		if !ok {
			t.Fatalf("expected release to succeed with %d items left", i)
		}
		if item != ItemID(i) || slot.Index != i-1 {
			t.Fatalf("expected item %d at slot %d, got item %d at slot %d", i, i-1, item, slot.Index)
		}
	}
	for i := 0; i < 2; i++ {
		if _, _, ok := c.TryReleaseTopItem(); ok {
			t.Fatalf("expected release from empty container to fail")
		}
	}
	checkBijection(t, c)
}

func TestReleaseTopFailsOnHole(t *testing.T) {
	c := newTestContainer(t, 1, 3, 1)
	c.OccupyNextSlot(1)
	c.OccupyNextSlot(2)
	c.OccupyNextSlot(3)
	c.ReleaseItemFromSlot(1, true) // count 2, top index 1 holds item 2
	c.ReleaseItemFromSlot(2, true) // count 1, index 0 is a hole
	if _, _, ok := c.TryReleaseTopItem(); ok {
		t.Fatalf("expected failure on hollow top slot")
	}
	if c.OccupiedSlotsCount() != 1 {
		t.Fatalf("failed release must not change count")
	}
	checkBijection(t, c)
}

func TestOccupyNextSkipsBusyAndWraps(t *testing.T) {
	c := newTestContainer(t, 1, 3, 1)
	c.OccupyNextSlot(1)
	c.OccupyNextSlot(2)
	c.OccupyNextSlot(3)
	c.ReleaseItemFromSlot(1, true) // count 2, slot 2 busy, slot 0 free
	slot := c.OccupyNextSlot(4)
	if slot.Index != 0 {
		t.Fatalf("expected wrap to free slot 0, got %d", slot.Index)
	}
	if again := c.OccupyNextSlot(4); again.Index != 0 || c.OccupiedSlotsCount() != 3 {
		t.Fatalf("re-occupying a tracked item must keep its slot")
	}
	checkBijection(t, c)
}

func TestCalculateFallOneLayerPerPass(t *testing.T) {
	c := newTestContainer(t, 2, 3, 2)
	layer := c.LayerSize()
	slots := c.Slots()
	c.OccupySlot(1, slots[0], true)
	c.OccupySlot(2, slots[layer], true)
	c.OccupySlot(3, slots[2*layer], true)

	c.ReleaseItemFromSlot(1, true)
	c.ReleaseItemFromSlot(2, true)

	c.CalculateFall()
	if s, _ := c.TryGetItemSlot(3); s.Index != layer {
		t.Fatalf("after one pass expected item at %d, got %d", layer, s.Index)
	}
	c.CalculateFall()
	if s, _ := c.TryGetItemSlot(3); s.Index != 0 {
		t.Fatalf("after two passes expected item at 0, got %d", s.Index)
	}
	c.CalculateFall()
	if s, _ := c.TryGetItemSlot(3); s.Index != 0 {
		t.Fatalf("settled item must not move, got %d", s.Index)
	}
	checkBijection(t, c)
}

func TestCalculateFallFiresNoEvents(t *testing.T) {
	c := newTestContainer(t, 1, 2, 1)
	c.OccupyNextSlot(1)
	c.OccupyNextSlot(2)
	events := 0
	c.OnOccupy(func(Slot, ItemID) { events++ })
	c.OnRelease(func(Slot, ItemID) { events++ })
	c.ReleaseItemFromSlot(1, false)
	c.CalculateFall()
	if events != 0 {
		t.Fatalf("expected no events, got %d", events)
	}
	if s, _ := c.TryGetItemSlot(2); s.Index != 0 {
		t.Fatalf("expected item 2 to fall to 0, got %d", s.Index)
	}
}

func TestReleaseBottomRoundRobin(t *testing.T) {
	c := newTestContainer(t, 2, 2, 2)
	layer := c.LayerSize()
	for i := 0; i < c.Capacity(); i++ {
		c.OccupyNextSlot(ItemID(i + 1))
	}
	// Items 1..4 sit on the bottom layer, 5..8 above them.
	for k := 0; k < layer; k++ {
		item, ok := c.TryReleaseBottomItem(false)
		if !ok {
			t.Fatalf("call %d: expected success", k)
		}
		if item != ItemID(k+1) {
			t.Fatalf("call %d: expected column %d (item %d), got item %d", k, k, k+1, item)
		}
	}
	if _, ok := c.TryReleaseBottomItem(false); ok {
		t.Fatalf("expected failure with empty bottom layer")
	}
	checkBijection(t, c)
}

func TestReleaseBottomRoundRobinPerContainer(t *testing.T) {
	a := newTestContainer(t, 2, 2, 2)
	b := newTestContainer(t, 3, 2, 1)
	for i := 0; i < a.Capacity(); i++ {
		a.OccupyNextSlot(ItemID(i + 1))
	}
	for i := 0; i < b.Capacity(); i++ {
		b.OccupyNextSlot(ItemID(i + 101))
	}

	var fromA, fromB []ItemID
	// Uneven interleaving: each container must still walk its own columns.
	pattern := []*GridContainer{a, b, b, a, a, b, a}
	for _, c := range pattern {
		item, ok := c.TryReleaseBottomItem(false)
		if !ok {
			t.Fatalf("unexpected failure draining bottom layer")
		}
		if c == a {
			fromA = append(fromA, item)
		} else {
			fromB = append(fromB, item)
		}
	}

	wantA := []ItemID{1, 2, 3, 4}
	wantB := []ItemID{101, 102, 103}
	if len(fromA) != len(wantA) || len(fromB) != len(wantB) {
		t.Fatalf("unexpected drain counts: a=%v b=%v", fromA, fromB)
	}
	for i := range wantA {
		if fromA[i] != wantA[i] {
			t.Fatalf("container a drained %v, want %v", fromA, wantA)
		}
	}
	for i := range wantB {
		if fromB[i] != wantB[i] {
			t.Fatalf("container b drained %v, want %v", fromB, wantB)
		}
	}
	for _, c := range []*GridContainer{a, b} {
		if _, ok := c.TryReleaseBottomItem(false); ok {
			t.Fatalf("expected empty bottom layer")
		}
		checkBijection(t, c)
	}
}

func TestReleaseBottomWithFall(t *testing.T) {
	c := newTestContainer(t, 2, 2, 2)
	for i := 0; i < c.Capacity(); i++ {
		c.OccupyNextSlot(ItemID(i + 1))
	}
	// Each release pulls the item above the drained column down, so the
	// upper layer is drained in the same column order on the second round.
	var drained []ItemID
	for {
		item, ok := c.TryReleaseBottomItem(true)
		if !ok {
			break
		}
		drained = append(drained, item)
		checkBijection(t, c)
	}
	want := []ItemID{1, 2, 3, 4, 5, 6, 7, 8}
	if len(drained) != len(want) {
		t.Fatalf("expected %d releases, got %d (%v)", len(want), len(drained), drained)
	}
	for i := range want {
		if drained[i] != want[i] {
			t.Fatalf("release order mismatch at %d: want %v got %v", i, want, drained)
		}
	}
	if !c.IsEmpty() || c.OccupiedSlotsCount() != 0 {
		t.Fatalf("expected empty container")
	}
}

func TestFreeAllSlots(t *testing.T) {
	c := newTestContainer(t, 2, 2, 2)
	for i := 0; i < 5; i++ {
		c.OccupyNextSlot(ItemID(i + 1))
	}
	released := 0
	c.OnRelease(func(Slot, ItemID) { released++ })
	c.FreeAllSlots()
	if released != 5 || !c.IsEmpty() || c.OccupiedSlotsCount() != 0 {
		t.Fatalf("expected all 5 released, got %d (count %d)", released, c.OccupiedSlotsCount())
	}
	checkBijection(t, c)
}

func TestInterleavedPollersStayConsistent(t *testing.T) {
	c := newTestContainer(t, 2, 3, 2)
	next := ItemID(1)
	for step := 0; step < 200; step++ {
		switch step % 5 {
		case 0, 1:
			if !c.IsFull() {
				c.OccupyNextSlot(next)
				next++
			}
		case 2:
			c.TryReleaseTopItem()
		case 3:
			c.TryReleaseBottomItem(true)
		case 4:
			if items := c.Items(); len(items) > 0 {
				c.ReleaseItemFromSlot(items[len(items)/2], true)
			}
		}
		checkBijection(t, c)
		if c.OccupiedSlotsCount() != len(c.Items()) {
			t.Fatalf("step %d: count %d disagrees with %d items", step, c.OccupiedSlotsCount(), len(c.Items()))
		}
	}
}
