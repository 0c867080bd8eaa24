package cargo

// LayoutHandler receives the offset computed for the container at index.
type LayoutHandler func(index int, c Container, offset Vec3)

type composerEntry struct {
	container Container
	itemType  ItemType
	halfDepth float64
	offset    float64
	unsub     []func()
}

// Composer arranges the containers of one carrier along an axis so that
// non-empty containers pack contiguously with a fixed spacing between them.
// Empty containers contribute no spacing. Layout is recomputed on every
// occupy or release of any attached container.
type Composer struct {
	axis    Axis
	spacing float64
	entries []*composerEntry
	onLay   []LayoutHandler
}

// NewComposer returns a composer with no containers.
func NewComposer(axis Axis, spacing float64) *Composer {
	return &Composer{axis: axis, spacing: spacing}
}

func (p *Composer) Axis() Axis       { return p.axis }
func (p *Composer) Spacing() float64 { return p.spacing }
func (p *Composer) Len() int         { return len(p.entries) }

// Attach appends c to the stack. A halfDepth <= 0 is derived from the
// container extent along the composer axis.
func (p *Composer) Attach(c Container, halfDepth float64) int {
	if halfDepth <= 0 {
		halfDepth = p.axis.Component(c.Extent()) / 2
	}
	e := &composerEntry{container: c, itemType: c.ItemType(), halfDepth: halfDepth}
	relayout := func(Slot, ItemID) { p.Relayout() }
	e.unsub = append(e.unsub, c.OnOccupy(relayout), c.OnRelease(relayout))
	p.entries = append(p.entries, e)
	p.Relayout()
	return len(p.entries) - 1
}

// Detach removes c and stops listening to it.
func (p *Composer) Detach(c Container) bool {
	for i, e := range p.entries {
		if e.container != c {
			continue
		}
		for _, u := range e.unsub {
			u()
		}
		p.entries = append(p.entries[:i], p.entries[i+1:]...)
		p.Relayout()
		return true
	}
	return false
}

// OnLayout registers fn to receive every computed offset.
func (p *Composer) OnLayout(fn LayoutHandler) {
	if fn != nil {
		p.onLay = append(p.onLay, fn)
	}
}

// ContainerFor returns the first container holding items of itemType.
func (p *Composer) ContainerFor(itemType ItemType) (Container, bool) {
	for _, e := range p.entries {
		if e.itemType == itemType {
			return e.container, true
		}
	}
	return nil, false
}

// Containers lists attached containers in stack order.
func (p *Composer) Containers() []Container {
	out := make([]Container, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.container
	}
	return out
}

// Offsets returns the scalar offset of each container along the axis.
func (p *Composer) Offsets() []float64 {
	out := make([]float64, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.offset
	}
	return out
}

// Relayout recomputes offsets and notifies layout handlers.
func (p *Composer) Relayout() {
	offset := 0.0
	if first := p.nextNonEmpty(0); first >= 0 {
		offset = p.entries[first].halfDepth
	}
	for i, e := range p.entries {
		e.offset = offset
		if e.container.IsEmpty() {
			continue
		}
		if next := p.nextNonEmpty(i + 1); next >= 0 {
			offset += e.halfDepth + p.spacing + p.entries[next].halfDepth
		}
	}
	for i, e := range p.entries {
		v := p.axis.Unit().Scale(e.offset)
		for _, fn := range p.onLay {
			fn(i, e.container, v)
		}
	}
}

func (p *Composer) nextNonEmpty(from int) int {
	for i := from; i < len(p.entries); i++ {
		if !p.entries[i].container.IsEmpty() {
			return i
		}
	}
	return -1
}
