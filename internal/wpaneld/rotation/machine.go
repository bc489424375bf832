package rotation

// State is the rotation position. All indices are taken modulo the size of
// the collection they index.
type State struct {
	ActionIndex int
	ImageIndex  int
	Left        int
	Right       int
	Page        int
}

// Machine walks actions and their items. It is driven by Tick and
// reconciled with fresh content by Replace.
type Machine struct {
	health   FailureChecker
	pageSize int

	actions  []Action
	identity uint64
	state    State
	// next is the dual-pane cursor: the last index placed on a pane
	next int
}

// NewMachine creates a machine with no content. health may be nil, in
// which case no item is ever considered failed.
func NewMachine(health FailureChecker, pageSize int) *Machine {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Machine{
		health:   health,
		pageSize: pageSize,
		identity: Identity(nil),
	}
}

// State returns a copy of the rotation position
func (m *Machine) State() State {
	return m.state
}

// Actions returns the current content
func (m *Machine) Actions() []Action {
	return m.actions
}

// PageSize returns the paged board size the machine was built with
func (m *Machine) PageSize() int {
	return m.pageSize
}

// Current returns the selected action. ok is false when no action has items.
func (m *Machine) Current() (Action, bool) {
	if m.state.ActionIndex >= len(m.actions) {
		return Action{}, false
	}
	a := m.actions[m.state.ActionIndex]
	if len(a.Items) == 0 {
		return Action{}, false
	}
	return a, true
}

// Collection returns the items of the selected action
func (m *Machine) Collection() []Item {
	a, ok := m.Current()
	if !ok {
		return nil
	}
	return a.Items
}

// CurrentItem returns the single-pane item
func (m *Machine) CurrentItem() (Item, bool) {
	items := m.Collection()
	if len(items) == 0 {
		return Item{}, false
	}
	return items[m.state.ImageIndex%len(items)], true
}

// Panes returns the dual-pane items. With a single item both panes refer to
// it and distinct is false.
func (m *Machine) Panes() (left, right Item, distinct bool) {
	items := m.Collection()
	if len(items) == 0 {
		return Item{}, Item{}, false
	}
	left = items[m.state.Left%len(items)]
	right = items[m.state.Right%len(items)]
	return left, right, len(items) >= 2
}

// PageView returns the current page of the selected action's items
func (m *Machine) PageView() PageView {
	return Page(m.Collection(), m.state.Page, m.pageSize)
}

// Tick advances one rotation dimension and reports whether the visible
// position changed. Empty content never changes.
func (m *Machine) Tick(kind TickKind) bool {
	switch kind {
	case TickAction:
		return m.tickAction()
	case TickImage:
		return m.tickImage()
	case TickPane:
		return m.tickPane()
	case TickPage:
		return m.tickPage()
	}
	return false
}

func (m *Machine) tickAction() bool {
	n := len(m.actions)
	if n == 0 {
		return false
	}
	for step := 1; step <= n; step++ {
		idx := (m.state.ActionIndex + step) % n
		if len(m.actions[idx].Items) == 0 {
			continue
		}
		if idx == m.state.ActionIndex {
			// The only selectable action is already shown.
			return false
		}
		m.state.ActionIndex = idx
		m.resetCollection()
		return true
	}
	return false
}

func (m *Machine) tickImage() bool {
	items := m.Collection()
	n := len(items)
	if n == 0 {
		return false
	}

	prev := m.state.ImageIndex
	next := (prev + 1) % n
	for step := 1; step <= n; step++ {
		idx := (prev + step) % n
		if !m.failed(items[idx]) {
			next = idx
			break
		}
	}
	m.state.ImageIndex = next
	return next != prev
}

// tickPane slides the dual-pane window: the old left moves to the right pane
// and the left pane takes the next index that is not on the right.
func (m *Machine) tickPane() bool {
	n := len(m.Collection())
	if n < 2 {
		return false
	}

	right := m.state.Left
	next := (m.next + 1) % n
	if next == right {
		next = (next + 1) % n
	}

	m.next = next
	m.state.Left = next
	m.state.Right = right
	return true
}

func (m *Machine) tickPage() bool {
	count := PageCount(len(m.Collection()), m.pageSize)
	if count <= 1 {
		m.state.Page = 0
		return false
	}
	m.state.Page = (m.state.Page + 1) % count
	return true
}

// Replace installs fresh content. When the ordered action and item ids are
// unchanged the position is kept (clamped to the new sizes); otherwise it
// resets to the initial state. It reports whether a reset happened.
func (m *Machine) Replace(actions []Action) bool {
	id := Identity(actions)
	m.actions = actions

	if id == m.identity {
		m.clamp()
		return false
	}

	m.identity = id
	m.state = State{}
	m.settleAction()
	m.resetCollection()
	return true
}

// settleAction moves the action index forward onto a non-empty action
func (m *Machine) settleAction() {
	n := len(m.actions)
	for step := 0; step < n; step++ {
		idx := (m.state.ActionIndex + step) % n
		if len(m.actions[idx].Items) > 0 {
			m.state.ActionIndex = idx
			return
		}
	}
	m.state.ActionIndex = 0
}

func (m *Machine) resetCollection() {
	m.state.ImageIndex = 0
	m.state.Left = 0
	m.state.Right = 0
	m.state.Page = 0
	if len(m.Collection()) >= 2 {
		m.state.Right = 1
	}
	m.next = m.state.Right
}

func (m *Machine) clamp() {
	if n := len(m.actions); n > 0 {
		m.state.ActionIndex %= n
	} else {
		m.state.ActionIndex = 0
	}
	m.settleAction()

	n := len(m.Collection())
	if n == 0 {
		m.state.ImageIndex, m.state.Left, m.state.Right, m.state.Page, m.next = 0, 0, 0, 0, 0
		return
	}
	m.state.ImageIndex %= n
	m.state.Left %= n
	m.state.Right %= n
	m.next %= n
	if n >= 2 && m.state.Left == m.state.Right {
		m.state.Right = (m.state.Left + 1) % n
	}
	if count := PageCount(n, m.pageSize); m.state.Page >= count {
		m.state.Page = 0
	}
}

func (m *Machine) failed(it Item) bool {
	if m.health == nil || it.MediaRef == "" {
		return false
	}
	return m.health.IsFailed(it.MediaRef)
}
