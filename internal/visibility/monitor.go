package visibility

// Transition is an edge produced by Monitor.
type Transition int

const (
	None Transition = iota
	Hide
	Show
)

func (t Transition) String() string {
	switch t {
	case Hide:
		return "hide"
	case Show:
		return "show"
	default:
		return "none"
	}
}

// Monitor turns a stream of hide decisions into edges: one Hide on the
// rising edge, one Show on the falling edge, None otherwise.
type Monitor struct {
	hidden bool
}

// Update feeds the latest decision.
func (m *Monitor) Update(shouldHide bool) Transition {
	switch {
	case shouldHide && !m.hidden:
		m.hidden = true
		return Hide
	case !shouldHide && m.hidden:
		m.hidden = false
		return Show
	default:
		return None
	}
}

// Hidden reports whether the widget is currently hidden by this monitor.
func (m *Monitor) Hidden() bool { return m.hidden }

// Release clears the hidden state, reporting whether it was set. Used when
// the feature is turned off mid-hide.
func (m *Monitor) Release() bool {
	was := m.hidden
	m.hidden = false
	return was
}
