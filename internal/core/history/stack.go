package history

// boundedStack is a LIFO with a fixed capacity. Pushing onto a full stack
// evicts the bottom (oldest) element.
type boundedStack struct {
	items    []Action
	capacity int
}

func newBoundedStack(capacity int) *boundedStack {
	return &boundedStack{items: make([]Action, 0, capacity), capacity: capacity}
}

// push adds a to the top and reports whether an element was evicted.
func (s *boundedStack) push(a Action) (evicted bool) {
	if len(s.items) == s.capacity {
		copy(s.items, s.items[1:])
		s.items = s.items[:len(s.items)-1]
		evicted = true
	}
	s.items = append(s.items, a)
	return evicted
}

func (s *boundedStack) pop() (Action, bool) {
	if len(s.items) == 0 {
		return Action{}, false
	}
	top := s.items[len(s.items)-1]
	s.items[len(s.items)-1] = Action{}
	s.items = s.items[:len(s.items)-1]
	return top, true
}

func (s *boundedStack) peek() (Action, bool) {
	if len(s.items) == 0 {
		return Action{}, false
	}
	return s.items[len(s.items)-1], true
}

func (s *boundedStack) len() int { return len(s.items) }

func (s *boundedStack) clear() {
	clear(s.items)
	s.items = s.items[:0]
}

// snapshot returns a copy, bottom first.
func (s *boundedStack) snapshot() []Action {
	out := make([]Action, len(s.items))
	copy(out, s.items)
	return out
}
