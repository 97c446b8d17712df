// Package history keeps the bounded undo/redo log of domain edits.
//
// The log stores snapshots of what changed, not commands: applying an
// action's undo or redo effect is the caller's job, done through a single
// dispatch over the payload type. The log itself only moves actions
// between its two stacks.
package history

import "sync"

// DefaultCapacity is the maximum number of undoable actions kept.
const DefaultCapacity = 50

// Option configures a Log.
type Option func(*Log)

// WithCapacity bounds both stacks at n. Non-positive n keeps the default.
func WithCapacity(n int) Option {
	return func(l *Log) {
		if n > 0 {
			l.capacity = n
		}
	}
}

// WithEvictionHook registers fn to be called with every action dropped
// from the bottom of the undo stack.
func WithEvictionHook(fn func(Action)) Option {
	return func(l *Log) {
		l.onEvict = fn
	}
}

// Log is a pair of bounded stacks. All methods are safe for concurrent
// use; each push/pop pair across the two stacks happens under one lock.
type Log struct {
	mu       sync.Mutex
	undo     *boundedStack
	redo     *boundedStack
	capacity int
	onEvict  func(Action)
}

// NewLog creates an empty log.
func NewLog(opts ...Option) *Log {
	l := &Log{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(l)
	}
	l.undo = newBoundedStack(l.capacity)
	l.redo = newBoundedStack(l.capacity)
	return l
}

// Capacity returns the stack bound.
func (l *Log) Capacity() int { return l.capacity }

// AddAction records a new edit and discards everything redoable.
func (l *Log) AddAction(a Action) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var evicted Action
	if l.undo.len() == l.capacity {
		evicted, _ = l.undoBottom()
	}
	if l.undo.push(a) && l.onEvict != nil {
		l.onEvict(evicted)
	}
	l.redo.clear()
}

// Undo moves the most recent action to the redo stack and returns it.
// ok is false when there is nothing to undo.
func (l *Log) Undo() (a Action, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok = l.undo.pop()
	if !ok {
		return Action{}, false
	}
	l.redo.push(a)
	return a, true
}

// Redo moves the most recently undone action back to the undo stack and
// returns it. ok is false when there is nothing to redo.
func (l *Log) Redo() (a Action, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok = l.redo.pop()
	if !ok {
		return Action{}, false
	}
	l.undo.push(a)
	return a, true
}

// CanUndo reports whether Undo would return an action.
func (l *Log) CanUndo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.undo.len() > 0
}

// CanRedo reports whether Redo would return an action.
func (l *Log) CanRedo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.redo.len() > 0
}

// DescribeLastUndo labels the action Undo would return, or "".
func (l *Log) DescribeLastUndo() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if a, ok := l.undo.peek(); ok {
		return Describe(a)
	}
	return ""
}

// DescribeNextRedo labels the action Redo would return, or "".
func (l *Log) DescribeNextRedo() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if a, ok := l.redo.peek(); ok {
		return Describe(a)
	}
	return ""
}

func (l *Log) UndoLen() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.undo.len()
}

func (l *Log) RedoLen() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.redo.len()
}

// UndoActions returns a copy of the undo stack, oldest first.
func (l *Log) UndoActions() []Action {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.undo.snapshot()
}

// RedoActions returns a copy of the redo stack, oldest first.
func (l *Log) RedoActions() []Action {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.redo.snapshot()
}

// Clear empties both stacks.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.undo.clear()
	l.redo.clear()
}

func (l *Log) undoBottom() (Action, bool) {
	if l.undo.len() == 0 {
		return Action{}, false
	}
	return l.undo.items[0], true
}
