package dispatcher

import (
	"fmt"
	"sync"
)

// Action is a deferred unit of work run on the render thread before the next render step.
type Action func() error

type namedAction struct {
	name string
	do   Action
}

// ActionQueue holds deferred actions in FIFO order. Enqueue may be called from any goroutine; Drain must only be
// called from the render thread.
type ActionQueue struct {
	mu      sync.Mutex
	actions []namedAction
}

// NewActionQueue returns an empty queue.
func NewActionQueue() *ActionQueue {
	return &ActionQueue{}
}

// Enqueue appends an action to run at the next Drain.
//
// Parameters:
//   - name: a label used in errors and logs
//   - action: the work to run
func (q *ActionQueue) Enqueue(name string, action Action) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.actions = append(q.actions, namedAction{name: name, do: action})
}

// Len returns the number of pending actions.
func (q *ActionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.actions)
}

// Drain runs every pending action in FIFO order. The queue is emptied before the first action runs, so a failing or
// panicking action discards the rest of the batch rather than repeating it next frame. Actions enqueued while
// draining run at the next Drain.
//
// Returns:
//   - error: the first action error, or a recovered panic converted to an error
func (q *ActionQueue) Drain() (err error) {
	q.mu.Lock()
	batch := q.actions
	q.actions = nil
	q.mu.Unlock()

	var current string
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Op: "action " + current, Value: r}
		}
	}()

	for _, a := range batch {
		current = a.name
		if err := a.do(); err != nil {
			return fmt.Errorf("action %s: %w", a.name, err)
		}
	}
	return nil
}

// PanicError carries a value recovered from a panic on the render thread.
type PanicError struct {
	Op    string
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s panicked: %v", e.Op, e.Value)
}
