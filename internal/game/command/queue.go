package command

import "sync"

// Queue is the FIFO buffer of commands awaiting the next tick.
// All methods are safe for concurrent use.
type Queue struct {
	mu       sync.Mutex
	commands []Command
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends cmd to the queue. Nil commands are dropped.
func (q *Queue) Push(cmd Command) {
	if cmd == nil {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.commands = append(q.commands, cmd)
}

// Len returns the number of pending commands.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.commands)
}

// Drain removes and returns every pending command in FIFO order.
//
// Postcondition: the queue is empty.
func (q *Queue) Drain() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.commands
	q.commands = nil
	return out
}

// DrainKinds removes and returns the pending commands matching any of the
// given kinds, preserving FIFO order among them. Other commands stay queued.
//
// The pipeline uses this to pull demand and sow-discord commands into their
// own later step while the general command step consumes the rest.
func (q *Queue) DrainKinds(kinds ...Kind) []Command {
	want := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	var drained []Command
	rest := q.commands[:0]
	for _, cmd := range q.commands {
		if want[cmd.CommandKind()] {
			drained = append(drained, cmd)
		} else {
			rest = append(rest, cmd)
		}
	}
	q.commands = rest
	return drained
}
