package obd

import (
	"strconv"

	"github.com/hsccorp/node-bluetooth-tcp-obd/elm"
)

// PendingCommand is a request waiting for its drain tick.
type PendingCommand struct {
	// Text is the command body without terminator, e.g. "010C" or "ATZ".
	Text string
	// Replies is the number of replies the adapter should wait for.
	// Zero lets the adapter wait for as many as arrive within its timeout.
	Replies int
}

// Wire returns the bytes sent to the adapter: the body, the reply count if
// any, and a carriage return.
func (c PendingCommand) Wire() string {
	if c.Replies != 0 {
		return c.Text + strconv.Itoa(c.Replies) + elm.CR
	}
	return c.Text + elm.CR
}

// WriteQueue is a bounded FIFO of pending commands. It is not safe for
// concurrent use; the Session guards it with its own lock.
type WriteQueue struct {
	items    []PendingCommand
	capacity int
}

func NewWriteQueue(capacity int) *WriteQueue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &WriteQueue{capacity: capacity}
}

// Enqueue appends a command, or returns ErrQueueOverflow when the queue
// already holds capacity entries.
func (q *WriteQueue) Enqueue(cmd PendingCommand) error {
	if len(q.items) >= q.capacity {
		return ErrQueueOverflow
	}
	q.items = append(q.items, cmd)
	return nil
}

// Dequeue pops the oldest command.
func (q *WriteQueue) Dequeue() (PendingCommand, bool) {
	if len(q.items) == 0 {
		return PendingCommand{}, false
	}
	cmd := q.items[0]
	q.items[0] = PendingCommand{}
	q.items = q.items[1:]
	return cmd, true
}

func (q *WriteQueue) Len() int {
	return len(q.items)
}

func (q *WriteQueue) Cap() int {
	return q.capacity
}

func (q *WriteQueue) Clear() {
	q.items = nil
}
