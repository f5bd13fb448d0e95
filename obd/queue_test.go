package obd_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hsccorp/node-bluetooth-tcp-obd/obd"
)

func TestPendingCommandWire(t *testing.T) {
	tests := []struct {
		name     string
		cmd      obd.PendingCommand
		expected string
	}{
		{name: "AT command", cmd: obd.PendingCommand{Text: "ATZ"}, expected: "ATZ\r"},
		{name: "Unbounded replies", cmd: obd.PendingCommand{Text: "010C"}, expected: "010C\r"},
		{name: "Single reply", cmd: obd.PendingCommand{Text: "010C", Replies: 1}, expected: "010C1\r"},
		{name: "Mode only with replies", cmd: obd.PendingCommand{Text: "03", Replies: 2}, expected: "032\r"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cmd.Wire(); got != tt.expected {
				t.Errorf("Wire() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestWriteQueue(t *testing.T) {
	t.Run("FIFO order", func(t *testing.T) {
		q := obd.NewWriteQueue(0)
		for _, text := range []string{"010C", "010D", "0105"} {
			if err := q.Enqueue(obd.PendingCommand{Text: text}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		for _, want := range []string{"010C", "010D", "0105"} {
			cmd, ok := q.Dequeue()
			if !ok || cmd.Text != want {
				t.Errorf("Dequeue() = %q, %v, want %q", cmd.Text, ok, want)
			}
		}
		if _, ok := q.Dequeue(); ok {
			t.Error("expected empty queue")
		}
	})

	t.Run("Default capacity is 256", func(t *testing.T) {
		q := obd.NewWriteQueue(0)
		if q.Cap() != 256 {
			t.Errorf("Cap() = %d, want 256", q.Cap())
		}
	})

	t.Run("Overflow rejects the 257th command", func(t *testing.T) {
		q := obd.NewWriteQueue(obd.DefaultQueueCapacity)
		for i := 0; i < 256; i++ {
			if err := q.Enqueue(obd.PendingCommand{Text: fmt.Sprintf("%04X", i)}); err != nil {
				t.Fatalf("enqueue %d: unexpected error: %v", i, err)
			}
		}

		err := q.Enqueue(obd.PendingCommand{Text: "010C"})
		if !errors.Is(err, obd.ErrQueueOverflow) {
			t.Errorf("expected ErrQueueOverflow, got: %v", err)
		}
		if q.Len() != 256 {
			t.Errorf("Len() = %d, want 256", q.Len())
		}

		// The oldest entry is untouched by the rejected command.
		if cmd, _ := q.Dequeue(); cmd.Text != "0000" {
			t.Errorf("Dequeue() = %q, want 0000", cmd.Text)
		}
	})

	t.Run("Clear empties the queue", func(t *testing.T) {
		q := obd.NewWriteQueue(4)
		q.Enqueue(obd.PendingCommand{Text: "010C"})
		q.Enqueue(obd.PendingCommand{Text: "010D"})
		q.Clear()
		if q.Len() != 0 {
			t.Errorf("Len() = %d after Clear, want 0", q.Len())
		}
		if err := q.Enqueue(obd.PendingCommand{Text: "010C"}); err != nil {
			t.Errorf("unexpected error after Clear: %v", err)
		}
	})
}
