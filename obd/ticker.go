package obd

import (
	"sync"

	"github.com/jonboulle/clockwork"
)

// tickLoop runs fn on every tick of a ticker in its own goroutine. A tick is
// handled completely before the next one is received, so ticks never overlap.
type tickLoop struct {
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func startTickLoop(ticker clockwork.Ticker, fn func()) *tickLoop {
	l := &tickLoop{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go func() {
		defer close(l.done)
		defer ticker.Stop()
		for {
			select {
			case <-l.stop:
				return
			case <-ticker.Chan():
				fn()
			}
		}
	}()
	return l
}

// halt asks the loop to exit after the tick in progress, if any.
// It is safe to call on a nil loop and from inside fn.
func (l *tickLoop) halt() {
	if l == nil {
		return
	}
	l.stopOnce.Do(func() { close(l.stop) })
}

// wait blocks until the loop goroutine has exited. Never call it from fn.
func (l *tickLoop) wait() {
	if l == nil {
		return
	}
	<-l.done
}
