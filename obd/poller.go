package obd

import (
	"errors"
	"slices"
	"time"
)

// AddPoller registers a parameter for periodic requests. Unknown names are
// ignored and reported with a debug event; the result tells which happened.
// Duplicates are allowed and are requested once per entry.
func (s *Session) AddPoller(name string) bool {
	cmd, ok := s.codec.Encode(name)
	if !ok {
		s.debug("Unknown PID name: " + name)
		return false
	}
	s.mu.Lock()
	s.pollers = append(s.pollers, cmd)
	s.mu.Unlock()
	return true
}

// RemovePoller drops the first entry registered for name. It does nothing
// when there is none.
func (s *Session) RemovePoller(name string) {
	cmd, ok := s.codec.Encode(name)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := slices.Index(s.pollers, cmd); i >= 0 {
		s.pollers = slices.Delete(s.pollers, i, i+1)
	}
}

func (s *Session) RemoveAllPollers() {
	s.mu.Lock()
	s.pollers = nil
	s.mu.Unlock()
}

func (s *Session) NumPollers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pollers)
}

// Pollers returns the request bodies of the active pollers, in order.
func (s *Session) Pollers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.pollers)
}

// StartPolling requests every active poller once per interval. A zero
// interval is derived from the pollers: two write delays per poller, which
// leaves room in the queue for manual requests. A running poll ticker is
// replaced.
func (s *Session) StartPolling(interval time.Duration) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrAlreadyClosed
	}
	if interval == 0 {
		interval = time.Duration(len(s.pollers)) * 2 * s.config.writeDelay
	}
	if interval <= 0 {
		s.mu.Unlock()
		return ErrInvalidInterval
	}
	previous := s.poll
	s.poll = startTickLoop(s.clock.NewTicker(interval), s.pollOnce)
	s.pollInterval = interval
	s.mu.Unlock()

	previous.halt()
	previous.wait()

	s.logger.Debug("Polling started", "interval", interval)
	return nil
}

// StopPolling stops the poll ticker. The pollers stay registered.
func (s *Session) StopPolling() {
	s.mu.Lock()
	poll := s.poll
	s.poll = nil
	s.pollInterval = 0
	s.mu.Unlock()

	poll.halt()
	poll.wait()
}

// PollInterval returns the period of the running poll ticker, or zero.
func (s *Session) PollInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pollInterval
}

// pollOnce queues one single-reply request per active poller.
func (s *Session) pollOnce() {
	for _, cmd := range s.Pollers() {
		if err := s.write(cmd, 1, true); errors.Is(err, ErrNotConnected) {
			return
		}
	}
}
