package main

import (
	"log/slog"
	"time"

	"github.com/hsccorp/node-bluetooth-tcp-obd/obd"
)

// EventForwarder consumes the events of a session. It starts polling once
// the adapter is configured and hands every decoded reply to the hub.
type EventForwarder struct {
	Logger       *slog.Logger
	Session      *obd.Session
	Hub          *Hub
	Pollers      []string
	PollInterval time.Duration
}

// Run blocks until the session's event channel is closed.
func (f *EventForwarder) Run() {
	for ev := range f.Session.Events() {
		switch ev.Kind {
		case obd.EventConnected:
			f.startPolling()
		case obd.EventDataReceived:
			f.forward(ev.Reply)
		case obd.EventError:
			f.Logger.Error("OBD-II session error", "message", ev.Message)
		case obd.EventDebug:
			f.Logger.Debug(ev.Message)
		}
	}
}

func (f *EventForwarder) startPolling() {
	if len(f.Pollers) == 0 {
		return
	}
	for _, name := range f.Pollers {
		if !f.Session.AddPoller(name) {
			f.Logger.Warn("Ignoring unknown poller", "name", name)
		}
	}
	if err := f.Session.StartPolling(f.PollInterval); err != nil {
		f.Logger.Error("Failed to start polling", "error", err)
		return
	}
	f.Logger.Info("Polling started", "pollers", f.Session.Pollers(), "interval", f.Session.PollInterval())
}

func (f *EventForwarder) forward(reply obd.Reply) {
	var unit string
	if d, ok := f.Session.Descriptor(reply.Name); ok {
		unit = d.Unit
	}
	f.Logger.Debug("Reply", "name", reply.Name, "value", reply.Value, "unit", unit)
	if f.Hub != nil {
		f.Hub.Broadcast(reply, unit)
	}
}
