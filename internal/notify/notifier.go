// Package notify bridges domain events to user-visible notifications.
// It is the seam the toast-rendering collaborator plugs into; the built-in
// sink renders through the structured logger.
package notify

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tvetlabs/tvet-platform/internal/event"
)

type Notifier struct {
	bus *event.Bus
	log logrus.FieldLogger
}

func New(bus *event.Bus, log logrus.FieldLogger) *Notifier {
	return &Notifier{bus: bus, log: log}
}

// Attach subscribes the notifier to the bus: timer warnings and quiz
// completions become NotifyRequested messages, and NotifyRequested messages
// are rendered through the sink.
func (n *Notifier) Attach() {
	n.bus.Subscribe(func(e event.Event) {
		switch ev := e.(type) {
		case event.TimerWarning:
			n.bus.Publish(event.NotifyRequested{
				Message:  warningMessage(ev.RemainingSeconds),
				Severity: event.SeverityWarning,
				DurationMs: 3000,
			})
		case event.QuizCompleted:
			n.bus.Publish(completedNotice(ev))
		case event.NotifyRequested:
			n.render(ev)
		}
	})
}

func warningMessage(remaining int) string {
	switch remaining {
	case 300:
		return "5 minutes remaining!"
	case 60:
		return "1 minute remaining!"
	default:
		return fmt.Sprintf("%d seconds remaining!", remaining)
	}
}

func completedNotice(ev event.QuizCompleted) event.NotifyRequested {
	if ev.Passed {
		return event.NotifyRequested{
			Message:  fmt.Sprintf("You passed with %d%%!", ev.Score),
			Severity: event.SeveritySuccess,
			DurationMs: 5000,
		}
	}
	msg := fmt.Sprintf("You scored %d%%. Keep practicing!", ev.Score)
	if ev.TimedOut {
		msg = "Time is up! " + msg
	}
	return event.NotifyRequested{
		Message:  msg,
		Severity: event.SeverityWarning,
		DurationMs: 5000,
	}
}

func (n *Notifier) render(ev event.NotifyRequested) {
	n.log.WithFields(logrus.Fields{
		"severity":    ev.Severity,
		"duration_ms": ev.DurationMs,
	}).Info(ev.Message)
}
