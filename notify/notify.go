// Package notify reports background failures (fetches, submissions, startup
// steps) to whoever is watching: the log, the UI feed, a NATS subject.
package notify

import (
	"context"
	"log"
	"sync"
	"time"
)

// Level is the severity of an event
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Event is one user-visible notification
type Event struct {
	Time    time.Time `json:"time"`
	Level   Level     `json:"level"`
	Source  string    `json:"source"`
	Message string    `json:"message"`
}

// Failure builds an error event from err. The message is err's text verbatim.
func Failure(source string, err error) Event {
	return Event{Time: time.Now(), Level: LevelError, Source: source, Message: err.Error()}
}

// Info builds an informational event
func Info(source, message string) Event {
	return Event{Time: time.Now(), Level: LevelInfo, Source: source, Message: message}
}

// Reporter receives events. Implementations must not block for long and must
// be safe for concurrent use.
type Reporter interface {
	Report(ctx context.Context, event Event)
}

// Nop discards events
type Nop struct{}

func (Nop) Report(context.Context, Event) {}

// LogReporter writes events to the standard logger
type LogReporter struct{}

func (LogReporter) Report(_ context.Context, event Event) {
	switch event.Level {
	case LevelError:
		log.Printf("❌ %s: %s", event.Source, event.Message)
	case LevelWarning:
		log.Printf("⚠️  %s: %s", event.Source, event.Message)
	default:
		log.Printf("✅ %s: %s", event.Source, event.Message)
	}
}

// Feed keeps the most recent events in memory for the UI to poll
type Feed struct {
	mu     sync.Mutex
	limit  int
	events []Event
}

// NewFeed creates a feed holding at most limit events (50 when limit <= 0)
func NewFeed(limit int) *Feed {
	if limit <= 0 {
		limit = 50
	}
	return &Feed{limit: limit}
}

func (f *Feed) Report(_ context.Context, event Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	if over := len(f.events) - f.limit; over > 0 {
		f.events = append([]Event(nil), f.events[over:]...)
	}
}

// Events returns the buffered events, oldest first
func (f *Feed) Events() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Event(nil), f.events...)
}

// Clear drops all buffered events
func (f *Feed) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
}

// Multi fans an event out to several reporters in order
type Multi []Reporter

func (m Multi) Report(ctx context.Context, event Event) {
	for _, r := range m {
		if r != nil {
			r.Report(ctx, event)
		}
	}
}
