// Package notify delivers short user-facing notifications, the console's
// equivalent of toast messages.
package notify

import (
	"log/slog"
	"sync"
	"time"
)

// Level of a notification
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a single message shown to the operator
type Notification struct {
	Level   Level
	Message string
	At      time.Time
}

// Notifier surfaces notifications to the operator
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Discard drops every notification
var Discard Notifier = discard{}

type discard struct{}

func (discard) Success(string) {}
func (discard) Error(string)   {}

// LogNotifier writes notifications to a structured logger
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier that logs every notification
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "notify")}
}

func (n *LogNotifier) Success(msg string) {
	n.logger.Info(msg, "level", LevelSuccess)
}

func (n *LogNotifier) Error(msg string) {
	n.logger.Warn(msg, "level", LevelError)
}

// Feed keeps the most recent notifications in memory for display
type Feed struct {
	mu       sync.Mutex
	items    []Notification
	capacity int
	onPush   func(Notification)
	now      func() time.Time
}

// NewFeed creates a feed holding at most capacity notifications
func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = 20
	}
	return &Feed{capacity: capacity, now: time.Now}
}

// OnPush registers a callback invoked after each notification is stored
func (f *Feed) OnPush(fn func(Notification)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onPush = fn
}

func (f *Feed) Success(msg string) {
	f.push(LevelSuccess, msg)
}

func (f *Feed) Error(msg string) {
	f.push(LevelError, msg)
}

func (f *Feed) push(level Level, msg string) {
	n := Notification{Level: level, Message: msg, At: f.now()}

	f.mu.Lock()
	f.items = append(f.items, n)
	if len(f.items) > f.capacity {
		f.items = f.items[len(f.items)-f.capacity:]
	}
	cb := f.onPush
	f.mu.Unlock()

	if cb != nil {
		cb(n)
	}
}

// Recent returns stored notifications, oldest first
func (f *Feed) Recent() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Notification, len(f.items))
	copy(out, f.items)
	return out
}

// Latest returns the most recent notification
func (f *Feed) Latest() (Notification, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.items) == 0 {
		return Notification{}, false
	}
	return f.items[len(f.items)-1], true
}

// Multi fans a notification out to several notifiers
func Multi(notifiers ...Notifier) Notifier {
	return multi(notifiers)
}

type multi []Notifier

func (m multi) Success(msg string) {
	for _, n := range m {
		n.Success(msg)
	}
}

func (m multi) Error(msg string) {
	for _, n := range m {
		n.Error(msg)
	}
}
