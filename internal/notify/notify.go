package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Level is the severity of a user-visible notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is a transient user-visible message (the toast of the web client).
type Notice struct {
	Level   Level     `json:"level"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier surfaces notices to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// Inbox keeps the most recent notices for one client session until the
// client drains them. It also logs every notice.
type Inbox struct {
	mu       sync.Mutex
	notices  []Notice
	capacity int
	logger   *zap.Logger
	now      func() time.Time
}

// NewInbox creates an inbox retaining at most capacity notices.
func NewInbox(capacity int, logger *zap.Logger) *Inbox {
	if capacity <= 0 {
		capacity = 20
	}
	return &Inbox{capacity: capacity, logger: logger, now: time.Now}
}

func (b *Inbox) Notify(_ context.Context, n Notice) {
	if n.At.IsZero() {
		n.At = b.now()
	}

	fields := []zap.Field{zap.String("kind", n.Kind), zap.String("message", n.Message)}
	if n.Level == LevelError {
		b.logger.Warn("User notice", fields...)
	} else {
		b.logger.Debug("User notice", fields...)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.notices = append(b.notices, n)
	if over := len(b.notices) - b.capacity; over > 0 {
		b.notices = append([]Notice(nil), b.notices[over:]...)
	}
}

// Drain returns and clears the pending notices, oldest first.
func (b *Inbox) Drain() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.notices
	b.notices = nil
	if out == nil {
		return []Notice{}
	}
	return out
}

// Error is shorthand for an error-level notice.
func Error(kind, message string) Notice {
	return Notice{Level: LevelError, Kind: kind, Message: message}
}

// Info is shorthand for an info-level notice.
func Info(kind, message string) Notice {
	return Notice{Level: LevelInfo, Kind: kind, Message: message}
}

// Discard drops every notice.
type Discard struct{}

func (Discard) Notify(context.Context, Notice) {}
