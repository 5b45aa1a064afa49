package notify

import (
	"log/slog"
	"sync"

	"github.com/aq2208/gpos-checkout/internal/usecase"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
)

type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Buffer collects notices until the caller drains them into a response.
type Buffer struct {
	log *slog.Logger

	mu      sync.Mutex
	notices []Notice
}

func NewBuffer(log *slog.Logger) *Buffer {
	return &Buffer{log: log}
}

func (b *Buffer) Success(msg string) { b.add(LevelSuccess, msg) }
func (b *Buffer) Error(msg string)   { b.add(LevelError, msg) }
func (b *Buffer) Info(msg string)    { b.add(LevelInfo, msg) }
func (b *Buffer) Warning(msg string) { b.add(LevelWarning, msg) }

func (b *Buffer) add(level Level, msg string) {
	if b.log != nil {
		b.log.Debug("notice", "level", string(level), "message", msg)
	}
	b.mu.Lock()
	b.notices = append(b.notices, Notice{Level: level, Message: msg})
	b.mu.Unlock()
}

// Drain returns the pending notices in emission order and empties the buffer.
func (b *Buffer) Drain() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.notices
	b.notices = nil
	if out == nil {
		return []Notice{}
	}
	return out
}

var _ usecase.Notifier = (*Buffer)(nil)
