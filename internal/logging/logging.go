package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"gopkg.in/natefinch/lumberjack.v2"
)

type ctxKey struct{}

const ginKey = "logger"

// rotation limits for the log file
const (
	maxSizeMB  = 50
	maxBackups = 3
	maxAgeDays = 7
)

var (
	once sync.Once
	mu   sync.RWMutex
	base *slog.Logger
)

// Init configures the process logger once; later calls return it unchanged.
// An empty filePath logs to stdout only.
func Init(component, filePath, level string) *slog.Logger {
	once.Do(func() {
		var w io.Writer = os.Stdout
		if filePath != "" {
			_ = os.MkdirAll(filepath.Dir(filePath), 0755)
			w = io.MultiWriter(os.Stdout, &lumberjack.Logger{
				Filename:   filePath,
				MaxSize:    maxSizeMB,
				MaxBackups: maxBackups,
				MaxAge:     maxAgeDays,
			})
		}

		h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
		mu.Lock()
		base = slog.New(h).With("service", component)
		mu.Unlock()
	})
	return Base()
}

// ParseLevel maps a config string to a slog level; unknown values mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Base returns the process logger, falling back to stdout at info level.
func Base() *slog.Logger {
	mu.RLock()
	l := base
	mu.RUnlock()
	if l == nil {
		return Init("gpos-checkout", "", "info")
	}
	return l
}

// New tags a child of the process logger with a component name. The handler is shared.
func New(component string) *slog.Logger {
	return Base().With("component", component)
}

// WithCtx carries a request-scoped logger into use case code.
func WithCtx(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

func FromCtx(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return Base()
}

func With(c *gin.Context, l *slog.Logger) {
	c.Set(ginKey, l)
}

// From returns the logger set by the request middleware, or Base.
func From(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(ginKey); ok {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return Base()
}
