package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

type Logger struct {
	*slog.Logger
}

var (
	level  = new(slog.LevelVar)
	output io.Writer = os.Stdout
)

// SetLevel accepts debug, info, warn or error.
func SetLevel(s string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(s)))); err != nil {
		return fmt.Errorf("log level %q: %w", s, err)
	}

	level.Set(l)
	return nil
}

// SetOutput redirects every logger created afterwards.
func SetOutput(w io.Writer) {
	output = w
}

func New() *Logger {
	log := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: level,
	}))

	return &Logger{Logger: log}
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

func NewMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := New().With(
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
			ctx := NewContext(r.Context(), log)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type loggerContextKey string

const contextKeyValue loggerContextKey = "context-logger"

func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKeyValue, l)
}

func FromContext(ctx context.Context) *Logger {
	if l := ctx.Value(contextKeyValue); l != nil {
		return l.(*Logger)
	}

	return New()
}
