package logger

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
)

// Level controls which messages are written.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
)

var level atomic.Int32

func init() {
	level.Store(int32(LevelInfo))
}

// SetLevel changes the minimum level written.
func SetLevel(l Level) {
	level.Store(int32(l))
}

// ParseLevel maps "debug", "info" and "error" to a Level; anything else is info.
func ParseLevel(raw string) Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return LevelDebug
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

type ctxKey struct{}

// WithFields returns a context whose log lines carry the given key/value pairs.
func WithFields(ctx context.Context, kv ...any) context.Context {
	prev, _ := ctx.Value(ctxKey{}).([]any)
	fields := make([]any, 0, len(prev)+len(kv))
	fields = append(fields, prev...)
	fields = append(fields, kv...)
	return context.WithValue(ctx, ctxKey{}, fields)
}

func Debug(ctx context.Context, msg string, kv ...any) {
	if Level(level.Load()) > LevelDebug {
		return
	}
	write(ctx, "DEBUG", msg, kv)
}

func Info(ctx context.Context, msg string, kv ...any) {
	if Level(level.Load()) > LevelInfo {
		return
	}
	write(ctx, "INFO", msg, kv)
}

// Error logs msg with err appended as "msg: err". A nil err logs msg alone.
func Error(ctx context.Context, err error, msg string, kv ...any) {
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	write(ctx, "ERROR", msg, kv)
}

func write(ctx context.Context, tag, msg string, kv []any) {
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(tag)
	sb.WriteString("] ")
	sb.WriteString(msg)

	if ctx != nil {
		if fields, ok := ctx.Value(ctxKey{}).([]any); ok {
			appendFields(&sb, fields)
		}
	}
	appendFields(&sb, kv)

	log.Print(sb.String())
}

func appendFields(sb *strings.Builder, kv []any) {
	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		var value any = "(missing)"
		if i+1 < len(kv) {
			value = kv[i+1]
		}
		fmt.Fprintf(sb, " %s=%v", key, value)
	}
}
