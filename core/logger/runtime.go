package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"
)

type contextKey string

const (
	ctxRID      contextKey = "rid"
	ctxUpdateID contextKey = "update_id"
	ctxUserID   contextKey = "user_id"
	ctxChatID   contextKey = "chat_id"
	ctxLogger   contextKey = "logger"
	ctxHandler  contextKey = "handler"
	ctxTraceID  contextKey = "trace_id"
	ctxSpanID   contextKey = "span_id"
)

func ensureCtx(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func ctxString(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(key).(string); ok {
		return s
	}
	return ""
}

func ctxInt64(ctx context.Context, key contextKey) int64 {
	if ctx == nil {
		return 0
	}
	switch id := ctx.Value(key).(type) {
	case int64:
		return id
	case int:
		return int64(id)
	}
	return 0
}

// WithLogger stores a request-scoped logger for propagation across layers.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	ctx = ensureCtx(ctx)
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxLogger, log)
}

// FromContext returns the request-scoped logger, or the global default.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxLogger).(*slog.Logger); ok {
			return l
		}
	}
	return L
}

// WithRID attaches a request correlation id.
func WithRID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ensureCtx(ctx), ctxRID, rid)
}

// RIDFrom returns the correlation id, or "".
func RIDFrom(ctx context.Context) string { return ctxString(ctx, ctxRID) }

// WithUpdateMeta attaches the identifiers shared by every update.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	ctx = ensureCtx(ctx)
	ctx = context.WithValue(ctx, ctxUpdateID, updateID)
	ctx = context.WithValue(ctx, ctxUserID, userID)
	return context.WithValue(ctx, ctxChatID, chatID)
}

// WithHandler records which handler owns the update for downstream logs.
func WithHandler(ctx context.Context, handler string) context.Context {
	ctx = ensureCtx(ctx)
	if handler == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxHandler, handler)
}

// HandlerFrom returns the owning handler name, or "".
func HandlerFrom(ctx context.Context) string { return ctxString(ctx, ctxHandler) }

// WithTrace attaches trace and span identifiers.
func WithTrace(ctx context.Context, traceID, spanID string) context.Context {
	ctx = ensureCtx(ctx)
	if traceID != "" {
		ctx = context.WithValue(ctx, ctxTraceID, traceID)
	}
	if spanID != "" {
		ctx = context.WithValue(ctx, ctxSpanID, spanID)
	}
	return ctx
}

// TraceIDFrom returns the trace id, or "".
func TraceIDFrom(ctx context.Context) string { return ctxString(ctx, ctxTraceID) }

// SpanIDFrom returns the span id, or "".
func SpanIDFrom(ctx context.Context) string { return ctxString(ctx, ctxSpanID) }

// UserIDFrom returns the Telegram user id, or 0.
func UserIDFrom(ctx context.Context) int64 { return ctxInt64(ctx, ctxUserID) }

// ChatIDFrom returns the chat id, or 0.
func ChatIDFrom(ctx context.Context) int64 { return ctxInt64(ctx, ctxChatID) }

// UpdateIDFrom returns the update id, or 0.
func UpdateIDFrom(ctx context.Context) int {
	return int(ctxInt64(ctx, ctxUpdateID))
}

// Sanitize strips control and format runes so user-supplied text cannot
// mangle a log line. Tab and newline survive.
func Sanitize(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) || r == 0x7F {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SanitizeLimit sanitizes s and truncates the result to max runes.
func SanitizeLimit(s string, max int) string {
	if max <= 0 {
		return ""
	}
	cleaned := []rune(Sanitize(s))
	if len(cleaned) <= max {
		return string(cleaned)
	}
	return string(cleaned[:max])
}

// BuildRID formats the correlation id as updateID:chatID:userID.
func BuildRID(updateID int, chatID, userID int64) string {
	return fmt.Sprintf("%d:%d:%d", updateID, chatID, userID)
}

// CompactRID rewrites a numeric colon-separated RID as dot-joined base36
// segments. Anything not matching the expected shape passes through as is.
func CompactRID(rid string) string {
	rid = strings.TrimSpace(rid)
	if rid == "" {
		return ""
	}
	parts := strings.Split(rid, ":")
	if len(parts) != 3 {
		return rid
	}
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || strings.TrimSpace(part) == "" {
			return rid
		}
		out = append(out, strings.ToLower(strconv.FormatInt(n, 36)))
	}
	return strings.Join(out, ".")
}
