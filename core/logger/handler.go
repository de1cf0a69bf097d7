package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	tsLayout = "2006-01-02T15:04:05.000Z07:00"
)

type handlerConfig struct {
	level    slog.Leveler
	writer   *asyncWriter
	format   logFormat
	keyOrder []string
}

// structuredHandler renders slog records as single-line KV or JSON with a
// stable key prefix order.
type structuredHandler struct {
	cfg    handlerConfig
	attrs  []slog.Attr
	groups []string
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if cfg.keyOrder == nil {
		cfg.keyOrder = append([]string(nil), defaultKeyOrder...)
	}
	return &structuredHandler{cfg: cfg}
}

func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	min := slog.LevelInfo
	if h.cfg.level != nil {
		min = h.cfg.level.Level()
	}
	return level >= min
}

// Handle renders the record and hands the line to the async writer.
func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.writer == nil {
		return fmt.Errorf("logger: writer not initialized")
	}

	rec := make(map[string]any, 16)
	asJSON := h.cfg.format == formatJSON

	ts := r.Time.UTC()
	rec["ts"] = ts.Truncate(time.Millisecond).Format(tsLayout)
	rec["level"] = normalizeLevel(r.Level.String())
	if asJSON {
		rec["ts_unix_nano"] = ts.UnixNano()
	}

	for _, a := range h.attrs {
		h.addAttr(rec, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.addAttr(rec, a)
		return true
	})
	mergeContext(ctx, rec)

	// Long correlation IDs get compacted; JSON keeps the original
	// alongside, KV drops it to stay grep-friendly.
	if rid, ok := fieldString(rec, "rid"); ok && rid != "" {
		if short := CompactRID(rid); short != "" && short != rid {
			if asJSON {
				if _, dup := rec["rid_full"]; !dup {
					rec["rid_full"] = rid
				}
			}
			rec["rid"] = short
		}
	}

	if ev, ok := fieldString(rec, "event"); !ok || ev == "" {
		rec["event"] = "unknown"
		if r.Message != "" {
			rec["event"] = r.Message
		}
	}
	if comp, ok := fieldString(rec, "component"); !ok || comp == "" {
		rec["component"] = "app"
	}

	normalizeEnums(rec)
	dropEmpty(rec)

	var (
		line []byte
		err  error
	)
	if asJSON {
		line, err = encodeJSON(rec, h.cfg.keyOrder)
	} else {
		line = encodeKV(rec, h.cfg.keyOrder)
	}
	if err != nil {
		return err
	}
	if n := len(line); n == 0 || line[n-1] != '\n' {
		line = append(line, '\n')
	}
	return h.cfg.writer.Write(line)
}

func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &next
}

func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}

func (h *structuredHandler) addAttr(rec map[string]any, attr slog.Attr) {
	walkAttr(strings.Join(h.groups, "."), attr, func(k string, v slog.Value) {
		if k == "" {
			return
		}
		key, val, keep := coerceValue(k, v)
		if keep {
			rec[key] = val
		}
	})
}

// walkAttr recurses into groups, emitting dotted leaf keys.
func walkAttr(prefix string, attr slog.Attr, emit func(string, slog.Value)) {
	key := attr.Key
	switch {
	case key == "":
		key = prefix
	case prefix != "":
		key = prefix + "." + key
	}
	if attr.Value.Kind() == slog.KindGroup {
		for _, child := range attr.Value.Group() {
			walkAttr(key, child, emit)
		}
		return
	}
	emit(key, attr.Value)
}

// durationKey rewrites a key naming a duration so the unit is explicit.
func durationKey(key string) string {
	switch {
	case key == "duration":
		return "duration_ms"
	case strings.HasSuffix(key, "_duration"):
		return strings.TrimSuffix(key, "_duration") + "_duration_ms"
	case strings.HasSuffix(key, "_ms"):
		return key
	}
	return key + "_ms"
}

func coerceValue(key string, val slog.Value) (string, any, bool) {
	if key == "" {
		return "", nil, false
	}
	switch val.Kind() {
	case slog.KindString:
		return key, strings.TrimSpace(val.String()), true
	case slog.KindBool:
		return key, val.Bool(), true
	case slog.KindInt64:
		return key, val.Int64(), true
	case slog.KindUint64:
		u := val.Uint64()
		if u <= math.MaxInt64 {
			return key, int64(u), true
		}
		return key, u, true
	case slog.KindFloat64:
		return key, val.Float64(), true
	case slog.KindDuration:
		return durationKey(key), RoundMS(val.Duration()).Milliseconds(), true
	case slog.KindTime:
		return key, val.Time().UTC().Format(time.RFC3339Nano), true
	case slog.KindAny:
		switch x := val.Any().(type) {
		case error:
			return key, x.Error(), true
		case string:
			return key, strings.TrimSpace(x), true
		case time.Duration:
			return durationKey(key), RoundMS(x).Milliseconds(), true
		case fmt.Stringer:
			return key, x.String(), true
		case nil:
			return key, nil, false
		default:
			return key, fmt.Sprint(x), true
		}
	default:
		return key, val.Any(), true
	}
}

// normalizeEnums canonicalizes the closed-vocabulary fields and drops
// values outside the vocabulary.
func normalizeEnums(rec map[string]any) {
	if lv, ok := fieldString(rec, "level"); ok {
		rec["level"] = normalizeLevel(lv)
	}
	if s, ok := fieldString(rec, "status"); ok && s != "" {
		if canon, valid := normalizeStatus(s); valid {
			rec["status"] = canon
		} else {
			rec["status"] = s
		}
	}
	if c, ok := fieldString(rec, "cache"); ok && c != "" {
		if canon, valid := normalizeCache(c); valid {
			rec["cache"] = canon
		} else {
			delete(rec, "cache")
		}
	}
	if o, ok := fieldString(rec, "outcome"); ok && o != "" {
		if canon, valid := normalizeOutcome(o); valid {
			rec["outcome"] = canon
		} else {
			delete(rec, "outcome")
		}
	}
}

func dropEmpty(rec map[string]any) {
	for k, v := range rec {
		switch val := v.(type) {
		case string:
			if val == "" {
				delete(rec, k)
			}
		case fmt.Stringer:
			if val.String() == "" {
				delete(rec, k)
			}
		case nil:
			delete(rec, k)
		}
	}
}

func encodeJSON(rec map[string]any, order []string) ([]byte, error) {
	var buf strings.Builder
	buf.WriteByte('{')
	wrote := 0
	done := make(map[string]struct{}, len(rec))
	emit := func(k string) error {
		data, err := json.Marshal(rec[k])
		if err != nil {
			return err
		}
		if wrote > 0 {
			buf.WriteByte(',')
		}
		wrote++
		buf.WriteString(strconv.Quote(k))
		buf.WriteByte(':')
		buf.Write(data)
		done[k] = struct{}{}
		return nil
	}
	for _, key := range order {
		if _, ok := rec[key]; !ok {
			continue
		}
		if err := emit(key); err != nil {
			return nil, err
		}
	}
	rest := make([]string, 0, len(rec))
	for k := range rec {
		if _, ok := done[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		if err := emit(key); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return []byte(buf.String()), nil
}

func encodeKV(rec map[string]any, order []string) []byte {
	var b strings.Builder
	for i, key := range sortKeys(rec, order) {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(kvValue(rec[key]))
	}
	return []byte(b.String())
}

// sortKeys returns the ordered prefix keys first, then the rest sorted.
func sortKeys(rec map[string]any, order []string) []string {
	keys := make([]string, 0, len(rec))
	taken := make(map[string]struct{}, len(rec))
	for _, key := range order {
		if _, ok := rec[key]; ok {
			keys = append(keys, key)
			taken[key] = struct{}{}
		}
	}
	head := len(keys)
	for key := range rec {
		if _, ok := taken[key]; !ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys[head:])
	return keys
}

func kvValue(val any) string {
	switch v := val.(type) {
	case string:
		return kvQuote(v)
	case bool:
		return strconv.FormatBool(v)
	case int, int64, uint64, float64:
		return fmt.Sprint(v)
	default:
		return kvQuote(fmt.Sprint(v))
	}
}

func kvQuote(s string) string {
	needs := strings.IndexFunc(s, func(r rune) bool {
		return r <= 32 || r == '=' || r == '"'
	})
	if needs >= 0 {
		return strconv.Quote(s)
	}
	return s
}

func fieldString(rec map[string]any, key string) (string, bool) {
	v, ok := rec[key]
	if !ok {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, true
	case fmt.Stringer:
		return val.String(), true
	default:
		return fmt.Sprint(val), true
	}
}

// mergeContext lifts correlation values off the context; explicit attrs win.
func mergeContext(ctx context.Context, rec map[string]any) {
	if ctx == nil {
		return
	}
	setMissing := func(key string, present bool, val any) {
		if !present {
			return
		}
		if _, ok := rec[key]; !ok {
			rec[key] = val
		}
	}
	rid := RIDFrom(ctx)
	setMissing("rid", rid != "", rid)
	traceID := TraceIDFrom(ctx)
	setMissing("trace_id", traceID != "", traceID)
	spanID := SpanIDFrom(ctx)
	setMissing("span_id", spanID != "", spanID)
	uid := UserIDFrom(ctx)
	setMissing("user_id", uid != 0, uid)
	updateID := UpdateIDFrom(ctx)
	setMissing("update_id", updateID != 0, updateID)
	cid := ChatIDFrom(ctx)
	setMissing("chat_id", cid != 0, cid)
	handler := HandlerFrom(ctx)
	setMissing("handler", handler != "", handler)
}
