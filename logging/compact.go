// Package logging provides the slog handler used by the long-running
// Handlords processes.
package logging

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// CompactJSONHandler is a slog.Handler that prints one compact JSON object
// per line. Batch runs emit a log line per finished game, so the output is
// meant to be grepped and fed to line-oriented tools, not read in an editor.
type CompactJSONHandler struct {
	w     io.Writer
	mu    *sync.Mutex
	level slog.Leveler

	attrs  []slog.Attr
	groups []string
}

func NewCompactJSONHandler(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &CompactJSONHandler{
		w:     w,
		mu:    &sync.Mutex{},
		level: level,
	}
}

func (h *CompactJSONHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *CompactJSONHandler) Handle(_ context.Context, r slog.Record) error {
	payload := make(map[string]any, 4+len(h.attrs))

	when := r.Time
	if when.IsZero() {
		when = time.Now()
	}
	payload["time"] = when.Format(time.RFC3339Nano)
	payload["level"] = r.Level.String()
	payload["msg"] = r.Message

	for _, a := range h.attrs {
		addAttr(payload, h.groups, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttr(payload, h.groups, a)
		return true
	})

	b, err := json.Marshal(payload)
	if err != nil {
		// As a last resort, avoid dropping logs.
		b = []byte(`{"level":"ERROR","msg":` + strconv.Quote("marshal log: "+err.Error()) + `}`)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.w.Write(append(b, '\n'))
	return err
}

func (h *CompactJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *CompactJSONHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

func addAttr(root map[string]any, groups []string, attr slog.Attr) {
	if attr.Key == "" {
		return
	}
	dst := root
	for _, g := range groups {
		m, ok := dst[g].(map[string]any)
		if !ok {
			m = map[string]any{}
			dst[g] = m
		}
		dst = m
	}
	addAttrToMap(dst, attr)
}

func addAttrToMap(dst map[string]any, attr slog.Attr) {
	v := attr.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		child := map[string]any{}
		for _, ga := range v.Group() {
			if ga.Key != "" {
				addAttrToMap(child, ga)
			}
		}
		dst[attr.Key] = child
		return
	}
	dst[attr.Key] = valueToAny(v)
}

func valueToAny(v slog.Value) any {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	case slog.KindAny:
		return v.Any()
	default:
		return v.String()
	}
}
