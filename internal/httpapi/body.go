package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const maxBodyBytes = 256 << 10

// body is a loosely read JSON object. Anything that is not a JSON object of
// at most maxBodyBytes reads as an empty one, so every field falls back to
// its default instead of failing the request.
type body map[string]json.RawMessage

func readBody(c *gin.Context) body {
	if c.Request.Body == nil {
		return body{}
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
	if err != nil || len(raw) > maxBodyBytes {
		return body{}
	}
	var b body
	if err := json.Unmarshal(raw, &b); err != nil || b == nil {
		return body{}
	}
	return b
}

func (b body) has(key string) bool {
	_, ok := b[key]
	return ok
}

// value decodes one field; numbers stay json.Number.
func (b body) value(key string) any {
	raw, ok := b[key]
	if !ok {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

// text returns the field as a string. Falsy values give "", strings are
// returned as sent and any other value as its JSON text.
func (b body) text(key string) string {
	v := b.value(key)
	if s, ok := v.(string); ok {
		return s
	}
	if !truthy(v) {
		return ""
	}
	return string(bytes.TrimSpace(b[key]))
}

// nullableText is text that keeps null apart from the empty string.
func (b body) nullableText(key string) *string {
	v := b.value(key)
	if v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		return &s
	}
	s := string(bytes.TrimSpace(b[key]))
	return &s
}

// integer reads a whole number from a JSON number, a numeric string or a
// boolean. Anything else is 0.
func (b body) integer(key string) int {
	switch v := b.value(key).(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return clampInt(n)
		}
		if f, err := v.Float64(); err == nil && !math.IsNaN(f) {
			return clampInt(int64(math.Max(math.MinInt32, math.Min(math.MaxInt32, f))))
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return clampInt(n)
		}
	case bool:
		if v {
			return 1
		}
	}
	return 0
}

func (b body) truthy(key string) bool {
	return truthy(b.value(key))
}

// object reads a nested JSON object, or an empty one.
func (b body) object(key string) body {
	raw, ok := b[key]
	if !ok {
		return body{}
	}
	var nested body
	if err := json.Unmarshal(raw, &nested); err != nil || nested == nil {
		return body{}
	}
	return nested
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

func clampInt(n int64) int {
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	if n < math.MinInt32 {
		return math.MinInt32
	}
	return int(n)
}
