package warehouse

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/tenure/internal/metrics"
	"github.com/huangsam/tenure/schema"
)

// cacheVersion changes whenever the encoding of cached rows changes.
const cacheVersion = 1

// cacheKey identifies a statement on one database of a backend.
func cacheKey(backend schema.DatabaseBackend, identity string, stmt schema.Statement) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%s\x00%s\x00%s\x00", backend, identity, stmt.SQL)
	for _, a := range stmt.Args {
		_, _ = fmt.Fprintf(h, "%T:%v\x00", a, a)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (w *Warehouse) lookup(key string) ([]schema.Row, bool) {
	if w.cache == nil {
		return nil, false
	}
	value, version, ts, err := w.cache.Get(key)
	if err != nil || version != cacheVersion {
		metrics.ObserveCache(metrics.CacheMiss)
		return nil, false
	}
	if w.ttl > 0 && w.now().Sub(time.Unix(ts, 0)) > w.ttl {
		metrics.ObserveCache(metrics.CacheExpired)
		return nil, false
	}
	rows, err := decodeRows(value)
	if err != nil {
		w.log.Warn().Err(err).Msg("discarding unreadable cache entry")
		metrics.ObserveCache(metrics.CacheMiss)
		return nil, false
	}
	metrics.ObserveCache(metrics.CacheHit)
	w.log.Debug().Str("key", key[:12]).Int("rows", len(rows)).Msg("cache hit")
	return rows, true
}

func (w *Warehouse) store(key string, rows []schema.Row) {
	if w.cache == nil {
		return
	}
	value, err := encodeRows(rows)
	if err != nil {
		w.log.Warn().Err(err).Msg("failed to encode rows for cache")
		return
	}
	if err := w.cache.Set(key, value, cacheVersion, w.now().Unix()); err != nil {
		w.log.Warn().Err(err).Msg("failed to write query cache")
	}
}

// cell keeps the Go type of a driver value across a JSON round trip.
type cell struct {
	T string          `json:"t"`
	V json.RawMessage `json:"v,omitempty"`
}

func encodeRows(rows []schema.Row) ([]byte, error) {
	out := make([]map[string]cell, len(rows))
	for i, row := range rows {
		m := make(map[string]cell, len(row))
		for k, v := range row {
			c, err := encodeCell(v)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", k, err)
			}
			m[k] = c
		}
		out[i] = m
	}
	return json.Marshal(out)
}

func encodeCell(v any) (cell, error) {
	var typ string
	switch x := v.(type) {
	case nil:
		return cell{T: "null"}, nil
	case time.Time:
		typ, v = "time", x.UTC().Format(time.RFC3339Nano)
	case int64:
		typ = "int"
	case int32:
		typ, v = "int", int64(x)
	case int:
		typ, v = "int", int64(x)
	case uint64:
		typ = "uint"
	case uint32:
		typ, v = "uint", uint64(x)
	case uint16:
		typ, v = "uint", uint64(x)
	case uint8:
		typ, v = "uint", uint64(x)
	case float64:
		typ = "float"
	case float32:
		typ, v = "float", float64(x)
	case bool:
		typ = "bool"
	case string:
		typ = "string"
	case []byte:
		typ = "bytes"
	default:
		return cell{}, fmt.Errorf("unsupported value type %T", v)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return cell{}, err
	}
	return cell{T: typ, V: raw}, nil
}

func decodeRows(data []byte) ([]schema.Row, error) {
	var in []map[string]cell
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	rows := make([]schema.Row, len(in))
	for i, m := range in {
		row := make(schema.Row, len(m))
		for k, c := range m {
			v, err := decodeCell(c)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", k, err)
			}
			row[k] = v
		}
		rows[i] = row
	}
	return rows, nil
}

func decodeCell(c cell) (any, error) {
	switch c.T {
	case "null":
		return nil, nil
	case "time":
		var s string
		if err := json.Unmarshal(c.V, &s); err != nil {
			return nil, err
		}
		return time.Parse(time.RFC3339Nano, s)
	case "int":
		var n int64
		err := json.Unmarshal(c.V, &n)
		return n, err
	case "uint":
		var n uint64
		err := json.Unmarshal(c.V, &n)
		return n, err
	case "float":
		var f float64
		err := json.Unmarshal(c.V, &f)
		return f, err
	case "bool":
		var b bool
		err := json.Unmarshal(c.V, &b)
		return b, err
	case "string":
		var s string
		err := json.Unmarshal(c.V, &s)
		return s, err
	case "bytes":
		var b []byte
		err := json.Unmarshal(c.V, &b)
		return b, err
	default:
		return nil, fmt.Errorf("unknown cell type %q", c.T)
	}
}
