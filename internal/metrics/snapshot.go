package metrics

import (
	"encoding/json"
	"math"
)

// Snapshot is an immutable view of one family's metric values. Absent or
// mistyped fields read as zero values.
type Snapshot struct {
	values map[string]any
}

// NewSnapshot deep-copies values into a new Snapshot.
func NewSnapshot(values map[string]any) Snapshot {
	return Snapshot{values: copyMap(values)}
}

// DecodeSnapshot parses a JSON object into a Snapshot. Numbers decode as
// float64.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{values: values}, nil
}

// Empty reports whether the snapshot holds no fields.
func (s Snapshot) Empty() bool {
	return len(s.values) == 0
}

// Has reports whether name is present.
func (s Snapshot) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}

// Number returns the numeric value of name, or 0.
func (s Snapshot) Number(name string) float64 {
	return toFloat(s.values[name])
}

// NumberOr returns the numeric value of name, or def when absent.
func (s Snapshot) NumberOr(name string, def float64) float64 {
	v, ok := s.values[name]
	if !ok {
		return def
	}
	return toFloat(v)
}

// Int returns the numeric value of name truncated to an int.
func (s Snapshot) Int(name string) int {
	return int(s.Number(name))
}

// String returns the string value of name, or "".
func (s Snapshot) String(name string) string {
	str, _ := s.values[name].(string)
	return str
}

// Map returns a copy of the nested numeric mapping under name. Non-numeric
// entries read as 0.
func (s Snapshot) Map(name string) map[string]float64 {
	nested, _ := s.values[name].(map[string]any)
	out := make(map[string]float64, len(nested))
	for k, v := range nested {
		out[k] = toFloat(v)
	}
	return out
}

// Path returns the number at values[outer][inner], or 0.
func (s Snapshot) Path(outer, inner string) float64 {
	nested, _ := s.values[outer].(map[string]any)
	return toFloat(nested[inner])
}

// Records returns copies of the object entries in the list under name.
// Entries that are not objects are skipped.
func (s Snapshot) Records(name string) []Record {
	list, _ := s.values[name].([]any)
	out := make([]Record, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, Record(copyMap(m)))
		}
	}
	return out
}

// Raw returns a deep copy of the underlying values.
func (s Snapshot) Raw() map[string]any {
	return copyMap(s.values)
}

// MarshalJSON implements json.Marshaler.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	if s.values == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.values)
}

// Record is one entry of a list-valued metric such as top_pages.
type Record map[string]any

// Number returns the numeric field name, or 0.
func (r Record) Number(name string) float64 {
	return toFloat(r[name])
}

// String returns the string field name, or "".
func (r Record) String(name string) string {
	str, _ := r[name].(string)
	return str
}

func toFloat(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case json.Number:
		f, _ = n.Float64()
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = copyValue(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = copyMap(item)
		}
		return out
	case map[string]float64:
		out := make(map[string]any, len(t))
		for k, f := range t {
			out[k] = f
		}
		return out
	default:
		return v
	}
}
