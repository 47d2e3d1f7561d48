package content

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strconv"
	"time"
)

// Record is one typed unit of site content. Field values are scalars:
// string, int64, float64, bool or time.Time. Records are immutable once loaded.
type Record struct {
	Type        string
	Name        string
	Source      string
	Fingerprint string
	fields      map[string]any
	body        []byte
}

// NewRecord builds a record outside the loader, mainly for tests and generated content.
// Values are normalized like loaded ones; non-scalar values are rejected.
func NewRecord(typ, name string, fields map[string]any, body []byte) (Record, error) {
	norm := make(map[string]any, len(fields))
	for k, v := range fields {
		s, err := normalizeScalar(v)
		if err != nil {
			return Record{}, fmt.Errorf("field %q: %w", k, err)
		}
		if s != nil {
			norm[k] = s
		}
	}
	return Record{Type: typ, Name: name, fields: norm, body: slices.Clone(body)}, nil
}

// Field returns the raw value of a field, or nil.
func (r Record) Field(name string) any {
	return r.fields[name]
}

// Has reports whether the field is set.
func (r Record) Has(name string) bool {
	_, ok := r.fields[name]
	return ok
}

// String renders a field as text; missing fields yield "".
func (r Record) String(name string) string {
	return formatValue(r.fields[name])
}

// Int returns an integer field, or 0.
func (r Record) Int(name string) int64 {
	switch v := r.fields[name].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

// Time returns a date field, or the zero time.
func (r Record) Time(name string) time.Time {
	t, _ := r.fields[name].(time.Time)
	return t
}

// Fields returns a copy of the field map.
func (r Record) Fields() map[string]any {
	return maps.Clone(r.fields)
}

// FieldNames returns the set field names in sorted order.
func (r Record) FieldNames() []string {
	names := make([]string, 0, len(r.fields))
	for k := range r.fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Body returns a copy of the markdown body.
func (r Record) Body() []byte { return slices.Clone(r.body) }

// HasBody reports whether the record carries a markdown body.
func (r Record) HasBody() bool { return len(r.body) > 0 }

// Title is the record's display title: the title field, else its name.
func (r Record) Title() string {
	if t := r.String("title"); t != "" {
		return t
	}
	return r.Name
}

// Key identifies the record across types.
func (r Record) Key() string { return r.Type + "/" + r.Name }

func formatValue(v any) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case string:
		return vv
	case int64:
		return strconv.FormatInt(vv, 10)
	case float64:
		return strconv.FormatFloat(vv, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(vv)
	case time.Time:
		if vv.Hour() == 0 && vv.Minute() == 0 && vv.Second() == 0 {
			return vv.Format(time.DateOnly)
		}
		return vv.Format(time.RFC3339)
	default:
		return fmt.Sprint(vv)
	}
}
