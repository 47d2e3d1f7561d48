package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
)

// FieldKind constrains the value of a record field.
type FieldKind string

const (
	KindString FieldKind = "string"
	KindInt    FieldKind = "int"
	KindFloat  FieldKind = "float"
	KindBool   FieldKind = "bool"
	KindImage  FieldKind = "image"
	KindURL    FieldKind = "url"
	KindDate   FieldKind = "date"
)

// DefaultKey is the identifying field when a schema does not name one.
const DefaultKey = "name"

var errNonScalar = errors.New("value is not a scalar")

// Reference points a field at the key (or another field) of a second type.
type Reference struct {
	Type  string
	Field string
}

// Schema describes the records of one content type.
type Schema struct {
	Type       string
	Key        string
	explicit   bool
	Required   []string
	Fields     map[string]FieldKind
	References map[string]Reference
	Images     []string
}

// SchemaRegistry holds per-type schemas; unknown types get a permissive default.
type SchemaRegistry struct {
	schemas map[string]*Schema
}

// NewSchemaRegistry converts configured schemas.
func NewSchemaRegistry(cfg map[string]config.SchemaConfig) *SchemaRegistry {
	reg := &SchemaRegistry{schemas: make(map[string]*Schema, len(cfg))}
	for typ, sc := range cfg {
		s := &Schema{
			Type:       typ,
			Key:        sc.Key,
			explicit:   sc.Key != "",
			Required:   append([]string(nil), sc.Required...),
			Fields:     make(map[string]FieldKind, len(sc.Fields)),
			References: make(map[string]Reference, len(sc.References)),
			Images:     append([]string(nil), sc.Images...),
		}
		if s.Key == "" {
			s.Key = DefaultKey
		}
		for f, k := range sc.Fields {
			s.Fields[f] = FieldKind(k)
		}
		for _, f := range sc.Images {
			if _, ok := s.Fields[f]; !ok {
				s.Fields[f] = KindImage
			}
		}
		for f, target := range sc.References {
			refType, refField, _ := strings.Cut(target, ".")
			s.References[f] = Reference{Type: refType, Field: refField}
		}
		reg.schemas[typ] = s
	}
	return reg
}

// For returns the schema of typ.
func (r *SchemaRegistry) For(typ string) *Schema {
	if r != nil {
		if s, ok := r.schemas[typ]; ok {
			return s
		}
	}
	return &Schema{Type: typ, Key: DefaultKey}
}

// ImageFields lists, per type, the fields holding asset paths.
func (r *SchemaRegistry) ImageFields() map[string][]string {
	out := make(map[string][]string)
	if r == nil {
		return out
	}
	for typ, s := range r.schemas {
		var fields []string
		for f, k := range s.Fields {
			if k == KindImage {
				fields = append(fields, f)
			}
		}
		sort.Strings(fields)
		if len(fields) > 0 {
			out[typ] = fields
		}
	}
	return out
}

// validate checks required fields and kinds, coercing values in place where the
// kind allows it (date strings, integral floats).
func (s *Schema) validate(fields map[string]any) error {
	for _, f := range s.Required {
		if v, ok := fields[f]; !ok || v == "" {
			return fmt.Errorf("missing required field %q", f)
		}
	}
	for f, kind := range s.Fields {
		v, ok := fields[f]
		if !ok {
			continue
		}
		coerced, err := coerce(kind, v)
		if err != nil {
			return fmt.Errorf("field %q: %w", f, err)
		}
		fields[f] = coerced
	}
	return nil
}

func coerce(kind FieldKind, v any) (any, error) {
	switch kind {
	case KindString, KindImage:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected %s, got %T", kind, v)
		}
		if kind == KindImage && strings.TrimSpace(s) == "" {
			return nil, errors.New("empty image path")
		}
		return s, nil
	case KindURL:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected url, got %T", v)
		}
		u, err := url.Parse(s)
		if err != nil {
			return nil, err
		}
		if u.Scheme == "" && !strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "#") {
			return nil, fmt.Errorf("url %q must be absolute or site-relative", s)
		}
		return s, nil
	case KindInt:
		switch n := v.(type) {
		case int64:
			return n, nil
		case float64:
			if n == math.Trunc(n) {
				return int64(n), nil
			}
		}
		return nil, fmt.Errorf("expected int, got %v", v)
	case KindFloat:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int64:
			return float64(n), nil
		}
		return nil, fmt.Errorf("expected float, got %T", v)
	case KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
		return nil, fmt.Errorf("expected bool, got %T", v)
	case KindDate:
		switch d := v.(type) {
		case time.Time:
			return d, nil
		case string:
			for _, layout := range []string{time.DateOnly, time.RFC3339, "2006-01-02 15:04:05"} {
				if t, err := time.Parse(layout, d); err == nil {
					return t, nil
				}
			}
			return nil, fmt.Errorf("unparseable date %q", d)
		}
		return nil, fmt.Errorf("expected date, got %T", v)
	default:
		return nil, fmt.Errorf("unknown field kind %q", kind)
	}
}

// normalizeScalar maps decoder output onto the record value types.
// nil means the field is absent.
func normalizeScalar(v any) (any, error) {
	switch n := v.(type) {
	case nil:
		return nil, nil
	case string, bool, time.Time:
		return n, nil
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return float64(n), nil
		}
		return int64(n), nil
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return nil, fmt.Errorf("%w (%T)", errNonScalar, v)
	}
}
