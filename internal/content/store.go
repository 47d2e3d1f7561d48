package content

import (
	"fmt"
	"slices"

	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
)

// Store is the loaded content keyed by type. It is read-only after Load and
// safe for concurrent readers.
type Store struct {
	types   []string
	records map[string][]Record
	index   map[string]map[string]int
}

// Types returns the content types in first-encounter order.
func (s *Store) Types() []string { return slices.Clone(s.types) }

// Records returns the records of typ in source encounter order.
func (s *Store) Records(typ string) []Record {
	return slices.Clone(s.records[typ])
}

// Get looks up one record by type and key.
func (s *Store) Get(typ, name string) (Record, bool) {
	i, ok := s.index[typ][name]
	if !ok {
		return Record{}, false
	}
	return s.records[typ][i], true
}

// Count returns the number of records of typ.
func (s *Store) Count(typ string) int { return len(s.records[typ]) }

// Len returns the total number of records.
func (s *Store) Len() int {
	n := 0
	for _, recs := range s.records {
		n += len(recs)
	}
	return n
}

// All returns every record, grouped by type in type order.
func (s *Store) All() []Record {
	out := make([]Record, 0, s.Len())
	for _, t := range s.types {
		out = append(out, s.records[t]...)
	}
	return out
}

// Fingerprints maps record keys to their content fingerprints.
func (s *Store) Fingerprints() map[string]string {
	out := make(map[string]string, s.Len())
	for _, r := range s.All() {
		out[r.Key()] = r.Fingerprint
	}
	return out
}

type storeBuilder struct {
	schemas *SchemaRegistry
	store   *Store
}

func newStoreBuilder(schemas *SchemaRegistry) *storeBuilder {
	return &storeBuilder{
		schemas: schemas,
		store: &Store{
			records: make(map[string][]Record),
			index:   make(map[string]map[string]int),
		},
	}
}

func (b *storeBuilder) add(raw rawRecord) error {
	typ := raw.typ
	if t, ok := raw.fields[TypeField].(string); ok && t != "" {
		typ = t
		delete(raw.fields, TypeField)
	}
	schema := b.schemas.For(typ)
	if err := schema.validate(raw.fields); err != nil {
		return &LoadError{Path: raw.source, Type: typ, Reason: err.Error()}
	}

	name := formatValue(raw.fields[schema.Key])
	if name == "" {
		if schema.explicit && !raw.markdown {
			return &LoadError{Path: raw.source, Type: typ, Reason: fmt.Sprintf("missing key field %q", schema.Key)}
		}
		name = raw.slug
		if !raw.markdown {
			name = fmt.Sprintf("%s-%d", raw.slug, raw.index)
		}
	}

	s := b.store
	if _, ok := s.index[typ]; !ok {
		s.types = append(s.types, typ)
		s.index[typ] = make(map[string]int)
	}
	if i, dup := s.index[typ][name]; dup {
		return &DuplicateRecordError{Type: typ, Name: name, First: s.records[typ][i].Source, Second: raw.source}
	}

	fp, err := frontmatter.Fingerprint(raw.fields, raw.body)
	if err != nil {
		return &LoadError{Path: raw.source, Type: typ, Record: name, Reason: "fingerprint", Err: err}
	}
	s.index[typ][name] = len(s.records[typ])
	s.records[typ] = append(s.records[typ], Record{
		Type:        typ,
		Name:        name,
		Source:      raw.source,
		Fingerprint: fp,
		fields:      raw.fields,
		body:        raw.body,
	})
	return nil
}

// finish checks cross-type references once every record is known.
func (b *storeBuilder) finish() (*Store, error) {
	s := b.store
	for _, typ := range s.types {
		schema := b.schemas.For(typ)
		for _, r := range s.records[typ] {
			for field, ref := range schema.References {
				v := r.String(field)
				if v == "" {
					continue
				}
				if !s.references(ref, v) {
					return nil, &LoadError{
						Path:   r.Source,
						Type:   typ,
						Record: r.Name,
						Reason: fmt.Sprintf("field %q refers to unknown %s %q", field, ref.Type, v),
					}
				}
			}
		}
	}
	return s, nil
}

func (s *Store) references(ref Reference, value string) bool {
	if ref.Field == "" {
		_, ok := s.index[ref.Type][value]
		return ok
	}
	for _, r := range s.records[ref.Type] {
		if r.String(ref.Field) == value {
			return true
		}
	}
	return false
}
