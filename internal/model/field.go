package model

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// customFieldPrefix is the string form of a tenant custom field reference.
const customFieldPrefix = "customFields."

// FieldKind distinguishes standard lead attributes from tenant custom fields.
type FieldKind int

const (
	// KindStandard is a built-in lead attribute (email, phone, ...).
	KindStandard FieldKind = iota
	// KindCustom is a tenant-defined field stored under customFields.
	KindCustom
)

// FieldRef identifies where a target field lives on a lead record.
type FieldRef struct {
	Kind FieldKind `json:"kind"`
	Name string    `json:"name"`
}

// Standard returns a reference to a built-in lead attribute.
func Standard(name string) FieldRef {
	return FieldRef{Kind: KindStandard, Name: name}
}

// Custom returns a reference to a tenant custom field.
func Custom(id string) FieldRef {
	return FieldRef{Kind: KindCustom, Name: id}
}

// IsCustom reports whether the reference points at a tenant custom field.
func (r FieldRef) IsCustom() bool { return r.Kind == KindCustom }

// String renders the reference in its persisted form.
func (r FieldRef) String() string {
	if r.Kind == KindCustom {
		return customFieldPrefix + r.Name
	}
	return r.Name
}

// ParseFieldRef parses the persisted form of a field reference. It is used
// when loading schemas and templates, never while mapping rows.
func ParseFieldRef(s string) (FieldRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return FieldRef{}, eris.New("model: empty field reference")
	}
	if strings.HasPrefix(s, customFieldPrefix) {
		id := strings.TrimPrefix(s, customFieldPrefix)
		if id == "" {
			return FieldRef{}, eris.Errorf("model: custom field reference %q has no id", s)
		}
		return Custom(id), nil
	}
	return Standard(s), nil
}

// TargetField is one destination slot on a lead record.
type TargetField struct {
	ID       string     `json:"id" yaml:"id"`
	Ref      FieldRef   `json:"ref" yaml:"-"`
	Label    string     `json:"label" yaml:"label"`
	Required bool       `json:"required" yaml:"required"`
	Accepts  []DataType `json:"accepts" yaml:"accepts"`
	Unique   bool       `json:"unique,omitempty" yaml:"unique"`
	Category string     `json:"category,omitempty" yaml:"category"`

	// Pattern is an optional value regex, compiled once at schema build.
	Pattern      string         `json:"pattern,omitempty" yaml:"pattern"`
	PatternRegex *regexp.Regexp `json:"-" yaml:"-"`
}

// AcceptsType reports whether the field accepts values of the given type.
func (f *TargetField) AcceptsType(t DataType) bool {
	for _, a := range f.Accepts {
		if a == t {
			return true
		}
	}
	return false
}

// Schema is an indexed collection of target fields: standard lead
// attributes plus the tenant's custom fields.
type Schema struct {
	Fields   []TargetField
	byID     map[string]*TargetField
	required []*TargetField
}

// NewSchema creates a Schema with indexed lookups. Field references are
// resolved here from the field ID, and validation patterns are compiled as
// written.
// Duplicate IDs keep the first definition.
func NewSchema(fields []TargetField) *Schema {
	s := &Schema{
		Fields: make([]TargetField, 0, len(fields)),
		byID:   make(map[string]*TargetField, len(fields)),
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.ID == "" || seen[f.ID] {
			continue
		}
		seen[f.ID] = true
		if f.Ref.Name == "" {
			if ref, err := ParseFieldRef(f.ID); err == nil {
				f.Ref = ref
			}
		}
		if f.Label == "" {
			f.Label = f.Ref.Name
		}
		if len(f.Accepts) == 0 {
			f.Accepts = []DataType{TypeText}
		}
		if f.Pattern != "" {
			if re, err := regexp.Compile(f.Pattern); err == nil {
				f.PatternRegex = re
			}
		}
		s.Fields = append(s.Fields, f)
	}
	for i := range s.Fields {
		f := &s.Fields[i]
		s.byID[f.ID] = f
		if f.Required {
			s.required = append(s.required, f)
		}
	}
	return s
}

// ByID returns the field with the given ID, or nil if not found.
func (s *Schema) ByID(id string) *TargetField {
	if s == nil {
		return nil
	}
	return s.byID[id]
}

// Required returns all required fields in schema order.
func (s *Schema) Required() []*TargetField {
	if s == nil {
		return nil
	}
	return s.required
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Fields)
}

// Merge returns a new schema with the fields of other appended. Fields whose
// ID already exists in s are ignored.
func (s *Schema) Merge(other *Schema) *Schema {
	fields := make([]TargetField, 0, s.Len()+other.Len())
	if s != nil {
		fields = append(fields, s.Fields...)
	}
	if other != nil {
		fields = append(fields, other.Fields...)
	}
	return NewSchema(fields)
}
