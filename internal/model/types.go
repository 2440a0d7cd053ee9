package model

// DataType is the semantic type of a column or the kind of value a target
// field accepts. TypeText is the universal fallback.
type DataType string

const (
	TypeEmail  DataType = "email"
	TypePhone  DataType = "phone"
	TypeDate   DataType = "date"
	TypeNumber DataType = "number"
	TypeText   DataType = "text"
	TypeURL    DataType = "url"
)

// DataTypes lists every DataType in inference order.
var DataTypes = []DataType{TypeEmail, TypePhone, TypeDate, TypeNumber, TypeURL, TypeText}

// ParseDataType converts a string to a DataType. Unknown values map to text.
func ParseDataType(s string) DataType {
	for _, t := range DataTypes {
		if string(t) == s {
			return t
		}
	}
	return TypeText
}

// Confidence ranks how sure the suggestion engine is about a pairing.
type Confidence int

const (
	ConfidenceLow Confidence = iota + 1
	ConfidenceMedium
	ConfidenceHigh
)

// String returns the lower-case name of the confidence level.
func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	default:
		return "none"
	}
}

// MarshalText renders the confidence by name.
func (c Confidence) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses a confidence name.
func (c *Confidence) UnmarshalText(b []byte) error {
	switch string(b) {
	case "high":
		*c = ConfidenceHigh
	case "medium":
		*c = ConfidenceMedium
	case "low":
		*c = ConfidenceLow
	default:
		*c = 0
	}
	return nil
}

// MappingStatus is derived from a mapping and its peers; it is never set
// directly by callers.
type MappingStatus string

const (
	StatusUnmapped  MappingStatus = "unmapped"
	StatusSuggested MappingStatus = "suggested"
	StatusMapped    MappingStatus = "mapped"
	StatusConflict  MappingStatus = "conflict"
	StatusInvalid   MappingStatus = "invalid"
)

// MappingSource records who chose a mapping's target.
type MappingSource string

const (
	SourceSuggested MappingSource = "suggested"
	SourceUser      MappingSource = "user"
	SourceTemplate  MappingSource = "template"
)
