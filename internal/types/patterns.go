package types

// PatternKey groups records by conversion pattern
type PatternKey struct {
	Kind     Kind   `json:"kind"`
	FromType string `json:"from_type,omitempty"`
	ToType   string `json:"to_type,omitempty"`
}

// String renders the key as "kind:from>to", or just "kind" for bug kinds.
func (k PatternKey) String() string {
	r := Record{Kind: k.Kind, FromType: k.FromType, ToType: k.ToType}
	if conv := r.Conversion(); conv != "" {
		return k.Kind.String() + ":" + conv
	}
	return k.Kind.String()
}

// Less orders keys lexically by kind tag, then from type, then to type.
func (k PatternKey) Less(other PatternKey) bool {
	if a, b := k.Kind.String(), other.Kind.String(); a != b {
		return a < b
	}
	if k.FromType != other.FromType {
		return k.FromType < other.FromType
	}
	return k.ToType < other.ToType
}

// PatternCount is one row of a pattern frequency report
type PatternCount struct {
	Key   PatternKey `json:"key"`
	Count int        `json:"count"`
}

// PatternReport is the JSON form of a pattern frequency report
type PatternReport struct {
	Total    int            `json:"total"`
	Patterns []PatternCount `json:"patterns"`
}
