package types

// Record represents one diagnostic finding extracted from a log
type Record struct {
	Kind      Kind   `json:"kind" msgpack:"kind"`
	PackageID string `json:"package_id" msgpack:"package_id"`
	Caller    string `json:"caller" msgpack:"caller"`
	FromType  string `json:"from_type,omitempty" msgpack:"from_type"`
	ToType    string `json:"to_type,omitempty" msgpack:"to_type"`
	// Mutability is the leading result segment of a cast header (e.g. "mut")
	Mutability string `json:"mutability,omitempty" msgpack:"mutability"`
	// Note holds the layout note for casts or the unsoundness reason for transmutes
	Note           string `json:"note,omitempty" msgpack:"note"`
	SourceLocation string `json:"source_location" msgpack:"source_location"`
	LogPath        string `json:"log_path,omitempty" msgpack:"log_path"`
	// Line is the 1-based line number of the header in the log
	Line int `json:"line,omitempty" msgpack:"line"`
}

// Complete reports whether both the header fields and the source location were captured.
func (r *Record) Complete() bool {
	return r.Kind != KindNone && r.SourceLocation != ""
}

// Conversion renders the from/to pair as "from>to", or "" for non-conversion kinds.
func (r *Record) Conversion() string {
	if !r.Kind.IsConversion() {
		return ""
	}
	return r.FromType + ">" + r.ToType
}

// PatternKey returns the grouping key used by pattern frequency reports.
func (r *Record) PatternKey() PatternKey {
	return PatternKey{Kind: r.Kind, FromType: r.FromType, ToType: r.ToType}
}

// ScanFailure records a header line that could not be parsed into a complete field-set
type ScanFailure struct {
	PackageID string `json:"package_id" msgpack:"package_id"`
	LogPath   string `json:"log_path" msgpack:"log_path"`
	Line      int    `json:"line,omitempty" msgpack:"line"`
	Reason    string `json:"reason" msgpack:"reason"`
}
