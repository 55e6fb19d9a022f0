package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// CorpusEntry represents one package registered for scanning.
// Popularity is nil until the ranking step fills it in. Names and versions
// never hold commas or path separators, since both appear in listing and
// record rows and package ids double as directory names.
type CorpusEntry struct {
	Name       string `json:"name" validate:"required,excludesall=0x2C/\\"`
	Version    string `json:"version,omitempty" validate:"omitempty,excludesall=0x2C/\\"`
	Popularity *int   `json:"popularity,omitempty" validate:"omitempty,min=0"`
}

// ID returns the versioned package identifier ("name-version"), or the bare name when unversioned.
func (e CorpusEntry) ID() string {
	if e.Version == "" {
		return e.Name
	}
	return e.Name + "-" + e.Version
}

var entryValidator = validator.New()

// Validate validates the CorpusEntry using the validator.
func (e *CorpusEntry) Validate() error {
	return entryValidator.Struct(e)
}

// ParsePackageID splits a package identifier such as "serde-1.0.188" into
// name and version. The version starts after the last '-' that is followed
// by a digit; identifiers without one are returned as unversioned.
func ParsePackageID(id string) CorpusEntry {
	id = strings.TrimSpace(id)
	for i := len(id) - 2; i > 0; i-- {
		if id[i] == '-' && id[i+1] >= '0' && id[i+1] <= '9' {
			return CorpusEntry{Name: id[:i], Version: id[i+1:]}
		}
	}
	return CorpusEntry{Name: id}
}
