// Package types provides type definitions for structured data used throughout the convscan system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"fmt"
)

// Kind identifies the category of a diagnostic finding.
type Kind int

const (
	// KindNone marks a line that does not open any known diagnostic.
	KindNone Kind = iota
	// KindPointerCast is a raw pointer-to-pointer cast warning.
	KindPointerCast
	// KindTransmute is a memory transmute warning.
	KindTransmute
	// KindBrokenLayout is a broken layout bug report.
	KindBrokenLayout
	// KindUninitExposure is an uninitialized memory exposure bug report.
	KindUninitExposure
	// KindBrokenBitPatterns is a broken bit patterns bug report.
	KindBrokenBitPatterns
)

var kindTags = map[Kind]string{
	KindNone:              "none",
	KindPointerCast:       "cast",
	KindTransmute:         "transmute",
	KindBrokenLayout:      "broken-layout",
	KindUninitExposure:    "uninit-exposure",
	KindBrokenBitPatterns: "broken-bitpatterns",
}

// AllKinds lists every recognized diagnostic kind in declaration order.
func AllKinds() []Kind {
	return []Kind{KindPointerCast, KindTransmute, KindBrokenLayout, KindUninitExposure, KindBrokenBitPatterns}
}

// String returns the stable tag used in serialized output.
func (k Kind) String() string {
	if tag, ok := kindTags[k]; ok {
		return tag
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsConversion reports whether the kind carries from/to type descriptors.
func (k Kind) IsConversion() bool {
	return k == KindPointerCast || k == KindTransmute
}

// IsBug reports whether the kind is one of the memory-safety bug reports.
func (k Kind) IsBug() bool {
	return k == KindBrokenLayout || k == KindUninitExposure || k == KindBrokenBitPatterns
}

// ParseKind maps a serialized tag back to its Kind.
func ParseKind(tag string) (Kind, error) {
	for _, k := range AllKinds() {
		if kindTags[k] == tag {
			return k, nil
		}
	}
	return KindNone, fmt.Errorf("unknown diagnostic kind %q", tag)
}

// MarshalJSON encodes the kind as its tag.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind tag.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}
	parsed, err := ParseKind(tag)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
