package parsing

import (
	"errors"
	"testing"

	"github.com/jonathan/convscan/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		line string
		kind types.Kind
		want types.Record
	}{
		{
			name: "cast with three result segments",
			line: "warning: Here is cast(fn foo>TypeA>TypeB=>mut>Layout1>Layout2)",
			kind: types.KindPointerCast,
			want: types.Record{Kind: types.KindPointerCast, Caller: "foo", FromType: "TypeA", ToType: "TypeB", Mutability: "mut", Note: "Layout1>Layout2"},
		},
		{
			name: "cast with two result segments",
			line: "warning: Here is cast(buf::read>*const u8>*const u32=>const>align mismatch)",
			kind: types.KindPointerCast,
			want: types.Record{Kind: types.KindPointerCast, Caller: "buf::read", FromType: "*const u8", ToType: "*const u32", Mutability: "const", Note: "align mismatch"},
		},
		{
			name: "cast with trailing whitespace",
			line: "warning: Here is cast(f>A>B=>mut>L)  \r",
			kind: types.KindPointerCast,
			want: types.Record{Kind: types.KindPointerCast, Caller: "f", FromType: "A", ToType: "B", Mutability: "mut", Note: "L"},
		},
		{
			name: "transmute keeps the whole result side",
			line: "warning: Here is transmute(fn conv::to_bits>f32>u32=>size: 4>4)",
			kind: types.KindTransmute,
			want: types.Record{Kind: types.KindTransmute, Caller: "conv::to_bits", FromType: "f32", ToType: "u32", Note: "size: 4>4"},
		},
		{
			name: "broken layout",
			line: "Error (BrokenLayout:): Potential broken layout issue in `arena::Arena::alloc`",
			kind: types.KindBrokenLayout,
			want: types.Record{Kind: types.KindBrokenLayout, Caller: "arena::Arena::alloc"},
		},
		{
			name: "uninit exposure",
			line: "Error (UninitExposure:): Potential uninit exposure in `vec::grow` with `set_len`",
			kind: types.KindUninitExposure,
			want: types.Record{Kind: types.KindUninitExposure, Caller: "vec::grow"},
		},
		{
			name: "broken bit patterns",
			line: "Error (BrokenBitPatterns:): Potential invalid bit pattern in `bits::from_raw`",
			kind: types.KindBrokenBitPatterns,
			want: types.Record{Kind: types.KindBrokenBitPatterns, Caller: "bits::from_raw"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.line, tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.False(t, got.Complete(), "extracted header must not be complete without a location")
		})
	}
}

func TestExtract_Failures(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		kind    types.Kind
		message string
	}{
		{"cast with four result segments", "warning: Here is cast(foo>A>B=>mut>L1>L2>L3)", types.KindPointerCast, "expected 2 or 3 result segments, got 4"},
		{"cast with one result segment", "warning: Here is cast(foo>A>B=>mut)", types.KindPointerCast, "expected 2 or 3 result segments, got 1"},
		{"cast without separator", "warning: Here is cast(foo>A>B)", types.KindPointerCast, "separator"},
		{"cast with two separators", "warning: Here is cast(foo>A>B=>x=>mut>L)", types.KindPointerCast, "separator"},
		{"transmute with short source side", "warning: Here is transmute(foo>A=>reason)", types.KindTransmute, "expected 3 source segments, got 2"},
		{"transmute with generic type", "warning: Here is transmute(foo>Vec<u8>>B=>reason)", types.KindTransmute, "source segments"},
		{"cast of generic pointer", "warning: Here is cast(fn foo>*const Vec<u8>>*mut u8=>mut>L)", types.KindPointerCast, "got 4: ambiguous '>' in a type name, not fixed by retrying"},
		{"empty caller", "warning: Here is transmute(>A>B=>reason)", types.KindTransmute, "empty caller"},
		{"bug without backticks", "Error (BrokenLayout:): Potential issue in foo", types.KindBrokenLayout, "no backtick"},
		{"bug with single backtick", "Error (UninitExposure:): Potential issue in `foo", types.KindUninitExposure, "unterminated"},
		{"bug with empty caller", "Error (BrokenBitPatterns:): Potential issue in ``", types.KindBrokenBitPatterns, "empty caller"},
		{"wrong marker", "warning: Here is cast(foo>A>B=>mut>L)", types.KindTransmute, "does not start with header marker"},
		{"unknown kind", "anything", types.KindNone, "no header grammar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.line, tt.kind)
			require.Error(t, err)

			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, tt.kind, parseErr.Kind)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestExtractLocation(t *testing.T) {
	tests := []struct {
		name string
		line string
		kind types.Kind
		want string
	}{
		{"arrow marker", "   --> src/lib.rs:10:5", types.KindPointerCast, "src/lib.rs:10:5"},
		{"arrow without space", "-->src/lib.rs:1:1", types.KindTransmute, "src/lib.rs:1:1"},
		{"arrow absent falls back to columns", "   src/main.rs:4:2", types.KindPointerCast, "src/main.rs:4:2"},
		{"bug kinds use columns", "-> src/lib.rs:3:1\n", types.KindBrokenLayout, "src/lib.rs:3:1"},
		{"bug kinds ignore arrow", "   --> src/lib.rs:3:1", types.KindUninitExposure, "--> src/lib.rs:3:1"},
		{"short line", "ab", types.KindBrokenBitPatterns, ""},
		{"multibyte columns", "→→→src/lib.rs:1:1", types.KindBrokenLayout, "src/lib.rs:1:1"},
		{"unknown kind", "   --> src/lib.rs:1:1", types.KindNone, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractLocation(tt.line, tt.kind))
		})
	}
}
