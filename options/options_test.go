package options

import (
	"testing"

	canonerrors "github.com/wippyai/canon-abi/errors"
	"github.com/wippyai/canon-abi/strtranscode"
)

func TestResolve_Defaults(t *testing.T) {
	res, err := Resolve(nil)
	if err != nil {
		t.Fatalf("Resolve(nil) error: %v", err)
	}
	if res.MemoryIndex != nil || res.ReallocIndex != nil || res.PostReturnIndex != nil {
		t.Errorf("expected all indices nil, got %+v", res)
	}
	if res.StringEncoding != strtranscode.UTF8 {
		t.Errorf("StringEncoding = %v, want UTF8 default", res.StringEncoding)
	}
}

func TestResolve_AllOptions(t *testing.T) {
	raw := []RawOption{
		{Kind: OptionMemory, Index: 0},
		{Kind: OptionRealloc, Index: 2},
		{Kind: OptionPostReturn, Index: 3},
		{Kind: OptionStringEncoding, Encoding: strtranscode.UTF16LE},
	}
	res, err := Resolve(raw)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if res.MemoryIndex == nil || *res.MemoryIndex != 0 {
		t.Errorf("MemoryIndex = %v, want *0", res.MemoryIndex)
	}
	if res.ReallocIndex == nil || *res.ReallocIndex != 2 {
		t.Errorf("ReallocIndex = %v, want *2", res.ReallocIndex)
	}
	if res.PostReturnIndex == nil || *res.PostReturnIndex != 3 {
		t.Errorf("PostReturnIndex = %v, want *3", res.PostReturnIndex)
	}
	if res.StringEncoding != strtranscode.UTF16LE {
		t.Errorf("StringEncoding = %v, want UTF16LE", res.StringEncoding)
	}
}

func TestResolve_DuplicateOptionIsBadOptions(t *testing.T) {
	tests := []struct {
		name string
		raw  []RawOption
	}{
		{"duplicate memory", []RawOption{{Kind: OptionMemory, Index: 0}, {Kind: OptionMemory, Index: 1}}},
		{"duplicate realloc", []RawOption{{Kind: OptionRealloc, Index: 0}, {Kind: OptionRealloc, Index: 0}}},
		{"duplicate string-encoding", []RawOption{
			{Kind: OptionStringEncoding, Encoding: strtranscode.UTF8},
			{Kind: OptionStringEncoding, Encoding: strtranscode.UTF16LE},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.raw)
			if err == nil {
				t.Fatal("expected BadOptions error, got nil")
			}
			ce, ok := err.(*canonerrors.Error)
			if !ok || ce.Kind != canonerrors.KindBadOptions {
				t.Errorf("err = %v, want BadOptions", err)
			}
		})
	}
}

func TestResolve_UnknownOptionKind(t *testing.T) {
	_, err := Resolve([]RawOption{{Kind: OptionKind(99)}})
	if err == nil {
		t.Fatal("expected error for unknown option kind")
	}
}
