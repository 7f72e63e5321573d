package valtype

import "testing"

func TestKind_String(t *testing.T) {
	tests := []struct {
		k    Kind
		want string
	}{
		{KindBool, "bool"},
		{KindString, "string"},
		{KindRecord, "record"},
		{KindBorrow, "borrow"},
		{Kind(255), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.k.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.k, got, tt.want)
		}
	}
}

func TestKind_IsPrimitive(t *testing.T) {
	primitives := []Kind{KindBool, KindU8, KindS64, KindF64, KindChar}
	for _, k := range primitives {
		if !k.IsPrimitive() {
			t.Errorf("%v.IsPrimitive() = false, want true", k)
		}
	}

	nonPrimitives := []Kind{KindString, KindList, KindRecord, KindVariant, KindOwn}
	for _, k := range nonPrimitives {
		if k.IsPrimitive() {
			t.Errorf("%v.IsPrimitive() = true, want false", k)
		}
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		t    ValType
		want string
	}{
		{"primitive", U32{}, "u32"},
		{"list", List{Elem: String{}}, "list<string>"},
		{"nested list", List{Elem: List{Elem: U8{}}}, "list<list<u8>>"},
		{"option", Option{Inner: U64{}}, "option<u64>"},
		{"own", Own{TypeIdx: 5}, "own<5>"},
		{"borrow", Borrow{TypeIdx: 2}, "borrow<2>"},
		{"record falls back to kind", &Record{Fields: []Field{{Label: "a", Type: U8{}}}}, "record"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Describe(tt.t); got != tt.want {
				t.Errorf("Describe(%s) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestResult_UnitVariants(t *testing.T) {
	// Both OK and Err absent (unit-unit result) must still type-check and
	// report the correct Kind.
	r := Result{}
	if r.Kind() != KindResult {
		t.Errorf("Kind() = %v, want %v", r.Kind(), KindResult)
	}
}

func TestOption_NilInnerReportsKind(t *testing.T) {
	o := Option{}
	if o.Kind() != KindOption {
		t.Errorf("Kind() = %v, want %v", o.Kind(), KindOption)
	}
}
