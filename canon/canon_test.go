package canon

import (
	"encoding/binary"
	"testing"

	"github.com/wippyai/canon-abi/errors"
	"github.com/wippyai/canon-abi/memory"
	"github.com/wippyai/canon-abi/options"
	"github.com/wippyai/canon-abi/strtranscode"
	"github.com/wippyai/canon-abi/valtype"
)

// fakeMemory is a flat-byte-backed Memory+MemorySizer test double, the same
// shape as memory package's own test double.
type fakeMemory struct {
	buf []byte
}

func newFakeMemory(size int) *fakeMemory { return &fakeMemory{buf: make([]byte, size)} }

func (m *fakeMemory) Size() uint32 { return uint32(len(m.buf)) }

func (m *fakeMemory) Read(offset, length uint32) ([]byte, error) {
	out := make([]byte, length)
	copy(out, m.buf[offset:offset+length])
	return out, nil
}

func (m *fakeMemory) Write(offset uint32, data []byte) error {
	copy(m.buf[offset:], data)
	return nil
}

func (m *fakeMemory) ReadU8(offset uint32) (uint8, error)  { return m.buf[offset], nil }
func (m *fakeMemory) ReadU16(offset uint32) (uint16, error) {
	return binary.LittleEndian.Uint16(m.buf[offset:]), nil
}
func (m *fakeMemory) ReadU32(offset uint32) (uint32, error) {
	return binary.LittleEndian.Uint32(m.buf[offset:]), nil
}
func (m *fakeMemory) ReadU64(offset uint32) (uint64, error) {
	return binary.LittleEndian.Uint64(m.buf[offset:]), nil
}
func (m *fakeMemory) WriteU8(offset uint32, v uint8) error { m.buf[offset] = v; return nil }
func (m *fakeMemory) WriteU16(offset uint32, v uint16) error {
	binary.LittleEndian.PutUint16(m.buf[offset:], v)
	return nil
}
func (m *fakeMemory) WriteU32(offset uint32, v uint32) error {
	binary.LittleEndian.PutUint32(m.buf[offset:], v)
	return nil
}
func (m *fakeMemory) WriteU64(offset uint32, v uint64) error {
	binary.LittleEndian.PutUint64(m.buf[offset:], v)
	return nil
}

// bumpAllocator is a test double for memory.Allocator: it only ever grows,
// never reuses freed space, which is enough to exercise Lower's allocation
// path without needing a real guest realloc export.
type bumpAllocator struct {
	next uint32
	size uint32
}

func (a *bumpAllocator) Alloc(size, align uint32) (uint32, error) {
	ptr := valtype.AlignUp(a.next, align)
	if uint64(ptr)+uint64(size) > uint64(a.size) {
		return 0, errors.AllocFailed(errors.PhaseLower, size, align)
	}
	a.next = ptr + size
	return ptr, nil
}

func (a *bumpAllocator) Free(ptr, size, align uint32) {}

func newTestArbitrator(memSize int) (*memory.Arbitrator, *fakeMemory) {
	mem := newFakeMemory(memSize)
	arb := memory.NewArbitrator(mem, mem, nil, &bumpAllocator{next: 0, size: uint32(memSize)})
	return arb, mem
}

func defaultOpts() options.Resolved {
	return options.Resolved{StringEncoding: strtranscode.UTF8}
}

// Scenario 1: lift/lower s8 = -1 <-> i32 = 0xFFFFFFFF.
func TestLiftLower_S8RoundTrip(t *testing.T) {
	arb, _ := newTestArbitrator(64)
	v, err := Lift([]uint64{0xFFFFFFFF}, valtype.S8{}, arb, defaultOpts())
	if err != nil {
		t.Fatalf("Lift error: %v", err)
	}
	if v != I8(-1) {
		t.Fatalf("Lift = %v, want I8(-1)", v)
	}

	operands, _, err := Lower(v, valtype.S8{}, arb, defaultOpts())
	if err != nil {
		t.Fatalf("Lower error: %v", err)
	}
	if len(operands) != 1 || uint32(operands[0]) != 0xFFFFFFFF {
		t.Fatalf("Lower operands = %v, want [0xFFFFFFFF]", operands)
	}
}

// Scenario 2: lift a UTF-8 string at offset 100, length 5; lower it back
// into a freshly allocated region.
func TestLiftLower_String(t *testing.T) {
	arb, mem := newTestArbitrator(256)
	copy(mem.buf[100:], "hello")

	v, err := Lift([]uint64{100, 5}, valtype.String{}, arb, defaultOpts())
	if err != nil {
		t.Fatalf("Lift error: %v", err)
	}
	if v != Str("hello") {
		t.Fatalf("Lift = %v, want Str(hello)", v)
	}

	operands, tel, err := Lower(v, valtype.String{}, arb, defaultOpts())
	if err != nil {
		t.Fatalf("Lower error: %v", err)
	}
	newOffset, length := uint32(operands[0]), uint32(operands[1])
	if length != 5 {
		t.Fatalf("length = %d, want 5", length)
	}
	got, _ := mem.Read(newOffset, length)
	if string(got) != "hello" {
		t.Fatalf("lowered bytes = %q, want hello", got)
	}
	if tel.AllocCount != 1 || tel.BytesWritten != 5 {
		t.Fatalf("telemetry = %+v, want 1 alloc, 5 bytes", tel)
	}
}

// Scenario 3: record {a: u32, b: u16, c: u32} round trip through real
// memory bytes.
func TestLiftLower_Record(t *testing.T) {
	arb, mem := newTestArbitrator(64)
	binary.LittleEndian.PutUint32(mem.buf[0:], 1)
	binary.LittleEndian.PutUint16(mem.buf[4:], 2)
	binary.LittleEndian.PutUint32(mem.buf[8:], 3)

	rt := &valtype.Record{Fields: []valtype.Field{
		{Label: "a", Type: valtype.U32{}},
		{Label: "b", Type: valtype.U16{}},
		{Label: "c", Type: valtype.U32{}},
	}}

	v, err := Lift([]uint64{0}, rt, arb, defaultOpts())
	if err != nil {
		t.Fatalf("Lift error: %v", err)
	}
	rec, ok := v.(Record)
	if !ok || len(rec.Fields) != 3 {
		t.Fatalf("Lift = %#v, want a 3-field Record", v)
	}
	if rec.Fields[0] != U32(1) || rec.Fields[1] != U16(2) || rec.Fields[2] != U32(3) {
		t.Fatalf("Lift fields = %v, want [1 2 3]", rec.Fields)
	}

	operands, _, err := Lower(rec, rt, arb, defaultOpts())
	if err != nil {
		t.Fatalf("Lower error: %v", err)
	}
	offset := uint32(operands[0])
	if binary.LittleEndian.Uint32(mem.buf[offset:]) != 1 {
		t.Errorf("field a mismatch")
	}
	if binary.LittleEndian.Uint16(mem.buf[offset+4:]) != 2 {
		t.Errorf("field b mismatch")
	}
	if binary.LittleEndian.Uint32(mem.buf[offset+8:]) != 3 {
		t.Errorf("field c mismatch")
	}
}

// Scenario 4: variant [none, some(u64)] lift through memory bytes
// `01 00 00 00 | 00 00 00 00 | 2A 00 00 00 00 00 00 00` -> some(42).
func TestLift_Variant(t *testing.T) {
	arb, mem := newTestArbitrator(64)
	binary.LittleEndian.PutUint32(mem.buf[0:], 1) // discriminant: some
	binary.LittleEndian.PutUint64(mem.buf[8:], 42)

	vt := &valtype.Variant{Cases: []valtype.Case{
		{Label: "none"},
		{Label: "some", Type: valtype.U64{}},
	}}

	v, err := Lift([]uint64{0}, vt, arb, defaultOpts())
	if err != nil {
		t.Fatalf("Lift error: %v", err)
	}
	vr, ok := v.(Variant)
	if !ok {
		t.Fatalf("Lift = %#v, want Variant", v)
	}
	if vr.Discriminant != 1 || vr.Payload != U64(42) {
		t.Fatalf("Lift = %+v, want {1, U64(42)}", vr)
	}

	operands, _, err := Lower(vr, vt, arb, defaultOpts())
	if err != nil {
		t.Fatalf("Lower error: %v", err)
	}
	offset := uint32(operands[0])
	if binary.LittleEndian.Uint32(mem.buf[offset:]) != 1 {
		t.Errorf("discriminant mismatch")
	}
	if binary.LittleEndian.Uint64(mem.buf[offset+8:]) != 42 {
		t.Errorf("payload mismatch")
	}
}

// Scenario 6: lower list<u16> [0x1111, 0x2222, 0x3333] -> 6 bytes
// `11 11 22 22 33 33`, returns (offset, 3).
func TestLower_ListU16(t *testing.T) {
	arb, mem := newTestArbitrator(64)
	list := List{Elems: []Value{U16(0x1111), U16(0x2222), U16(0x3333)}}

	operands, tel, err := Lower(list, valtype.List{Elem: valtype.U16{}}, arb, defaultOpts())
	if err != nil {
		t.Fatalf("Lower error: %v", err)
	}
	offset, length := uint32(operands[0]), uint32(operands[1])
	if length != 3 {
		t.Fatalf("length = %d, want 3", length)
	}
	got := mem.buf[offset : offset+6]
	want := []byte{0x11, 0x11, 0x22, 0x22, 0x33, 0x33}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("bytes = % x, want % x", got, want)
		}
	}
	if tel.AllocCount != 1 || tel.BytesWritten != 6 {
		t.Fatalf("telemetry = %+v", tel)
	}
}

func TestLiftLower_ListU16_RoundTrip(t *testing.T) {
	arb, _ := newTestArbitrator(64)
	list := List{Elems: []Value{U16(0x1111), U16(0x2222), U16(0x3333)}}

	operands, _, err := Lower(list, valtype.List{Elem: valtype.U16{}}, arb, defaultOpts())
	if err != nil {
		t.Fatalf("Lower error: %v", err)
	}

	lifted, err := Lift(operands, valtype.List{Elem: valtype.U16{}}, arb, defaultOpts())
	if err != nil {
		t.Fatalf("Lift error: %v", err)
	}
	got, ok := lifted.(List)
	if !ok || len(got.Elems) != 3 {
		t.Fatalf("Lift = %#v", lifted)
	}
	for i, want := range []Value{U16(0x1111), U16(0x2222), U16(0x3333)} {
		if got.Elems[i] != want {
			t.Errorf("elem %d = %v, want %v", i, got.Elems[i], want)
		}
	}
}

// Zero-length string/list boundary.
func TestLiftLower_EmptyStringAndList(t *testing.T) {
	arb, _ := newTestArbitrator(64)

	v, err := Lift([]uint64{0, 0}, valtype.String{}, arb, defaultOpts())
	if err != nil || v != Str("") {
		t.Fatalf("Lift empty string = (%v, %v)", v, err)
	}

	lv, err := Lift([]uint64{0, 0}, valtype.List{Elem: valtype.U8{}}, arb, defaultOpts())
	if err != nil {
		t.Fatalf("Lift empty list error: %v", err)
	}
	if lst, ok := lv.(List); !ok || len(lst.Elems) != 0 {
		t.Fatalf("Lift empty list = %#v", lv)
	}

	operands, _, err := Lower(List{}, valtype.List{Elem: valtype.U8{}}, arb, defaultOpts())
	if err != nil {
		t.Fatalf("Lower empty list error: %v", err)
	}
	if uint32(operands[1]) != 0 {
		t.Fatalf("length = %d, want 0", operands[1])
	}
}

// offset == memory_size, length == 0 is valid; length == 1 is OutOfBounds.
func TestLift_StringAtEndOfMemoryBoundary(t *testing.T) {
	arb, _ := newTestArbitrator(64)

	if _, err := Lift([]uint64{64, 0}, valtype.String{}, arb, defaultOpts()); err != nil {
		t.Fatalf("offset==size, length==0 should be valid, got %v", err)
	}

	_, err := Lift([]uint64{64, 1}, valtype.String{}, arb, defaultOpts())
	if err == nil {
		t.Fatal("offset==size, length==1 should be OutOfBounds")
	}
	ce, ok := err.(*errors.Error)
	if !ok || ce.Kind != errors.KindOutOfBounds {
		t.Errorf("err = %v, want OutOfBounds", err)
	}
}

func TestLift_InvalidDiscriminant(t *testing.T) {
	arb, mem := newTestArbitrator(64)
	binary.LittleEndian.PutUint32(mem.buf[0:], 5) // out of range

	vt := &valtype.Variant{Cases: []valtype.Case{{Label: "a"}, {Label: "b"}}}
	_, err := Lift([]uint64{0}, vt, arb, defaultOpts())
	if err == nil {
		t.Fatal("expected InvalidDiscriminant")
	}
	ce, ok := err.(*errors.Error)
	if !ok || ce.Kind != errors.KindInvalidDiscriminant {
		t.Errorf("err = %v, want InvalidDiscriminant", err)
	}
}

func TestLift_SingleCaseEnumDiscriminantMustBeZero(t *testing.T) {
	arb, mem := newTestArbitrator(64)
	binary.LittleEndian.PutUint32(mem.buf[0:], 0)

	et := &valtype.Enum{Labels: []string{"only"}}
	v, err := Lift([]uint64{0}, et, arb, defaultOpts())
	if err != nil {
		t.Fatalf("Lift error: %v", err)
	}
	if v != Enum(0) {
		t.Fatalf("Lift = %v, want Enum(0)", v)
	}

	_, err = Lift([]uint64{1}, et, arb, defaultOpts())
	if err == nil {
		t.Fatal("discriminant 1 on a single-case enum should fail")
	}
}

func TestLowerLift_Tuple(t *testing.T) {
	arb, _ := newTestArbitrator(64)
	tt := &valtype.Tuple{Elems: []valtype.ValType{valtype.U32{}, valtype.U16{}}}
	tup := Tuple{Elems: []Value{U32(7), U16(8)}}

	operands, _, err := Lower(tup, tt, arb, defaultOpts())
	if err != nil {
		t.Fatalf("Lower error: %v", err)
	}
	v, err := Lift(operands, tt, arb, defaultOpts())
	if err != nil {
		t.Fatalf("Lift error: %v", err)
	}
	got, ok := v.(Tuple)
	if !ok || got.Elems[0] != U32(7) || got.Elems[1] != U16(8) {
		t.Fatalf("round trip = %#v, want {7, 8}", v)
	}
}

func TestLowerLift_Flags(t *testing.T) {
	arb, _ := newTestArbitrator(64)
	ft := &valtype.Flags{Labels: []string{"a", "b", "c", "d", "e"}} // 1 word
	fl := Flags{0b10101}

	operands, _, err := Lower(fl, ft, arb, defaultOpts())
	if err != nil {
		t.Fatalf("Lower error: %v", err)
	}
	v, err := Lift(operands, ft, arb, defaultOpts())
	if err != nil {
		t.Fatalf("Lift error: %v", err)
	}
	got, ok := v.(Flags)
	if !ok || len(got) != 1 || got[0] != 0b10101 {
		t.Fatalf("round trip = %#v", v)
	}
}

func TestLowerLift_Option(t *testing.T) {
	arb, _ := newTestArbitrator(64)
	ot := valtype.Option{Inner: valtype.U32{}}

	none := Option{Discriminant: 0}
	operands, _, err := Lower(none, ot, arb, defaultOpts())
	if err != nil {
		t.Fatalf("Lower(none) error: %v", err)
	}
	v, err := Lift(operands, ot, arb, defaultOpts())
	if err != nil {
		t.Fatalf("Lift(none) error: %v", err)
	}
	if o, ok := v.(Option); !ok || o.Discriminant != 0 || o.Payload != nil {
		t.Fatalf("Lift(none) = %#v", v)
	}

	some := Option{Discriminant: 1, Payload: U32(99)}
	operands, _, err = Lower(some, ot, arb, defaultOpts())
	if err != nil {
		t.Fatalf("Lower(some) error: %v", err)
	}
	v, err = Lift(operands, ot, arb, defaultOpts())
	if err != nil {
		t.Fatalf("Lift(some) error: %v", err)
	}
	if o, ok := v.(Option); !ok || o.Discriminant != 1 || o.Payload != U32(99) {
		t.Fatalf("Lift(some) = %#v", v)
	}
}

func TestLowerLift_Result(t *testing.T) {
	arb, _ := newTestArbitrator(64)
	rt := valtype.Result{OK: valtype.U32{}, Err: valtype.U32{}}

	errRes := Result{Discriminant: 1, Payload: U32(404)}
	operands, _, err := Lower(errRes, rt, arb, defaultOpts())
	if err != nil {
		t.Fatalf("Lower error: %v", err)
	}
	v, err := Lift(operands, rt, arb, defaultOpts())
	if err != nil {
		t.Fatalf("Lift error: %v", err)
	}
	if r, ok := v.(Result); !ok || r.Discriminant != 1 || r.Payload != U32(404) {
		t.Fatalf("Lift = %#v", v)
	}
}

func TestLower_PartialFailureFreesOuterAllocation(t *testing.T) {
	arb, _ := newTestArbitrator(64)
	rt := &valtype.Record{Fields: []valtype.Field{
		{Label: "a", Type: valtype.U32{}},
	}}
	// Wrong payload type for field "a" forces a TypeMismatch after the
	// outer record allocation has already happened.
	rec := Record{Fields: []Value{Str("not a u32")}}

	_, tel, err := Lower(rec, rt, arb, defaultOpts())
	if err == nil {
		t.Fatal("expected an error")
	}
	if tel.AllocCount != 1 {
		t.Fatalf("AllocCount = %d, want 1 (the outer allocation before failure)", tel.AllocCount)
	}
	// The runtime allocator can free, so no GuestLeak warning is attached.
	if ce, ok := err.(*errors.Error); !ok || ce.Warning != "" {
		t.Fatalf("err = %v, want an *errors.Error without a GuestLeak warning", err)
	}
}

func TestLift_NestedRecordAndList(t *testing.T) {
	arb, mem := newTestArbitrator(128)
	// list<u32> of length 2 at offset 16: elements at 16, 20.
	binary.LittleEndian.PutUint32(mem.buf[16:], 10)
	binary.LittleEndian.PutUint32(mem.buf[20:], 20)
	// record { items: list<u32> } at offset 0: (ptr=16, len=2).
	binary.LittleEndian.PutUint32(mem.buf[0:], 16)
	binary.LittleEndian.PutUint32(mem.buf[4:], 2)

	rt := &valtype.Record{Fields: []valtype.Field{
		{Label: "items", Type: valtype.List{Elem: valtype.U32{}}},
	}}

	v, err := Lift([]uint64{0}, rt, arb, defaultOpts())
	if err != nil {
		t.Fatalf("Lift error: %v", err)
	}
	rec := v.(Record)
	items := rec.Fields[0].(List)
	if len(items.Elems) != 2 || items.Elems[0] != U32(10) || items.Elems[1] != U32(20) {
		t.Fatalf("items = %v", items.Elems)
	}
}
