package dlpack

import (
	"testing"
	"unsafe"
)

func TestTypeRegistry(t *testing.T) {
	cases := []struct {
		name string
		got  DataType
		code TypeCode
		bits uint8
	}{
		{"float32", TypeOf[float32](), KDLFloat, 32},
		{"int32", TypeOf[int32](), KDLInt, 32},
		{"int64", TypeOf[int64](), KDLInt, 64},
	}
	for _, c := range cases {
		if c.got.Code != c.code {
			t.Errorf("%s: code = %d, want %d", c.name, c.got.Code, c.code)
		}
		if c.got.Bits != c.bits {
			t.Errorf("%s: bits = %d, want %d", c.name, c.got.Bits, c.bits)
		}
		if c.got.Lanes != 1 {
			t.Errorf("%s: lanes = %d, want 1", c.name, c.got.Lanes)
		}
	}
}

func TestMatches(t *testing.T) {
	if !Matches[float32](DataType{Code: KDLFloat, Bits: 32, Lanes: 1}) {
		t.Error("float32 should match its own registered dtype")
	}
	if Matches[int64](DataType{Code: KDLFloat, Bits: 32, Lanes: 1}) {
		t.Error("int64 must not match a float dtype")
	}
	if Matches[int32](DataType{Code: KDLInt, Bits: 64, Lanes: 1}) {
		t.Error("int32 must not match a 64-bit dtype")
	}
	// Bits == 0 means unspecified and matches any width of the same code.
	if !Matches[int64](DataType{Code: KDLInt, Bits: 0, Lanes: 1}) {
		t.Error("zero stored bit-width should act as a wildcard")
	}
	if Matches[float32](DataType{Code: KDLInt, Bits: 0, Lanes: 1}) {
		t.Error("wildcard width must still respect the type code")
	}
}

func TestNumel(t *testing.T) {
	shape := []int64{2, 3, 4}
	d := Tensor{
		NDim:  int32(len(shape)),
		Shape: &shape[0],
	}
	if got := d.Numel(); got != 24 {
		t.Errorf("Numel = %d, want 24", got)
	}

	// Zero-dimensional descriptors have zero elements, not one.
	var scalar Tensor
	if got := scalar.Numel(); got != 0 {
		t.Errorf("zero-dim Numel = %d, want 0", got)
	}
}

func TestShapeAndStrideSlices(t *testing.T) {
	shape := []int64{5, 7}
	strides := []int64{7, 1}
	d := Tensor{
		NDim:    2,
		Shape:   &shape[0],
		Strides: &strides[0],
	}

	s := d.ShapeSlice()
	if len(s) != 2 || s[0] != 5 || s[1] != 7 {
		t.Errorf("ShapeSlice = %v, want [5 7]", s)
	}
	if unsafe.SliceData(s) != &shape[0] {
		t.Error("ShapeSlice must alias the descriptor's shape array")
	}

	st := d.StridesSlice()
	if len(st) != 2 || st[0] != 7 || st[1] != 1 {
		t.Errorf("StridesSlice = %v, want [7 1]", st)
	}

	d.Strides = nil
	if d.StridesSlice() != nil {
		t.Error("absent strides must yield a nil slice")
	}
}

func TestDeleteNilSafe(t *testing.T) {
	var m *ManagedTensor
	m.Delete() // must not panic

	invoked := 0
	mt := &ManagedTensor{Deleter: func(*ManagedTensor) { invoked++ }}
	mt.Delete()
	if invoked != 1 {
		t.Errorf("deleter invoked %d times, want 1", invoked)
	}
}

func TestEnumLabels(t *testing.T) {
	if KDLCPU.String() != "CPU" || KDLCUDA.String() != "CUDA" || KDLMetal.String() != "Metal" {
		t.Error("unexpected device type labels")
	}
	if DeviceType(99).String() != "Unknown" {
		t.Error("unknown device type should report Unknown")
	}
	if KDLInt.String() != "int" || KDLUInt.String() != "unsigned" || KDLFloat.String() != "float" {
		t.Error("unexpected type code labels")
	}
	if TypeCode(42).String() != "unrecognized" {
		t.Error("unknown type code should report unrecognized")
	}
}
