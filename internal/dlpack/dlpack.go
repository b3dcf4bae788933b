// Package dlpack defines the cross-library tensor interchange descriptor.
//
// The layout of Tensor and ManagedTensor mirrors the DLPack ABI field for
// field (data pointer, device, ndim, dtype, shape pointer, strides pointer,
// byte offset, then the deleter). Every producer and consumer of these
// structs must agree on this exact layout; nothing else in the module is a
// wire-level contract.
package dlpack

import "unsafe"

// DeviceType identifies where a tensor's buffer physically resides.
type DeviceType int32

// Device type tags, matching the DLPack enumeration values.
const (
	KDLCPU   DeviceType = 1
	KDLCUDA  DeviceType = 2
	KDLMetal DeviceType = 8
)

func (d DeviceType) String() string {
	switch d {
	case KDLCPU:
		return "CPU"
	case KDLCUDA:
		return "CUDA"
	case KDLMetal:
		return "Metal"
	default:
		return "Unknown"
	}
}

// Device is the {kind, index} pair identifying a physical placement.
type Device struct {
	Type DeviceType
	ID   int32
}

// TypeCode is the interchange element-kind code.
type TypeCode uint8

// Element kind codes, matching the DLPack enumeration values.
const (
	KDLInt   TypeCode = 0
	KDLUInt  TypeCode = 1
	KDLFloat TypeCode = 2
)

func (c TypeCode) String() string {
	switch c {
	case KDLInt:
		return "int"
	case KDLUInt:
		return "unsigned"
	case KDLFloat:
		return "float"
	default:
		return "unrecognized"
	}
}

// DataType describes the element representation of a tensor.
// Lanes is 1 for all tensors this module produces (no vector dtypes).
type DataType struct {
	Code  TypeCode
	Bits  uint8
	Lanes uint16
}

// Tensor is the raw interchange descriptor. Field order and widths follow
// the external ABI; do not reorder.
//
// Data, Shape and Strides are raw pointers with no lifetime of their own.
// They stay valid only while the ManagedTensor that produced them is alive
// and not yet deleted.
type Tensor struct {
	Data       unsafe.Pointer
	Device     Device
	NDim       int32
	DType      DataType
	Shape      *int64
	Strides    *int64
	ByteOffset uint64
}

// ShapeSlice returns the shape array as a slice aliasing the descriptor's
// shape pointer. Nil when the descriptor has no dimensions.
func (t *Tensor) ShapeSlice() []int64 {
	if t.Shape == nil || t.NDim <= 0 {
		return nil
	}
	return unsafe.Slice(t.Shape, int(t.NDim))
}

// StridesSlice returns the strides array as an aliasing slice, or nil when
// strides are absent (implicit row-major contiguous layout).
func (t *Tensor) StridesSlice() []int64 {
	if t.Strides == nil || t.NDim <= 0 {
		return nil
	}
	return unsafe.Slice(t.Strides, int(t.NDim))
}

// Numel returns the element count, the product of all dimension sizes.
// A zero-dimensional descriptor has zero elements. Downstream consumers
// rely on this convention; do not change it to 1.
func (t *Tensor) Numel() int64 {
	if t.NDim == 0 {
		return 0
	}
	numel := int64(1)
	for _, d := range t.ShapeSlice() {
		numel *= d
	}
	return numel
}

// ManagedTensor pairs a descriptor with the deallocation capability bound
// to it at construction time.
//
// ManagerCtx pins whatever the producer allocated (in this module: the
// Go-allocated data and shape buffers) so the raw pointers in Tensor stay
// reachable for the garbage collector. Deleter frees exactly the fields the
// producer allocated and must be invoked at most once.
type ManagedTensor struct {
	Tensor     Tensor
	ManagerCtx any
	Deleter    func(*ManagedTensor)
}

// Delete invokes the deleter if one is attached. Safe on nil receivers so
// receivers of foreign descriptors can call it unconditionally.
func (m *ManagedTensor) Delete() {
	if m == nil || m.Deleter == nil {
		return
	}
	m.Deleter(m)
}
