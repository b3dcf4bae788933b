// Package tensor wraps interchange descriptors in an owning, typed handle.
//
// A handle is the exclusive owner of at most one live descriptor. Ownership
// leaves the handle only through Export, which is irreversible for that
// handle instance. Releasing an owning handle invokes the descriptor's
// deallocator exactly once; releasing an empty handle is a no-op.
//
// Handles are not safe for concurrent mutation. Cross-goroutine use must
// hand the descriptor off via Export and re-wrap it on the other side
// rather than share a live handle. Typed views alias the owned buffer and
// dangle once the handle is exported or released.
package tensor

import (
	"fmt"
	"unsafe"

	"github.com/miss-bug/TurboTransformers/internal/dlpack"
)

// Tensor is the owning handle over an interchange descriptor.
type Tensor struct {
	mt *dlpack.ManagedTensor
}

// Wrap takes ownership of an externally received descriptor. The caller
// must not use mt afterwards; the handle is now its sole owner.
func Wrap(mt *dlpack.ManagedTensor) *Tensor {
	return &Tensor{mt: mt}
}

// Export transfers ownership of the descriptor out of the handle. The
// handle becomes empty and stays empty; a second Export fails with
// ErrPrecondition.
func (t *Tensor) Export() (*dlpack.ManagedTensor, error) {
	if t.mt == nil {
		return nil, fmt.Errorf("%w: export of an empty handle", ErrPrecondition)
	}
	mt := t.mt
	t.mt = nil
	tensorsExported.Inc()
	return mt, nil
}

// Release frees the descriptor through its deallocator if the handle still
// owns one. Idempotent; a no-op after Export.
func (t *Tensor) Release() {
	if t.mt == nil {
		return
	}
	t.mt.Delete()
	t.mt = nil
}

// Owns reports whether the handle still holds a descriptor.
func (t *Tensor) Owns() bool {
	return t.mt != nil
}

// descriptor returns the live descriptor. Metadata accessors have no error
// return, so using them after Export is a fail-fast panic.
func (t *Tensor) descriptor() *dlpack.Tensor {
	if t.mt == nil {
		panic("tensor: handle is empty (descriptor was exported or released)")
	}
	return &t.mt.Tensor
}

// NDim returns the dimension count.
func (t *Tensor) NDim() int {
	return int(t.descriptor().NDim)
}

// Shape returns the i-th dimension size. An out-of-range index fails with
// ErrPrecondition.
func (t *Tensor) Shape(i int) (int64, error) {
	d := t.descriptor()
	if i < 0 || i >= int(d.NDim) {
		return 0, fmt.Errorf("%w: shape index %d out of range [0,%d)", ErrPrecondition, i, d.NDim)
	}
	return d.ShapeSlice()[i], nil
}

// Dims returns a copy of the full shape.
func (t *Tensor) Dims() []int64 {
	src := t.descriptor().ShapeSlice()
	dims := make([]int64, len(src))
	copy(dims, src)
	return dims
}

// Strides returns a copy of the strides array, or nil when strides are
// absent (implicit row-major contiguous).
func (t *Tensor) Strides() []int64 {
	src := t.descriptor().StridesSlice()
	if src == nil {
		return nil
	}
	strides := make([]int64, len(src))
	copy(strides, src)
	return strides
}

// Numel returns the element count. Zero-dimensional tensors report 0.
func (t *Tensor) Numel() int64 {
	return t.descriptor().Numel()
}

// DType returns the stored dtype descriptor.
func (t *Tensor) DType() dlpack.DataType {
	return t.descriptor().DType
}

// Device returns the stored device tag.
func (t *Tensor) Device() dlpack.Device {
	return t.descriptor().Device
}

// DeviceType returns the device-kind tag.
func (t *Tensor) DeviceType() dlpack.DeviceType {
	return t.descriptor().Device.Type
}

// ByteSize returns the size of the data region in bytes.
func (t *Tensor) ByteSize() int64 {
	d := t.descriptor()
	return d.Numel() * int64(d.DType.Bits) / 8
}

// Data returns a typed read view aliasing the owned buffer. The view must
// not be written and is valid only until the handle is exported or
// released.
func Data[T dlpack.Element](t *Tensor) ([]T, error) {
	return view[T](t)
}

// MutableData returns a typed writable view aliasing the owned buffer,
// with the same validation and lifetime as Data.
func MutableData[T dlpack.Element](t *Tensor) ([]T, error) {
	return view[T](t)
}

func view[T dlpack.Element](t *Tensor) ([]T, error) {
	if t == nil || t.mt == nil {
		return nil, fmt.Errorf("%w: typed view of an empty handle", ErrPrecondition)
	}
	d := &t.mt.Tensor
	if d.ByteOffset != 0 {
		return nil, fmt.Errorf("%w: byte offset must be zero, got %d", ErrTypeMismatch, d.ByteOffset)
	}
	if !dlpack.Matches[T](d.DType) {
		want := dlpack.TypeOf[T]()
		return nil, fmt.Errorf("%w: requested (%s, %d bits), stored (%s, %d bits)",
			ErrTypeMismatch, want.Code, want.Bits, d.DType.Code, d.DType.Bits)
	}
	n := d.Numel()
	if n == 0 || d.Data == nil {
		return []T{}, nil
	}
	return unsafe.Slice((*T)(d.Data), n), nil
}

// Meta is a plain snapshot of a descriptor's metadata, used by diagnostic
// tooling. CBOR-encodable.
type Meta struct {
	Shape      []int64 `cbor:"shape"`
	Strides    []int64 `cbor:"strides,omitempty"`
	TypeCode   uint8   `cbor:"dtype_code"`
	Bits       uint8   `cbor:"dtype_bits"`
	Lanes      uint16  `cbor:"dtype_lanes"`
	DeviceType int32   `cbor:"device_type"`
	DeviceID   int32   `cbor:"device_id"`
	Numel      int64   `cbor:"numel"`
	ByteOffset uint64  `cbor:"byte_offset"`
}

// Meta snapshots the descriptor metadata. Like the other metadata
// accessors it panics on an empty handle.
func (t *Tensor) Meta() Meta {
	d := t.descriptor()
	return Meta{
		Shape:      t.Dims(),
		Strides:    t.Strides(),
		TypeCode:   uint8(d.DType.Code),
		Bits:       d.DType.Bits,
		Lanes:      d.DType.Lanes,
		DeviceType: int32(d.Device.Type),
		DeviceID:   d.Device.ID,
		Numel:      d.Numel(),
		ByteOffset: d.ByteOffset,
	}
}
