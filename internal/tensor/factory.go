package tensor

import (
	"fmt"
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/miss-bug/TurboTransformers/internal/dlpack"
)

// allocation records what the factory obtained from the allocator for one
// descriptor. It lives in ManagerCtx so the raw pointers inside the
// descriptor keep their backing arrays reachable, and so the deleter knows
// exactly which buffers to hand back.
type allocation struct {
	mem   memory.Allocator
	data  []byte
	shape []byte
}

// New allocates a fresh CPU-resident tensor of element type T with the
// given dimension sizes. The data buffer comes from mem at an alignment
// suitable for vectorized access; it is uninitialized aside from whatever
// zeroing mem performs. Strides are left absent (row-major contiguous) and
// the byte offset is zero.
//
// The returned handle owns the descriptor; Release frees both the shape
// array and the data buffer through mem.
func New[T dlpack.Element](mem memory.Allocator, dims ...int64) (*Tensor, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("%w: shape list must not be empty", ErrInvalidArgument)
	}
	numel := int64(1)
	for _, d := range dims {
		if d < 0 {
			return nil, fmt.Errorf("%w: negative dimension %d in shape %v", ErrInvalidArgument, d, dims)
		}
		numel *= d
	}

	var zero T
	elemSize := int64(unsafe.Sizeof(zero))
	byteSize := numel * elemSize
	if byteSize == 0 {
		// A zero-sized dimension still yields a valid non-null data pointer.
		byteSize = elemSize
	}

	data := mem.Allocate(int(byteSize))
	shapeBuf := mem.Allocate(len(dims) * 8)
	shape := unsafe.Slice((*int64)(unsafe.Pointer(unsafe.SliceData(shapeBuf))), len(dims))
	copy(shape, dims)

	mt := &dlpack.ManagedTensor{
		Tensor: dlpack.Tensor{
			Data:       unsafe.Pointer(unsafe.SliceData(data)),
			Device:     dlpack.Device{Type: dlpack.KDLCPU, ID: 0},
			NDim:       int32(len(dims)),
			DType:      dlpack.TypeOf[T](),
			Shape:      &shape[0],
			Strides:    nil,
			ByteOffset: 0,
		},
		ManagerCtx: &allocation{mem: mem, data: data, shape: shapeBuf},
		Deleter:    freeAllocation,
	}

	tensorsAllocated.Inc()
	allocatedBytes.Add(float64(len(data) + len(shapeBuf)))
	return Wrap(mt), nil
}

// FromSlice allocates a tensor like New and copies data into it.
// The data length must match the product of the dimension sizes.
func FromSlice[T dlpack.Element](mem memory.Allocator, data []T, dims ...int64) (*Tensor, error) {
	t, err := New[T](mem, dims...)
	if err != nil {
		return nil, err
	}
	if n := t.Numel(); int64(len(data)) != n {
		t.Release()
		return nil, fmt.Errorf("%w: data length %d does not match shape %v (%d elements)",
			ErrInvalidArgument, len(data), dims, n)
	}
	dst, err := MutableData[T](t)
	if err != nil {
		t.Release()
		return nil, err
	}
	copy(dst, data)
	return t, nil
}

// freeAllocation is the deallocator bound to factory-created descriptors.
// It returns the shape array and the data buffer to the allocator that
// produced them. Invoked at most once; the owning handle guarantees that.
func freeAllocation(m *dlpack.ManagedTensor) {
	a, ok := m.ManagerCtx.(*allocation)
	if !ok {
		return
	}
	allocatedBytes.Sub(float64(len(a.data) + len(a.shape)))
	a.mem.Free(a.shape)
	a.mem.Free(a.data)
	m.ManagerCtx = nil
	tensorsReleased.Inc()
}
