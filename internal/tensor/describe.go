package tensor

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/miss-bug/TurboTransformers/internal/dlpack"
)

// Describe writes a human-readable diagnostic of the tensor as element
// type T: the element-kind label, numel, dimension count, strides (or the
// "null" marker when absent), shape, the first up to 10 elements, and the
// sum of all elements accumulated in float64 regardless of storage type.
//
// The output format is fixed; tests depend on it.
func Describe[T dlpack.Element](t *Tensor, w io.Writer) error {
	elems, err := view[T](t)
	if err != nil {
		return err
	}
	d := t.descriptor()

	var b strings.Builder
	fmt.Fprintf(&b, "type: %s\n", d.DType.Code)
	fmt.Fprintf(&b, "numel: %d\n", t.Numel())
	fmt.Fprintf(&b, "n_dim: %d\n", t.NDim())
	if s := d.StridesSlice(); s != nil {
		fmt.Fprintf(&b, "stride: %s\n", formatDims(s))
	} else {
		b.WriteString("stride: null\n")
	}
	fmt.Fprintf(&b, "shape: %s\n", formatDims(d.ShapeSlice()))

	b.WriteString("first 10 elems: (")
	for i, v := range elems {
		if i == 10 {
			break
		}
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%v", v)
	}
	b.WriteString(")\n")

	sum := floats.Sum(toFloat64(elems))
	fmt.Fprintf(&b, "sum is %s\n", strconv.FormatFloat(sum, 'g', -1, 64))

	_, err = io.WriteString(w, b.String())
	return err
}

// Stats returns min, max and sum of all elements in float64. Zeroes for an
// empty tensor.
func Stats[T dlpack.Element](t *Tensor) (min, max, sum float64, err error) {
	elems, err := view[T](t)
	if err != nil {
		return 0, 0, 0, err
	}
	if len(elems) == 0 {
		return 0, 0, 0, nil
	}
	f := toFloat64(elems)
	return floats.Min(f), floats.Max(f), floats.Sum(f), nil
}

func toFloat64[T dlpack.Element](elems []T) []float64 {
	out := make([]float64, len(elems))
	for i, v := range elems {
		out[i] = float64(v)
	}
	return out
}

func formatDims(dims []int64) string {
	var b strings.Builder
	b.WriteByte('(')
	for i, d := range dims {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.FormatInt(d, 10))
	}
	b.WriteByte(')')
	return b.String()
}
