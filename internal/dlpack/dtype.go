package dlpack

import "unsafe"

// Element is the closed set of element types this module supports.
// Extending it means adding one case to codeOf below; nothing else changes.
type Element interface {
	float32 | int32 | int64
}

func codeOf[T Element]() TypeCode {
	var zero T
	switch any(zero).(type) {
	case float32:
		return KDLFloat
	default:
		return KDLInt
	}
}

// TypeOf returns the registered dtype descriptor for T.
func TypeOf[T Element]() DataType {
	var zero T
	return DataType{
		Code:  codeOf[T](),
		Bits:  uint8(unsafe.Sizeof(zero) * 8),
		Lanes: 1,
	}
}

// Matches reports whether a stored dtype is compatible with T.
// A stored bit-width of 0 means "unspecified" and matches any width.
func Matches[T Element](dt DataType) bool {
	want := TypeOf[T]()
	return dt.Code == want.Code && (dt.Bits == 0 || dt.Bits == want.Bits)
}
