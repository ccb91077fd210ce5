// Package tensor defines the typed numeric buffers exchanged between the
// geometry core and the surrounding training framework.
//
// A Buffer is a contiguous row-major array tagged with an element type and
// an execution context (device). The core only accepts float32 and int32
// elements and refuses to mix buffers from different devices; those checks
// live here so every operation applies them the same way.
package tensor

import (
	"errors"
	"fmt"
)

var (
	// ErrTypeMismatch is returned when a buffer holds an element type the
	// operation does not accept.
	ErrTypeMismatch = errors.New("element type mismatch")
	// ErrDeviceMismatch is returned when the buffers of one call are spread
	// across incompatible execution contexts.
	ErrDeviceMismatch = errors.New("device mismatch")
)

// DType identifies the element type of a Buffer.
type DType uint8

const (
	Float32 DType = iota + 1
	Int32
)

// String returns the conventional short name of the element type.
func (t DType) String() string {
	switch t {
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	default:
		return fmt.Sprintf("dtype(%d)", uint8(t))
	}
}

// DeviceKind distinguishes host memory from accelerator memory.
type DeviceKind uint8

const (
	KindCPU DeviceKind = iota
	KindGPU
)

// Device identifies the execution context a buffer lives on.
type Device struct {
	Kind    DeviceKind
	Ordinal int // GPU index; always 0 for CPU
}

// CPU is the default execution context.
var CPU = Device{Kind: KindCPU}

// GPU returns the device tag for the given accelerator index.
func GPU(ordinal int) Device { return Device{Kind: KindGPU, Ordinal: ordinal} }

func (d Device) String() string {
	if d.Kind == KindCPU {
		return "cpu"
	}
	return fmt.Sprintf("gpu:%d", d.Ordinal)
}

// Buffer is a dense row-major numeric array with a dtype and device tag.
// Exactly one of the backing slices is populated, matching the dtype.
type Buffer struct {
	dtype  DType
	device Device
	shape  []int
	f32    []float32
	i32    []int32
}

// NewFloat32 wraps a float32 slice as a buffer of the given shape.
// The slice is aliased, not copied.
func NewFloat32(device Device, shape []int, data []float32) (*Buffer, error) {
	if n := elemCount(shape); n != len(data) {
		return nil, fmt.Errorf("shape %v implies %d elements, data has %d", shape, n, len(data))
	}
	return &Buffer{dtype: Float32, device: device, shape: append([]int(nil), shape...), f32: data}, nil
}

// NewInt32 wraps an int32 slice as a buffer of the given shape.
// The slice is aliased, not copied.
func NewInt32(device Device, shape []int, data []int32) (*Buffer, error) {
	if n := elemCount(shape); n != len(data) {
		return nil, fmt.Errorf("shape %v implies %d elements, data has %d", shape, n, len(data))
	}
	return &Buffer{dtype: Int32, device: device, shape: append([]int(nil), shape...), i32: data}, nil
}

func elemCount(shape []int) int {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return -1
		}
		n *= d
	}
	return n
}

// DType reports the element type.
func (b *Buffer) DType() DType { return b.dtype }

// Device reports the execution context tag.
func (b *Buffer) Device() Device { return b.device }

// Shape returns the dimensions of the buffer. The returned slice must not
// be modified.
func (b *Buffer) Shape() []int { return b.shape }

// Dim returns the size of axis i, or 0 if the buffer has fewer axes.
func (b *Buffer) Dim(i int) int {
	if i < 0 || i >= len(b.shape) {
		return 0
	}
	return b.shape[i]
}

// Len returns the total element count.
func (b *Buffer) Len() int { return elemCount(b.shape) }

// Float32s returns the backing slice of a float32 buffer.
func (b *Buffer) Float32s() ([]float32, error) {
	if b.dtype != Float32 {
		return nil, fmt.Errorf("%w: have %s, want float32", ErrTypeMismatch, b.dtype)
	}
	return b.f32, nil
}

// Int32s returns the backing slice of an int32 buffer.
func (b *Buffer) Int32s() ([]int32, error) {
	if b.dtype != Int32 {
		return nil, fmt.Errorf("%w: have %s, want int32", ErrTypeMismatch, b.dtype)
	}
	return b.i32, nil
}

// SameDevice verifies that every buffer carries the same device tag.
func SameDevice(bufs ...*Buffer) error {
	if len(bufs) == 0 {
		return nil
	}
	first := bufs[0].device
	for _, b := range bufs[1:] {
		if b.device != first {
			return fmt.Errorf("%w: %s vs %s", ErrDeviceMismatch, first, b.device)
		}
	}
	return nil
}
