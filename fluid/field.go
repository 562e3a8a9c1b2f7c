package fluid

import (
	"fmt"
	"math"
)

// Kind identifies the layout of a Field. Its value is the channel count.
type Kind int

const (
	// Scalar fields hold one raw value per cell (pressure, divergence).
	Scalar Kind = 1
	// Velocity fields hold two bias-encoded components (vx, vy) per cell.
	Velocity Kind = 2
)

func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case Velocity:
		return "velocity"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Field is a fixed-size grid of samples. Channels are interleaved and rows
// are stored bottom to top: cell (x, y) starts at (y*width+x)*channels.
type Field struct {
	kind          Kind
	width, height int
	storage       StorageMode
	data          []float32
}

// NewField allocates a zeroed field. Extents are fixed for the lifetime of
// the field; non-positive extents are a programming error and panic.
func NewField(kind Kind, width, height int, storage StorageMode) *Field {
	if kind != Scalar && kind != Velocity {
		panic(fmt.Sprintf("fluid: invalid field kind %d", int(kind)))
	}
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("fluid: invalid field extent %dx%d", width, height))
	}
	return &Field{
		kind:    kind,
		width:   width,
		height:  height,
		storage: storage,
		data:    make([]float32, width*height*int(kind)),
	}
}

// Kind reports whether f is a scalar or velocity field.
func (f *Field) Kind() Kind { return f.kind }

// Width returns the number of columns.
func (f *Field) Width() int { return f.width }

// Height returns the number of rows.
func (f *Field) Height() int { return f.height }

// Channels returns the number of values per cell.
func (f *Field) Channels() int { return int(f.kind) }

// Storage returns the mode applied when values are written.
func (f *Field) Storage() StorageMode { return f.storage }

// Data exposes the backing slice. Writes through it bypass the storage mode.
func (f *Field) Data() []float32 { return f.data }

// SameExtent reports whether g covers the same grid as f.
func (f *Field) SameExtent(g *Field) bool {
	return g != nil && f.width == g.width && f.height == g.height
}

func (f *Field) index(x, y, c int) int {
	return (y*f.width+x)*int(f.kind) + c
}

// At returns the stored value of channel c at (x, y). Coordinates must be in
// range.
func (f *Field) At(x, y, c int) float32 {
	return f.data[f.index(x, y, c)]
}

// Set stores v into channel c at (x, y) under the field's storage mode.
func (f *Field) Set(x, y, c int, v float32) {
	f.data[f.index(x, y, c)] = f.storage.store(v)
}

// Clamped returns channel c at (x, y) after clamping the coordinates to the
// grid (clamp-to-edge).
func (f *Field) Clamped(x, y, c int) float32 {
	x = clampInt(x, 0, f.width-1)
	y = clampInt(y, 0, f.height-1)
	return f.data[f.index(x, y, c)]
}

// Sample bilinearly interpolates channel c at a fractional cell coordinate.
// Coordinates outside the grid are clamped to the nearest edge first.
func (f *Field) Sample(x, y float64, c int) float32 {
	i00, i10, i01, i11, fx, fy := f.bilinear(x, y)
	ch := int(f.kind)
	return lerp2(f.data[i00*ch+c], f.data[i10*ch+c], f.data[i01*ch+c], f.data[i11*ch+c], fx, fy)
}

// sampleVelocity interpolates both velocity channels in one pass.
func (f *Field) sampleVelocity(x, y float64) (float32, float32) {
	i00, i10, i01, i11, fx, fy := f.bilinear(x, y)
	d := f.data
	vx := lerp2(d[i00*2], d[i10*2], d[i01*2], d[i11*2], fx, fy)
	vy := lerp2(d[i00*2+1], d[i10*2+1], d[i01*2+1], d[i11*2+1], fx, fy)
	return vx, vy
}

// bilinear returns the four cell indices surrounding (x, y) and the
// interpolation weights, all clamped to the grid.
func (f *Field) bilinear(x, y float64) (i00, i10, i01, i11 int, fx, fy float32) {
	maxX := float64(f.width - 1)
	maxY := float64(f.height - 1)
	if !(x > 0) { // also catches NaN
		x = 0
	} else if x > maxX {
		x = maxX
	}
	if !(y > 0) {
		y = 0
	} else if y > maxY {
		y = maxY
	}
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	x1 := x0 + 1
	if x1 >= f.width {
		x1 = f.width - 1
	}
	y1 := y0 + 1
	if y1 >= f.height {
		y1 = f.height - 1
	}
	fx = float32(x - float64(x0))
	fy = float32(y - float64(y0))
	row0 := y0 * f.width
	row1 := y1 * f.width
	return row0 + x0, row0 + x1, row1 + x0, row1 + x1, fx, fy
}

func lerp2(v00, v10, v01, v11, fx, fy float32) float32 {
	bottom := v00 + (v10-v00)*fx
	top := v01 + (v11-v01)*fx
	return bottom + (top-bottom)*fy
}

// Fill stores the given per-channel values into every cell.
func (f *Field) Fill(values ...float32) {
	if len(values) != int(f.kind) {
		panic(fmt.Sprintf("fluid: Fill on %s field needs %d values, got %d", f.kind, f.kind, len(values)))
	}
	ch := int(f.kind)
	stored := make([]float32, ch)
	for c, v := range values {
		stored[c] = f.storage.store(v)
	}
	for i := 0; i < len(f.data); i += ch {
		copy(f.data[i:i+ch], stored)
	}
}

// CopyFrom replaces the contents of f with src. Both fields must share kind
// and extent.
func (f *Field) CopyFrom(src *Field) {
	mustMatch("CopyFrom", f, src)
	copy(f.data, src.data)
}

// Clone returns an independent copy of f.
func (f *Field) Clone() *Field {
	g := NewField(f.kind, f.width, f.height, f.storage)
	copy(g.data, f.data)
	return g
}

// storeRows applies the storage mode to rows [y0, y1) after a kernel has
// written them raw.
func (f *Field) storeRows(y0, y1 int) {
	if f.storage == StorageSigned {
		return
	}
	ch := int(f.kind)
	rows := f.data[y0*f.width*ch : y1*f.width*ch]
	for i, v := range rows {
		rows[i] = f.storage.store(v)
	}
}

func mustMatch(op string, a, b *Field) {
	if a == nil || b == nil {
		panic(fmt.Sprintf("fluid: %s on nil field", op))
	}
	if a.kind != b.kind || !a.SameExtent(b) {
		panic(fmt.Sprintf("fluid: %s between %s %dx%d and %s %dx%d",
			op, a.kind, a.width, a.height, b.kind, b.width, b.height))
	}
}

// clampInt constrains v to the inclusive [lo, hi] range.
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
