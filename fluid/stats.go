package fluid

import (
	"image"

	"gonum.org/v1/gonum/floats"
)

// FieldStats summarises one channel of a field over a region.
type FieldStats struct {
	Min, Max, Mean float64
	// L2 is the Euclidean norm of the samples.
	L2 float64
	// Cells is the number of samples measured.
	Cells int
}

// Measure summarises channel c over the whole field.
func Measure(f *Field, c int) FieldStats {
	var buf []float64
	return measureInto(&buf, f, c, image.Rect(0, 0, f.width, f.height))
}

// MeasureRegion summarises channel c over the cells of r that lie inside the
// grid. An empty intersection yields zero stats.
func MeasureRegion(f *Field, c int, r image.Rectangle) FieldStats {
	var buf []float64
	return measureInto(&buf, f, c, r)
}

// measureInto reuses *buf as the float64 staging slice.
func measureInto(buf *[]float64, f *Field, c int, r image.Rectangle) FieldStats {
	r = r.Intersect(image.Rect(0, 0, f.width, f.height))
	n := r.Dx() * r.Dy()
	if n == 0 {
		return FieldStats{}
	}
	if cap(*buf) < n {
		*buf = make([]float64, n)
	}
	vals := (*buf)[:n]
	ch := int(f.kind)
	i := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			vals[i] = float64(f.data[(y*f.width+x)*ch+c])
			i++
		}
	}
	return FieldStats{
		Min:   floats.Min(vals),
		Max:   floats.Max(vals),
		Mean:  floats.Sum(vals) / float64(n),
		L2:    floats.Norm(vals, 2),
		Cells: n,
	}
}
