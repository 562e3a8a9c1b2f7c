package fluid

import (
	"fmt"
	"math"
	"strings"

	"github.com/fogleman/gg"
)

// Shape is the outline of an impulse footprint before blurring.
type Shape int

const (
	// ShapeSquare fills the whole size×size footprint.
	ShapeSquare Shape = iota
	// ShapeDisc fills the circle inscribed in the footprint.
	ShapeDisc
)

func (s Shape) String() string {
	switch s {
	case ShapeSquare:
		return "square"
	case ShapeDisc:
		return "disc"
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

// ParseShape parses "square" or "disc".
func ParseShape(s string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "square":
		return ShapeSquare, nil
	case "disc", "disk", "circle":
		return ShapeDisc, nil
	}
	return ShapeSquare, fmt.Errorf("unknown impulse shape %q (want square or disc)", s)
}

// Stamp is a soft coverage mask in [0, 1], transparent outside its extent.
// It is built once and positioned per event.
type Stamp struct {
	size     int
	margin   int
	extent   int
	coverage []float32 // extent*extent, row 0 at the bottom
}

// NewStamp rasterises a size×size footprint of the given shape and softens
// its edge with a Gaussian blur of standard deviation blur. The mask grows by
// ceil(3*blur) cells on every side to hold the blur tail.
func NewStamp(size int, blur float64, shape Shape) *Stamp {
	if size < 1 {
		size = 1
	}
	if blur < 0 || math.IsNaN(blur) {
		blur = 0
	}
	margin := int(math.Ceil(blur * 3))
	s := &Stamp{
		size:     size,
		margin:   margin,
		extent:   size + 2*margin,
		coverage: rasterizeFootprint(size, margin, shape),
	}
	if blur > 0 {
		blurCoverage(s.coverage, s.extent, gaussianKernel(blur))
	}
	return s
}

// newStampFromCoverage wraps an explicit square mask.
func newStampFromCoverage(extent int, coverage []float32) *Stamp {
	return &Stamp{size: extent, extent: extent, coverage: coverage}
}

// Extent returns the edge length of the mask in cells.
func (s *Stamp) Extent() int { return s.extent }

// Coverage returns the mask value at mask cell (i, j).
func (s *Stamp) Coverage(i, j int) float32 {
	return s.coverage[j*s.extent+i]
}

// Origin returns the grid cell covered by mask cell (0, 0) when the
// footprint is centred on (cx, cy).
func (s *Stamp) Origin(cx, cy float64) (int, int) {
	x := int(math.Floor(cx)) - s.size/2 - s.margin
	y := int(math.Floor(cy)) - s.size/2 - s.margin
	return x, y
}

func rasterizeFootprint(size, margin int, shape Shape) []float32 {
	extent := size + 2*margin
	dc := gg.NewContext(extent, extent)
	dc.SetRGBA(1, 1, 1, 1)
	switch shape {
	case ShapeDisc:
		r := float64(size) / 2
		dc.DrawCircle(float64(margin)+r, float64(margin)+r, r)
	default:
		dc.DrawRectangle(float64(margin), float64(margin), float64(size), float64(size))
	}
	dc.Fill()

	img := dc.Image()
	b := img.Bounds()
	coverage := make([]float32, extent*extent)
	for j := 0; j < extent; j++ {
		for i := 0; i < extent; i++ {
			// image rows run top to bottom, grid rows bottom to top
			_, _, _, a := img.At(b.Min.X+i, b.Min.Y+extent-1-j).RGBA()
			coverage[j*extent+i] = float32(a) / 0xffff
		}
	}
	return coverage
}

// gaussianKernel returns a normalised 1D Gaussian with sigma = radius and
// 2*ceil(3*radius)+1 taps.
func gaussianKernel(radius float64) []float32 {
	if radius <= 0 {
		return []float32{1}
	}
	half := int(math.Ceil(radius * 3))
	kernel := make([]float32, 2*half+1)
	twoSigmaSq := 2 * radius * radius
	var sum float64
	for i := range kernel {
		x := float64(i - half)
		v := math.Exp(-(x * x) / twoSigmaSq)
		kernel[i] = float32(v)
		sum += v
	}
	inv := float32(1 / sum)
	for i := range kernel {
		kernel[i] *= inv
	}
	return kernel
}

// blurCoverage convolves a square mask with kernel horizontally then
// vertically. Samples outside the mask are transparent.
func blurCoverage(cov []float32, extent int, kernel []float32) {
	half := len(kernel) / 2
	tmp := make([]float32, len(cov))
	for y := 0; y < extent; y++ {
		row := cov[y*extent : (y+1)*extent]
		for x := 0; x < extent; x++ {
			var acc float32
			for k, wgt := range kernel {
				sx := x + k - half
				if sx < 0 || sx >= extent {
					continue
				}
				acc += row[sx] * wgt
			}
			tmp[y*extent+x] = acc
		}
	}
	for y := 0; y < extent; y++ {
		for x := 0; x < extent; x++ {
			var acc float32
			for k, wgt := range kernel {
				sy := y + k - half
				if sy < 0 || sy >= extent {
					continue
				}
				acc += tmp[sy*extent+x] * wgt
			}
			cov[y*extent+x] = clamp01(acc)
		}
	}
}

// CompositeOver draws a uniform colour through the stamp centred on
// (cx, cy): out = value*α + prior*(1-α). Cells with zero coverage keep their
// prior value; full coverage replaces it. values carries one entry per
// channel, in stored form.
func (f *Field) CompositeOver(s *Stamp, cx, cy float64, values ...float32) {
	if len(values) != int(f.kind) {
		panic(fmt.Sprintf("fluid: CompositeOver on %s field needs %d values, got %d", f.kind, f.kind, len(values)))
	}
	ox, oy := s.Origin(cx, cy)
	ch := int(f.kind)
	for j := 0; j < s.extent; j++ {
		y := oy + j
		if y < 0 || y >= f.height {
			continue
		}
		for i := 0; i < s.extent; i++ {
			x := ox + i
			if x < 0 || x >= f.width {
				continue
			}
			a := s.coverage[j*s.extent+i]
			if a <= 0 {
				continue
			}
			base := (y*f.width + x) * ch
			for c, v := range values {
				prior := f.data[base+c]
				var out float32
				if a >= 1 {
					out = v
				} else {
					out = v*a + prior*(1-a)
				}
				f.data[base+c] = f.storage.store(out)
			}
		}
	}
}
