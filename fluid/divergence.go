package fluid

// Divergence computes the central-difference divergence of a velocity field:
// 0.5 * ((vx(x+1)-vx(x-1)) + (vy(y+1)-vy(y-1))), stored raw.
type Divergence struct{}

func (Divergence) Name() string   { return "divergence" }
func (Divergence) Radius() int    { return 1 }
func (Divergence) Inputs() []Kind { return []Kind{Velocity} }
func (Divergence) Output() Kind   { return Scalar }

func (Divergence) Rows(dst *Field, in []*Field, yStart, yEnd int) {
	v := in[0].data
	out := dst.data
	w, h := dst.width, dst.height
	for y := yStart; y < yEnd; y++ {
		row := y * w
		below := clampInt(y-1, 0, h-1) * w
		above := clampInt(y+1, 0, h-1) * w
		for x := 0; x < w; x++ {
			left := clampInt(x-1, 0, w-1)
			right := clampInt(x+1, 0, w-1)
			x0 := Decode(v[(row+left)*2])
			x1 := Decode(v[(row+right)*2])
			y0 := Decode(v[(below+x)*2+1])
			y1 := Decode(v[(above+x)*2+1])
			out[row+x] = 0.5 * ((x1 - x0) + (y1 - y0))
		}
	}
}
