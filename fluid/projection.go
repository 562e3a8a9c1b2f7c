package fluid

// Projection subtracts the central-difference pressure gradient from the
// velocity, removing its divergent part. Velocity is decoded with the
// positive convention and re-encoded as (v - grad + 1) / 2.
type Projection struct{}

func (Projection) Name() string   { return "projection" }
func (Projection) Radius() int    { return 1 }
func (Projection) Inputs() []Kind { return []Kind{Velocity, Scalar} }
func (Projection) Output() Kind   { return Velocity }

func (Projection) Rows(dst *Field, in []*Field, yStart, yEnd int) {
	v := in[0].data
	p := in[1].data
	out := dst.data
	w, h := dst.width, dst.height
	for y := yStart; y < yEnd; y++ {
		row := y * w
		below := clampInt(y-1, 0, h-1) * w
		above := clampInt(y+1, 0, h-1) * w
		for x := 0; x < w; x++ {
			x0 := p[row+clampInt(x-1, 0, w-1)]
			x1 := p[row+clampInt(x+1, 0, w-1)]
			y0 := p[below+x]
			y1 := p[above+x]
			i := (row + x) * 2
			rx := Decode(v[i]) - 0.5*(x1-x0)
			ry := Decode(v[i+1]) - 0.5*(y1-y0)
			out[i] = (rx + 1) / 2
			out[i+1] = (ry + 1) / 2
		}
	}
}
