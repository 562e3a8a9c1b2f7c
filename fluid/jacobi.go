package fluid

// Jacobi performs one relaxation step of the pressure Poisson equation
// lap(p) = divergence: 0.25 * (p(x-1)+p(x+1)+p(y-1)+p(y+1) - div).
// Inputs are the divergence and the previous pressure iterate.
type Jacobi struct{}

func (Jacobi) Name() string   { return "jacobi" }
func (Jacobi) Radius() int    { return 1 }
func (Jacobi) Inputs() []Kind { return []Kind{Scalar, Scalar} }
func (Jacobi) Output() Kind   { return Scalar }

func (Jacobi) Rows(dst *Field, in []*Field, yStart, yEnd int) {
	div := in[0].data
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
			out[row+x] = 0.25 * (x0 + x1 + y0 + y1 - div[row+x])
		}
	}
}
