package fluid

// Advection transports velocity by itself. Each cell decodes its own
// velocity with the negated convention, steps to d+v (upstream) and copies
// the encoded velocity found there, bilinearly interpolated.
type Advection struct{}

func (Advection) Name() string { return "advection" }

// Radius is exact only while stored velocity stays in [0,1], i.e. |v| <= 1.
// Signed storage can step further; sampling clamps to the grid either way,
// so nothing reads out of bounds.
func (Advection) Radius() int { return 1 }

func (Advection) Inputs() []Kind { return []Kind{Velocity} }
func (Advection) Output() Kind   { return Velocity }

func (Advection) Rows(dst *Field, in []*Field, y0, y1 int) {
	vel := in[0]
	src := vel.data
	out := dst.data
	w := vel.width
	for y := y0; y < y1; y++ {
		fy := float64(y)
		for x := 0; x < w; x++ {
			i := (y*w + x) * 2
			sx := float64(x) + float64(DecodeNegated(src[i]))
			sy := fy + float64(DecodeNegated(src[i+1]))
			out[i], out[i+1] = vel.sampleVelocity(sx, sy)
		}
	}
}
