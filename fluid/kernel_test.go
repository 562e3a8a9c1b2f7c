package fluid

import (
	"image"
	"math"
	"testing"
)

func near(a, b float32, tol float64) bool {
	return math.Abs(float64(a-b)) <= tol
}

func TestDivergenceUniformIsZero(t *testing.T) {
	pool := NewPool(3)
	defer pool.Close()

	v := NewField(Velocity, 16, 16, StorageSigned)
	v.Fill(Encode(0.3), Encode(-0.2))
	d := NewField(Scalar, 16, 16, StorageSigned)
	pool.Apply(Divergence{}, d, v)
	for i, x := range d.Data() {
		if x != 0 {
			t.Fatalf("divergence[%d] = %v, want 0", i, x)
		}
	}
}

func TestDivergenceCentralDifference(t *testing.T) {
	const w, h = 12, 6
	v := NewField(Velocity, w, h, StorageSigned)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v.Set(x, y, 0, Encode(0.02*float32(x)))
			v.Set(x, y, 1, Encode(0))
		}
	}
	d := NewField(Scalar, w, h, StorageSigned)
	Divergence{}.Rows(d, []*Field{v}, 0, h)
	if got := d.At(5, 3, 0); !near(got, 0.02, 1e-5) {
		t.Errorf("interior divergence = %v, want 0.02", got)
	}
	// one-sided at the clamped edge
	if got := d.At(0, 3, 0); !near(got, 0.01, 1e-5) {
		t.Errorf("edge divergence = %v, want 0.01", got)
	}
}

func TestJacobiConstantFixedPoint(t *testing.T) {
	div := NewField(Scalar, 8, 8, StorageSigned)
	p := NewField(Scalar, 8, 8, StorageSigned)
	p.Fill(0.4)
	out := NewField(Scalar, 8, 8, StorageSigned)
	Jacobi{}.Rows(out, []*Field{div, p}, 0, 8)
	for i, x := range out.Data() {
		if !near(x, 0.4, 1e-6) {
			t.Fatalf("cell %d = %v, want 0.4", i, x)
		}
	}
}

func TestJacobiHarmonicFixedPoint(t *testing.T) {
	const n = 10
	div := NewField(Scalar, n, n, StorageSigned)
	p := NewField(Scalar, n, n, StorageSigned)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			p.Set(x, y, 0, 0.01*float32(x)+0.02*float32(y))
		}
	}
	out := NewField(Scalar, n, n, StorageSigned)
	Jacobi{}.Rows(out, []*Field{div, p}, 0, n)
	for y := 1; y < n-1; y++ {
		for x := 1; x < n-1; x++ {
			if !near(out.At(x, y, 0), p.At(x, y, 0), 1e-6) {
				t.Errorf("(%d,%d) moved from %v to %v", x, y, p.At(x, y, 0), out.At(x, y, 0))
			}
		}
	}
}

func TestJacobiSubtractsDivergence(t *testing.T) {
	div := NewField(Scalar, 4, 4, StorageSigned)
	div.Set(2, 2, 0, 0.8)
	p := NewField(Scalar, 4, 4, StorageSigned)
	out := NewField(Scalar, 4, 4, StorageSigned)
	Jacobi{}.Rows(out, []*Field{div, p}, 0, 4)
	if got := out.At(2, 2, 0); got != -0.2 {
		t.Errorf("relaxed = %v, want -0.2", got)
	}
}

func TestAdvectionNeutralUnchanged(t *testing.T) {
	v := NewField(Velocity, 9, 7, StorageSigned)
	v.Fill(Encode(0), Encode(0))
	out := NewField(Velocity, 9, 7, StorageSigned)
	Advection{}.Rows(out, []*Field{v}, 0, 7)
	for i, x := range out.Data() {
		if x != 0.5 {
			t.Fatalf("value %d = %v, want 0.5", i, x)
		}
	}
}

func TestAdvectionSamplesUpstream(t *testing.T) {
	const w, h = 10, 4
	v := NewField(Velocity, w, h, StorageSigned)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v.Set(x, y, 0, 0.75) // vx = +0.5, backtrace half a cell to the left
			v.Set(x, y, 1, 0.5+0.01*float32(x))
		}
	}
	out := NewField(Velocity, w, h, StorageSigned)
	Advection{}.Rows(out, []*Field{v}, 0, h)
	for x := 1; x < w; x++ {
		want := 0.5 + 0.01*(float32(x)-0.5)
		if got := out.At(x, 2, 1); !near(got, want, 1e-6) {
			t.Errorf("x=%d: carried %v, want %v", x, got, want)
		}
		if got := out.At(x, 2, 0); !near(got, 0.75, 1e-6) {
			t.Errorf("x=%d: vx %v, want 0.75", x, got)
		}
	}
	// the left edge clamps to column 0
	if got := out.At(0, 2, 1); !near(got, 0.5, 1e-6) {
		t.Errorf("edge carried %v, want 0.5", got)
	}
}

func TestAdvectionSignedVelocityBeyondUnit(t *testing.T) {
	const w, h = 10, 3
	v := NewField(Velocity, w, h, StorageSigned)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v.Set(x, y, 0, 1.75) // vx = +2.5, outside the encodable range
			v.Set(x, y, 1, 0.5+0.01*float32(x))
		}
	}
	out := NewField(Velocity, w, h, StorageSigned)
	Advection{}.Rows(out, []*Field{v}, 0, h)
	for x := 0; x < w; x++ {
		want := float32(0.5)
		if x >= 3 {
			want = 0.5 + 0.01*(float32(x)-2.5)
		}
		if got := out.At(x, 1, 1); !near(got, want, 1e-6) {
			t.Errorf("x=%d: carried %v, want %v", x, got, want)
		}
		if got := out.At(x, 1, 0); got != 1.75 {
			t.Errorf("x=%d: vx %v, want 1.75", x, got)
		}
	}
}

func TestProjectionZeroPressureIdentity(t *testing.T) {
	v := NewField(Velocity, 5, 5, StorageSigned)
	v.Fill(0.3, 0.8)
	p := NewField(Scalar, 5, 5, StorageSigned)
	out := NewField(Velocity, 5, 5, StorageSigned)
	Projection{}.Rows(out, []*Field{v, p}, 0, 5)
	for i, x := range out.Data() {
		if !near(x, v.Data()[i], 1e-6) {
			t.Fatalf("value %d = %v, want %v", i, x, v.Data()[i])
		}
	}
}

func TestProjectionSubtractsGradient(t *testing.T) {
	v := NewField(Velocity, 6, 6, StorageSigned)
	v.Fill(Encode(0), Encode(0))
	p := NewField(Scalar, 6, 6, StorageSigned)
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			p.Set(x, y, 0, 0.1*float32(x))
		}
	}
	out := NewField(Velocity, 6, 6, StorageSigned)
	Projection{}.Rows(out, []*Field{v, p}, 0, 6)
	if got := out.At(3, 3, 0); !near(got, 0.45, 1e-6) {
		t.Errorf("vx = %v, want 0.45", got)
	}
	if got := out.At(3, 3, 1); !near(got, 0.5, 1e-6) {
		t.Errorf("vy = %v, want 0.5", got)
	}
}

// radialField is a smooth outward flow around the centre with clearly
// non-zero divergence.
func radialField(n int) *Field {
	v := NewField(Velocity, n, n, StorageSigned)
	c := float64(n / 2)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			dx, dy := float64(x)-c, float64(y)-c
			g := math.Exp(-(dx*dx + dy*dy) / 32)
			v.Set(x, y, 0, Encode(float32(0.08*dx*g)))
			v.Set(x, y, 1, Encode(float32(0.08*dy*g)))
		}
	}
	return v
}

func TestProjectionReducesDivergence(t *testing.T) {
	const n = 32
	pool := NewPool(4)
	defer pool.Close()

	v := radialField(n)
	before := NewField(Scalar, n, n, StorageSigned)
	pool.Apply(Divergence{}, before, v)

	solver := NewPressureSolver(pool, 60, n, n, StorageSigned)
	p := NewField(Scalar, n, n, StorageSigned)
	solver.Solve(p, before, NewField(Scalar, n, n, StorageSigned))

	projected := NewField(Velocity, n, n, StorageSigned)
	pool.Apply(Projection{}, projected, v, p)
	after := NewField(Scalar, n, n, StorageSigned)
	pool.Apply(Divergence{}, after, projected)

	region := image.Rect(8, 8, 24, 24)
	b, a := MeasureRegion(before, 0, region), MeasureRegion(after, 0, region)
	if !(a.L2 < b.L2) {
		t.Fatalf("divergence L2 grew: before %v, after %v", b.L2, a.L2)
	}
	if whole := Measure(after, 0); !(whole.L2 < Measure(before, 0).L2/2) {
		t.Errorf("whole-grid divergence only fell to %v", whole.L2)
	}
}

func TestPressureSolverZeroIterationsCopies(t *testing.T) {
	pool := NewPool(1)
	defer pool.Close()
	s := NewPressureSolver(pool, 0, 3, 3, StorageSigned)
	initial := rampField(3, 3)
	dst := NewField(Scalar, 3, 3, StorageSigned)
	s.Solve(dst, NewField(Scalar, 3, 3, StorageSigned), initial)
	for i := range dst.Data() {
		if dst.Data()[i] != initial.Data()[i] {
			t.Fatalf("value %d = %v, want %v", i, dst.Data()[i], initial.Data()[i])
		}
	}
}

func TestPressureSolverMatchesManualIterations(t *testing.T) {
	for _, iterations := range []int{1, 2, 3, 4, 7} {
		pool := NewPool(2)
		div := rampField(6, 5)
		initial := NewField(Scalar, 6, 5, StorageSigned)
		initial.Fill(0.25)

		want := initial.Clone()
		for i := 0; i < iterations; i++ {
			next := NewField(Scalar, 6, 5, StorageSigned)
			Jacobi{}.Rows(next, []*Field{div, want}, 0, 5)
			want = next
		}

		got := NewField(Scalar, 6, 5, StorageSigned)
		NewPressureSolver(pool, iterations, 6, 5, StorageSigned).Solve(got, div, initial)
		for i := range got.Data() {
			if got.Data()[i] != want.Data()[i] {
				t.Fatalf("%d iterations: value %d = %v, want %v", iterations, i, got.Data()[i], want.Data()[i])
			}
		}
		if initial.At(0, 0, 0) != 0.25 {
			t.Fatalf("%d iterations: initial pressure was overwritten", iterations)
		}
		pool.Close()
	}
}
