package fluid

// PressureSolver runs a fixed number of Jacobi relaxations per frame. It is
// deliberately under-converged: each frame starts from the previous frame's
// pressure, so the solution improves across frames.
type PressureSolver struct {
	iterations int
	pool       *Pool
	scratch    *Field
}

// NewPressureSolver allocates the solver's scratch buffer for a width×height
// grid.
func NewPressureSolver(pool *Pool, iterations, width, height int, storage StorageMode) *PressureSolver {
	if iterations < 0 {
		iterations = 0
	}
	return &PressureSolver{
		iterations: iterations,
		pool:       pool,
		scratch:    NewField(Scalar, width, height, storage),
	}
}

// Iterations returns the number of relaxations per Solve.
func (s *PressureSolver) Iterations() int { return s.iterations }

// Solve relaxes initial against divergence and leaves the last iterate in
// dst. Every iteration re-reads the same divergence. Iterates alternate
// between dst and the scratch buffer, starting with whichever makes the
// final one land in dst. dst must not be initial or divergence.
func (s *PressureSolver) Solve(dst, divergence, initial *Field) {
	if s.iterations == 0 {
		dst.CopyFrom(initial)
		return
	}
	in := initial
	for i := 0; i < s.iterations; i++ {
		out := s.scratch
		if (s.iterations-1-i)%2 == 0 {
			out = dst
		}
		s.pool.Apply(Jacobi{}, out, divergence, in)
		in = out
	}
}
