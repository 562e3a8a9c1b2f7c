// Package fluid implements a real-time 2D incompressible fluid solver in the
// "stable fluids" style: semi-Lagrangian advection, a discrete divergence,
// a fixed number of Jacobi relaxations for pressure and a projection that
// subtracts the pressure gradient from velocity.
//
// All state lives in two accumulators (velocity and pressure) that persist
// across frames. Pointer input is turned into soft impulses composited over
// the accumulators before each step:
//
//	sim, err := fluid.NewSimulator(fluid.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer sim.Close()
//
//	sim.Inject(fluid.PointerEvent{X: 320, Y: 300, PrevX: 316, PrevY: 298})
//	if _, err := sim.Step(); err != nil {
//		return err
//	}
//	sim.Renderable(pixels)
//
// Grid row 0 is the bottom row. Velocity is stored bias-encoded in [0,1]
// (see Encode); pressure and divergence are stored raw. How values are
// committed to storage is selected with StorageMode.
package fluid
