package fluid

import "fmt"

// Kernel is a per-cell stencil transform. Every output cell depends only on
// input cells within Radius of it, so rows can be evaluated in any order and
// on any goroutine. A kernel never writes its inputs.
type Kernel interface {
	Name() string
	// Radius is the neighbourhood radius in cells read around each output cell.
	Radius() int
	// Inputs lists the expected kind of every input field, in order.
	Inputs() []Kind
	// Output is the kind of the destination field.
	Output() Kind
	// Rows writes output rows [y0, y1) of dst. Stored values are written raw;
	// the caller applies the destination storage mode afterwards.
	Rows(dst *Field, in []*Field, y0, y1 int)
}

// checkChain panics when k cannot be applied to dst and in: wrong arity,
// wrong kinds, mismatched extents or a destination that aliases an input.
// These are wiring mistakes, never runtime conditions.
func checkChain(k Kernel, dst *Field, in []*Field) {
	want := k.Inputs()
	if len(in) != len(want) {
		panic(fmt.Sprintf("fluid: %s takes %d inputs, got %d", k.Name(), len(want), len(in)))
	}
	if dst == nil {
		panic(fmt.Sprintf("fluid: %s has nil destination", k.Name()))
	}
	if dst.kind != k.Output() {
		panic(fmt.Sprintf("fluid: %s writes a %s field, destination is %s", k.Name(), k.Output(), dst.kind))
	}
	for i, f := range in {
		if f == nil {
			panic(fmt.Sprintf("fluid: %s input %d is nil", k.Name(), i))
		}
		if f.kind != want[i] {
			panic(fmt.Sprintf("fluid: %s input %d must be %s, got %s", k.Name(), i, want[i], f.kind))
		}
		if !f.SameExtent(dst) {
			panic(fmt.Sprintf("fluid: %s input %d is %dx%d, destination is %dx%d",
				k.Name(), i, f.width, f.height, dst.width, dst.height))
		}
		if f == dst {
			panic(fmt.Sprintf("fluid: %s destination aliases input %d", k.Name(), i))
		}
	}
}
