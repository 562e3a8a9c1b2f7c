package fluid

import (
	"math"
	"testing"
)

func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
}

// rampField returns a scalar field holding x + 10*y.
func rampField(w, h int) *Field {
	f := NewField(Scalar, w, h, StorageSigned)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f.Set(x, y, 0, float32(x+10*y))
		}
	}
	return f
}

func TestNewFieldLayout(t *testing.T) {
	v := NewField(Velocity, 5, 3, StorageSigned)
	if v.Channels() != 2 || len(v.Data()) != 30 {
		t.Fatalf("velocity field has %d channels and %d values", v.Channels(), len(v.Data()))
	}
	s := NewField(Scalar, 5, 3, StorageSigned)
	if s.Channels() != 1 || len(s.Data()) != 15 {
		t.Fatalf("scalar field has %d channels and %d values", s.Channels(), len(s.Data()))
	}
	if !v.SameExtent(s) || v.SameExtent(NewField(Scalar, 3, 5, StorageSigned)) {
		t.Error("SameExtent disagrees with the extents")
	}
	mustPanic(t, "zero width", func() { NewField(Scalar, 0, 4, StorageSigned) })
	mustPanic(t, "bad kind", func() { NewField(Kind(3), 4, 4, StorageSigned) })
}

func TestFieldClampToEdge(t *testing.T) {
	f := rampField(4, 3)
	if got, want := f.Sample(-1, 1, 0), f.Sample(0, 1, 0); got != want {
		t.Errorf("Sample(-1,1) = %v, want %v", got, want)
	}
	if got, want := f.Sample(4, 3, 0), f.At(3, 2, 0); got != want {
		t.Errorf("Sample(W,H) = %v, want %v", got, want)
	}
	if got := f.Clamped(-5, 7, 0); got != 20 {
		t.Errorf("Clamped(-5,7) = %v, want 20", got)
	}
	if got := f.Clamped(9, -1, 0); got != 3 {
		t.Errorf("Clamped(9,-1) = %v, want 3", got)
	}
}

func TestFieldSampleBilinear(t *testing.T) {
	f := rampField(4, 3)
	tests := []struct {
		x, y float64
		want float32
	}{
		{0, 0, 0},
		{2, 1, 12},
		{0.5, 0.5, 5.5},
		{1.25, 0, 1.25},
		{3, 1.5, 18},
		{math.NaN(), 0, 0},
	}
	for _, tt := range tests {
		if got := f.Sample(tt.x, tt.y, 0); math.Abs(float64(got-tt.want)) > 1e-5 {
			t.Errorf("Sample(%v,%v) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestFieldFillAndStorage(t *testing.T) {
	v := NewField(Velocity, 3, 3, StorageClamped)
	v.Fill(-1, 2)
	if v.At(1, 1, 0) != 0 || v.At(1, 1, 1) != 1 {
		t.Errorf("clamped Fill stored (%v, %v)", v.At(1, 1, 0), v.At(1, 1, 1))
	}
	mustPanic(t, "Fill arity", func() { v.Fill(0.5) })

	h := NewField(Scalar, 2, 2, StorageHalf)
	h.Set(1, 1, 0, 0.1)
	if got := h.At(1, 1, 0); got != 0.0999755859375 {
		t.Errorf("half Set stored %v", got)
	}
}

func TestFieldCopyAndClone(t *testing.T) {
	a := rampField(3, 3)
	b := a.Clone()
	b.Set(0, 0, 0, 99)
	if a.At(0, 0, 0) != 0 {
		t.Fatal("Clone shares storage")
	}
	a.CopyFrom(b)
	if a.At(0, 0, 0) != 99 {
		t.Fatal("CopyFrom did not copy")
	}
	mustPanic(t, "CopyFrom kind mismatch", func() {
		a.CopyFrom(NewField(Velocity, 3, 3, StorageSigned))
	})
}

func TestStoreRowsAppliesMode(t *testing.T) {
	f := NewField(Scalar, 2, 3, StorageClamped)
	for i := range f.data {
		f.data[i] = -1
	}
	f.storeRows(1, 2)
	if f.At(0, 0, 0) != -1 || f.At(0, 1, 0) != 0 || f.At(1, 1, 0) != 0 || f.At(0, 2, 0) != -1 {
		t.Errorf("storeRows touched the wrong rows: %v", f.data)
	}
}

func TestMeasure(t *testing.T) {
	f := NewField(Scalar, 2, 2, StorageSigned)
	copy(f.Data(), []float32{1, 2, 3, 4})
	s := Measure(f, 0)
	if s.Min != 1 || s.Max != 4 || s.Mean != 2.5 || s.Cells != 4 {
		t.Errorf("Measure = %+v", s)
	}
	if math.Abs(s.L2-math.Sqrt(30)) > 1e-12 {
		t.Errorf("L2 = %v, want sqrt(30)", s.L2)
	}
}
