package fluid

import (
	"math"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, v := range []float32{-1, -0.5, -0.125, 0, 0.25, 0.75, 1} {
		if got := Decode(Encode(v)); math.Abs(float64(got-v)) > 1e-6 {
			t.Errorf("Decode(Encode(%v)) = %v", v, got)
		}
		// the negated convention reads back the opposite sign
		if got := DecodeNegated(Encode(-v)); math.Abs(float64(got-v)) > 1e-6 {
			t.Errorf("DecodeNegated(Encode(%v)) = %v, want %v", -v, got, v)
		}
	}
}

func TestEncodeRange(t *testing.T) {
	if Encode(-1) != 0 || Encode(0) != 0.5 || Encode(1) != 1 {
		t.Fatalf("Encode maps [-1,1] to %v..%v..%v", Encode(-1), Encode(0), Encode(1))
	}
}

func TestDecodeConventionsDiffer(t *testing.T) {
	if got := Decode(0.75); got != 0.5 {
		t.Errorf("Decode(0.75) = %v, want 0.5", got)
	}
	if got := DecodeNegated(0.75); got != -0.5 {
		t.Errorf("DecodeNegated(0.75) = %v, want -0.5", got)
	}
}

func TestStorageModeStore(t *testing.T) {
	tests := []struct {
		name string
		mode StorageMode
		in   float32
		want float32
	}{
		{"signed keeps negative", StorageSigned, -0.3, -0.3},
		{"signed keeps large", StorageSigned, 3.5, 3.5},
		{"clamped floors at zero", StorageClamped, -0.3, 0},
		{"clamped caps at one", StorageClamped, 1.7, 1},
		{"clamped passes interior", StorageClamped, 0.42, 0.42},
		{"unorm8 quantises", StorageUnorm8, 0.5, float32(128) / 255},
		{"unorm8 clamps", StorageUnorm8, -2, 0},
		{"half rounds", StorageHalf, 0.1, 0.0999755859375},
		{"half exact", StorageHalf, 0.5, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mode.store(tt.in); got != tt.want {
				t.Errorf("store(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseStorageMode(t *testing.T) {
	for _, m := range []StorageMode{StorageSigned, StorageClamped, StorageUnorm8, StorageHalf} {
		got, err := ParseStorageMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseStorageMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if got, err := ParseStorageMode(" Unorm8 "); err != nil || got != StorageUnorm8 {
		t.Errorf("ParseStorageMode is not case-insensitive: %v, %v", got, err)
	}
	if _, err := ParseStorageMode("float64"); err == nil {
		t.Error("expected error for unknown mode")
	}
	if s := StorageMode(42).String(); s != "StorageMode(42)" {
		t.Errorf("unknown mode String() = %q", s)
	}
}

func TestFloat32ToHalf(t *testing.T) {
	tests := []struct {
		in   float32
		want uint16
	}{
		{0, 0x0000},
		{1, 0x3c00},
		{-2, 0xc000},
		{0.1, 0x2e66},
		{65504, 0x7bff},
		{65520, 0x7c00}, // ties to even, overflows to infinity
		{1e9, 0x7c00},
		{float32(math.Ldexp(1, -24)), 0x0001},
		{float32(math.Ldexp(1, -26)), 0x0000},
		{float32(math.Inf(-1)), 0xfc00},
	}
	for _, tt := range tests {
		if got := float32ToHalf(tt.in); got != tt.want {
			t.Errorf("float32ToHalf(%v) = %#04x, want %#04x", tt.in, got, tt.want)
		}
	}
	if !math.IsNaN(float64(roundHalf(float32(math.NaN())))) {
		t.Error("NaN did not survive half rounding")
	}
}

func TestHalfToFloat32(t *testing.T) {
	tests := []struct {
		in   uint16
		want float32
	}{
		{0x3c00, 1},
		{0xc000, -2},
		{0x7bff, 65504},
		{0x0001, float32(math.Ldexp(1, -24))},
		{0x8001, -float32(math.Ldexp(1, -24))},
		{0x3555, 0.333251953125},
	}
	for _, tt := range tests {
		if got := halfToFloat32(tt.in); got != tt.want {
			t.Errorf("halfToFloat32(%#04x) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if !math.IsInf(float64(halfToFloat32(0x7c00)), 1) {
		t.Error("0x7c00 is not +Inf")
	}
}
