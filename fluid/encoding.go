package fluid

import (
	"fmt"
	"math"
	"strings"
)

// Encode maps a velocity component in [-1, 1] to its stored form in [0, 1].
func Encode(v float32) float32 {
	return v/2 + 0.5
}

// Decode maps a stored velocity component back to [-1, 1]. Divergence and
// Projection read velocity with this convention.
func Decode(s float32) float32 {
	return (s - 0.5) * 2
}

// DecodeNegated is the sign-flipped decode used by Advection to backtrace:
// a positive stored velocity yields a negative offset, i.e. the upstream
// sample position.
func DecodeNegated(s float32) float32 {
	return (s - 0.5) * -2
}

// StorageMode controls how a value is committed to a Field.
type StorageMode int

const (
	// StorageSigned keeps full float32 values, including negative pressure.
	StorageSigned StorageMode = iota
	// StorageClamped clamps every stored value to [0, 1], matching the
	// unsigned 8-bit accumulators of the reference renderer.
	StorageClamped
	// StorageUnorm8 clamps to [0, 1] and quantises to 1/255 steps.
	StorageUnorm8
	// StorageHalf rounds every value through IEEE 754 binary16.
	StorageHalf
)

var storageNames = [...]string{
	StorageSigned:  "signed",
	StorageClamped: "clamped",
	StorageUnorm8:  "unorm8",
	StorageHalf:    "half",
}

func (m StorageMode) String() string {
	if m >= 0 && int(m) < len(storageNames) {
		return storageNames[m]
	}
	return fmt.Sprintf("StorageMode(%d)", int(m))
}

// ParseStorageMode parses the names produced by StorageMode.String.
func ParseStorageMode(s string) (StorageMode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range storageNames {
		if n == name {
			return StorageMode(i), nil
		}
	}
	return StorageSigned, fmt.Errorf("unknown storage mode %q (want signed, clamped, unorm8 or half)", s)
}

// store returns v as it would read back after being written under m.
func (m StorageMode) store(v float32) float32 {
	switch m {
	case StorageClamped:
		return clamp01(v)
	case StorageUnorm8:
		return float32(math.Round(float64(clamp01(v))*255)) / 255
	case StorageHalf:
		return roundHalf(v)
	default:
		return v
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
