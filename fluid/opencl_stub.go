//go:build !opencl

package fluid

import "fmt"

func newOpenCLSolver(width, height int, storage StorageMode) (deviceSolver, error) {
	return nil, fmt.Errorf("%w: OpenCL support is not enabled; rebuild with -tags opencl", ErrBackendUnavailable)
}
