//go:build opencl

package fluid

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/jgillich/go-opencl/cl"
)

const fluidKernelSource = `
float store_value(float v, int mode) {
    if (mode == 1) {
        return clamp(v, 0.0f, 1.0f);
    }
    if (mode == 2) {
        return rint(clamp(v, 0.0f, 1.0f) * 255.0f) / 255.0f;
    }
    return v;
}

int cell(int x, int y, int width, int height) {
    return clamp(y, 0, height - 1) * width + clamp(x, 0, width - 1);
}

__kernel void advect(
    const int width,
    const int height,
    const int mode,
    __global const float* vel,
    __global float* out)
{
    int idx = get_global_id(0);
    if (idx >= width * height) {
        return;
    }
    int x = idx % width;
    int y = idx / width;
    float sx = (float)x + (vel[idx * 2] - 0.5f) * -2.0f;
    float sy = (float)y + (vel[idx * 2 + 1] - 0.5f) * -2.0f;
    sx = clamp(sx, 0.0f, (float)(width - 1));
    sy = clamp(sy, 0.0f, (float)(height - 1));
    int x0 = (int)floor(sx);
    int y0 = (int)floor(sy);
    float fx = sx - (float)x0;
    float fy = sy - (float)y0;
    int i00 = cell(x0, y0, width, height);
    int i10 = cell(x0 + 1, y0, width, height);
    int i01 = cell(x0, y0 + 1, width, height);
    int i11 = cell(x0 + 1, y0 + 1, width, height);
    for (int c = 0; c < 2; c++) {
        float b = mix(vel[i00 * 2 + c], vel[i10 * 2 + c], fx);
        float t = mix(vel[i01 * 2 + c], vel[i11 * 2 + c], fx);
        out[idx * 2 + c] = store_value(mix(b, t, fy), mode);
    }
}

__kernel void divergence(
    const int width,
    const int height,
    const int mode,
    __global const float* vel,
    __global float* out)
{
    int idx = get_global_id(0);
    if (idx >= width * height) {
        return;
    }
    int x = idx % width;
    int y = idx / width;
    float x0 = (vel[cell(x - 1, y, width, height) * 2] - 0.5f) * 2.0f;
    float x1 = (vel[cell(x + 1, y, width, height) * 2] - 0.5f) * 2.0f;
    float y0 = (vel[cell(x, y - 1, width, height) * 2 + 1] - 0.5f) * 2.0f;
    float y1 = (vel[cell(x, y + 1, width, height) * 2 + 1] - 0.5f) * 2.0f;
    out[idx] = store_value(0.5f * ((x1 - x0) + (y1 - y0)), mode);
}

__kernel void jacobi(
    const int width,
    const int height,
    const int mode,
    __global const float* div,
    __global const float* p,
    __global float* out)
{
    int idx = get_global_id(0);
    if (idx >= width * height) {
        return;
    }
    int x = idx % width;
    int y = idx / width;
    float x0 = p[cell(x - 1, y, width, height)];
    float x1 = p[cell(x + 1, y, width, height)];
    float y0 = p[cell(x, y - 1, width, height)];
    float y1 = p[cell(x, y + 1, width, height)];
    out[idx] = store_value(0.25f * (x0 + x1 + y0 + y1 - div[idx]), mode);
}

__kernel void project(
    const int width,
    const int height,
    const int mode,
    __global const float* vel,
    __global const float* p,
    __global float* out)
{
    int idx = get_global_id(0);
    if (idx >= width * height) {
        return;
    }
    int x = idx % width;
    int y = idx / width;
    float x0 = p[cell(x - 1, y, width, height)];
    float x1 = p[cell(x + 1, y, width, height)];
    float y0 = p[cell(x, y - 1, width, height)];
    float y1 = p[cell(x, y + 1, width, height)];
    float rx = (vel[idx * 2] - 0.5f) * 2.0f - 0.5f * (x1 - x0);
    float ry = (vel[idx * 2 + 1] - 0.5f) * 2.0f - 0.5f * (y1 - y0);
    out[idx * 2] = store_value((rx + 1.0f) / 2.0f, mode);
    out[idx * 2 + 1] = store_value((ry + 1.0f) / 2.0f, mode);
}`

// openCLSolver keeps both accumulators resident on the device and only
// uploads them again after host-side injection.
type openCLSolver struct {
	context *cl.Context
	queue   *cl.CommandQueue
	program *cl.Program

	advect     *cl.Kernel
	divergence *cl.Kernel
	jacobi     *cl.Kernel
	project    *cl.Kernel

	velocity    *cl.MemObject
	advected    *cl.MemObject
	velocityOut *cl.MemObject
	divBuf      *cl.MemObject
	pressure    [3]*cl.MemObject
	pressureIdx int

	width, height int
	mode          int32
	deviceName    string
	coldStart     bool
}

func pickOpenCLDevice() (*cl.Device, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		msg := "querying OpenCL platforms"
		if strings.Contains(err.Error(), "-1001") {
			msg += ": no ICD loader reported any platforms; install OpenCL drivers and verify with `clinfo`"
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrBackendUnavailable, msg, err)
	}
	if len(platforms) == 0 {
		return nil, fmt.Errorf("%w: no OpenCL platforms available", ErrBackendUnavailable)
	}
	for _, kind := range []cl.DeviceType{cl.DeviceTypeGPU, cl.DeviceTypeCPU} {
		for _, p := range platforms {
			devices, derr := p.GetDevices(kind)
			if derr != nil && derr != cl.ErrDeviceNotFound {
				continue
			}
			if len(devices) > 0 {
				return devices[0], nil
			}
		}
	}
	return nil, fmt.Errorf("%w: no suitable OpenCL devices found", ErrBackendUnavailable)
}

func newOpenCLSolver(width, height int, storage StorageMode) (deviceSolver, error) {
	var mode int32
	switch storage {
	case StorageSigned:
		mode = 0
	case StorageClamped:
		mode = 1
	case StorageUnorm8:
		mode = 2
	default:
		return nil, fmt.Errorf("%w: OpenCL backend does not support %s storage", ErrBackendUnavailable, storage)
	}
	device, err := pickOpenCLDevice()
	if err != nil {
		return nil, err
	}

	s := &openCLSolver{width: width, height: height, mode: mode, deviceName: device.Name(), coldStart: true}
	if err := s.init(device); err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

// init builds the program and allocates every buffer. On error the caller
// releases whatever was created.
func (s *openCLSolver) init(device *cl.Device) error {
	var err error
	if s.context, err = cl.CreateContext([]*cl.Device{device}); err != nil {
		return fmt.Errorf("creating OpenCL context: %w", err)
	}
	if s.queue, err = s.context.CreateCommandQueue(device, 0); err != nil {
		return fmt.Errorf("creating OpenCL command queue: %w", err)
	}
	if s.program, err = s.context.CreateProgramWithSource([]string{fluidKernelSource}); err != nil {
		return fmt.Errorf("creating OpenCL program: %w", err)
	}
	if err := s.program.BuildProgram([]*cl.Device{device}, ""); err != nil {
		var buildErr cl.BuildError
		if errors.As(err, &buildErr) {
			return fmt.Errorf("building OpenCL program: %s", string(buildErr))
		}
		return fmt.Errorf("building OpenCL program: %w", err)
	}
	for _, k := range []struct {
		name string
		dst  **cl.Kernel
	}{
		{"advect", &s.advect},
		{"divergence", &s.divergence},
		{"jacobi", &s.jacobi},
		{"project", &s.project},
	} {
		if *k.dst, err = s.program.CreateKernel(k.name); err != nil {
			return fmt.Errorf("creating %s kernel: %w", k.name, err)
		}
	}

	cells := s.width * s.height
	scalarBytes := cells * int(unsafe.Sizeof(float32(0)))
	for _, b := range []struct {
		label string
		dst   **cl.MemObject
		size  int
	}{
		{"velocity", &s.velocity, scalarBytes * 2},
		{"advected", &s.advected, scalarBytes * 2},
		{"projected", &s.velocityOut, scalarBytes * 2},
		{"divergence", &s.divBuf, scalarBytes},
		{"pressure", &s.pressure[0], scalarBytes},
		{"pressure scratch", &s.pressure[1], scalarBytes},
		{"pressure scratch", &s.pressure[2], scalarBytes},
	} {
		if *b.dst, err = s.context.CreateEmptyBuffer(cl.MemReadWrite, b.size); err != nil {
			return fmt.Errorf("allocating %s buffer: %w", b.label, err)
		}
	}
	return nil
}

func (s *openCLSolver) name() string { return "opencl/" + s.deviceName }

func (s *openCLSolver) dispatch(k *cl.Kernel, label string, args ...interface{}) error {
	all := append([]interface{}{int32(s.width), int32(s.height), s.mode}, args...)
	if err := k.SetArgs(all...); err != nil {
		return fmt.Errorf("setting %s arguments: %w", label, err)
	}
	if _, err := s.queue.EnqueueNDRangeKernel(k, nil, []int{s.width * s.height}, nil, nil); err != nil {
		return fmt.Errorf("enqueueing %s: %w", label, err)
	}
	return nil
}

func (s *openCLSolver) step(acc *Accumulators, iterations int) error {
	cells := s.width * s.height
	if len(acc.Velocity.data) != cells*2 || len(acc.Pressure.data) != cells {
		return fmt.Errorf("unexpected accumulator size")
	}
	if acc.dirty || s.coldStart {
		if _, err := s.queue.EnqueueWriteBufferFloat32(s.velocity, false, 0, acc.Velocity.data, nil); err != nil {
			return fmt.Errorf("writing velocity buffer: %w", err)
		}
		if _, err := s.queue.EnqueueWriteBufferFloat32(s.pressure[s.pressureIdx], false, 0, acc.Pressure.data, nil); err != nil {
			return fmt.Errorf("writing pressure buffer: %w", err)
		}
	}

	if err := s.dispatch(s.advect, "advection", s.velocity, s.advected); err != nil {
		return err
	}
	if err := s.dispatch(s.divergence, "divergence", s.advected, s.divBuf); err != nil {
		return err
	}
	in := s.pressureIdx
	for i := 0; i < iterations; i++ {
		out := (in + 1) % len(s.pressure)
		if err := s.dispatch(s.jacobi, "jacobi", s.divBuf, s.pressure[in], s.pressure[out]); err != nil {
			return err
		}
		in = out
	}
	if err := s.dispatch(s.project, "projection", s.advected, s.pressure[in], s.velocityOut); err != nil {
		return err
	}

	if _, err := s.queue.EnqueueReadBufferFloat32(s.velocityOut, true, 0, acc.Velocity.data, nil); err != nil {
		return fmt.Errorf("reading velocity buffer: %w", err)
	}
	if _, err := s.queue.EnqueueReadBufferFloat32(s.pressure[in], true, 0, acc.Pressure.data, nil); err != nil {
		return fmt.Errorf("reading pressure buffer: %w", err)
	}
	s.velocity, s.velocityOut = s.velocityOut, s.velocity
	s.pressureIdx = in
	acc.dirty = false
	s.coldStart = false
	return nil
}

func (s *openCLSolver) close() {
	for _, b := range []**cl.MemObject{&s.velocity, &s.advected, &s.velocityOut, &s.divBuf, &s.pressure[0], &s.pressure[1], &s.pressure[2]} {
		if *b != nil {
			(*b).Release()
			*b = nil
		}
	}
	for _, k := range []**cl.Kernel{&s.advect, &s.divergence, &s.jacobi, &s.project} {
		if *k != nil {
			(*k).Release()
			*k = nil
		}
	}
	if s.program != nil {
		s.program.Release()
		s.program = nil
	}
	if s.queue != nil {
		s.queue.Release()
		s.queue = nil
	}
	if s.context != nil {
		s.context.Release()
		s.context = nil
	}
}
