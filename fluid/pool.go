package fluid

import (
	"runtime"
	"sync"
)

// band is a half-open row range [y0, y1) evaluated by one worker.
type band struct{ y0, y1 int }

// job is the kernel invocation every worker picks up for the current step.
type job struct {
	kernel Kernel
	dst    *Field
	in     []*Field
}

// Pool evaluates kernels across a fixed set of persistent goroutines. Rows
// are cut into bands and dealt round-robin to workers; Apply blocks until
// every band is written, so consecutive kernels never overlap.
type Pool struct {
	workers int

	applyMu sync.Mutex // serialises Apply callers

	mu      sync.Mutex
	cond    *sync.Cond
	step    int
	pending int
	closed  bool
	current job
	bands   [][]band
	height  int
	wg      sync.WaitGroup
}

// NewPool starts a pool with the given number of workers. Zero or a negative
// count uses GOMAXPROCS.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{workers: workers}
	p.cond = sync.NewCond(&p.mu)
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.workerLoop(i)
	}
	return p
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int { return p.workers }

// Apply evaluates k over the whole extent of dst. It panics if the inputs do
// not fit the kernel or if dst aliases one of them.
func (p *Pool) Apply(k Kernel, dst *Field, in ...*Field) {
	checkChain(k, dst, in)

	p.applyMu.Lock()
	defer p.applyMu.Unlock()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		runBands(job{kernel: k, dst: dst, in: in}, []band{{0, dst.height}})
		return
	}
	if p.height != dst.height {
		p.bands = assignBands(p.workers, dst.height)
		p.height = dst.height
	}
	p.current = job{kernel: k, dst: dst, in: in}
	p.pending = p.workers
	p.step++
	p.cond.Broadcast()
	for p.pending > 0 {
		p.cond.Wait()
	}
	p.current = job{}
	p.mu.Unlock()
}

// Close stops the workers. Apply keeps working afterwards, sequentially on
// the calling goroutine.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) workerLoop(index int) {
	defer p.wg.Done()
	lastStep := 0
	p.mu.Lock()
	for {
		for p.step == lastStep && !p.closed {
			p.cond.Wait()
		}
		if p.closed {
			p.mu.Unlock()
			return
		}
		lastStep = p.step
		j := p.current
		var mine []band
		if index < len(p.bands) {
			mine = p.bands[index]
		}
		p.mu.Unlock()

		runBands(j, mine)

		p.mu.Lock()
		p.pending--
		if p.pending == 0 {
			p.cond.Broadcast()
		}
	}
}

func runBands(j job, bands []band) {
	for _, b := range bands {
		j.kernel.Rows(j.dst, j.in, b.y0, b.y1)
		j.dst.storeRows(b.y0, b.y1)
	}
}

// assignBands splits height rows into about four bands per worker and deals
// them out round-robin so uneven rows average out.
func assignBands(workers, height int) [][]band {
	if workers < 1 {
		workers = 1
	}
	rows := (height + workers*4 - 1) / (workers * 4)
	if rows < 1 {
		rows = 1
	}
	out := make([][]band, workers)
	idx := 0
	for y := 0; y < height; y += rows {
		end := y + rows
		if end > height {
			end = height
		}
		out[idx%workers] = append(out[idx%workers], band{y0: y, y1: end})
		idx++
	}
	return out
}
