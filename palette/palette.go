// Package palette maps the simulator's renderable scalar image to RGBA
// pixels through a 256-entry colour lookup table.
package palette

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mazznoer/colorgrad"
)

const lutSize = 256

var presets = map[string]func() (colorgrad.Gradient, error){
	"gray": func() (colorgrad.Gradient, error) {
		return colorgrad.NewGradient().HtmlColors("#000000", "#ffffff").Build()
	},
	"viridis": func() (colorgrad.Gradient, error) { return colorgrad.Viridis(), nil },
	"inferno": func() (colorgrad.Gradient, error) { return colorgrad.Inferno(), nil },
	"magma":   func() (colorgrad.Gradient, error) { return colorgrad.Magma(), nil },
	"plasma":  func() (colorgrad.Gradient, error) { return colorgrad.Plasma(), nil },
	"turbo":   func() (colorgrad.Gradient, error) { return colorgrad.Turbo(), nil },
}

// Names lists the available palettes in sorted order.
func Names() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Palette is an opaque colour table indexed by value in [0, 1].
type Palette struct {
	name string
	lut  [lutSize][4]byte
}

// New builds the named palette.
func New(name string) (*Palette, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	build, ok := presets[key]
	if !ok {
		return nil, fmt.Errorf("unknown palette %q (have %s)", name, strings.Join(Names(), ", "))
	}
	grad, err := build()
	if err != nil {
		return nil, fmt.Errorf("building palette %s: %w", key, err)
	}
	p := &Palette{name: key}
	for i, c := range grad.Colors(lutSize) {
		r, g, b, _ := c.RGBA()
		p.lut[i] = [4]byte{byte(r >> 8), byte(g >> 8), byte(b >> 8), 0xff}
	}
	return p, nil
}

// Name returns the palette key.
func (p *Palette) Name() string { return p.name }

// Color returns the RGBA entry for v, clamped to [0, 1].
func (p *Palette) Color(v float32) [4]byte {
	return p.lut[index(v)]
}

func index(v float32) int {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return lutSize - 1
	}
	return int(v*(lutSize-1) + 0.5)
}

// Paint converts a width×height image whose row 0 is the bottom row into
// top-down RGBA pixels, as expected by screen uploads. dst must hold
// width*height*4 bytes.
func (p *Palette) Paint(dst []byte, values []float32, width, height int) {
	if len(values) < width*height || len(dst) < width*height*4 {
		panic(fmt.Sprintf("palette: Paint %dx%d with %d values into %d bytes", width, height, len(values), len(dst)))
	}
	for row := 0; row < height; row++ {
		src := values[(height-1-row)*width : (height-row)*width]
		out := dst[row*width*4 : (row+1)*width*4]
		for x, v := range src {
			c := p.lut[index(v)]
			copy(out[x*4:x*4+4], c[:])
		}
	}
}
