// Package terrain answers height queries for the simulation. The physics core
// only ever needs one thing from the map: how high the walkable surface is at
// a given point on a given layer.
package terrain

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Layer identifies a walkable surface. Bridges sit above the ground layer.
type Layer int

const (
	LayerInvalid Layer = iota
	LayerGround
	LayerBridge1
	LayerBridge2
	LayerTop
)

// String returns a readable layer name.
func (l Layer) String() string {
	switch l {
	case LayerGround:
		return "ground"
	case LayerBridge1:
		return "bridge1"
	case LayerBridge2:
		return "bridge2"
	case LayerTop:
		return "top"
	default:
		return "invalid"
	}
}

// Oracle returns the surface height at (x, y) on layer.
type Oracle interface {
	LayerHeight(x, y float32, layer Layer) float32
}

// Flat is an infinite plane at a fixed height. Every layer resolves to it.
type Flat struct {
	Height float32
}

// LayerHeight implements Oracle.
func (f Flat) LayerHeight(x, y float32, layer Layer) float32 {
	return f.Height
}

// HeightMap is a regular grid of ground heights sampled bilinearly. Points
// outside the grid clamp to the nearest edge sample. Bridge layers resolve to
// a constant deck height when one is registered, otherwise to the ground.
type HeightMap struct {
	width    int
	height   int
	cellSize float32
	samples  []float32
	decks    map[Layer]float32
}

// NewHeightMap builds a width x height grid from row-major samples.
func NewHeightMap(width, height int, cellSize float32, samples []float32) (*HeightMap, error) {
	if width < 2 || height < 2 {
		return nil, fmt.Errorf("height map must be at least 2x2, got %dx%d", width, height)
	}
	if cellSize <= 0 {
		return nil, fmt.Errorf("cell size must be positive, got %f", cellSize)
	}
	if len(samples) != width*height {
		return nil, fmt.Errorf("expected %d samples, got %d", width*height, len(samples))
	}
	data := make([]float32, len(samples))
	copy(data, samples)
	return &HeightMap{
		width:    width,
		height:   height,
		cellSize: cellSize,
		samples:  data,
		decks:    make(map[Layer]float32),
	}, nil
}

// SetDeck registers a constant surface height for a bridge layer.
func (h *HeightMap) SetDeck(layer Layer, height float32) {
	h.decks[layer] = height
}

// LayerHeight implements Oracle.
func (h *HeightMap) LayerHeight(x, y float32, layer Layer) float32 {
	if layer != LayerGround {
		if deck, ok := h.decks[layer]; ok {
			return deck
		}
	}
	return h.groundHeight(x, y)
}

func (h *HeightMap) groundHeight(x, y float32) float32 {
	gx := clampf(finiteOrZero(x)/h.cellSize, 0, float32(h.width-1))
	gy := clampf(finiteOrZero(y)/h.cellSize, 0, float32(h.height-1))

	x0 := int(math32.Floor(gx))
	y0 := int(math32.Floor(gy))
	x1 := minInt(x0+1, h.width-1)
	y1 := minInt(y0+1, h.height-1)
	fx := gx - float32(x0)
	fy := gy - float32(y0)

	h00 := h.at(x0, y0)
	h10 := h.at(x1, y0)
	h01 := h.at(x0, y1)
	h11 := h.at(x1, y1)

	top := h00 + (h10-h00)*fx
	bottom := h01 + (h11-h01)*fx
	return top + (bottom-top)*fy
}

func (h *HeightMap) at(x, y int) float32 {
	return h.samples[y*h.width+x]
}

// finiteOrZero maps NaN to 0. Infinities are left for clampf.
func finiteOrZero(v float32) float32 {
	if math32.IsNaN(v) {
		return 0
	}
	return v
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
