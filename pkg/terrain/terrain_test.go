package terrain

import (
	"testing"

	"github.com/chewxy/math32"
)

func TestFlat_LayerHeight(t *testing.T) {
	f := Flat{Height: 12}
	for _, layer := range []Layer{LayerGround, LayerBridge1, LayerTop} {
		if got := f.LayerHeight(100, -50, layer); got != 12 {
			t.Errorf("LayerHeight(%v) = %v, want 12", layer, got)
		}
	}
}

func TestNewHeightMap_Validation(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		cell    float32
		samples []float32
	}{
		{"too small", 1, 2, 1, []float32{0, 0}},
		{"bad cell", 2, 2, 0, []float32{0, 0, 0, 0}},
		{"sample count", 2, 2, 1, []float32{0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewHeightMap(tt.w, tt.h, tt.cell, tt.samples); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestHeightMap_Bilinear(t *testing.T) {
	// 0 10
	// 20 30
	hm, err := NewHeightMap(2, 2, 10, []float32{0, 10, 20, 30})
	if err != nil {
		t.Fatalf("NewHeightMap() error = %v", err)
	}

	tests := []struct {
		name string
		x, y float32
		want float32
	}{
		{"origin", 0, 0, 0},
		{"far corner", 10, 10, 30},
		{"center", 5, 5, 15},
		{"edge midpoint", 5, 0, 5},
		{"clamped outside", -100, 500, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := hm.LayerHeight(tt.x, tt.y, LayerGround)
			if math32.Abs(got-tt.want) > 1e-4 {
				t.Errorf("LayerHeight(%v,%v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestHeightMap_NonFiniteCoordinates(t *testing.T) {
	// 0 10
	// 20 30
	hm, err := NewHeightMap(2, 2, 10, []float32{0, 10, 20, 30})
	if err != nil {
		t.Fatalf("NewHeightMap() error = %v", err)
	}

	tests := []struct {
		name string
		x, y float32
		want float32
	}{
		{"nan both", math32.NaN(), math32.NaN(), 0},
		{"nan x", math32.NaN(), 10, 20},
		{"positive infinity", math32.Inf(1), 0, 10},
		{"mixed infinities", math32.Inf(-1), math32.Inf(1), 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := hm.LayerHeight(tt.x, tt.y, LayerGround)
			if got != tt.want {
				t.Errorf("LayerHeight(%v,%v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestHeightMap_Decks(t *testing.T) {
	hm, err := NewHeightMap(2, 2, 1, []float32{1, 1, 1, 1})
	if err != nil {
		t.Fatal(err)
	}
	hm.SetDeck(LayerBridge1, 25)

	if got := hm.LayerHeight(0.5, 0.5, LayerBridge1); got != 25 {
		t.Errorf("bridge deck = %v, want 25", got)
	}
	if got := hm.LayerHeight(0.5, 0.5, LayerBridge2); got != 1 {
		t.Errorf("unregistered deck should fall back to ground, got %v", got)
	}
}

func TestLayer_String(t *testing.T) {
	if LayerGround.String() != "ground" || Layer(99).String() != "invalid" {
		t.Error("unexpected layer names")
	}
}
