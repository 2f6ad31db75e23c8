package geom

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestCheckCollision(t *testing.T) {
	tests := []struct {
		name        string
		a, b        Circle
		threeD      bool
		collided    bool
		penetration float32
	}{
		{
			name:     "touching",
			a:        Circle{Center: mgl32.Vec3{0, 0, 0}, Radius: 5},
			b:        Circle{Center: mgl32.Vec3{10, 0, 0}, Radius: 5},
			collided: false,
		},
		{
			name:        "overlapping",
			a:           Circle{Center: mgl32.Vec3{0, 0, 0}, Radius: 5},
			b:           Circle{Center: mgl32.Vec3{8, 0, 0}, Radius: 5},
			collided:    true,
			penetration: 2,
		},
		{
			name:        "2d ignores height",
			a:           Circle{Center: mgl32.Vec3{0, 0, 0}, Radius: 3},
			b:           Circle{Center: mgl32.Vec3{3, 4, 100}, Radius: 3},
			collided:    true,
			penetration: 1,
		},
		{
			name:     "3d separates by height",
			a:        Circle{Center: mgl32.Vec3{0, 0, 0}, Radius: 3},
			b:        Circle{Center: mgl32.Vec3{3, 4, 100}, Radius: 3},
			threeD:   true,
			collided: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckCollision(tt.a, tt.b, tt.threeD)
			if result.Collided != tt.collided {
				t.Fatalf("Collided = %v, want %v", result.Collided, tt.collided)
			}
			if tt.collided && !approx(result.Penetration, tt.penetration) {
				t.Errorf("Penetration = %v, want %v", result.Penetration, tt.penetration)
			}
		})
	}
}

func TestCheckCollision_Coincident(t *testing.T) {
	c := Circle{Center: mgl32.Vec3{1, 1, 0}, Radius: 2}
	result := CheckCollision(c, c, false)
	if !result.Collided {
		t.Fatal("coincident circles should collide")
	}
	if result.Normal != (mgl32.Vec3{}) {
		t.Errorf("Normal = %v, want zero for coincident centers", result.Normal)
	}
}

func TestRect_Contains(t *testing.T) {
	rect := Rect{Center: mgl32.Vec2{10, 10}, Width: 20, Height: 20}
	tests := []struct {
		name     string
		point    mgl32.Vec2
		expected bool
	}{
		{"center", mgl32.Vec2{10, 10}, true},
		{"left edge", mgl32.Vec2{0, 10}, true},
		{"right edge excluded", mgl32.Vec2{20, 10}, false},
		{"outside", mgl32.Vec2{25, 25}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rect.Contains(tt.point); got != tt.expected {
				t.Errorf("Contains(%v) = %v, want %v", tt.point, got, tt.expected)
			}
		})
	}
}

func TestQuadTree_InsertAndQuery(t *testing.T) {
	qt := NewQuadTree[int](Rect{Width: 100, Height: 100}, 2)

	points := []mgl32.Vec2{{-20, -20}, {20, 20}, {-20, 20}, {20, -20}}
	for i, p := range points {
		if !qt.Insert(p, i) {
			t.Fatalf("Insert(%v) failed", p)
		}
	}
	if qt.Insert(mgl32.Vec2{100, 100}, 99) {
		t.Error("Insert outside boundary should fail")
	}
	if !qt.Divided {
		t.Error("tree should subdivide past capacity")
	}

	all := qt.Query(Rect{Width: 100, Height: 100})
	if len(all) != 4 {
		t.Errorf("Query(all) returned %d objects, want 4", len(all))
	}

	ne := qt.Query(Rect{Center: mgl32.Vec2{25, 25}, Width: 50, Height: 50})
	if len(ne) != 1 || ne[0] != 1 {
		t.Errorf("Query(NE) = %v, want [1]", ne)
	}

	none := qt.Query(Rect{Center: mgl32.Vec2{200, 200}, Width: 10, Height: 10})
	if len(none) != 0 {
		t.Errorf("Query(outside) = %v, want empty", none)
	}
}

func BenchmarkQuadTree_Insert(b *testing.B) {
	qt := NewQuadTree[int](Rect{Width: 1000, Height: 1000}, 4)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		qt.Insert(mgl32.Vec2{float32(i%500) - 250, float32((i/500)%500) - 250}, i)
	}
}
