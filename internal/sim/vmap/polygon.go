package vmap

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

func PolygonArea(pts []mgl32.Vec2) float32 {
	if len(pts) < 3 {
		return 0
	}
	var sum float32
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].X()*pts[j].Y() - pts[j].X()*pts[i].Y()
	}
	return float32(math.Abs(float64(sum))) * 0.5
}

// PointInPolygon is the even-odd rule test.
func PointInPolygon(p mgl32.Vec2, pts []mgl32.Vec2) bool {
	inside := false
	n := len(pts)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := pts[i], pts[j]
		if (pi.Y() > p.Y()) != (pj.Y() > p.Y()) {
			x := (pj.X()-pi.X())*(p.Y()-pi.Y())/(pj.Y()-pi.Y()) + pi.X()
			if p.X() < x {
				inside = !inside
			}
		}
	}
	return inside
}

// DistanceToSegment returns the distance from p to segment ab.
func DistanceToSegment(p, a, b mgl32.Vec2) float32 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return p.Sub(a).Len()
	}
	t := p.Sub(a).Dot(ab) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return p.Sub(a.Add(ab.Mul(t))).Len()
}
