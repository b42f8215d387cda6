package geo

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const clipEpsilon = 1e-9

// IntersectRayWithCircle walks from p1 (inside or on the circle) towards p2
// and returns where the ray leaves the circle. ok is false when the points
// coincide, the radius is not positive or both roots lie behind p1.
func IntersectRayWithCircle(p1, p2, center r2.Vec, radius float64) (r2.Vec, bool) {
	if radius <= 0 {
		return r2.Vec{}, false
	}
	d := r2.Sub(p2, p1)
	a := r2.Dot(d, d)
	if a < clipEpsilon {
		return r2.Vec{}, false
	}
	f := r2.Sub(p1, center)
	b := 2 * r2.Dot(f, d)
	c := r2.Dot(f, f) - radius*radius

	disc := b*b - 4*a*c
	if disc < 0 {
		if disc < -clipEpsilon {
			return r2.Vec{}, false
		}
		disc = 0
	}
	sq := math.Sqrt(disc)
	t1 := (-b - sq) / (2 * a)
	t2 := (-b + sq) / (2 * a)

	t := -1.0
	for _, root := range []float64{t1, t2} {
		if root < 0 && root > -clipEpsilon {
			root = 0
		}
		if root >= 0 && (t < 0 || root < t) {
			t = root
		}
	}
	if t < 0 {
		return r2.Vec{}, false
	}
	return r2.Add(p1, r2.Scale(t, d)), true
}

// Inside reports whether p lies inside or on the circle.
func Inside(p, center r2.Vec, radius float64) bool {
	return r2.Norm(r2.Sub(p, center)) <= radius+clipEpsilon
}

// ClipPolyline splits a screen polyline into the runs that fall inside the
// viewport circle, cutting each crossing segment exactly at the edge.
// Segments with both ends outside are dropped.
func ClipPolyline(points []r2.Vec, center r2.Vec, radius float64) [][]r2.Vec {
	var runs [][]r2.Vec
	var run []r2.Vec
	flush := func() {
		if len(run) > 1 {
			runs = append(runs, run)
		}
		run = nil
	}

	for i, p := range points {
		in := Inside(p, center, radius)
		if i == 0 {
			if in {
				run = append(run, p)
			}
			continue
		}
		prev := points[i-1]
		prevIn := Inside(prev, center, radius)
		switch {
		case prevIn && in:
			run = append(run, p)
		case prevIn && !in:
			if edge, ok := IntersectRayWithCircle(prev, p, center, radius); ok {
				run = append(run, edge)
			}
			flush()
		case !prevIn && in:
			run = nil
			if edge, ok := IntersectRayWithCircle(p, prev, center, radius); ok {
				run = append(run, edge)
			}
			run = append(run, p)
		}
	}
	flush()
	return runs
}
