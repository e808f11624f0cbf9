package world

import "math"

// Body is a circle used for hit tests.
type Body struct {
	Pos    Vec
	Radius float64
}

// WithinRadius returns the indices of bodies whose centre lies within
// radius of center (inclusive), in input order.
func WithinRadius(center Vec, radius float64, bodies []Body) []int {
	var out []int
	for i, b := range bodies {
		if center.Dist(b.Pos) <= radius {
			out = append(out, i)
		}
	}
	return out
}

// Hit describes the first body struck by a ray.
type Hit struct {
	Index int
	Dist  float64
	Point Vec
}

// Raycast casts a ray from origin along dir for at most maxRange and
// returns the nearest body it enters. Bodies containing the origin are
// skipped; callers exclude the caster that way or by filtering first.
// Ties on distance go to the earlier body.
func Raycast(origin, dir Vec, maxRange float64, bodies []Body) (Hit, bool) {
	d := dir.Normalize()
	if d.IsZero() || maxRange <= 0 {
		return Hit{}, false
	}

	best := Hit{Index: -1, Dist: math.Inf(1)}
	for i, b := range bodies {
		t, ok := rayCircle(origin, d, b)
		if !ok || t > maxRange {
			continue
		}
		if t < best.Dist {
			best = Hit{Index: i, Dist: t, Point: origin.Add(d.Scale(t))}
		}
	}
	return best, best.Index >= 0
}

// rayCircle returns the entry distance of a unit ray into circle b.
func rayCircle(origin, d Vec, b Body) (float64, bool) {
	oc := origin.Sub(b.Pos)
	c := oc.Dot(oc) - b.Radius*b.Radius
	if c <= 0 {
		// Origin inside the body.
		return 0, false
	}
	half := oc.Dot(d)
	disc := half*half - c
	if disc < 0 {
		return 0, false
	}
	t := -half - math.Sqrt(disc)
	if t < 0 {
		return 0, false
	}
	return t, true
}
