package sparsecore

import "math"

// Ray bundles an origin, direction, and component-wise reciprocal direction.
// invDir[i] may be +/-Inf when dir[i] == 0; the slab method below relies on
// IEEE-754 semantics to handle that case without a branch.
type Ray struct {
	Origin []float32
	Dir    []float32
	InvDir []float32
}

// NewRay precomputes the reciprocal direction for a ray cast from origin
// towards dir.
func NewRay(origin, dir []float32) Ray {
	invDir := make([]float32, len(dir))
	for i, d := range dir {
		invDir[i] = 1 / d
	}
	return Ray{Origin: cloneVec(origin), Dir: cloneVec(dir), InvDir: invDir}
}

// ReOrigin returns a ray with the same direction and reciprocal direction
// but a new origin, avoiding recomputation of invDir during traversal.
func (r Ray) ReOrigin(newOrigin []float32) Ray {
	return Ray{Origin: newOrigin, Dir: r.Dir, InvDir: r.InvDir}
}

// PointAt returns Origin + t*Dir.
func (r Ray) PointAt(t float32) []float32 {
	p := make([]float32, len(r.Origin))
	for i := range p {
		p[i] = r.Origin[i] + t*r.Dir[i]
	}
	return p
}

// IntersectAABB performs a slab-method ray/AABB test. It returns whether the
// ray hits a and, if so, the entry parameter t (clamped to be non-negative).
// A ray component exactly on a face may report a false positive; this is
// accepted for performance, the caller's own intersecter is the final
// authority.
func IntersectAABB(a AABB, r Ray) (bool, float32) {
	tMin := float32(0)
	tMax := float32(math.Inf(1))

	for i := range r.Origin {
		t1 := (a.Min[i] - r.Origin[i]) * r.InvDir[i]
		t2 := (a.Max[i] - r.Origin[i]) * r.InvDir[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tMin {
			tMin = t1
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMax < tMin {
			return false, 0
		}
	}
	return true, tMin
}
