// Package sparsecore implements the dimension-agnostic engine shared by the
// octree and quadtree packages: AABB and ray math, node identifier algebra,
// mask-based child selection, sparse node/object storage, and the three
// traversal algorithms (raycast, range, nearest-neighbor). Coordinates are
// represented as float32 slices of length K (3 for octree, 2 for quadtree);
// the octree and quadtree packages are thin, fixed-array-typed wrappers
// around this package.
package sparsecore

// AABB is an axis-aligned bounding box over K axes. Min[i] <= Max[i] for
// every axis is assumed by all operations below; callers are responsible
// for constructing valid boxes, except at tree construction time where the
// root bounds are validated.
type AABB struct {
	Min []float32
	Max []float32
}

// Overlaps reports whether a and b overlap on every axis, inclusive of
// the faces: boxes that only touch count as overlapping.
func Overlaps(a, b AABB) bool {
	for i := range a.Min {
		if a.Max[i] < b.Min[i] || b.Max[i] < a.Min[i] {
			return false
		}
	}
	return true
}

// ContainsPoint reports whether p lies within a, inclusive of the faces.
func ContainsPoint(a AABB, p []float32) bool {
	for i := range p {
		if p[i] < a.Min[i] || p[i] > a.Max[i] {
			return false
		}
	}
	return true
}

// DistanceSquared returns the squared distance from p to the closest point
// on or within a. Zero if p is inside a.
func DistanceSquared(a AABB, p []float32) float32 {
	var sum float32
	for i := range p {
		v := p[i]
		if v < a.Min[i] {
			d := a.Min[i] - v
			sum += d * d
		} else if v > a.Max[i] {
			d := v - a.Max[i]
			sum += d * d
		}
	}
	return sum
}

// Center writes the center of a into dst and returns it.
func Center(dst []float32, a AABB) []float32 {
	for i := range dst {
		dst[i] = (a.Min[i] + a.Max[i]) / 2
	}
	return dst
}

// HalfSize writes half of a's extent per axis into dst and returns it.
func HalfSize(dst []float32, a AABB) []float32 {
	for i := range dst {
		dst[i] = (a.Max[i] - a.Min[i]) / 2
	}
	return dst
}

// addScaled writes dst[i] = center[i] + sign[i]*half[i] and returns dst.
// sign holds -1/+1 per axis, as produced by a Topology's child offsets.
func addScaled(dst, center, sign, half []float32) []float32 {
	for i := range dst {
		dst[i] = center[i] + sign[i]*half[i]
	}
	return dst
}

// halveInto writes dst[i] = half[i]/2 and returns dst.
func halveInto(dst, half []float32) []float32 {
	for i := range dst {
		dst[i] = half[i] / 2
	}
	return dst
}

// CellBounds returns the AABB of a cell given its center and half-extent.
func CellBounds(center, half []float32) AABB {
	min := make([]float32, len(center))
	max := make([]float32, len(center))
	for i := range center {
		min[i] = center[i] - half[i]
		max[i] = center[i] + half[i]
	}
	return AABB{Min: min, Max: max}
}

func cloneVec(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
