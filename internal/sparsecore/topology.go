package sparsecore

// NodeID is a bit-packed path from the root. The root is the literal value
// 1 (never 0); a child's id is (parent << K) | childIndex. Node identifiers
// are an implementation detail and are never exposed outside this module.
type NodeID = uint64

// Root is the identifier of the tree's root node.
const Root NodeID = 1

// ChildID appends childIndex to parent's path.
func ChildID(parent NodeID, k uint, childIndex int) NodeID {
	return parent<<k | NodeID(childIndex)
}

// Depth returns the depth encoded in id for a tree of dimension k. The root
// is depth 0.
func Depth(id NodeID, k uint) int {
	depth := 0
	for id > Root {
		id >>= k
		depth++
	}
	return depth
}

// Topology holds the read-only tables for one dimensionality K: the number
// of children C = 2^K, the per-child axis sign offsets, and the per-child
// bit masks used by the overlap test (CellMask, MatchesChild). It is computed once per K
// and shared by every tree of that dimension.
type Topology struct {
	K         int
	Children  int
	ChildSign [][]float32 // [Children][K], each entry -1 or +1
	ChildMask []uint32    // [Children]
}

// NewTopology builds the child offset and mask tables for dimension k.
func NewTopology(k int) Topology {
	children := 1 << uint(k)
	signs := make([][]float32, children)
	masks := make([]uint32, children)

	for c := 0; c < children; c++ {
		sign := make([]float32, k)
		var mask uint32
		for axis := 0; axis < k; axis++ {
			if (c>>axis)&1 == 0 {
				sign[axis] = -1
				mask |= 1 << uint(axis)
			} else {
				sign[axis] = 1
				mask |= 1 << uint(k+axis)
			}
		}
		signs[c] = sign
		masks[c] = mask
	}

	return Topology{K: k, Children: children, ChildSign: signs, ChildMask: masks}
}

// PointToChildIndex sets bit i of the result iff p[i] >= center[i]. Bit 0 is
// the x-axis. A point exactly on the center is placed on the positive side
// of every axis.
func PointToChildIndex(p, center []float32) int {
	idx := 0
	for i := range p {
		if p[i] >= center[i] {
			idx |= 1 << uint(i)
		}
	}
	return idx
}

// CellMask summarizes which halves of a node (split at center) an AABB
// touches: the lower K bits record the min side, the upper K bits the max
// side. A boundary exactly on the center is treated as present on both
// sides, which is correct -- an object on the boundary spans both children --
// but means duplicate visitation is possible; callers that require
// uniqueness must deduplicate.
func CellMask(bounds AABB, center []float32) uint32 {
	k := len(center)
	var mask uint32
	for i := 0; i < k; i++ {
		if bounds.Min[i] <= center[i] {
			mask |= 1 << uint(i)
		}
		if bounds.Max[i] >= center[i] {
			mask |= 1 << uint(k+i)
		}
	}
	return mask
}

// MatchesChild reports whether mask (as produced by CellMask) intersects
// child c's cell, i.e. (mask & childMask[c]) == childMask[c].
func (t Topology) MatchesChild(mask uint32, c int) bool {
	cm := t.ChildMask[c]
	return mask&cm == cm
}
