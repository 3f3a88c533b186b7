package sparsecore

import "math"

// posInf is the sentinel used to retire a consumed axis-plane crossing so
// it is never selected again within the same node's descent loop.
const posInf = float32(math.MaxFloat32)

// Intersecter is the caller-supplied test applied to each candidate object
// bucket entry along a ray. It returns whether the ray actually hits the
// object's true shape (not merely its AABB) and, if so, the entry
// parameter t along the ray passed to it.
type Intersecter[T any] interface {
	IntersectObject(payload T, bounds AABB, r Ray) (hit bool, t float32)
}

// RaycastVisitor receives leaf-object hits in ray order for RaycastAll. It
// returns false to stop the traversal early.
type RaycastVisitor[T any] interface {
	VisitHit(payload T, bounds AABB, t float32) (keepGoing bool)
}

// Raycast returns the nearest object along r whose AABB the ray enters and
// whose Intersecter confirms a hit. It uses a Daeken-style ray-ordered
// descent: at each node the ray's axis-plane crossings order the children
// so the first confirmed hit encountered is already the global nearest,
// letting the search return on the first success instead of visiting every
// overlapping leaf.
//
// maxDistance bounds the search to hits at ray parameter t <= maxDistance;
// pass 0 or a negative value for no bound.
func (t *Tree[T]) Raycast(r Ray, maxDistance float32, intersecter Intersecter[T]) (payload T, bounds AABB, hitT float32, ok bool) {
	hitAABB, tEntry := IntersectAABB(t.rootBounds, r)
	if !hitAABB || (maxDistance > 0 && tEntry > maxDistance) {
		return payload, bounds, 0, false
	}

	budget := maxDistance
	if maxDistance > 0 {
		budget = maxDistance - tEntry
	}
	rootRay := r.ReOrigin(r.PointAt(tEntry))
	localT, rec, found := t.descend(Root, 0, t.rootCenter, t.rootHalf, rootRay, budget, intersecter)
	if !found {
		return payload, bounds, 0, false
	}
	return rec.Payload, rec.Bounds, tEntry + localT, true
}

// descend implements the recursive ray-ordered traversal of one node's
// subtree. r is the ray re-origined to this node's own entry point; the t
// it returns is relative to r, not to the top-level ray -- callers add
// their own tAtChildEntry before propagating it upward. maxDistance is the
// remaining budget in r's own frame; callers shrink it by tAtChildEntry
// before recursing, per the residual-propagation the quadtree variant uses.
func (t *Tree[T]) descend(id NodeID, depth int, center, half []float32, r Ray, maxDistance float32, intersecter Intersecter[T]) (float32, Record[T], bool) {
	count, exists := t.nodes[id]
	if exists && t.isLeaf(count, depth) {
		return bestInBucket(t.objects[id], r, maxDistance, intersecter)
	}
	if !exists && depth > 0 {
		return 0, Record[T]{}, false
	}

	k := t.topology.K
	childHalf := halveInto(make([]float32, k), half)

	// planeHits[i] is the t at which the ray crosses this node's i-th axis
	// plane (through center), or +Inf if the ray never crosses it ahead of
	// us (parallel to that axis, or already past it). Consumed planes are
	// retired to +Inf so they are not revisited.
	planeHits := make([]float32, k)
	for i := 0; i < k; i++ {
		planeHits[i] = planeHit(r, center, i)
	}

	childIdx := PointToChildIndex(r.Origin, center)
	var best Record[T]
	var bestFound bool
	var bestT float32
	var tAtChildEntry float32

	for step := 0; step <= k; step++ {
		if maxDistance > 0 && tAtChildEntry > maxDistance {
			break
		}

		childID := ChildID(id, uint(k), childIdx)
		if _, childExists := t.nodes[childID]; childExists {
			childCenter := addScaled(make([]float32, k), center, t.topology.ChildSign[childIdx], childHalf)
			childRay := r.ReOrigin(r.PointAt(tAtChildEntry))
			childMaxDistance := maxDistance
			if maxDistance > 0 {
				childMaxDistance = maxDistance - tAtChildEntry
			}

			localT, rec, found := t.descend(childID, depth+1, childCenter, childHalf, childRay, childMaxDistance, intersecter)
			if found {
				best = rec
				bestT = tAtChildEntry + localT
				bestFound = true
				break
			}
		}

		nextAxis, nextT := nearestPlane(planeHits, r, center, half)
		if nextAxis == -1 {
			break
		}
		planeHits[nextAxis] = posInf
		tAtChildEntry = nextT
		childIdx ^= 1 << uint(nextAxis)
	}

	return bestT, best, bestFound
}

func bestInBucket[T any](bucket []Record[T], r Ray, maxDistance float32, intersecter Intersecter[T]) (float32, Record[T], bool) {
	var best Record[T]
	bestT := posInf
	found := false

	for _, rec := range bucket {
		hit, objT := intersecter.IntersectObject(rec.Payload, rec.Bounds, r)
		if !hit || objT >= bestT {
			continue
		}
		if maxDistance > 0 && objT > maxDistance {
			continue
		}
		best = rec
		bestT = objT
		found = true
	}
	return bestT, best, found
}

func planeHit(r Ray, center []float32, axis int) float32 {
	if r.Dir[axis] == 0 {
		return posInf
	}
	tp := (center[axis] - r.Origin[axis]) * r.InvDir[axis]
	if tp <= 0 {
		return posInf
	}
	return tp
}

// nearestPlane returns the smallest remaining planeHits entry whose
// crossing point actually lies within the current node's own AABB
// (center +/- half on every axis, not just the crossing axis). A plane
// crossing outside the node's own bounds means the ray already left the
// node through a different face before reaching that plane; such entries
// are retired in place and skipped, per spec.md §4.5 step 4. Returns
// axis -1 if no candidate remains.
func nearestPlane(planeHits []float32, r Ray, center, half []float32) (axis int, t float32) {
	for {
		axis = -1
		t = posInf
		for i, p := range planeHits {
			if p < t {
				t = p
				axis = i
			}
		}
		if axis == -1 {
			return -1, posInf
		}
		if insideCell(r.PointAt(t), center, half) {
			return axis, t
		}
		planeHits[axis] = posInf
	}
}

// insideCell reports whether p lies within the node's own AABB, inclusive
// of faces.
func insideCell(p, center, half []float32) bool {
	for i := range p {
		if p[i] < center[i]-half[i] || p[i] > center[i]+half[i] {
			return false
		}
	}
	return true
}

// RaycastAll visits every leaf-object hit along r in ray order, stopping
// early if the visitor returns false. Unlike Raycast it does not stop at
// the first confirmed hit, so it always walks the full ray-ordered path.
//
// maxDistance bounds the search to hits at ray parameter t <= maxDistance;
// pass 0 or a negative value for no bound.
func (t *Tree[T]) RaycastAll(r Ray, maxDistance float32, intersecter Intersecter[T], visitor RaycastVisitor[T]) {
	hitAABB, tEntry := IntersectAABB(t.rootBounds, r)
	if !hitAABB || (maxDistance > 0 && tEntry > maxDistance) {
		return
	}
	budget := maxDistance
	if maxDistance > 0 {
		budget = maxDistance - tEntry
	}
	t.descendAll(Root, 0, t.rootCenter, t.rootHalf, r.ReOrigin(r.PointAt(tEntry)), tEntry, budget, intersecter, visitor)
}

func (t *Tree[T]) descendAll(id NodeID, depth int, center, half []float32, r Ray, tBase float32, maxDistance float32, intersecter Intersecter[T], visitor RaycastVisitor[T]) bool {
	count, exists := t.nodes[id]
	if exists && t.isLeaf(count, depth) {
		for _, rec := range t.objects[id] {
			hit, localT := intersecter.IntersectObject(rec.Payload, rec.Bounds, r)
			if !hit {
				continue
			}
			if maxDistance > 0 && localT > maxDistance {
				continue
			}
			globalT := tBase + localT
			if !visitor.VisitHit(rec.Payload, rec.Bounds, globalT) {
				return false
			}
		}
		return true
	}
	if !exists && depth > 0 {
		return true
	}

	k := t.topology.K
	childHalf := halveInto(make([]float32, k), half)

	planeHits := make([]float32, k)
	for i := 0; i < k; i++ {
		planeHits[i] = planeHit(r, center, i)
	}

	childIdx := PointToChildIndex(r.Origin, center)
	var tAtChildEntry float32

	for step := 0; step <= k; step++ {
		if maxDistance > 0 && tAtChildEntry > maxDistance {
			break
		}

		childID := ChildID(id, uint(k), childIdx)
		if _, childExists := t.nodes[childID]; childExists {
			childCenter := addScaled(make([]float32, k), center, t.topology.ChildSign[childIdx], childHalf)
			childRay := r.ReOrigin(r.PointAt(tAtChildEntry))
			childMaxDistance := maxDistance
			if maxDistance > 0 {
				childMaxDistance = maxDistance - tAtChildEntry
			}

			keepGoing := t.descendAll(childID, depth+1, childCenter, childHalf, childRay, tBase+tAtChildEntry, childMaxDistance, intersecter, visitor)
			if !keepGoing {
				return false
			}
		}

		nextAxis, nextT := nearestPlane(planeHits, r, center, half)
		if nextAxis == -1 {
			break
		}
		planeHits[nextAxis] = posInf
		tAtChildEntry = nextT
		childIdx ^= 1 << uint(nextAxis)
	}

	return true
}
