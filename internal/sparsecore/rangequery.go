package sparsecore

// RangeVisitor receives every object stored in a leaf whose cell overlaps a
// range query's AABB, once per such leaf; the object's own bounds are not
// checked against the query. VisitObject returns false to stop the
// traversal early.
type RangeVisitor[T any] interface {
	VisitObject(payload T, bounds AABB) (keepGoing bool)
}

// Range visits every object stored in a leaf whose cell overlaps query's
// AABB. The overlap test applied here is at node-cell granularity, not
// object-AABB vs. query-AABB: every object in a matching leaf's bucket is
// delivered, whether or not its own bounds actually overlap query. A
// visitor that cares about exact overlap applies its own AABB check; one
// that wants raw cell-level candidates (e.g. for looser matching) gets
// them unfiltered.
func (t *Tree[T]) Range(query AABB, visitor RangeVisitor[T]) {
	if !Overlaps(t.rootBounds, query) {
		return
	}
	t.rangeNode(Root, 0, t.rootCenter, t.rootHalf, query, visitor)
}

func (t *Tree[T]) rangeNode(id NodeID, depth int, center, half []float32, query AABB, visitor RangeVisitor[T]) bool {
	count, exists := t.nodes[id]
	if exists && t.isLeaf(count, depth) {
		for _, rec := range t.objects[id] {
			if !visitor.VisitObject(rec.Payload, rec.Bounds) {
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
	queryMask := CellMask(query, center)

	for c := 0; c < t.topology.Children; c++ {
		if !t.topology.MatchesChild(queryMask, c) {
			continue
		}
		childID := ChildID(id, uint(k), c)
		if _, childExists := t.nodes[childID]; !childExists {
			continue
		}
		childCenter := addScaled(make([]float32, k), center, t.topology.ChildSign[c], childHalf)
		if !t.rangeNode(childID, depth+1, childCenter, childHalf, query, visitor) {
			return false
		}
	}
	return true
}
