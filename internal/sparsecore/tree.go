package sparsecore

// Tree is the dimension-generic sparse node/object store. octree.Tree and
// quadtree.Tree wrap one of these, supplying the Topology for K=3 and K=2
// respectively and converting between fixed-size array types and the
// []float32 slices used here.
//
// nodes maps a node id to its object count; a node exists in this map iff
// at least one object has landed in it. objects multi-maps a node id to its
// stored records; only leaves (and nodes mid-subdivision, not observable
// between public calls) hold bucket entries.
type Tree[T any] struct {
	topology Topology

	rootBounds AABB
	rootCenter []float32
	rootHalf   []float32

	objectsPerNode int
	maxDepth       int

	nodes   map[NodeID]int32
	objects map[NodeID][]Record[T]

	subdivisions int64
}

// New creates a tree of dimension k over rootBounds. capacityHint sizes the
// initial node/object map allocations.
func New[T any](topology Topology, rootBounds AABB, objectsPerNode, maxDepth, capacityHint int) (*Tree[T], error) {
	if err := ValidateConstruction(topology.K, rootBounds, objectsPerNode, maxDepth); err != nil {
		return nil, err
	}

	center := Center(make([]float32, topology.K), rootBounds)
	half := HalfSize(make([]float32, topology.K), rootBounds)

	return &Tree[T]{
		topology:       topology,
		rootBounds:     rootBounds,
		rootCenter:     center,
		rootHalf:       half,
		objectsPerNode: objectsPerNode,
		maxDepth:       maxDepth,
		nodes:          make(map[NodeID]int32, capacityHint),
		objects:        make(map[NodeID][]Record[T], capacityHint),
	}, nil
}

// Bounds returns the tree's root AABB.
func (t *Tree[T]) Bounds() AABB { return t.rootBounds }

// ObjectsPerNode returns the configured leaf threshold.
func (t *Tree[T]) ObjectsPerNode() int { return t.objectsPerNode }

// MaxDepth returns the configured maximum depth.
func (t *Tree[T]) MaxDepth() int { return t.maxDepth }

// Subdivisions returns the running total of subdivide operations performed
// since construction (Clear does not reset it). Wrapper packages use the
// delta across one Insert/InsertPoint call to instrument subdivision
// without instrumenting the recursive internals directly.
func (t *Tree[T]) Subdivisions() int64 { return t.subdivisions }

// Count returns the total number of stored object records across all
// leaves. An object spanning multiple leaves is counted once per leaf it
// reaches.
func (t *Tree[T]) Count() int {
	n := 0
	for _, bucket := range t.objects {
		n += len(bucket)
	}
	return n
}

// Clear empties both maps but does not release their capacity.
func (t *Tree[T]) Clear() {
	for k := range t.nodes {
		delete(t.nodes, k)
	}
	for k := range t.objects {
		delete(t.objects, k)
	}
}

// CopyFrom replaces the receiver's contents with a duplicate of src. src
// must have identical shape parameters; on mismatch the receiver is left
// untouched.
func (t *Tree[T]) CopyFrom(src *Tree[T]) error {
	if err := ValidateCopy(t.topology.K, src.topology.K, t.rootBounds, src.rootBounds, t.objectsPerNode, src.objectsPerNode, t.maxDepth, src.maxDepth); err != nil {
		return err
	}

	t.Clear()
	for id, count := range src.nodes {
		t.nodes[id] = count
	}
	for id, bucket := range src.objects {
		dup := make([]Record[T], len(bucket))
		copy(dup, bucket)
		t.objects[id] = dup
	}
	return nil
}

// Insert replicates (payload, bounds) into every leaf whose cell overlaps
// bounds, subdividing as needed.
func (t *Tree[T]) Insert(payload T, bounds AABB) {
	rec := Record[T]{Payload: payload, Bounds: bounds}
	t.insertAt(Root, 0, t.rootCenter, t.rootHalf, rec)
}

func (t *Tree[T]) insertAt(id NodeID, depth int, center, half []float32, rec Record[T]) {
	mask := CellMask(rec.Bounds, center)
	childHalf := halveInto(make([]float32, t.topology.K), half)

	for c := 0; c < t.topology.Children; c++ {
		if !t.topology.MatchesChild(mask, c) {
			continue
		}
		childID := ChildID(id, uint(t.topology.K), c)
		childDepth := depth + 1
		childCenter := addScaled(make([]float32, t.topology.K), center, t.topology.ChildSign[c], childHalf)

		if t.tryInsert(childID, childDepth, childCenter, childHalf, rec) {
			continue
		}
		t.insertAt(childID, childDepth, childCenter, childHalf, rec)
	}
}

// InsertPoint is the point fast-path: it descends directly towards the leaf
// containing p instead of testing all children at each level.
func (t *Tree[T]) InsertPoint(payload T, p []float32) {
	bounds := AABB{Min: cloneVec(p), Max: cloneVec(p)}
	rec := Record[T]{Payload: payload, Bounds: bounds}

	id := Root
	depth := 0
	center := t.rootCenter
	half := t.rootHalf

	for {
		childIdx := PointToChildIndex(p, center)
		childID := ChildID(id, uint(t.topology.K), childIdx)
		childDepth := depth + 1
		childHalf := halveInto(make([]float32, t.topology.K), half)
		childCenter := addScaled(make([]float32, t.topology.K), center, t.topology.ChildSign[childIdx], childHalf)

		if t.tryInsert(childID, childDepth, childCenter, childHalf, rec) {
			return
		}

		id, depth, center, half = childID, childDepth, childCenter, childHalf
	}
}

// tryInsert appends rec to node id's bucket if id is (or becomes) a leaf,
// subdividing when the threshold is exceeded. It returns false when id is
// already an internal node, in which case the caller must recurse into id's
// children itself.
func (t *Tree[T]) tryInsert(id NodeID, depth int, center, half []float32, rec Record[T]) bool {
	count := t.nodes[id]
	if t.isLeaf(count, depth) {
		t.objects[id] = append(t.objects[id], rec)
		count++
		t.nodes[id] = count

		if !t.isLeaf(count, depth) {
			t.subdivide(id, depth, center, half)
		}
		return true
	}
	return false
}

// subdivide redistributes node id's current bucket into its children and
// recurses into any child that is itself over threshold. id's own
// occupancy count is left above objectsPerNode as a marker that it is no
// longer a leaf.
func (t *Tree[T]) subdivide(id NodeID, depth int, center, half []float32) {
	t.subdivisions++

	snapshot := t.objects[id]
	delete(t.objects, id)

	childHalf := halveInto(make([]float32, t.topology.K), half)

	for _, rec := range snapshot {
		mask := CellMask(rec.Bounds, center)
		for c := 0; c < t.topology.Children; c++ {
			if !t.topology.MatchesChild(mask, c) {
				continue
			}
			childID := ChildID(id, uint(t.topology.K), c)
			t.objects[childID] = append(t.objects[childID], rec)
		}
	}

	for c := 0; c < t.topology.Children; c++ {
		childID := ChildID(id, uint(t.topology.K), c)
		bucket := t.objects[childID]
		if len(bucket) == 0 {
			continue
		}
		t.nodes[childID] = int32(len(bucket))

		childDepth := depth + 1
		if !t.isLeaf(int32(len(bucket)), childDepth) {
			childCenter := addScaled(make([]float32, t.topology.K), center, t.topology.ChildSign[c], childHalf)
			t.subdivide(childID, childDepth, childCenter, childHalf)
		}
	}
}

func (t *Tree[T]) isLeaf(count int32, depth int) bool {
	return int(count) <= t.objectsPerNode || depth == t.maxDepth
}

// DebugInfo is a point-in-time snapshot of tree shape, for diagnostics
// tooling built on top of this module. It is not persistence: there is no
// corresponding Load.
type DebugInfo struct {
	NodeCount      int   `json:"node_count"`
	LeafCount      int   `json:"leaf_count"`
	ObjectCount    int   `json:"object_count"`
	MaxDepthUsed   int   `json:"max_depth_used"`
	DepthHistogram []int `json:"depth_histogram"`
}

// DebugInfo walks the occupancy map and summarizes it. It is O(occupied
// nodes) and intended for operator tooling, never the hot query path.
func (t *Tree[T]) DebugInfo() DebugInfo {
	info := DebugInfo{
		NodeCount:      len(t.nodes),
		DepthHistogram: make([]int, t.maxDepth+1),
	}

	for id, count := range t.nodes {
		depth := Depth(id, uint(t.topology.K))
		if depth > info.MaxDepthUsed {
			info.MaxDepthUsed = depth
		}
		info.DepthHistogram[depth]++
		if t.isLeaf(count, depth) {
			info.LeafCount++
		}
	}
	for _, bucket := range t.objects {
		info.ObjectCount += len(bucket)
	}
	info.DepthHistogram = info.DepthHistogram[:info.MaxDepthUsed+1]

	return info
}
