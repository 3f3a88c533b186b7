package sparsecore

import "container/heap"

// NearestVisitor receives objects in ascending order of the squared
// distance the DistanceProvider reports for them, which is also the distSq
// passed in. Distances are not necessarily exact object-level distances
// unless the DistanceProvider computes an exact metric; VisitNearest
// returns false to stop the traversal early.
type NearestVisitor[T any] interface {
	VisitNearest(payload T, bounds AABB, distSq float32) (keepGoing bool)
}

// DistanceProvider computes the squared distance from point to a stored
// object, given its payload and bounds. Callers typically delegate to
// DistanceSquared(bounds, point) but may use a tighter, shape-aware metric.
type DistanceProvider[T any] interface {
	DistanceSquared(point []float32, payload T, bounds AABB) float32
}

type nodeWrapper struct {
	id     NodeID
	depth  int
	center []float32
	half   []float32
}

type heapEntry struct {
	distSq float32
	isNode bool
	idx    int
}

// nnHeap is a min-heap over heapEntry.distSq, implementing container/heap.
// This mirrors the closest analogue in the retrieval pack (a binary heap
// over a candidate's distance), adapted from a bounded max-heap to a plain
// ascending min-heap since nearest-neighbor here has no fixed k cutoff.
type nnHeap []heapEntry

func (h nnHeap) Len() int            { return len(h) }
func (h nnHeap) Less(i, j int) bool  { return h[i].distSq < h[j].distSq }
func (h nnHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nnHeap) Push(x interface{}) { *h = append(*h, x.(heapEntry)) }
func (h *nnHeap) Pop() interface{} {
	old := *h
	n := len(old)
	entry := old[n-1]
	*h = old[:n-1]
	return entry
}

// QueryCache holds the scratch storage for nearest-neighbor traversal: a
// vector of in-flight node wrappers, a vector of promoted object copies,
// and a min-heap over both, referenced by index. Reusing one cache across
// many queries amortizes the allocations a one-shot call would otherwise
// repeat; Nearest constructs and discards one per call.
type QueryCache[T any] struct {
	nodeScratch []nodeWrapper
	objScratch  []Record[T]
	heap        nnHeap
}

// NewQueryCache allocates an empty, reusable nearest-neighbor scratch
// cache.
func NewQueryCache[T any]() *QueryCache[T] {
	return &QueryCache[T]{}
}

func (c *QueryCache[T]) reset() {
	c.nodeScratch = c.nodeScratch[:0]
	c.objScratch = c.objScratch[:0]
	c.heap = c.heap[:0]
}

func (c *QueryCache[T]) pushNode(w nodeWrapper, distSq float32) {
	c.nodeScratch = append(c.nodeScratch, w)
	heap.Push(&c.heap, heapEntry{distSq: distSq, isNode: true, idx: len(c.nodeScratch) - 1})
}

func (c *QueryCache[T]) pushObject(rec Record[T], distSq float32) {
	c.objScratch = append(c.objScratch, rec)
	heap.Push(&c.heap, heapEntry{distSq: distSq, isNode: false, idx: len(c.objScratch) - 1})
}

// Nearest runs a one-shot best-first nearest-neighbor search, allocating
// and discarding its own QueryCache. Callers issuing many queries should
// prefer NearestCached with a cache obtained from NewQueryCache.
func (t *Tree[T]) Nearest(point []float32, maxDistSq float32, distanceProvider DistanceProvider[T], visitor NearestVisitor[T]) {
	t.NearestCached(NewQueryCache[T](), point, maxDistSq, distanceProvider, visitor)
}

// NearestCached runs a best-first nearest-neighbor search using cache for
// scratch storage, reusing its backing arrays across calls. Children's
// cell distances are lower bounds on the distance of anything they
// contain, so objects are popped from the heap in true ascending distance
// order: every object the visitor sees is a global minimum among
// everything not yet popped.
func (t *Tree[T]) NearestCached(cache *QueryCache[T], point []float32, maxDistSq float32, distanceProvider DistanceProvider[T], visitor NearestVisitor[T]) {
	cache.reset()

	k := t.topology.K
	depth1Half := halveInto(make([]float32, k), t.rootHalf)

	for c := 0; c < t.topology.Children; c++ {
		childID := ChildID(Root, uint(k), c)
		if _, exists := t.nodes[childID]; !exists {
			continue
		}
		childCenter := addScaled(make([]float32, k), t.rootCenter, t.topology.ChildSign[c], depth1Half)
		distSq := DistanceSquared(CellBounds(childCenter, depth1Half), point)
		if distSq > maxDistSq {
			continue
		}
		cache.pushNode(nodeWrapper{id: childID, depth: 1, center: childCenter, half: depth1Half}, distSq)
	}

	for cache.heap.Len() > 0 {
		entry := heap.Pop(&cache.heap).(heapEntry)

		if !entry.isNode {
			rec := cache.objScratch[entry.idx]
			if !visitor.VisitNearest(rec.Payload, rec.Bounds, entry.distSq) {
				return
			}
			continue
		}

		nw := cache.nodeScratch[entry.idx]
		count := t.nodes[nw.id]

		if t.isLeaf(count, nw.depth) {
			for _, rec := range t.objects[nw.id] {
				distSq := distanceProvider.DistanceSquared(point, rec.Payload, rec.Bounds)
				if distSq > maxDistSq {
					continue
				}
				cache.pushObject(rec, distSq)
			}
			continue
		}

		childHalf := halveInto(make([]float32, k), nw.half)
		for c := 0; c < t.topology.Children; c++ {
			childID := ChildID(nw.id, uint(k), c)
			if _, exists := t.nodes[childID]; !exists {
				continue
			}
			childCenter := addScaled(make([]float32, k), nw.center, t.topology.ChildSign[c], childHalf)
			distSq := DistanceSquared(CellBounds(childCenter, childHalf), point)
			if distSq > maxDistSq {
				continue
			}
			cache.pushNode(nodeWrapper{id: childID, depth: nw.depth + 1, center: childCenter, half: childHalf}, distSq)
		}
	}
}
