package octree

import "github.com/nereus-spatial/sparsetree/internal/sparsecore"

// Intersecter is the caller-supplied ray/object test. IntersectObject
// returns whether r actually hits the object's true shape (not merely its
// AABB) and, if so, the hit's entry parameter along r.
type Intersecter[T any] interface {
	IntersectObject(payload T, bounds AABB, r Ray) (hit bool, t float32)
}

// RangeVisitor receives every object stored in a leaf whose cell overlaps a
// Range query, once per such leaf; the object's own bounds are not checked
// against the query. VisitObject returns false to stop the traversal early.
type RangeVisitor[T any] interface {
	VisitObject(payload T, bounds AABB) (keepGoing bool)
}

// RaycastVisitor receives leaf-object hits along a ray, in entry order, for
// RaycastAll. VisitHit returns false to stop the traversal early.
type RaycastVisitor[T any] interface {
	VisitHit(payload T, bounds AABB, t float32) (keepGoing bool)
}

// NearestVisitor receives objects in ascending order of the squared
// distance the DistanceProvider reports for them from a Nearest query
// point. VisitNearest returns false to stop the traversal early.
type NearestVisitor[T any] interface {
	VisitNearest(payload T, bounds AABB, distSq float32) (keepGoing bool)
}

// DistanceProvider computes the squared distance from a query point to a
// stored object's true shape, given its payload and bounds.
type DistanceProvider[T any] interface {
	DistanceSquared(point Point, payload T, bounds AABB) float32
}

type intersecterAdapter[T any] struct{ Intersecter[T] }

func (a intersecterAdapter[T]) IntersectObject(payload T, bounds sparsecore.AABB, r sparsecore.Ray) (bool, float32) {
	return a.Intersecter.IntersectObject(payload, fromCoreAABB(bounds), Ray{Origin: toPoint(r.Origin), Dir: toPoint(r.Dir)})
}

type rangeVisitorAdapter[T any] struct{ RangeVisitor[T] }

func (a rangeVisitorAdapter[T]) VisitObject(payload T, bounds sparsecore.AABB) bool {
	return a.RangeVisitor.VisitObject(payload, fromCoreAABB(bounds))
}

type raycastVisitorAdapter[T any] struct{ RaycastVisitor[T] }

func (a raycastVisitorAdapter[T]) VisitHit(payload T, bounds sparsecore.AABB, t float32) bool {
	return a.RaycastVisitor.VisitHit(payload, fromCoreAABB(bounds), t)
}

type nearestVisitorAdapter[T any] struct{ NearestVisitor[T] }

func (a nearestVisitorAdapter[T]) VisitNearest(payload T, bounds sparsecore.AABB, distSq float32) bool {
	return a.NearestVisitor.VisitNearest(payload, fromCoreAABB(bounds), distSq)
}

type distanceProviderAdapter[T any] struct{ DistanceProvider[T] }

func (a distanceProviderAdapter[T]) DistanceSquared(point []float32, payload T, bounds sparsecore.AABB) float32 {
	return a.DistanceProvider.DistanceSquared(toPoint(point), payload, fromCoreAABB(bounds))
}

func toPoint(v []float32) Point {
	var p Point
	copy(p[:], v)
	return p
}

// Raycast returns the nearest object along r whose AABB the ray enters and
// whose Intersecter confirms a hit. maxDistance bounds the search to hits
// at ray parameter t <= maxDistance; pass 0 or a negative value for no
// bound.
func (t *Tree[T]) Raycast(r Ray, maxDistance float32, intersecter Intersecter[T]) (payload T, bounds AABB, hitT float32, ok bool) {
	p, coreBounds, hitT, ok := t.core.Raycast(toCoreRay(r), maxDistance, intersecterAdapter[T]{intersecter})
	instrumentRaycast(t.id)
	return p, fromCoreAABB(coreBounds), hitT, ok
}

// RaycastAll visits every leaf-object hit along r in ray order, stopping
// early if the visitor returns false. maxDistance bounds the search to
// hits at ray parameter t <= maxDistance; pass 0 or a negative value for
// no bound.
func (t *Tree[T]) RaycastAll(r Ray, maxDistance float32, intersecter Intersecter[T], visitor RaycastVisitor[T]) {
	t.core.RaycastAll(toCoreRay(r), maxDistance, intersecterAdapter[T]{intersecter}, raycastVisitorAdapter[T]{visitor})
	instrumentRaycast(t.id)
}

// Range visits every object stored in a leaf whose cell overlaps query. An
// object spanning several such leaves is visited once per leaf, and objects
// are not filtered by their own bounds.
func (t *Tree[T]) Range(query AABB, visitor RangeVisitor[T]) {
	t.core.Range(toCoreAABB(query), rangeVisitorAdapter[T]{visitor})
	instrumentRangeVisit(t.id)
}

// QueryCache is reusable scratch storage for Nearest, amortizing the
// allocations a one-shot call would otherwise repeat.
type QueryCache[T any] struct{ core *sparsecore.QueryCache[T] }

// NewQueryCache allocates a reusable nearest-neighbor scratch cache.
func NewQueryCache[T any]() *QueryCache[T] {
	return &QueryCache[T]{core: sparsecore.NewQueryCache[T]()}
}

// Nearest runs a one-shot best-first nearest-neighbor search using the
// tree's own internal scratch cache. Concurrent calls on the same Tree are
// not safe, since they share that cache.
func (t *Tree[T]) Nearest(point Point, maxDistSq float32, distanceProvider DistanceProvider[T], visitor NearestVisitor[T]) {
	t.core.NearestCached(t.cache, point[:], maxDistSq, distanceProviderAdapter[T]{distanceProvider}, nearestVisitorAdapter[T]{visitor})
	instrumentNearestVisit(t.id)
}

// NearestCached runs a best-first nearest-neighbor search using cache for
// scratch storage instead of the tree's own, letting one cache be reused
// across calls to multiple trees or concurrent goroutines each holding
// their own cache.
func (t *Tree[T]) NearestCached(cache *QueryCache[T], point Point, maxDistSq float32, distanceProvider DistanceProvider[T], visitor NearestVisitor[T]) {
	t.core.NearestCached(cache.core, point[:], maxDistSq, distanceProviderAdapter[T]{distanceProvider}, nearestVisitorAdapter[T]{visitor})
	instrumentNearestVisit(t.id)
}
