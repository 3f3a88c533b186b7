// Package quadtree is a sparse 2-D spatial index: insert axis-aligned
// bounding boxes or points tagged with an opaque payload, then query by
// ray, range, or nearest-neighbor. It is a thin, fixed-array-typed wrapper
// over internal/sparsecore, which carries the dimension-agnostic engine
// shared with package octree.
package quadtree

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"

	"github.com/nereus-spatial/sparsetree/internal/sparsecore"
)

const dimensions = 2

var topology = sparsecore.NewTopology(dimensions)

// Point is a coordinate in the plane.
type Point = [dimensions]float32

// AABB is an axis-aligned bounding box over the plane.
type AABB struct {
	Min Point
	Max Point
}

// Ray is a ray given by its origin and direction. The reciprocal direction
// is precomputed when the ray is passed to a query.
type Ray struct {
	Origin Point
	Dir    Point
}

// Tree is a sparse quadtree over payload type T.
type Tree[T any] struct {
	id    string
	core  *sparsecore.Tree[T]
	cache *sparsecore.QueryCache[T]
}

// New creates a quadtree over rootBounds. objectsPerNode is the leaf
// occupancy threshold before subdivision; maxDepth bounds how deep
// subdivision can go (must be in (1, 31]).
func New[T any](rootBounds AABB, objectsPerNode, maxDepth int) (*Tree[T], error) {
	core, err := sparsecore.New[T](topology, toCoreAABB(rootBounds), objectsPerNode, maxDepth, 64)
	if err != nil {
		logs.Warn(errors.Newf("creating quadtree failed").Wrap(err))
		return nil, err
	}

	id := uuid.New().String()
	logs.WithTag("tree_id", id).WithTag("kind", "quadtree").Debug("created tree")

	instrumentTreeCreated()

	return &Tree[T]{
		id:    id,
		core:  core,
		cache: sparsecore.NewQueryCache[T](),
	}, nil
}

// ID is the tree's diagnostic identity, assigned at construction. It has
// no bearing on query semantics.
func (t *Tree[T]) ID() string { return t.id }

// Bounds returns the tree's root AABB.
func (t *Tree[T]) Bounds() AABB { return fromCoreAABB(t.core.Bounds()) }

// Count returns the number of stored object records across all leaves.
func (t *Tree[T]) Count() int { return t.core.Count() }

// Clear empties the tree. Shape parameters (bounds, objectsPerNode,
// maxDepth) are preserved.
func (t *Tree[T]) Clear() { t.core.Clear() }

// CopyFrom replaces the receiver's contents with a duplicate of src. src
// must share identical bounds, objectsPerNode, and maxDepth; on mismatch
// the receiver is left untouched.
func (t *Tree[T]) CopyFrom(src *Tree[T]) error {
	if err := t.core.CopyFrom(src.core); err != nil {
		logs.WithTag("tree_id", t.id).Warn(errors.Newf("copying quadtree failed").Wrap(err))
		return err
	}
	logs.WithTag("tree_id", t.id).Debug("copied tree")
	return nil
}

// Insert replicates (payload, bounds) into every leaf whose cell overlaps
// bounds, subdividing as needed.
func (t *Tree[T]) Insert(payload T, bounds AABB) {
	before := t.core.Subdivisions()
	t.core.Insert(payload, toCoreAABB(bounds))
	instrumentInsert(t.id)
	instrumentSubdivide(t.id, t.core.Subdivisions()-before)
}

// InsertPoint is a fast path for a zero-area object at p.
func (t *Tree[T]) InsertPoint(payload T, p Point) {
	before := t.core.Subdivisions()
	t.core.InsertPoint(payload, p[:])
	instrumentInsert(t.id)
	instrumentSubdivide(t.id, t.core.Subdivisions()-before)
}

// DebugInfo returns a point-in-time snapshot of the tree's shape, for
// diagnostics tooling. It is not persistence.
func (t *Tree[T]) DebugInfo() sparsecore.DebugInfo { return t.core.DebugInfo() }

// DebugInfoJSON marshals DebugInfo for callers building their own
// inspection tooling.
func (t *Tree[T]) DebugInfoJSON() ([]byte, error) {
	return json.Marshal(t.core.DebugInfo())
}

func toCoreAABB(a AABB) sparsecore.AABB {
	return sparsecore.AABB{Min: a.Min[:], Max: a.Max[:]}
}

func fromCoreAABB(a sparsecore.AABB) AABB {
	var out AABB
	copy(out.Min[:], a.Min)
	copy(out.Max[:], a.Max)
	return out
}

func toCoreRay(r Ray) sparsecore.Ray {
	return sparsecore.NewRay(r.Origin[:], r.Dir[:])
}
