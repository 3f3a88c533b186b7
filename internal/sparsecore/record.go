package sparsecore

// Record is a stored (payload, bounds) pair. Records are owned by the tree;
// Payload is copied by value at insert.
type Record[T any] struct {
	Payload T
	Bounds  AABB
}
