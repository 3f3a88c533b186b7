package sparsecore

import "github.com/aukilabs/go-tooling/pkg/errors"

// ValidateConstruction checks the preconditions of New: root bounds valid,
// 1 < maxDepth <= the identifier width's depth limit for k, objectsPerNode
// >= 1.
func ValidateConstruction(k int, bounds AABB, objectsPerNode, maxDepth int) error {
	for i := range bounds.Min {
		if bounds.Min[i] > bounds.Max[i] {
			return errors.New("invalid root bounds: min exceeds max on an axis").
				WithTag("axis", i).
				WithTag("min", bounds.Min[i]).
				WithTag("max", bounds.Max[i])
		}
	}

	// 64-bit node identifiers reserve one guard bit for the root.
	limit := (64 - 1) / k
	if maxDepth <= 1 || maxDepth > limit {
		return errors.New("max_depth out of range").
			WithTag("max_depth", maxDepth).
			WithTag("limit", limit)
	}

	if objectsPerNode < 1 {
		return errors.New("objects_per_node must be >= 1").
			WithTag("objects_per_node", objectsPerNode)
	}

	return nil
}

// ValidateCopy checks that the destination and source trees share identical
// shape parameters before CopyFrom mutates the destination.
func ValidateCopy(dstK, srcK int, dstBounds, srcBounds AABB, dstObjectsPerNode, srcObjectsPerNode, dstMaxDepth, srcMaxDepth int) error {
	if dstK != srcK {
		return errors.New("copy_from: dimension mismatch").
			WithTag("dst_k", dstK).
			WithTag("src_k", srcK)
	}
	if dstObjectsPerNode != srcObjectsPerNode {
		return errors.New("copy_from: objects_per_node mismatch").
			WithTag("dst", dstObjectsPerNode).
			WithTag("src", srcObjectsPerNode)
	}
	if dstMaxDepth != srcMaxDepth {
		return errors.New("copy_from: max_depth mismatch").
			WithTag("dst", dstMaxDepth).
			WithTag("src", srcMaxDepth)
	}
	for i := range dstBounds.Min {
		if dstBounds.Min[i] != srcBounds.Min[i] || dstBounds.Max[i] != srcBounds.Max[i] {
			return errors.New("copy_from: root bounds mismatch").
				WithTag("axis", i)
		}
	}
	return nil
}
