package quadtree

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const treeIDLabel = "tree_id"

var (
	treesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quadtree_trees_created_total",
		Help: "The total number of quadtrees created.",
	})

	insertsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quadtree_inserts_total",
		Help: "The total number of Insert/InsertPoint calls.",
	}, []string{treeIDLabel})

	raycastsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quadtree_raycasts_total",
		Help: "The total number of Raycast/RaycastAll calls.",
	}, []string{treeIDLabel})

	rangeVisitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quadtree_range_visits_total",
		Help: "The total number of Range calls.",
	}, []string{treeIDLabel})

	nearestVisitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quadtree_nearest_visits_total",
		Help: "The total number of Nearest/NearestCached calls.",
	}, []string{treeIDLabel})

	subdivisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quadtree_subdivisions_total",
		Help: "The total number of node subdivisions performed.",
	}, []string{treeIDLabel})
)

func instrumentTreeCreated() {
	treesCreatedTotal.Inc()
}

func instrumentInsert(treeID string) {
	insertsTotal.With(prometheus.Labels{treeIDLabel: treeID}).Inc()
}

func instrumentRaycast(treeID string) {
	raycastsTotal.With(prometheus.Labels{treeIDLabel: treeID}).Inc()
}

func instrumentRangeVisit(treeID string) {
	rangeVisitsTotal.With(prometheus.Labels{treeIDLabel: treeID}).Inc()
}

func instrumentNearestVisit(treeID string) {
	nearestVisitsTotal.With(prometheus.Labels{treeIDLabel: treeID}).Inc()
}

func instrumentSubdivide(treeID string, count int64) {
	if count <= 0 {
		return
	}
	subdivisionsTotal.With(prometheus.Labels{treeIDLabel: treeID}).Add(float64(count))
}
