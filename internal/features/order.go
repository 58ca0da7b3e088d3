package features

import (
	"sort"
	"strings"

	devcerrors "github.com/s-retlaw/devc/internal/errors"
)

// NormalizeID strips a feature reference's version tag, the same
// normalization the devcontainer-features spec applies to dependsOn and
// installsAfter keys before graph construction.
func NormalizeID(id string) string {
	if strings.HasPrefix(id, "https://") {
		return id
	}
	if i := strings.Index(id, ":"); i >= 0 {
		return id[:i]
	}
	return id
}

// Order topologically sorts resolved features by dependsOn (hard edges,
// always applied) and installsAfter (soft edges, only applied when the
// referenced feature is actually present — per
// https://containers.dev/implementors/features/#installsAfter). This is a
// plain Kahn's-algorithm sort, the same two-pass edge rule
// nlsantos-brig's DAG construction uses, reimplemented on slices+maps
// since heimdalr/dag isn't in this module's dependency set (see
// DESIGN.md). Ties break by feature ID for a deterministic install order.
func Order(resolved []*Resolved) ([]*Resolved, error) {
	byID := make(map[string]*Resolved, len(resolved))
	for _, r := range resolved {
		byID[NormalizeID(r.Config.ID)] = r
	}

	indegree := make(map[string]int, len(resolved))
	edges := make(map[string][]string, len(resolved))
	for _, r := range resolved {
		indegree[NormalizeID(r.Config.ID)] = 0
	}
	addEdge := func(from, to string) {
		if _, ok := byID[from]; !ok {
			return
		}
		edges[from] = append(edges[from], to)
		indegree[to]++
	}
	for _, r := range resolved {
		id := NormalizeID(r.Config.ID)
		for _, dep := range r.Metadata.DependencyIDs() {
			addEdge(dep, id)
		}
		for _, after := range r.Metadata.InstallsAfter {
			addEdge(NormalizeID(after), id)
		}
	}

	var queue []string
	for id, deg := range indegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	ordered := make([]*Resolved, 0, len(resolved))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		ordered = append(ordered, byID[id])

		next := append([]string(nil), edges[id]...)
		sort.Strings(next)
		for _, to := range next {
			indegree[to]--
			if indegree[to] == 0 {
				queue = append(queue, to)
				sort.Strings(queue)
			}
		}
	}

	if len(ordered) != len(resolved) {
		return nil, devcerrors.Newf(devcerrors.CategoryFeature, devcerrors.CodeFeatureFailed,
			"feature dependency graph has a cycle")
	}
	return ordered, nil
}
