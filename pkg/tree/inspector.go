package tree

import (
	"fmt"
	"strings"

	"github.com/groundswell-ai/groundswell/pkg/domain"
)

// Stats is a read-only summary of one tree.
type Stats struct {
	Nodes    int                   `json:"nodes"`
	ByStatus map[domain.Status]int `json:"by_status"`
	MaxDepth int                   `json:"max_depth"`
}

// CollectStats walks the subtree rooted at rec breadth-first and summarizes
// it. A nil root yields zero stats.
func CollectStats(rec *domain.NodeRecord) Stats {
	stats := Stats{ByStatus: make(map[domain.Status]int)}
	if rec == nil {
		return stats
	}

	type level struct {
		node  *domain.NodeRecord
		depth int
	}
	queue := []level{{rec, 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		stats.Nodes++
		stats.ByStatus[cur.node.Status()]++
		if cur.depth > stats.MaxDepth {
			stats.MaxDepth = cur.depth
		}
		for _, child := range cur.node.Children() {
			queue = append(queue, level{child, cur.depth + 1})
		}
	}
	return stats
}

// Render produces an indented ASCII rendering of the subtree rooted at rec,
// one node per line with its status.
//
//	review [running]
//	├── fetch-sources [completed]
//	└── summarize [pending]
func Render(rec *domain.NodeRecord) string {
	if rec == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]\n", rec.Name, rec.Status())
	renderChildren(&b, rec, "")
	return b.String()
}

// renderChildren recurses over the children lists. Rendering is a
// diagnostic projection for human eyes; trees deep enough to threaten the
// stack here are unreadable long before that.
func renderChildren(b *strings.Builder, rec *domain.NodeRecord, prefix string) {
	children := rec.Children()
	for i, child := range children {
		connector, childPrefix := "├── ", prefix+"│   "
		if i == len(children)-1 {
			connector, childPrefix = "└── ", prefix+"    "
		}
		fmt.Fprintf(b, "%s%s%s [%s]\n", prefix, connector, child.Name, child.Status())
		renderChildren(b, child, childPrefix)
	}
}
