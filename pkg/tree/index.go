// Package tree provides the flat node lookup kept incrementally consistent
// with the live workflow tree, plus read-only projections over it.
package tree

import (
	"sync"

	"github.com/groundswell-ai/groundswell/pkg/domain"
)

// Index is a flat id -> NodeRecord map. It is updated incrementally: an
// attach or detach of a subtree of size k costs O(k), independent of the
// total tree size. After any sequence of attaches and detaches the index
// contains exactly the node ids reachable from its tracked roots.
//
// Safe for concurrent use.
type Index struct {
	mu    sync.RWMutex
	nodes map[string]*domain.NodeRecord
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		nodes: make(map[string]*domain.NodeRecord),
	}
}

// RegisterSubtree inserts every node of the subtree rooted at rec.
// The traversal is an iterative breadth-first walk, never recursive, so
// depth-thousands chains cannot overflow the stack.
func (i *Index) RegisterSubtree(rec *domain.NodeRecord) {
	if rec == nil {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	queue := []*domain.NodeRecord{rec}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		i.nodes[node.ID] = node
		queue = append(queue, node.Children()...)
	}
}

// UnregisterSubtree removes every node of the subtree rooted at rec.
// No stale entries survive: detaching a subtree of size k removes exactly k
// entries.
func (i *Index) UnregisterSubtree(rec *domain.NodeRecord) {
	if rec == nil {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	queue := []*domain.NodeRecord{rec}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		delete(i.nodes, node.ID)
		queue = append(queue, node.Children()...)
	}
}

// Get looks up a record by node id.
func (i *Index) Get(id string) (*domain.NodeRecord, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	rec, ok := i.nodes[id]
	return rec, ok
}

// Len returns the number of indexed nodes.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.nodes)
}

// IDs returns the ids of all indexed nodes, in no particular order.
func (i *Index) IDs() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	ids := make([]string, 0, len(i.nodes))
	for id := range i.nodes {
		ids = append(ids, id)
	}
	return ids
}
