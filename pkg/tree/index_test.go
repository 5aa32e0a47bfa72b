package tree_test

import (
	"sort"
	"strings"
	"testing"

	"github.com/groundswell-ai/groundswell/pkg/domain"
	"github.com/groundswell-ai/groundswell/pkg/tree"
)

// buildRecords wires a small record tree by hand:
//
//	root
//	├── a
//	│   └── a1
//	└── b
func buildRecords() (root, a, a1, b *domain.NodeRecord) {
	root = domain.NewNodeRecord("root")
	a = domain.NewNodeRecord("a")
	a1 = domain.NewNodeRecord("a1")
	b = domain.NewNodeRecord("b")

	root.AppendChild(a)
	a.SetParent(root)
	a.AppendChild(a1)
	a1.SetParent(a)
	root.AppendChild(b)
	b.SetParent(root)
	return
}

func indexedIDs(idx *tree.Index) []string {
	ids := idx.IDs()
	sort.Strings(ids)
	return ids
}

func TestIndex_RegisterSubtree(t *testing.T) {
	root, a, a1, b := buildRecords()
	idx := tree.NewIndex()

	idx.RegisterSubtree(root)

	if idx.Len() != 4 {
		t.Fatalf("Len = %d, want 4", idx.Len())
	}
	for _, rec := range []*domain.NodeRecord{root, a, a1, b} {
		got, ok := idx.Get(rec.ID)
		if !ok || got != rec {
			t.Errorf("Get(%s) missing or wrong record", rec.Name)
		}
	}
}

func TestIndex_UnregisterSubtreeRemovesExactlyTheSubtree(t *testing.T) {
	root, a, a1, b := buildRecords()
	idx := tree.NewIndex()
	idx.RegisterSubtree(root)

	idx.UnregisterSubtree(a)

	if idx.Len() != 2 {
		t.Fatalf("Len = %d, want 2", idx.Len())
	}
	if _, ok := idx.Get(a.ID); ok {
		t.Error("a should be gone")
	}
	if _, ok := idx.Get(a1.ID); ok {
		t.Error("a1 should be gone with its parent's subtree")
	}
	if _, ok := idx.Get(root.ID); !ok {
		t.Error("root must survive")
	}
	if _, ok := idx.Get(b.ID); !ok {
		t.Error("b must survive")
	}
}

func TestIndex_ReattachElsewhereKeepsExactSet(t *testing.T) {
	root, a, a1, b := buildRecords()
	idx := tree.NewIndex()
	idx.RegisterSubtree(root)

	// Move subtree a under b, the way the workflow entity would: unregister,
	// rewire, re-register.
	idx.UnregisterSubtree(a)
	root.RemoveChild(a)
	b.AppendChild(a)
	a.SetParent(b)
	idx.RegisterSubtree(a)

	want := []string{root.ID, a.ID, a1.ID, b.ID}
	sort.Strings(want)
	got := indexedIDs(idx)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("index ids = %v, want %v", got, want)
	}
}

func TestIndex_NilRootIsNoop(t *testing.T) {
	idx := tree.NewIndex()
	idx.RegisterSubtree(nil)
	idx.UnregisterSubtree(nil)
	if idx.Len() != 0 {
		t.Errorf("Len = %d, want 0", idx.Len())
	}
}

func TestCollectStats(t *testing.T) {
	root, a, _, _ := buildRecords()
	a.SetStatus(domain.StatusRunning)

	stats := tree.CollectStats(root)

	if stats.Nodes != 4 {
		t.Errorf("Nodes = %d, want 4", stats.Nodes)
	}
	if stats.MaxDepth != 2 {
		t.Errorf("MaxDepth = %d, want 2", stats.MaxDepth)
	}
	if stats.ByStatus[domain.StatusRunning] != 1 {
		t.Errorf("running count = %d, want 1", stats.ByStatus[domain.StatusRunning])
	}
	if stats.ByStatus[domain.StatusPending] != 3 {
		t.Errorf("pending count = %d, want 3", stats.ByStatus[domain.StatusPending])
	}
}

func TestCollectStats_Nil(t *testing.T) {
	stats := tree.CollectStats(nil)
	if stats.Nodes != 0 || stats.MaxDepth != 0 {
		t.Errorf("nil root should yield zero stats, got %+v", stats)
	}
}

func TestRender(t *testing.T) {
	root, _, _, _ := buildRecords()
	out := tree.Render(root)

	want := "root [pending]\n" +
		"├── a [pending]\n" +
		"│   └── a1 [pending]\n" +
		"└── b [pending]\n"
	if out != want {
		t.Errorf("Render:\n%s\nwant:\n%s", out, want)
	}
}
