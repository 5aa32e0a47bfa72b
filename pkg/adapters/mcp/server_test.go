package mcp

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundswell-ai/groundswell/pkg/domain"
	"github.com/groundswell-ai/groundswell/pkg/templates"
	"github.com/groundswell-ai/groundswell/pkg/tree"
	"github.com/groundswell-ai/groundswell/pkg/workflow"
)

type testEngine struct {
	root  *workflow.Workflow
	index *tree.Index
}

func (e *testEngine) Lookup(id string) (*domain.NodeRecord, bool) { return e.index.Get(id) }
func (e *testEngine) Root() *workflow.Workflow                    { return e.root }

func newTestServer(t *testing.T) (*Server, *testEngine, *workflow.Workflow) {
	t.Helper()
	root, err := workflow.New("root")
	require.NoError(t, err)
	index := tree.NewIndex()
	root.TrackIndex(index)

	child, err := workflow.New("child", workflow.WithParent(root))
	require.NoError(t, err)

	registry := templates.NewRegistry()
	require.NoError(t, registry.Register(templates.Template{
		Name:   "summarize",
		Params: []string{"url"},
	}))

	engine := &testEngine{root: root, index: index}
	return NewServer(engine, registry), engine, child
}

func TestHandleStatus(t *testing.T) {
	s, _, child := newTestServer(t)
	child.SnapshotState(map[string]any{"api_key": "sk-1", "step": 2})

	got, err := s.handleStatus(context.Background(), mcp.CallToolRequest{},
		map[string]any{"id": child.ID()})
	require.NoError(t, err)

	assert.Equal(t, child.ID(), got.ID)
	assert.Equal(t, "child", got.Name)
	assert.Equal(t, string(domain.StatusPending), got.Status)
	assert.Equal(t, domain.Redacted, got.Snapshot["api_key"], "snapshots leave sanitized")
	assert.Equal(t, 2, got.Snapshot["step"])
}

func TestHandleStatus_Unknown(t *testing.T) {
	s, _, _ := newTestServer(t)
	_, err := s.handleStatus(context.Background(), mcp.CallToolRequest{},
		map[string]any{"id": "nope"})
	assert.Error(t, err)
}

func TestHandleAncestorsAndSiblings(t *testing.T) {
	s, engine, child := newTestServer(t)
	leaf, err := workflow.New("leaf", workflow.WithParent(child))
	require.NoError(t, err)
	sibling, err := workflow.New("sibling", workflow.WithParent(engine.root))
	require.NoError(t, err)
	_ = sibling

	ancestors, err := s.handleAncestors(context.Background(), mcp.CallToolRequest{},
		map[string]any{"id": leaf.ID()})
	require.NoError(t, err)
	require.Len(t, ancestors.Nodes, 2)
	assert.Equal(t, "child", ancestors.Nodes[0].Name, "nearest ancestor first")
	assert.Equal(t, "root", ancestors.Nodes[1].Name)

	siblings, err := s.handleSiblings(context.Background(), mcp.CallToolRequest{},
		map[string]any{"id": child.ID()})
	require.NoError(t, err)
	require.Len(t, siblings.Nodes, 1)
	assert.Equal(t, "sibling", siblings.Nodes[0].Name)

	children, err := s.handleChildren(context.Background(), mcp.CallToolRequest{},
		map[string]any{"id": child.ID()})
	require.NoError(t, err)
	require.Len(t, children.Nodes, 1)
	assert.Equal(t, "leaf", children.Nodes[0].Name)
}

func TestHandleSpawn(t *testing.T) {
	s, engine, _ := newTestServer(t)

	t.Run("approved template with allowed params", func(t *testing.T) {
		got, err := s.handleSpawn(context.Background(), mcp.CallToolRequest{}, map[string]any{
			"template":  "summarize",
			"parent_id": engine.root.ID(),
			"params":    map[string]any{"url": "https://example.com"},
		})
		require.NoError(t, err)
		assert.Equal(t, engine.root.ID(), got.ParentID)
		assert.Equal(t, "summarize", got.Name, "name defaults to the template")

		spawned, ok := engine.root.Find(got.ID)
		require.True(t, ok)
		assert.Equal(t, "https://example.com", spawned.Node().Snapshot()["url"])
	})

	t.Run("unknown template denied", func(t *testing.T) {
		_, err := s.handleSpawn(context.Background(), mcp.CallToolRequest{}, map[string]any{
			"template":  "shell",
			"parent_id": engine.root.ID(),
		})
		assert.Error(t, err)
	})

	t.Run("unlisted parameter denied", func(t *testing.T) {
		_, err := s.handleSpawn(context.Background(), mcp.CallToolRequest{}, map[string]any{
			"template":  "summarize",
			"parent_id": engine.root.ID(),
			"params":    map[string]any{"cmd": "rm"},
		})
		assert.Error(t, err)
	})

	t.Run("unknown parent", func(t *testing.T) {
		_, err := s.handleSpawn(context.Background(), mcp.CallToolRequest{}, map[string]any{
			"template":  "summarize",
			"parent_id": "nope",
		})
		assert.Error(t, err)
	})
}

func TestHandleCacheContains_RequiresProbe(t *testing.T) {
	s, _, _ := newTestServer(t)
	// No probe configured; the tool is not registered, and a direct call
	// would dereference nil. Registration gating is the contract.
	assert.Nil(t, s.cache)
}
