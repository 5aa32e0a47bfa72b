// Package mcp exposes the introspection tool surface over the Model
// Context Protocol: read-only queries about a workflow's position in the
// tree, cache-entry presence, and one mutating operation — spawning a child
// — gated by the pre-approved template allow-list.
package mcp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"

	"github.com/groundswell-ai/groundswell/pkg/domain"
	"github.com/groundswell-ai/groundswell/pkg/templates"
	"github.com/groundswell-ai/groundswell/pkg/workflow"
)

// Engine is the orchestrator surface the tools operate on.
type Engine interface {
	Lookup(id string) (*domain.NodeRecord, bool)
	Root() *workflow.Workflow
}

// CacheProbe answers presence queries; values are never exposed.
type CacheProbe interface {
	Contains(ctx context.Context, key string) (bool, error)
}

// NodeSummary is the sanitized projection returned by the query tools.
type NodeSummary struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Status   string         `json:"status"`
	Snapshot map[string]any `json:"snapshot,omitempty"`
}

// NodesResult wraps a list of node summaries.
type NodesResult struct {
	Nodes []NodeSummary `json:"nodes"`
}

// SpawnResult reports a successful spawn.
type SpawnResult struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id"`
	Template string `json:"template"`
}

// ContainsResult reports cache-entry presence.
type ContainsResult struct {
	Key     string `json:"key"`
	Present bool   `json:"present"`
}

// Server exposes the engine over MCP.
type Server struct {
	engine    Engine
	registry  *templates.Registry
	cache     CacheProbe
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithCache enables the cache_contains tool.
func WithCache(probe CacheProbe) Option {
	return func(s *Server) {
		s.cache = probe
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates an MCP server over the engine. The registry gates every
// spawn request; a nil registry denies all spawns.
func NewServer(engine Engine, registry *templates.Registry, opts ...Option) *Server {
	if registry == nil {
		registry = templates.NewRegistry()
	}
	s := &Server{
		engine:    engine,
		registry:  registry,
		logger:    slog.Default(),
		mcpServer: server.NewMCPServer("groundswell-mcp", "0.4.0"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("workflow_status",
		mcp.WithDescription("Get the status, name and sanitized state snapshot of a workflow node."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Workflow node ID")),
		mcp.WithOutputSchema[NodeSummary](),
	), mcp.NewStructuredToolHandler(s.handleStatus))

	s.mcpServer.AddTool(mcp.NewTool("workflow_ancestors",
		mcp.WithDescription("List a workflow node's ancestors, nearest first."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Workflow node ID")),
		mcp.WithOutputSchema[NodesResult](),
	), mcp.NewStructuredToolHandler(s.handleAncestors))

	s.mcpServer.AddTool(mcp.NewTool("workflow_siblings",
		mcp.WithDescription("List a workflow node's siblings, in parent order."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Workflow node ID")),
		mcp.WithOutputSchema[NodesResult](),
	), mcp.NewStructuredToolHandler(s.handleSiblings))

	s.mcpServer.AddTool(mcp.NewTool("workflow_children",
		mcp.WithDescription("List a workflow node's children, in attachment order."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Workflow node ID")),
		mcp.WithOutputSchema[NodesResult](),
	), mcp.NewStructuredToolHandler(s.handleChildren))

	s.mcpServer.AddTool(mcp.NewTool("workflow_spawn",
		mcp.WithDescription("Spawn a child workflow from a pre-approved template. Requests outside the template allow-list are denied."),
		mcp.WithString("template", mcp.Required(), mcp.Description("Approved template name")),
		mcp.WithString("parent_id", mcp.Required(), mcp.Description("ID of the workflow to attach under")),
		mcp.WithString("name", mcp.Description("Optional child name (defaults to the template name)")),
		mcp.WithObject("params", mcp.Description("Template parameters; keys outside the template's allow-list are denied")),
		mcp.WithOutputSchema[SpawnResult](),
	), mcp.NewStructuredToolHandler(s.handleSpawn))

	if s.cache != nil {
		s.mcpServer.AddTool(mcp.NewTool("cache_contains",
			mcp.WithDescription("Check whether a response cache entry exists for a key. Values are never returned."),
			mcp.WithString("key", mcp.Required(), mcp.Description("Derived cache key")),
			mcp.WithOutputSchema[ContainsResult](),
		), mcp.NewStructuredToolHandler(s.handleCacheContains))
	}
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (NodeSummary, error) {
	rec, err := s.lookup(args)
	if err != nil {
		return NodeSummary{}, err
	}
	return summarize(rec, true), nil
}

func (s *Server) handleAncestors(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (NodesResult, error) {
	rec, err := s.lookup(args)
	if err != nil {
		return NodesResult{}, err
	}

	result := NodesResult{Nodes: []NodeSummary{}}
	visited := map[string]struct{}{}
	for cur := rec.Parent(); cur != nil; cur = cur.Parent() {
		if _, seen := visited[cur.ID]; seen {
			return NodesResult{}, fmt.Errorf("corrupted tree: ancestor cycle above %q", rec.Name)
		}
		visited[cur.ID] = struct{}{}
		result.Nodes = append(result.Nodes, summarize(cur, false))
	}
	return result, nil
}

func (s *Server) handleSiblings(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (NodesResult, error) {
	rec, err := s.lookup(args)
	if err != nil {
		return NodesResult{}, err
	}

	result := NodesResult{Nodes: []NodeSummary{}}
	parent := rec.Parent()
	if parent == nil {
		return result, nil
	}
	for _, sibling := range parent.Children() {
		if sibling.ID == rec.ID {
			continue
		}
		result.Nodes = append(result.Nodes, summarize(sibling, false))
	}
	return result, nil
}

func (s *Server) handleChildren(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (NodesResult, error) {
	rec, err := s.lookup(args)
	if err != nil {
		return NodesResult{}, err
	}

	result := NodesResult{Nodes: []NodeSummary{}}
	for _, child := range rec.Children() {
		result.Nodes = append(result.Nodes, summarize(child, false))
	}
	return result, nil
}

type spawnRequest struct {
	Template string         `mapstructure:"template"`
	ParentID string         `mapstructure:"parent_id"`
	Name     string         `mapstructure:"name"`
	Params   map[string]any `mapstructure:"params"`
}

func (s *Server) handleSpawn(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (SpawnResult, error) {
	var req spawnRequest
	if err := mapstructure.Decode(args, &req); err != nil {
		return SpawnResult{}, fmt.Errorf("invalid spawn request: %w", err)
	}
	if req.Template == "" || req.ParentID == "" {
		return SpawnResult{}, fmt.Errorf("spawn requires template and parent_id")
	}

	if err := s.registry.Authorize(req.Template, req.Params); err != nil {
		s.logger.Warn("spawn denied", "template", req.Template, "err", err)
		return SpawnResult{}, err
	}

	parent, ok := s.engine.Root().Find(req.ParentID)
	if !ok {
		return SpawnResult{}, fmt.Errorf("parent workflow %q not found", req.ParentID)
	}

	name := req.Name
	if name == "" {
		name = req.Template
	}
	child, err := workflow.New(name, workflow.WithParent(parent))
	if err != nil {
		return SpawnResult{}, fmt.Errorf("spawn failed: %w", err)
	}
	if len(req.Params) > 0 {
		child.SnapshotState(req.Params)
	}

	s.logger.Info("workflow spawned", "template", req.Template, "parent", parent.Name(), "child", name)
	return SpawnResult{
		ID:       child.ID(),
		Name:     child.Name(),
		ParentID: parent.ID(),
		Template: req.Template,
	}, nil
}

func (s *Server) handleCacheContains(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ContainsResult, error) {
	key, _ := args["key"].(string)
	if key == "" {
		return ContainsResult{}, fmt.Errorf("cache_contains requires key")
	}
	present, err := s.cache.Contains(ctx, key)
	if err != nil {
		return ContainsResult{}, fmt.Errorf("cache lookup failed: %w", err)
	}
	return ContainsResult{Key: key, Present: present}, nil
}

func (s *Server) lookup(args map[string]any) (*domain.NodeRecord, error) {
	id, _ := args["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("missing workflow id")
	}
	rec, ok := s.engine.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("workflow %q not found", id)
	}
	return rec, nil
}

// summarize projects a record for tool output. Snapshots are included only
// for the directly queried node and are always sanitized.
func summarize(rec *domain.NodeRecord, withSnapshot bool) NodeSummary {
	summary := NodeSummary{
		ID:     rec.ID,
		Name:   rec.Name,
		Status: string(rec.Status()),
	}
	if withSnapshot {
		summary.Snapshot = domain.SanitizeSnapshot(rec.Snapshot())
	}
	return summary
}
