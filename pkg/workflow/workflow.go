package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/groundswell-ai/groundswell/pkg/domain"
	"github.com/groundswell-ai/groundswell/pkg/tree"
)

// treeMu serializes structural mutation (attach, detach, observer and index
// registration) and upward walks across all workflow trees. Holding one
// lock for all trees keeps reparenting between two previously unrelated
// trees race-free and lets upward walks observe a consistent shape.
//
// Event delivery to observers always happens after this lock is released,
// over a stable snapshot of the observer list, so observer callbacks may
// themselves attach, detach or register observers.
var treeMu sync.Mutex

// RunFunc is the unit of work a workflow executes when driven by Run or by
// a concurrent task.
type RunFunc func(ctx context.Context, w *Workflow) error

// Workflow is the object-level unit of the orchestration tree. It wraps a
// passive NodeRecord and owns the parent/children entity edges, which
// mirror the record's edges exactly.
type Workflow struct {
	node   *domain.NodeRecord
	logger *slog.Logger
	run    RunFunc

	// guarded by treeMu
	parent    *Workflow
	children  []*Workflow
	observers []Observer
	indexes   []*tree.Index
}

// Option configures a workflow at construction.
type Option func(*Workflow) error

// WithParent attaches the new workflow under p atomically at construction.
func WithParent(p *Workflow) Option {
	return func(w *Workflow) error {
		if p == nil {
			return fmt.Errorf("workflow: parent must not be nil")
		}
		return p.AttachChild(w)
	}
}

// WithLogger sets a structured logger for the workflow. Node log entries
// are mirrored to it.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) error {
		if logger != nil {
			w.logger = logger
		}
		return nil
	}
}

// WithRun sets the unit of work executed by Run.
func WithRun(fn RunFunc) Option {
	return func(w *Workflow) error {
		w.run = fn
		return nil
	}
}

// New creates a workflow entity together with its node record. The name
// must be non-empty. Options apply in order; WithParent attaches the new
// entity before New returns, so a construction with a parent is atomic.
func New(name string, opts ...Option) (*Workflow, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("workflow: name must not be empty")
	}
	w := &Workflow{
		node:   domain.NewNodeRecord(name),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// ID returns the node id, unique at creation.
func (w *Workflow) ID() string { return w.node.ID }

// Name returns the workflow name.
func (w *Workflow) Name() string { return w.node.Name }

// Node returns the passive record mirrored by this entity.
func (w *Workflow) Node() *domain.NodeRecord { return w.node }

// Parent returns the current parent entity, or nil for a root.
func (w *Workflow) Parent() *Workflow {
	treeMu.Lock()
	defer treeMu.Unlock()
	return w.parent
}

// Children returns a copy of the ordered children list.
func (w *Workflow) Children() []*Workflow {
	treeMu.Lock()
	defer treeMu.Unlock()
	out := make([]*Workflow, len(w.children))
	copy(out, w.children)
	return out
}

// Find locates the entity with the given id in the subtree rooted at w,
// using an iterative breadth-first walk.
func (w *Workflow) Find(id string) (*Workflow, bool) {
	treeMu.Lock()
	defer treeMu.Unlock()
	queue := []*Workflow{w}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.node.ID == id {
			return cur, true
		}
		queue = append(queue, cur.children...)
	}
	return nil, false
}

// Root returns the root of the tree this workflow currently belongs to.
// The walk is iterative with a visited-set guard: a corrupted parent cycle
// panics instead of looping forever, and chains thousands of levels deep
// cannot overflow the stack.
func (w *Workflow) Root() *Workflow {
	treeMu.Lock()
	defer treeMu.Unlock()
	return w.rootLocked()
}

func (w *Workflow) rootLocked() *Workflow {
	visited := map[*Workflow]struct{}{}
	cur := w
	for cur.parent != nil {
		if _, seen := visited[cur]; seen {
			panic(fmt.Sprintf("workflow: corrupted tree: cycle detected while seeking root of %q", w.Name()))
		}
		visited[cur] = struct{}{}
		cur = cur.parent
	}
	return cur
}

// IsDescendantOf reports whether ancestor is reachable from w by following
// parent links. Iterative for the same stack-safety reasons as Root.
func (w *Workflow) IsDescendantOf(ancestor *Workflow) bool {
	if ancestor == nil {
		return false
	}
	treeMu.Lock()
	defer treeMu.Unlock()
	return w.isDescendantOfLocked(ancestor)
}

func (w *Workflow) isDescendantOfLocked(ancestor *Workflow) bool {
	visited := map[*Workflow]struct{}{}
	for cur := w.parent; cur != nil; cur = cur.parent {
		if cur == ancestor {
			return true
		}
		if _, seen := visited[cur]; seen {
			panic(fmt.Sprintf("workflow: corrupted tree: cycle detected above %q", w.Name()))
		}
		visited[cur] = struct{}{}
	}
	return false
}

// AttachChild attaches candidate as the last child of w.
//
// It fails with ErrAlreadyAttached if candidate is already a child of w
// (checked against both the children list and candidate's parent link, to
// catch out-of-band mutation), with ErrAlreadyHasParent if candidate
// belongs to another parent, and with ErrCircularReference if w is a
// descendant of candidate at any depth. On success both the entity tree and
// the record tree gain the edge, candidate's entire subtree is registered
// into every index tracked on the path from w to the root, and a
// childAttached event is emitted.
func (w *Workflow) AttachChild(candidate *Workflow) error {
	if candidate == nil {
		return fmt.Errorf("workflow: cannot attach nil child to %q", w.Name())
	}

	treeMu.Lock()
	for _, child := range w.children {
		if child == candidate {
			treeMu.Unlock()
			return fmt.Errorf("%w: workflow %q is already a child of %q",
				domain.ErrAlreadyAttached, candidate.Name(), w.Name())
		}
	}
	if candidate.parent != nil {
		if candidate.parent == w {
			// Parent link points here but the children list does not
			// contain the candidate: out-of-band mutation. Refuse rather
			// than silently repair.
			treeMu.Unlock()
			return fmt.Errorf("%w: workflow %q already names %q as its parent",
				domain.ErrAlreadyAttached, candidate.Name(), w.Name())
		}
		other := candidate.parent.Name()
		treeMu.Unlock()
		return fmt.Errorf("%w: workflow %q already has parent %q; detach it from %q before attaching to %q",
			domain.ErrAlreadyHasParent, candidate.Name(), other, other, w.Name())
	}
	if candidate == w || w.isDescendantOfLocked(candidate) {
		treeMu.Unlock()
		return fmt.Errorf("%w: attaching %q under %q would make it an ancestor of itself",
			domain.ErrCircularReference, candidate.Name(), w.Name())
	}

	candidate.parent = w
	w.children = append(w.children, candidate)
	candidate.node.SetParent(w.node)
	w.node.AppendChild(candidate.node)

	for _, idx := range w.pathIndexesLocked() {
		idx.RegisterSubtree(candidate.node)
	}

	evt := domain.NewEvent(domain.EventChildAttached, w.ID(), map[string]any{
		"parentId":  w.ID(),
		"childId":   candidate.ID(),
		"childName": candidate.Name(),
	})
	root := w.rootLocked()
	observers := root.observersSnapshotLocked()
	treeMu.Unlock()

	w.node.AppendEvent(evt)
	w.logger.Debug("child attached", "parent", w.Name(), "child", candidate.Name())
	notify(observers, evt, root.node, w.logger)
	return nil
}

// DetachChild removes candidate from w's children, nulls its parent link in
// both trees, unregisters candidate's whole subtree from every index
// tracked on the path from w to the root, and emits a childDetached event.
// Fails with ErrNotAttached if candidate is not a child of w.
func (w *Workflow) DetachChild(candidate *Workflow) error {
	if candidate == nil {
		return fmt.Errorf("workflow: cannot detach nil child from %q", w.Name())
	}

	treeMu.Lock()
	pos := -1
	for i, child := range w.children {
		if child == candidate {
			pos = i
			break
		}
	}
	if pos < 0 {
		treeMu.Unlock()
		return fmt.Errorf("%w: workflow %q is not attached to %q",
			domain.ErrNotAttached, candidate.Name(), w.Name())
	}

	// Indexes must be collected while the subtree is still connected to the
	// root, otherwise the upward walk cannot see them.
	indexes := w.pathIndexesLocked()
	root := w.rootLocked()

	w.children = append(w.children[:pos], w.children[pos+1:]...)
	candidate.parent = nil
	w.node.RemoveChild(candidate.node)
	candidate.node.SetParent(nil)

	for _, idx := range indexes {
		idx.UnregisterSubtree(candidate.node)
	}

	evt := domain.NewEvent(domain.EventChildDetached, w.ID(), map[string]any{
		"parentId": w.ID(),
		"childId":  candidate.ID(),
	})
	observers := root.observersSnapshotLocked()
	treeMu.Unlock()

	w.node.AppendEvent(evt)
	w.logger.Debug("child detached", "parent", w.Name(), "child", candidate.Name())
	notify(observers, evt, root.node, w.logger)
	return nil
}

// pathIndexesLocked collects the indexes tracked on every entity from w up
// to and including the root.
func (w *Workflow) pathIndexesLocked() []*tree.Index {
	var out []*tree.Index
	visited := map[*Workflow]struct{}{}
	for cur := w; cur != nil; cur = cur.parent {
		if _, seen := visited[cur]; seen {
			panic(fmt.Sprintf("workflow: corrupted tree: cycle detected above %q", w.Name()))
		}
		visited[cur] = struct{}{}
		out = append(out, cur.indexes...)
	}
	return out
}

// TrackIndex registers idx on w and seeds it with w's current subtree.
// Attaches and detaches below w keep it consistent incrementally.
func (w *Workflow) TrackIndex(idx *tree.Index) {
	if idx == nil {
		return
	}
	treeMu.Lock()
	w.indexes = append(w.indexes, idx)
	treeMu.Unlock()
	idx.RegisterSubtree(w.node)
}

// SetStatus replaces the lifecycle status and emits a statusChanged event.
func (w *Workflow) SetStatus(s domain.Status) {
	prev := w.node.Status()
	w.node.SetStatus(s)
	w.EmitEvent(domain.NewEvent(domain.EventStatusChanged, w.ID(), map[string]any{
		"from": string(prev),
		"to":   string(s),
	}))
}

// Status returns the current lifecycle status.
func (w *Workflow) Status() domain.Status {
	return w.node.Status()
}

// SnapshotState replaces the node's state snapshot wholesale and emits a
// stateSnapshot event.
func (w *Workflow) SnapshotState(state map[string]any) {
	w.node.SetSnapshot(state)
	w.EmitEvent(domain.NewEvent(domain.EventStateSnapshot, w.ID(), map[string]any{
		"keys": len(state),
	}))
}

// Info appends an info-level entry to the node log and mirrors it to the
// structured logger.
func (w *Workflow) Info(msg string, args ...any) {
	w.node.AppendLog(domain.NewLogEntry(slog.LevelInfo, msg))
	w.logger.Info(msg, append([]any{"workflow", w.Name()}, args...)...)
}

// Warn appends a warn-level entry to the node log.
func (w *Workflow) Warn(msg string, args ...any) {
	w.node.AppendLog(domain.NewLogEntry(slog.LevelWarn, msg))
	w.logger.Warn(msg, append([]any{"workflow", w.Name()}, args...)...)
}

// Error appends an error-level entry to the node log.
func (w *Workflow) Error(msg string, args ...any) {
	w.node.AppendLog(domain.NewLogEntry(slog.LevelError, msg))
	w.logger.Error(msg, append([]any{"workflow", w.Name()}, args...)...)
}

// Run executes the workflow's unit of work and drives its status to a
// terminal state. A failure is captured as a *domain.WorkflowError carrying
// the snapshot and logs at failure time, emitted as a taskFailed event to
// the current root's observers, and returned.
func (w *Workflow) Run(ctx context.Context) error {
	w.SetStatus(domain.StatusRunning)

	var err error
	if w.run != nil {
		err = w.run(ctx, w)
	}
	if err == nil {
		w.SetStatus(domain.StatusCompleted)
		return nil
	}

	var werr *domain.WorkflowError
	if !errors.As(err, &werr) {
		werr = domain.NewWorkflowError(
			fmt.Sprintf("workflow '%s' failed: %v", w.Name(), err), err, w.node)
	}
	w.SetStatus(domain.StatusFailed)
	w.EmitEvent(domain.NewEvent(domain.EventTaskFailed, w.ID(), map[string]any{
		"workflowId": w.ID(),
		"error":      werr.Message,
	}))
	return werr
}
