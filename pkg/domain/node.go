package domain

import (
	"sync"

	"github.com/google/uuid"
)

// Status describes the lifecycle phase of a workflow node.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status is a final state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// NodeRecord is the passive data projection of one workflow: identity,
// status, logs, events and the latest state snapshot.
//
// ID and Name are fixed at creation. All mutable fields are guarded by an
// internal lock so that inspectors (tree index, HTTP/MCP adapters) can read
// a record while its workflow is running. Structural fields (parent,
// children) are only ever written by the workflow entity, which serializes
// structural mutation globally; the lock here protects readers, not the
// attach protocol.
type NodeRecord struct {
	ID   string
	Name string

	mu       sync.RWMutex
	status   Status
	parent   *NodeRecord
	children []*NodeRecord
	logs     []LogEntry
	events   []Event
	snapshot map[string]any
}

// NewNodeRecord creates a pending record with a fresh unique ID.
func NewNodeRecord(name string) *NodeRecord {
	return &NodeRecord{
		ID:     uuid.NewString(),
		Name:   name,
		status: StatusPending,
	}
}

// Status returns the current lifecycle status.
func (n *NodeRecord) Status() Status {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.status
}

// SetStatus replaces the lifecycle status.
func (n *NodeRecord) SetStatus(s Status) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.status = s
}

// Parent returns the parent record, or nil for a root.
func (n *NodeRecord) Parent() *NodeRecord {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.parent
}

// SetParent rewires the parent back-reference. Used by the workflow entity
// only; it keeps the entity tree and the record tree in lockstep.
func (n *NodeRecord) SetParent(p *NodeRecord) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.parent = p
}

// Children returns a copy of the ordered children list.
func (n *NodeRecord) Children() []*NodeRecord {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]*NodeRecord, len(n.children))
	copy(out, n.children)
	return out
}

// AppendChild adds c to the end of the children list. The caller (workflow
// entity) is responsible for duplicate and cycle checks.
func (n *NodeRecord) AppendChild(c *NodeRecord) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.children = append(n.children, c)
}

// RemoveChild deletes c from the children list, preserving order.
// It reports whether c was present.
func (n *NodeRecord) RemoveChild(c *NodeRecord) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, child := range n.children {
		if child == c {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return true
		}
	}
	return false
}

// AppendLog appends one entry to the append-only log.
func (n *NodeRecord) AppendLog(e LogEntry) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.logs = append(n.logs, e)
}

// Logs returns a copy of the accumulated log entries.
func (n *NodeRecord) Logs() []LogEntry {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]LogEntry, len(n.logs))
	copy(out, n.logs)
	return out
}

// AppendEvent appends one event to the append-only event history.
func (n *NodeRecord) AppendEvent(e Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

// Events returns a copy of the accumulated events.
func (n *NodeRecord) Events() []Event {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]Event, len(n.events))
	copy(out, n.events)
	return out
}

// SetSnapshot replaces the state snapshot wholesale. The map is copied on
// write; partial merges are intentionally not supported.
func (n *NodeRecord) SetSnapshot(state map[string]any) {
	var cp map[string]any
	if state != nil {
		cp = make(map[string]any, len(state))
		for k, v := range state {
			cp[k] = v
		}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.snapshot = cp
}

// Snapshot returns a copy of the latest state snapshot, or nil if none was
// ever taken.
func (n *NodeRecord) Snapshot() map[string]any {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.snapshot == nil {
		return nil
	}
	cp := make(map[string]any, len(n.snapshot))
	for k, v := range n.snapshot {
		cp[k] = v
	}
	return cp
}
