package workflow

import (
	"fmt"
	"log/slog"

	"github.com/groundswell-ai/groundswell/pkg/domain"
)

// Observer receives lifecycle and structural events from a workflow tree.
// Observers register on a root entity; events emitted anywhere in the tree
// are delivered to the observers of whichever entity is the tree's root at
// emission time. Reparenting a subtree therefore redirects its future
// events with no subscribe/unsubscribe bookkeeping.
type Observer interface {
	// OnEvent is invoked for every event, in observer registration order.
	OnEvent(evt domain.Event)

	// OnTreeChanged is additionally invoked for structural events with the
	// current root record.
	OnTreeChanged(root *domain.NodeRecord)
}

// AddObserver registers an observer on a root workflow. Fails with
// ErrNotRoot if w currently has a parent.
func (w *Workflow) AddObserver(o Observer) error {
	if o == nil {
		return fmt.Errorf("workflow: observer must not be nil")
	}
	treeMu.Lock()
	defer treeMu.Unlock()
	if w.parent != nil {
		return fmt.Errorf("%w: %q has parent %q", domain.ErrNotRoot, w.Name(), w.parent.Name())
	}
	w.observers = append(w.observers, o)
	return nil
}

// EmitEvent appends evt to this node's event history and delivers it to the
// observers of the tree's current root. Routing is computed fresh at
// emission time.
func (w *Workflow) EmitEvent(evt domain.Event) {
	w.node.AppendEvent(evt)

	treeMu.Lock()
	root := w.rootLocked()
	observers := root.observersSnapshotLocked()
	treeMu.Unlock()

	notify(observers, evt, root.node, w.logger)
}

// observersSnapshotLocked copies the observer list. Delivery iterates the
// copy, so an observer registered during delivery only sees later events.
func (w *Workflow) observersSnapshotLocked() []Observer {
	out := make([]Observer, len(w.observers))
	copy(out, w.observers)
	return out
}

// notify delivers evt to each observer in registration order. A panicking
// observer is caught and reported; it never interrupts delivery to the
// remaining observers.
func notify(observers []Observer, evt domain.Event, root *domain.NodeRecord, logger *slog.Logger) {
	for _, o := range observers {
		safeNotify(o, evt, root, logger)
	}
}

func safeNotify(o Observer, evt domain.Event, root *domain.NodeRecord, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("observer panicked during event delivery",
				"event", string(evt.Type), "panic", fmt.Sprint(r))
		}
	}()
	o.OnEvent(evt)
	if evt.Type.Structural() {
		o.OnTreeChanged(root)
	}
}
