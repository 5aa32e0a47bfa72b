package groundswell

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/groundswell-ai/groundswell/pkg/domain"
	"github.com/groundswell-ai/groundswell/pkg/tree"
	"github.com/groundswell-ai/groundswell/pkg/workflow"
)

// Version of the groundswell library.
const Version = "0.4.0"

// Orchestrator is the high-level entry point: a root workflow wired with a
// tracked node index and any configured observers.
type Orchestrator struct {
	root   *workflow.Workflow
	index  *tree.Index
	logger *slog.Logger
}

// Option configures the Orchestrator.
type Option func(*settings)

type settings struct {
	logger    *slog.Logger
	observers []workflow.Observer
	run       workflow.RunFunc
}

// WithLogger sets a structured logger for the orchestrator and its root
// workflow.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithObserver registers an observer on the root at construction.
func WithObserver(o workflow.Observer) Option {
	return func(s *settings) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// WithRootRun sets the unit of work for the root workflow.
func WithRootRun(fn workflow.RunFunc) Option {
	return func(s *settings) {
		s.run = fn
	}
}

// New initializes an orchestrator around a fresh root workflow named name.
func New(name string, opts ...Option) (*Orchestrator, error) {
	s := settings{
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&s)
	}

	root, err := workflow.New(name,
		workflow.WithLogger(s.logger.With("root", name)),
		workflow.WithRun(s.run),
	)
	if err != nil {
		return nil, fmt.Errorf("groundswell: %w", err)
	}

	index := tree.NewIndex()
	root.TrackIndex(index)

	for _, o := range s.observers {
		if err := root.AddObserver(o); err != nil {
			return nil, fmt.Errorf("groundswell: %w", err)
		}
	}

	return &Orchestrator{
		root:   root,
		index:  index,
		logger: s.logger,
	}, nil
}

// Root returns the root workflow entity.
func (o *Orchestrator) Root() *workflow.Workflow {
	return o.root
}

// Index returns the flat node lookup tracked at the root.
func (o *Orchestrator) Index() *tree.Index {
	return o.index
}

// Lookup resolves a node id through the tracked index.
func (o *Orchestrator) Lookup(id string) (*domain.NodeRecord, bool) {
	return o.index.Get(id)
}

// Stats summarizes the subtree below the current root.
func (o *Orchestrator) Stats() tree.Stats {
	return tree.CollectStats(o.root.Root().Node())
}

// Render returns an indented ASCII rendering of the tree.
func (o *Orchestrator) Render() string {
	return tree.Render(o.root.Root().Node())
}
