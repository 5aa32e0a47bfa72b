package observability

import (
	"log/slog"

	"github.com/groundswell-ai/groundswell/pkg/domain"
)

// SlogObserver mirrors every workflow event into a structured logger.
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver creates an observer writing to logger.
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogObserver{logger: logger}
}

// OnEvent logs one event. Error-class events log at error level.
func (o *SlogObserver) OnEvent(evt domain.Event) {
	attrs := []any{
		"type", string(evt.Type),
		"workflow_id", evt.WorkflowID,
	}
	for k, v := range evt.Data {
		attrs = append(attrs, k, v)
	}
	switch evt.Type {
	case domain.EventTaskFailed, domain.EventAggregateError:
		o.logger.Error("workflow event", attrs...)
	default:
		o.logger.Info("workflow event", attrs...)
	}
}

// OnTreeChanged logs the structural change with the current root.
func (o *SlogObserver) OnTreeChanged(root *domain.NodeRecord) {
	if root == nil {
		return
	}
	o.logger.Debug("tree changed", "root_id", root.ID, "root_name", root.Name)
}
