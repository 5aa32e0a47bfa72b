package domain

import "time"

// EventType defines the category of a lifecycle or structural event.
type EventType string

const (
	EventChildAttached  EventType = "childAttached"
	EventChildDetached  EventType = "childDetached"
	EventStatusChanged  EventType = "statusChanged"
	EventStateSnapshot  EventType = "stateSnapshot"
	EventTaskFailed     EventType = "taskFailed"
	EventAggregateError EventType = "aggregateError"
)

// Structural reports whether the event changes the shape of the tree.
// Structural events additionally trigger OnTreeChanged on root observers.
func (t EventType) Structural() bool {
	return t == EventChildAttached || t == EventChildDetached
}

// Event is one entry in a node's append-only event history. Events are
// always delivered to the observers of whichever entity is the tree's root
// at emission time.
type Event struct {
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	Data       map[string]any `json:"data,omitempty"`
}

// NewEvent stamps an event with the current time.
func NewEvent(t EventType, workflowID string, data map[string]any) Event {
	return Event{
		Type:       t,
		Timestamp:  time.Now(),
		WorkflowID: workflowID,
		Data:       data,
	}
}
