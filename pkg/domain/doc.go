// Package domain contains the passive data model of the orchestration tree:
// node records, lifecycle events, log entries and the error taxonomy.
//
// Types here carry no tree-mutation logic. The workflow entity
// (pkg/workflow) owns the attach/detach protocol and funnels every
// structural change through it; domain types only guarantee that their own
// fields stay consistent under concurrent readers.
package domain
