// Package workflow implements the tree-aware orchestration entity: the
// attach/detach/reparent protocol with cycle detection, root-scoped event
// observation, and the concurrent task executor with its error-aggregation
// policies.
//
// Every workflow owns exactly one domain.NodeRecord; the entity tree and
// the record tree are kept in lockstep so that tree shape, status and logs
// can be inspected cheaply without the full entity API.
package workflow
