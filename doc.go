/*
Package groundswell is a hierarchical workflow orchestration engine. It
composes nested units of work into a mutable tree in which every node
tracks its own status, logs and state snapshots, and in which any node's
activity is observable from the tree's current root.

The engine keeps the tree consistent under runtime structural change:
workflows are attached, detached and reparented dynamically, children run
concurrently and fail independently, and every mutation preserves the
structural invariants (single parent, no cycles, bidirectional links,
root-unique observation) without rebuilding the tree.

# Usage

	orch, err := groundswell.New("review")
	if err != nil {
		log.Fatal(err)
	}
	root := orch.Root()

	child, _ := workflow.New("fetch-sources",
		workflow.WithParent(root),
		workflow.WithRun(fetchSources),
	)

	out, err := root.RunTask(ctx, "analyze", spawnAnalyzers,
		workflow.Concurrent(),
		workflow.WithErrorMerge(workflow.MergeStrategy{Enabled: true}),
	)

Structural observation registers on the root only; events emitted anywhere
in the tree route to whichever entity is the root at emission time:

	err = root.AddObserver(observability.NewSlogObserver(logger))

The flat node lookup kept by the orchestrator stays consistent with the
live tree incrementally: attaching or detaching a subtree of size k costs
O(k), independent of total tree size.
*/
package groundswell
