package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/groundswell-ai/groundswell"
	"github.com/groundswell-ai/groundswell/internal/render"
	"github.com/groundswell-ai/groundswell/pkg/workflow"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a small concurrent workflow tree and render the result",
	Run: func(cmd *cobra.Command, args []string) {
		flaky, _ := cmd.Flags().GetBool("flaky")
		logger := newLogger(cmd)

		render.PrintBanner()

		run := func(ctx context.Context, w *workflow.Workflow) error {
			w.Info("starting demo pipeline")
			_, err := w.RunTask(ctx, "fan-out", func(ctx context.Context) (any, error) {
				children := make([]*workflow.Workflow, 0, 4)
				for i := 1; i <= 4; i++ {
					i := i
					child, err := workflow.New(fmt.Sprintf("worker-%d", i),
						workflow.WithRun(func(ctx context.Context, cw *workflow.Workflow) error {
							time.Sleep(time.Duration(rand.Intn(150)) * time.Millisecond)
							if flaky && i%2 == 0 {
								return errors.New("simulated failure")
							}
							cw.SnapshotState(map[string]any{"batch": i})
							return nil
						}),
					)
					if err != nil {
						return nil, err
					}
					children = append(children, child)
				}
				return children, nil
			}, workflow.Concurrent(), workflow.WithErrorMerge(workflow.MergeStrategy{Enabled: true}))
			return err
		}

		engine, err := groundswell.New("demo",
			groundswell.WithLogger(logger),
			groundswell.WithRootRun(run),
		)
		if err != nil {
			logger.Error("engine setup failed", "err", err)
			os.Exit(1)
		}

		runErr := engine.Root().Run(cmd.Context())

		fmt.Println(render.Tree(engine.Root().Node()))

		stats := engine.Stats()
		fmt.Printf("nodes=%d depth=%d\n", stats.Nodes, stats.MaxDepth)
		if runErr != nil {
			fmt.Printf("run failed: %v\n", runErr)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().Bool("flaky", false, "Make half of the demo workers fail to exercise error merging")
}
