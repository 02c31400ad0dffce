package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	runqy "github.com/Publikey/runqy-go"
)

const exitCodeTaskFailed = 2

// taskGetter is the slice of the client the wait loop needs.
type taskGetter interface {
	GetTask(ctx context.Context, taskID string) (*runqy.TaskInfo, error)
}

// newWaitCommand creates the wait subcommand
func newWaitCommand(cli *CLI) *cobra.Command {
	var (
		interval time.Duration
		maxWait  time.Duration
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "wait <task-id>...",
		Short: "Block until tasks reach a terminal state",
		Long: fmt.Sprintf(`Poll one or more tasks until each one is completed or failed.

Exits 0 when every task completed and %d when any task failed, so scripts
can tell a failed task apart from a client-side error.`, exitCodeTaskFailed),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.initialize(cmd); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if maxWait > 0 {
				var timeoutCancel context.CancelFunc
				ctx, timeoutCancel = context.WithTimeout(ctx, maxWait)
				defer timeoutCancel()
			}

			tasks, err := waitForTasks(ctx, cli.client, args, interval)
			if err != nil {
				return err
			}

			failed := 0
			for _, task := range tasks {
				if asJSON {
					if err := printTaskJSON(os.Stdout, task); err != nil {
						return err
					}
				} else {
					fmt.Print(formatTask(task))
				}
				if task.State == runqy.StateFailed {
					failed++
				}
			}
			if failed > 0 {
				return &ExitCodeError{
					Code: exitCodeTaskFailed,
					Err:  fmt.Errorf("%d of %d tasks failed", failed, len(tasks)),
				}
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "Poll interval")
	cmd.Flags().DurationVar(&maxWait, "for", 0, "Give up after this long (0 waits forever)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print finished tasks as JSON")

	return cmd
}

// waitForTasks polls every id concurrently until each reaches a terminal
// state. The first lookup failure or context end cancels the whole group.
func waitForTasks(ctx context.Context, client taskGetter, ids []string, interval time.Duration) ([]*runqy.TaskInfo, error) {
	if interval <= 0 {
		interval = 2 * time.Second
	}

	results := make([]*runqy.TaskInfo, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id // per-iteration copies; required while go.mod targets go < 1.22
		g.Go(func() error {
			task, err := pollTask(ctx, client, id, interval)
			if err != nil {
				return err
			}
			results[i] = task
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func pollTask(ctx context.Context, client taskGetter, id string, interval time.Duration) (*runqy.TaskInfo, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		task, err := client.GetTask(ctx, id)
		if err != nil {
			return nil, err
		}
		if isTerminalState(task.State) {
			return task, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for task %s: %w", id, ctx.Err())
		case <-ticker.C:
		}
	}
}

// isTerminalState reports whether a task has finished for good. Unknown
// states keep the poll going; the server may add intermediate ones.
func isTerminalState(state string) bool {
	return state == runqy.StateCompleted || state == runqy.StateFailed
}
