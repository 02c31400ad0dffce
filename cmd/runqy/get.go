package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	runqy "github.com/Publikey/runqy-go"
	"github.com/Publikey/runqy-go/internal/jsonx"
)

// newGetCommand creates the get subcommand
func newGetCommand(cli *CLI) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get <task-id>",
		Short: "Show the state and result of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.initialize(cmd); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			task, err := cli.client.GetTask(ctx, args[0])
			if err != nil {
				return err
			}

			if asJSON {
				return printTaskJSON(os.Stdout, task)
			}
			fmt.Print(formatTask(task))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the task as JSON")
	return cmd
}

// formatTask renders a task for terminal output, one labelled line per
// populated field.
func formatTask(task *runqy.TaskInfo) string {
	out := fmt.Sprintf("%s %s\n", bold("Task:"), task.TaskID)
	out += fmt.Sprintf("  %s: %s\n", bold("Queue"), blue(task.Queue))
	out += fmt.Sprintf("  %s: %s\n", bold("State"), stateColor(task.State))
	if task.LastErr != "" {
		out += fmt.Sprintf("  %s: %s\n", bold("Last error"), red(task.LastErr))
	}
	if task.Result != nil {
		out += fmt.Sprintf("  %s: %s\n", bold("Result"), renderValue(task.Result))
	}
	if task.Payload != nil {
		out += fmt.Sprintf("  %s: %s\n", bold("Payload"), renderValue(task.Payload))
	}
	return out
}

func stateColor(state string) string {
	switch state {
	case runqy.StateCompleted:
		return green(state)
	case runqy.StateFailed:
		return red(state)
	case runqy.StateActive:
		return yellow(state)
	case "":
		return gray("unknown")
	default:
		return blue(state)
	}
}

// renderValue passes strings through and pretty-prints structured values.
func renderValue(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	encoded, err := jsonx.MarshalIndent(value, "  ", "  ")
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(encoded)
}

func printTaskJSON(w io.Writer, task *runqy.TaskInfo) error {
	encoded, err := jsonx.MarshalIndent(map[string]any{
		"task_id":  task.TaskID,
		"queue":    task.Queue,
		"state":    task.State,
		"result":   task.Result,
		"last_err": task.LastErr,
		"payload":  task.Payload,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	_, err = fmt.Fprintln(w, string(encoded))
	return err
}
