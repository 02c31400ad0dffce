package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	runqy "github.com/Publikey/runqy-go"
	"github.com/Publikey/runqy-go/internal/config"
	"github.com/Publikey/runqy-go/internal/jsonx"
)

// newEnqueueCommand creates the enqueue subcommand
func newEnqueueCommand(cli *CLI) *cobra.Command {
	var (
		payloadFile string
		taskTimeout int
	)

	cmd := &cobra.Command{
		Use:   "enqueue [payload]",
		Short: "Submit a task to a queue",
		Long: `Submit a task payload to a queue.

The payload comes from the argument, from --file, or from piped stdin.
Payloads that parse as JSON are submitted structured; anything else is
submitted as a plain string.

Examples:
  runqy enqueue '{"to": "user@example.com"}' --queue emails
  runqy enqueue --file payload.json
  cat payload.json | runqy enqueue`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.initialize(cmd); err != nil {
				return err
			}

			var arg string
			if len(args) > 0 {
				arg = args[0]
			}
			payload, err := resolvePayload(arg, payloadFile, os.Stdin, stdinIsPiped())
			if err != nil {
				return err
			}

			taskTimeoutSecs := cli.cfg.TaskTimeoutSecs
			if cmd.Flags().Changed("task-timeout") {
				taskTimeoutSecs = taskTimeout
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			task, err := cli.client.Enqueue(ctx, cli.cfg.Queue, payload, runqy.WithTaskTimeout(taskTimeoutSecs))
			if err != nil {
				return err
			}

			fmt.Printf("%s Enqueued %s on %s (%s)\n", green("✅"), bold(task.TaskID), blue(task.Queue), stateColor(task.State))
			return nil
		},
	}

	cmd.Flags().StringVarP(&payloadFile, "file", "f", "", "Read the payload from a file")
	cmd.Flags().IntVar(&taskTimeout, "task-timeout", config.DefaultTaskTimeoutSecs, "Task execution budget in seconds")

	return cmd
}

// resolvePayload picks the payload source in a fixed order: explicit file,
// positional argument, piped stdin.
func resolvePayload(arg, filePath string, stdin io.Reader, stdinPiped bool) (any, error) {
	switch {
	case filePath != "":
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("read payload file: %w", err)
		}
		return parsePayload(data)
	case arg != "":
		return parsePayload([]byte(arg))
	case stdinPiped:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return parsePayload(data)
	default:
		return nil, fmt.Errorf("no payload: pass it as an argument, via --file, or on stdin")
	}
}

// parsePayload keeps JSON payloads structured and everything else as a plain
// string, mirroring how the server stores them.
func parsePayload(data []byte) (any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty payload")
	}

	var decoded any
	if err := jsonx.Unmarshal(trimmed, &decoded); err != nil {
		return string(trimmed), nil
	}
	return decoded, nil
}
