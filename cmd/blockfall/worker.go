package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/blockfall/internal/transport"
)

var flagManual bool

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the engine worker over stdin/stdout",
	Long: `Run one engine worker speaking the message protocol as JSON lines.

Each line on stdin is a command, each line on stdout is a message:

  {"type":"start","payload":{"seed":12345}}
  {"type":"input","payload":"moveLeft"}
  {"type":"requestSnapshot"}

The worker exits when stdin is closed. Logs go to stderr.

Examples:
  blockfall worker
  blockfall worker --manual < commands.jsonl`,
	Args: cobra.NoArgs,
	RunE: runWorker,
}

func init() {
	workerCmd.Flags().BoolVar(&flagManual, "manual", false, "Disable the tick driver; tick only on requestSnapshot")
}

func runWorker(_ *cobra.Command, _ []string) error {
	logger, err := newLogger("worker")
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := workerOptions(cfg, logger)
	opts.Manual = flagManual

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return transport.ServeStream(ctx, os.Stdin, os.Stdout, opts, logger)
}
