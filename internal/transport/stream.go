// Package transport exposes a worker over byte streams and WebSockets.
// Both bridges speak the same JSON encoding of worker.Command and
// worker.Message; each connection gets its own worker.
package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/blockfall/internal/worker"
)

// MaxFrameSize bounds one inbound command. Recover commands carry a full
// snapshot, so this is generous.
const MaxFrameSize = 1 << 20

// ServeStream runs a worker behind a line-delimited JSON stream: one
// command per input line, one message per output line. It returns when r
// reaches EOF, ctx is done or writing fails.
func ServeStream(ctx context.Context, r io.Reader, w io.Writer, opts worker.Options, logger *log.Logger) error {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.Logger == nil {
		opts.Logger = logger
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wk := worker.New(opts)
	go wk.Run(ctx)

	readErr := make(chan error, 1)
	go func() {
		defer wk.Stop()
		readErr <- readCommands(r, wk, logger)
	}()

	enc := json.NewEncoder(w)
	var writeErr error
	for m := range wk.Messages() {
		if writeErr != nil {
			continue
		}
		if err := enc.Encode(m); err != nil {
			writeErr = fmt.Errorf("transport: write message: %w", err)
			cancel()
		}
	}
	if writeErr != nil {
		return writeErr
	}

	select {
	case err := <-readErr:
		return err
	default:
		// Stopped by ctx while the reader is still blocked.
		return nil
	}
}

func readCommands(r io.Reader, wk *worker.Worker, logger *log.Logger) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), MaxFrameSize)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var cmd worker.Command
		if err := json.Unmarshal(line, &cmd); err != nil {
			logger.Warn("dropping malformed command", "err", err)
			continue
		}
		wk.Send(cmd)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("transport: read commands: %w", err)
	}
	return nil
}
