package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/blockfall/internal/platform/tui"
	"github.com/vovakirdan/blockfall/internal/session"
	"github.com/vovakirdan/blockfall/internal/transport"
)

var (
	flagSSHAddr     string
	flagWSAddr      string
	flagHostKey     string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve games over SSH and/or WebSocket",
	Long: `Start servers that let remote clients play.

SSH: each connection gets its own game in the terminal. Scores,
checkpoints and replays go to the shared database.

WebSocket: each connection at /ws gets its own worker speaking the
message protocol as JSON text frames.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.blockfall/host_key

Examples:
  blockfall serve                          # SSH on :23234
  blockfall serve --ssh :2222              # SSH on port 2222
  blockfall serve --ssh "" --ws :8080      # WebSocket only
  blockfall serve --ws :8080               # Both

Users can connect with:
  ssh localhost -p 23234`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", ":23234", "SSH server address (empty disables)")
	serveCmd.Flags().StringVar(&flagWSAddr, "ws", "", "WebSocket server address (empty disables)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
}

func runServe(_ *cobra.Command, _ []string) error {
	if flagSSHAddr == "" && flagWSAddr == "" {
		return errors.New("nothing to serve: both --ssh and --ws are empty")
	}
	logger, err := newLogger("blockfall")
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var httpSrv *http.Server
	if flagWSAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/ws", transport.NewWebSocketHandler(workerOptions(cfg, logger.WithPrefix("ws")), logger.WithPrefix("ws")))
		httpSrv = &http.Server{
			Addr:              flagWSAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("starting WebSocket server", "address", flagWSAddr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("websocket server error", "error", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpSrv.Shutdown(ctx); err != nil {
				logger.Warn("websocket shutdown", "error", err)
			}
		}()
	}

	if flagSSHAddr == "" {
		fmt.Printf("Serving WebSocket on %s/ws\n", flagWSAddr)
		fmt.Println("Press Ctrl+C to stop")
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()
		return nil
	}

	store := openStore(cfg, logger)
	if store != nil {
		defer store.Close()
	}

	sshCfg := tui.DefaultSSHServerConfig()
	sshCfg.Address = flagSSHAddr
	sshCfg.HostKeyPath = flagHostKey
	sshCfg.IdleTimeout = time.Duration(flagIdleTimeout) * time.Minute
	sshCfg.Settings = cfg.Visual.Settings()
	sshCfg.DAS, sshCfg.ARR = cfg.Handling.Timings()
	sshCfg.Session = session.Options{
		Worker:          workerOptions(cfg, nil),
		CheckpointEvery: cfg.Runtime.CheckpointEvery,
		CheckpointKeep:  cfg.Runtime.CheckpointKeep,
	}

	server, err := tui.NewSSHServer(sshCfg, store, logger.WithPrefix("ssh"))
	if err != nil {
		return fmt.Errorf("create SSH server: %w", err)
	}

	fmt.Printf("Starting blockfall SSH server on %s\n", sshCfg.Address)
	if httpSrv != nil {
		fmt.Printf("Serving WebSocket on %s/ws\n", flagWSAddr)
	}
	fmt.Println("Press Ctrl+C to stop")

	return server.ListenAndServe()
}
