package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/blockfall/internal/config"
	"github.com/vovakirdan/blockfall/internal/platform/tui"
	"github.com/vovakirdan/blockfall/internal/replay"
	"github.com/vovakirdan/blockfall/internal/rules"
	"github.com/vovakirdan/blockfall/internal/session"
)

var (
	flagSeed    uint32
	flagResume  bool
	flagPreset  string
	flagRecord  bool
	flagLogFile string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in the terminal",
	Long: `Start a game in the terminal.

Controls:
  Left/Right, A/D  - Move
  Down, S          - Soft drop
  Space            - Hard drop
  Up, X            - Rotate clockwise
  Z                - Rotate counter-clockwise
  P/Esc            - Pause
  R                - Restart (after game over)
  ?                - Help
  Q/Ctrl+C         - Quit

Handling presets:
  relaxed   - DAS 16, ARR 4
  standard  - DAS 10, ARR 2
  fast      - DAS 6, ARR 1
  custom    - Use handling.das and handling.arr from config

Examples:
  blockfall play
  blockfall play --seed 12345
  blockfall play --preset fast
  blockfall play --resume
  blockfall play --record`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().Uint32Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	playCmd.Flags().BoolVar(&flagResume, "resume", false, "Resume from the newest saved checkpoint")
	playCmd.Flags().StringVar(&flagPreset, "preset", "", "Handling preset: relaxed, standard, fast, custom")
	playCmd.Flags().BoolVar(&flagRecord, "record", false, "Write the recording to the replay directory on exit")
	playCmd.Flags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file while playing")
}

func runPlay(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagPreset != "" {
		p, err := config.ParsePreset(flagPreset)
		if err != nil {
			return err
		}
		config.ApplyPreset(&cfg, p)
	}

	if err := checkTerminal(); err != nil {
		return err
	}

	logger, closeLog, err := playLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	store := openStore(cfg, logger)
	if store != nil {
		defer store.Close()
	}

	opts := session.Options{
		Worker:          workerOptions(cfg, logger.WithPrefix("worker")),
		CheckpointEvery: cfg.Runtime.CheckpointEvery,
		CheckpointKeep:  cfg.Runtime.CheckpointKeep,
		Logger:          logger,
	}
	if store != nil {
		opts.Store = store
	}
	ctrl := session.New(opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctrl.Run(ctx)

	resumed := false
	if flagResume {
		cp, err := ctrl.RecoverLatest()
		switch {
		case errors.Is(err, session.ErrNoCheckpoint):
			fmt.Fprintln(os.Stderr, "No checkpoint to resume from, starting a new game.")
		case err != nil:
			ctrl.Close()
			return fmt.Errorf("resume: %w", err)
		default:
			resumed = true
			logger.Info("resuming", "tick", cp.Tick, "session", cp.SessionID)
		}
	}

	das, arr := cfg.Handling.Timings()
	settings := cfg.Visual.Settings()
	runErr := tui.Run(ctrl, tui.Options{
		Settings:  &settings,
		Seed:      flagSeed,
		Resume:    resumed,
		DAS:       das,
		ARR:       arr,
		FrameRate: 30,
	})
	ctrl.Close()

	if flagRecord {
		if err := saveRecording(ctrl, cfg.Storage.ReplayDir); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}
	if id := ctrl.ReplayID(); id != "" {
		fmt.Printf("Replay saved as %s\n", id)
	}
	return runErr
}

// checkTerminal rejects terminals too small for the board and side panel.
func checkTerminal() error {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return nil
	}
	needW, needH := tui.ScreenSize(rules.Rows, rules.Cols)
	needH += 2
	if w < needW || h < needH {
		return fmt.Errorf("terminal is %dx%d, blockfall needs at least %dx%d", w, h, needW, needH)
	}
	return nil
}

// playLogger logs to --log-file, or nowhere since the player owns the screen.
func playLogger() (*log.Logger, func(), error) {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	if flagLogFile == "" {
		return log.New(io.Discard), func() {}, nil
	}
	f, err := os.OpenFile(expandHome(flagLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := log.NewWithOptions(f, log.Options{ReportTimestamp: true, Level: level})
	return logger, func() { f.Close() }, nil
}

func saveRecording(ctrl *session.Controller, dir string) error {
	d, ok := ctrl.Recording()
	if !ok {
		return errors.New("nothing to record: the game was resumed or never started")
	}
	path := filepath.Join(expandHome(dir), ctrl.ID()+".yaml")
	if err := replay.Save(path, d); err != nil {
		return fmt.Errorf("save recording: %w", err)
	}
	fmt.Printf("Recording written to %s\n", path)
	return nil
}
