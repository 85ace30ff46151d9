package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/blockfall/internal/platform/tui"
	"github.com/vovakirdan/blockfall/internal/storage"
)

var (
	flagList  bool
	flagClear bool
	flagLimit int
)

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Browse high scores and saved replays",
	Long: `Show the scoreboard. In a terminal this opens an interactive view
with high scores and saved replays; pick a replay with Enter to watch it.
With --list, or when stdout is not a terminal, scores are printed.

Examples:
  blockfall scores
  blockfall scores --list --limit 20
  blockfall scores --clear`,
	Args: cobra.NoArgs,
	RunE: runScores,
}

func init() {
	scoresCmd.Flags().BoolVar(&flagList, "list", false, "Print scores and replays instead of opening the scoreboard")
	scoresCmd.Flags().BoolVar(&flagClear, "clear", false, "Delete every saved score")
	scoresCmd.Flags().IntVar(&flagLimit, "limit", 10, "Rows to print with --list")
}

func runScores(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := storage.Open(cfg.Storage.DB)
	if err != nil {
		return fmt.Errorf("open scores database: %w", err)
	}
	defer store.Close()

	if flagClear {
		if err := store.ClearScores(); err != nil {
			return err
		}
		fmt.Println("Scores cleared.")
		return nil
	}

	fd := int(os.Stdout.Fd())
	if flagList || !term.IsTerminal(fd) {
		return printScores(store)
	}

	width, height := 80, 24
	if w, h, err := term.GetSize(fd); err == nil {
		width, height = w, h
	}
	id, err := tui.RunScoreboard(store, width, height)
	if err != nil || id == "" {
		return err
	}

	d, err := store.LoadReplay(id)
	if err != nil {
		return err
	}
	if d == nil {
		return fmt.Errorf("replay %s disappeared", id)
	}
	return watchReplay(d, "REPLAY "+id[:min(8, len(id))])
}

func printScores(store *storage.Store) error {
	scores, err := store.TopScores(flagLimit)
	if err != nil {
		return fmt.Errorf("retrieve scores: %w", err)
	}

	fmt.Println("High Scores")
	fmt.Println()
	if len(scores) == 0 {
		fmt.Println("No scores recorded yet.")
		fmt.Println()
		fmt.Println("Play 'blockfall play' to set the first high score!")
		return nil
	}

	fmt.Printf("  %-4s  %-10s  %-5s  %-5s  %-10s  %s\n", "Rank", "Score", "Lines", "Level", "Seed", "Date")
	fmt.Printf("  %-4s  %-10s  %-5s  %-5s  %-10s  %s\n", "----", "-----", "-----", "-----", "----", "----")
	for i, e := range scores {
		fmt.Printf("  %-4d  %-10d  %-5d  %-5d  %-10d  %s\n",
			i+1, e.Score, e.Lines, e.Level, e.Seed, e.CreatedAt.Format("2006-01-02 15:04"))
	}

	if stats, err := store.Stats(); err == nil {
		fmt.Println()
		fmt.Printf("Games: %d  Best: %d  Average: %.0f  Lines: %d\n",
			stats.GamesCount, stats.HighScore, stats.AvgScore, stats.TotalLines)
	}

	replays, err := store.RecentReplays(flagLimit)
	if err != nil {
		return fmt.Errorf("retrieve replays: %w", err)
	}
	if len(replays) == 0 {
		return nil
	}
	fmt.Println()
	fmt.Println("Recent Replays")
	fmt.Println()
	for _, r := range replays {
		fmt.Printf("  %s  score %-10d  seed %-10d  %s\n",
			r.ID, r.Score, r.Seed, r.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Println()
	fmt.Println("Run 'blockfall replay <id>' to watch one.")
	return nil
}
