// Package tui is the terminal consumer of the engine: it renders snapshots
// with Bubble Tea and turns key presses into actions. It is served locally
// or over SSH.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/blockfall/internal/engine"
	"github.com/vovakirdan/blockfall/internal/worker"
)

// FrameMsg drives effect animation independently of the simulation.
type FrameMsg time.Time

// frameCmd returns a Bubble Tea command that sends one frame message after
// one period at the given rate.
func frameCmd(rate int) tea.Cmd {
	if rate < 1 {
		rate = 30
	}
	interval := time.Second / time.Duration(rate)
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return FrameMsg(t)
	})
}

type snapshotMsg struct{ snap *engine.Snapshot }

type logMsg worker.LogPayload

type fatalMsg worker.FatalPayload

type closedMsg struct{}

// waitForMessage reads the next worker message.
func waitForMessage(ch <-chan worker.Message) tea.Cmd {
	return func() tea.Msg {
		for m := range ch {
			switch p := m.Payload.(type) {
			case *engine.Snapshot:
				return snapshotMsg{snap: p}
			case worker.LogPayload:
				return logMsg(p)
			case worker.FatalPayload:
				return fatalMsg(p)
			}
		}
		return closedMsg{}
	}
}
