package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/blockfall/internal/core"
	"github.com/vovakirdan/blockfall/internal/engine"
	"github.com/vovakirdan/blockfall/internal/rules"
	"github.com/vovakirdan/blockfall/internal/worker"
)

// Controller is the engine side as seen by the player. *session.Controller
// implements it; ReplaySource adapts recorded playback to it.
type Controller interface {
	Messages() <-chan worker.Message
	StartGame(seed uint32, settings *engine.Settings)
	Input(a core.Action)
	SetTimings(das, arr int)
	Pause()
	Resume()
}

// Options configures a Model.
type Options struct {
	// Settings of every game. Nil means engine.DefaultSettings.
	Settings *engine.Settings

	// Seed of the first game. Zero picks one from the clock.
	Seed uint32

	// Resume skips the start command; the controller already holds a
	// recovered game.
	Resume bool

	// ReadOnly ignores game input and restart, for replays.
	ReadOnly bool

	// DAS and ARR are sent after every start. Zero DAS keeps the engine
	// defaults.
	DAS, ARR int

	Title     string
	FrameRate int
}

const bannerFrames = 45

// Model is the Bubble Tea model that renders engine snapshots and forwards
// key presses as actions.
type Model struct {
	ctrl     Controller
	opts     Options
	settings engine.Settings
	keys     KeyMap
	help     help.Model
	screen   *core.Screen
	effect   MultiplierEffect

	seed      uint32
	snap      *engine.Snapshot
	lastMult  int
	paused    bool
	banner    string
	bannerTTL int
	frame     int
	status    string
	fatal     bool
	quitting  bool
}

// NewModel creates a model bound to ctrl.
func NewModel(ctrl Controller, opts Options) Model {
	settings := engine.DefaultSettings()
	if opts.Settings != nil {
		settings = *opts.Settings
	}
	if opts.FrameRate < 1 {
		opts.FrameRate = 30
	}
	seed := opts.Seed
	if seed == 0 {
		seed = NewSeed()
	}

	w, h := ScreenSize(rules.Rows, rules.Cols)
	effect := NewEffect(settings.MultiplierEffect)
	effect.Init(BoardArea(rules.Rows, rules.Cols))

	return Model{
		ctrl:     ctrl,
		opts:     opts,
		settings: settings,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		screen:   core.NewScreen(w, h),
		effect:   effect,
		seed:     seed,
		lastMult: 1,
	}
}

// NewSeed returns a non-zero seed derived from the clock.
func NewSeed() uint32 {
	for {
		if s := uint32(time.Now().UnixNano()); s != 0 {
			return s
		}
	}
}

// Init starts the first game unless resuming, then begins listening.
func (m Model) Init() tea.Cmd {
	if !m.opts.Resume {
		m.start()
	}
	return tea.Batch(waitForMessage(m.ctrl.Messages()), frameCmd(m.opts.FrameRate))
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case snapshotMsg:
		m.handleSnapshot(msg.snap)
		return m, waitForMessage(m.ctrl.Messages())

	case logMsg:
		m.status = fmt.Sprintf("%s: %s", msg.Level, msg.Msg)
		return m, waitForMessage(m.ctrl.Messages())

	case fatalMsg:
		m.status = "fatal: " + msg.Error
		m.fatal = true
		return m, waitForMessage(m.ctrl.Messages())

	case closedMsg:
		m.quitting = true
		m.effect.Destroy()
		return m, tea.Quit

	case FrameMsg:
		m.frame++
		if m.bannerTTL > 0 {
			m.bannerTTL--
			if m.bannerTTL == 0 {
				m.banner = ""
			}
		}
		return m, frameCmd(m.opts.FrameRate)
	}

	return m, nil
}

func (m Model) start() {
	settings := m.settings
	m.ctrl.StartGame(m.seed, &settings)
	if m.opts.DAS > 0 {
		m.ctrl.SetTimings(m.opts.DAS, m.opts.ARR)
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.effect.Destroy()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Pause):
		if m.snap != nil && m.snap.GameOver {
			return m, nil
		}
		if m.paused {
			m.ctrl.Resume()
		} else {
			m.ctrl.Pause()
		}
		m.paused = !m.paused
		return m, nil

	case key.Matches(msg, m.keys.Restart):
		if m.opts.ReadOnly || m.snap == nil || !m.snap.GameOver {
			return m, nil
		}
		m.seed = NewSeed()
		m.start()
		m.snap = nil
		m.lastMult = 1
		m.banner, m.bannerTTL = "", 0
		resetEffect(m.effect)
		return m, nil
	}

	if m.opts.ReadOnly || m.paused || m.fatal {
		return m, nil
	}
	if a := m.keys.Action(msg); a != core.ActionNone {
		m.ctrl.Input(a)
		if rel := a.Release(); rel != core.ActionNone {
			m.ctrl.Input(rel)
		}
	}
	return m, nil
}

func (m *Model) handleSnapshot(snap *engine.Snapshot) {
	if m.snap != nil {
		m.lastMult = m.snap.Multiplier
	}
	m.snap = snap
	m.fatal = false
	if !m.settings.LineClearText {
		return
	}
	for _, ev := range snap.Events {
		if ev.Type != engine.EventLineClear {
			continue
		}
		if d, ok := ev.Data.(engine.LineClearData); ok {
			if text := lineClearText(d.Count); text != "" {
				m.banner = text
				m.bannerTTL = bannerFrames
			}
		}
	}
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	drawSnapshot(m.screen, m.snap, view{
		settings:       m.settings,
		effect:         m.effect,
		lastMultiplier: m.lastMult,
		paused:         m.paused,
		banner:         m.banner,
		blink:          (m.frame/4)%2 == 0,
		title:          m.opts.Title,
	})

	var b strings.Builder
	b.WriteString(RenderScreen(m.screen))
	b.WriteString("\n")
	if m.status != "" {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
		if m.fatal {
			style = style.Foreground(lipgloss.Color("1"))
		}
		b.WriteString(style.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// Seed returns the seed of the current game.
func (m Model) Seed() uint32 { return m.seed }

// Run starts a Bubble Tea program bound to ctrl and blocks until it exits.
func Run(ctrl Controller, opts Options, progOpts ...tea.ProgramOption) error {
	model := NewModel(ctrl, opts)

	p := tea.NewProgram(model, append([]tea.ProgramOption{tea.WithAltScreen()}, progOpts...)...)
	_, err := p.Run()
	return err
}
