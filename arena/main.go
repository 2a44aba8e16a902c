// Command arena is the playable terminal frontend: you hold the left half
// of the board, Albert holds the right, and space rotates your piece.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/brensch/handlords/config"
	"github.com/brensch/handlords/game"
	"github.com/brensch/handlords/rng"
	"github.com/brensch/handlords/sim"
)

var (
	humanStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	albertStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	wallStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	titleStyle  = lipgloss.NewStyle().Bold(true)
	wonStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	lostStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

type model struct {
	engine *sim.Engine
	last   time.Time
}

type TickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*33, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return tickCmd()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.handleKey(msg.String())
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case TickMsg:
		now := time.Time(msg)
		if !m.last.IsZero() {
			m.engine.Advance(now.Sub(m.last))
		}
		m.last = now
		return m, tickCmd()
	}
	return m, nil
}

func (m model) handleKey(key string) {
	e := m.engine
	switch key {
	case " ":
		switch e.State.Phase {
		case game.Ready:
			e.Start()
		case game.Playing:
			e.RotateHuman()
		default:
			e.Restart()
		}
	case "r":
		e.Restart()
	case "[":
		e.SetPairsPerTick(e.State.Cfg.PairsPerTick - 10)
	case "]":
		e.SetPairsPerTick(e.State.Cfg.PairsPerTick + 10)
	case "-":
		e.SetTicksPerSecond(e.State.Cfg.TicksPerSecond - 1)
	case "+", "=":
		e.SetTicksPerSecond(e.State.Cfg.TicksPerSecond + 1)
	case "a":
		e.SetRotationAverage(e.State.Albert.RotationAverage - 5)
	case "A":
		e.SetRotationAverage(e.State.Albert.RotationAverage + 5)
	case "h":
		e.SetRotationHalfInterval(e.State.Albert.RotationHalfInterval - 5)
	case "H":
		e.SetRotationHalfInterval(e.State.Albert.RotationHalfInterval + 5)
	case "f":
		e.ForceAlbertRotation()
	case "t":
		e.ResetAlbertTimer()
	case "d":
		e.ResetGameConfig()
		e.ResetAlbertConfig()
	}
}

func (m model) View() string {
	snap := m.engine.Snapshot()

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("HANDLORDS"))
	sb.WriteString(dimStyle.Render(fmt.Sprintf("  tick %d  %s", snap.Tick, snap.Phase)))
	sb.WriteString("\n\n")

	for _, row := range snap.Grid {
		for _, ch := range row {
			switch {
			case ch == '#':
				sb.WriteString(wallStyle.Render("#"))
			case ch == '.':
				sb.WriteString(" ")
			case ch >= 'a':
				sb.WriteString(albertStyle.Render(string(ch)))
			default:
				sb.WriteString(humanStyle.Render(string(ch)))
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	for _, p := range snap.Players {
		style, name := humanStyle, "you   "
		if p.ID != 0 {
			style, name = albertStyle, "albert"
		}
		sb.WriteString(style.Render(fmt.Sprintf("%s %-8s", name, p.Piece)))
		sb.WriteString(dimStyle.Render(fmt.Sprintf(" cells %3d  losses %2d   ", p.Cells, p.TickLosses)))
	}
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render(fmt.Sprintf(
		"pairs/tick %d  tps %d  albert avg %d half %d  battles %d/%d attempts",
		m.engine.State.Cfg.PairsPerTick, m.engine.State.Cfg.TicksPerSecond,
		m.engine.State.Albert.RotationAverage, m.engine.State.Albert.RotationHalfInterval,
		snap.Battles, snap.Attempts)))
	sb.WriteString("\n\n")

	switch m.engine.State.Phase {
	case game.Ready:
		sb.WriteString("press space to start\n")
	case game.Won:
		sb.WriteString(wonStyle.Render("YOU CONQUERED THE BOARD") + "  space to play again\n")
	case game.Lost:
		sb.WriteString(lostStyle.Render("ALBERT TOOK EVERYTHING") + "  space to play again\n")
	default:
		sb.WriteString(dimStyle.Render("space rotate  r restart  [/] pairs  -/+ speed  a/A h/H albert  f force rot  t reset timer  d defaults  q quit") + "\n")
	}
	return sb.String()
}

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	configPath := fs.String("config", "", "Optional YAML run config")
	rngKind := fs.String("rng", "", "Override rng kind: lfsr or system")
	seed := fs.Uint("seed", 0, "Override LFSR seed (0 keeps the default)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	run := config.Default()
	if *configPath != "" {
		var err error
		run, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
	}
	if *rngKind != "" {
		run.RngKind = rng.Kind(*rngKind)
	}
	if *seed != 0 {
		run.Seed = uint16(*seed)
	}

	engine, err := run.NewEngine()
	if err != nil {
		log.Fatalf("build engine: %v", err)
	}

	p := tea.NewProgram(model{engine: engine}, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}
}
