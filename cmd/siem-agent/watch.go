package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"

	"github.com/cairnwatch/siemguard/internal/event"
)

var (
	watchTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("62")).
				Padding(0, 1)
	watchInfoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	watchRowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
)

// Run opens a live-updating dashboard over the agent's spill buffer file,
// redrawing whenever fsnotify reports a write.
func (w *WatchCmd) Run() error {
	prog := tea.NewProgram(newWatchModel(w.BufferPath), tea.WithAltScreen())
	_, err := prog.Run()
	return err
}

type bufferChangedMsg struct{}

type watchModel struct {
	path       string
	watcher    *fsnotify.Watcher
	events     []event.SecurityEvent
	lastUpdate time.Time
	width      int
	height     int
	err        error
}

func newWatchModel(path string) *watchModel {
	return &watchModel{path: path}
}

func (m *watchModel) Init() tea.Cmd {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		m.err = err
		return nil
	}
	// Watching the containing directory tolerates the file not existing yet.
	if err := watcher.Add(watchDir(m.path)); err != nil {
		m.err = err
		watcher.Close()
		return nil
	}
	m.watcher = watcher
	return tea.Batch(m.reload(), m.watchFile())
}

func watchDir(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "."
	}
	return path[:idx]
}

func (m *watchModel) watchFile() tea.Cmd {
	return func() tea.Msg {
		if m.watcher == nil {
			return nil
		}
		for {
			select {
			case ev, ok := <-m.watcher.Events:
				if !ok {
					return nil
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					time.Sleep(150 * time.Millisecond)
					return bufferChangedMsg{}
				}
			case _, ok := <-m.watcher.Errors:
				if !ok {
					return nil
				}
			}
		}
	}
}

func (m *watchModel) reload() tea.Cmd {
	return func() tea.Msg {
		events, err := readTailEvents(m.path, 50)
		if err != nil {
			return nil
		}
		return events
	}
}

func (m *watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case bufferChangedMsg:
		m.lastUpdate = time.Now()
		return m, tea.Batch(m.reload(), m.watchFile())
	case []event.SecurityEvent:
		m.events = msg
	}
	return m, nil
}

func (m *watchModel) View() string {
	title := watchTitleStyle.Render(fmt.Sprintf(" siem-agent watch: %s ", m.path))
	if m.err != nil {
		return title + "\n\n" + fmt.Sprintf("error: %v\n", m.err)
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n\n")
	if len(m.events) == 0 {
		b.WriteString(watchInfoStyle.Render("(buffer empty)"))
	} else {
		for _, e := range m.events {
			b.WriteString(watchRowStyle.Render(fmt.Sprintf("%-20s %-10s %-8s %-12s %s", e.Timestamp, e.Source, e.Severity, e.User, truncate(e.RawLog, 60))))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(watchInfoStyle.Render(fmt.Sprintf("last update: %s  │  q: quit", formatLastUpdate(m.lastUpdate))))
	return b.String()
}

func formatLastUpdate(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format("15:04:05")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// readTailEvents reads up to the last n JSON-line events from a spill
// buffer file, tolerating lines that fail to parse.
func readTailEvents(path string, n int) ([]event.SecurityEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	var out []event.SecurityEvent
	for _, line := range lines {
		if line == "" {
			continue
		}
		e, err := event.FromJSON(line)
		if err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
