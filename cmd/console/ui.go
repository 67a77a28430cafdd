package main

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/questline/internal/status"
	"github.com/jwebster45206/questline/pkg/gamemap"
)

const maxLogLines = 500

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	sub          *status.Subscriber
	atlas        *gamemap.Atlas
	logViewport  viewport.Model
	metaViewport viewport.Model
	ready        bool
	width        int
	height       int

	// Latest value per event key, feeding the meta panel.
	latest map[string]status.Event
	// Last rendered line per key, so an unchanged value does not
	// scroll the log.
	lastLine map[string]string
	logLines []string

	session    string
	eventCount int
	closed     bool
	copied     bool

	showQuitModal bool
}

type eventMsg struct {
	event status.Event
}

type streamClosedMsg struct{}

var (
	logPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	questStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	navStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	dialogStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	battleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(sub *status.Subscriber) ConsoleUI {
	logVp := viewport.New(50, 20)
	logVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		sub:          sub,
		atlas:        gamemap.Default(),
		logViewport:  logVp,
		metaViewport: metaVp,
		latest:       make(map[string]status.Event),
		lastLine:     make(map[string]string),
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return m.waitForEvent()
}

// waitForEvent blocks on the subscriber stream and hands the next
// event to Update.
func (m ConsoleUI) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.sub.Events()
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg{event: ev}
	}
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.logViewport, vpCmd = m.logViewport.Update(msg)
		return m, vpCmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		logWidth := int(float64(m.width)*0.7) - 4
		metaWidth := m.width - logWidth - 6

		m.logViewport.Width = logWidth - 2
		m.logViewport.Height = m.height - 5
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4

		m.ready = true
		m.writeLogContent()
		m.metaViewport.SetContent(m.writeMetadata())

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		default:
			switch msg.String() {
			case "q":
				m.showQuitModal = true
				return m, nil
			case "c":
				// Best effort; headless terminals have no clipboard.
				if err := clipboard.WriteAll(m.summaryText()); err == nil {
					m.copied = true
					m.metaViewport.SetContent(m.writeMetadata())
				}
				return m, nil
			}
		}

	case eventMsg:
		m.applyEvent(msg.event)
		return m, m.waitForEvent()

	case streamClosedMsg:
		m.closed = true
		m.logLines = append(m.logLines, errorStyle.Render("status stream closed"))
		m.writeLogContent()
		return m, nil
	}

	m.logViewport, vpCmd = m.logViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)
	return m, tea.Batch(vpCmd, mvCmd)
}

func (m *ConsoleUI) applyEvent(ev status.Event) {
	m.eventCount++
	m.session = ev.Session
	m.latest[ev.Key] = ev
	m.copied = false

	line := m.formatEvent(ev)
	if line != "" && line != m.lastLine[ev.Key] {
		m.lastLine[ev.Key] = line
		stamp := promptStyle.Render(ev.At.Local().Format("15:04:05") + " ")
		m.logLines = append(m.logLines, stamp+line)
		if len(m.logLines) > maxLogLines {
			m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
		}
	}

	m.writeLogContent()
	m.metaViewport.SetContent(m.writeMetadata())
}

// formatEvent renders one event as a log line. Unchanged values return
// the same string and are skipped by the caller.
func (m *ConsoleUI) formatEvent(ev status.Event) string {
	switch ev.Key {
	case status.KeyLocation:
		v, ok := ev.Value.(map[string]any)
		if !ok {
			return ""
		}
		name := m.atlas.Name(gamemap.ID(num(v, "map")))
		return fmt.Sprintf("%s (%d,%d) facing %s", name, num(v, "x"), num(v, "y"), str(v, "facing"))
	case status.KeyActiveQuest:
		quest, _ := ev.Value.(string)
		if quest == "" {
			return questStyle.Render("all quests complete")
		}
		return questStyle.Render("quest: " + quest)
	case status.KeyNavStatus:
		s, _ := ev.Value.(string)
		return navStyle.Render("nav " + s)
	case status.KeyPathProgress:
		v, ok := ev.Value.(map[string]any)
		if !ok {
			return ""
		}
		return navStyle.Render(fmt.Sprintf("target %d/%d, %d steps left (%s)",
			num(v, "index")+1, num(v, "total"), num(v, "steps_left"), str(v, "status")))
	case status.KeyStall:
		v, ok := ev.Value.(map[string]any)
		if !ok {
			return ""
		}
		return errorStyle.Render(fmt.Sprintf("stalled at target (%d,%d) after %d attempts, skipping",
			num(v, "target_x"), num(v, "target_y"), num(v, "attempts")))
	case status.KeyBattle:
		s, _ := ev.Value.(string)
		return battleStyle.Render("battle: " + s)
	case status.KeyDialog:
		s, _ := ev.Value.(string)
		wrapped := wordwrap.String(s, max(m.logViewport.Width-16, 20))
		return dialogStyle.Render("“" + strings.ReplaceAll(wrapped, "\n", " ") + "”")
	default:
		return fmt.Sprintf("%s: %v", ev.Key, ev.Value)
	}
}

func (m *ConsoleUI) writeLogContent() {
	logWidth := m.logViewport.Width - 6

	var content strings.Builder
	content.WriteString(titleStyle.Render("QUESTLINE") + "\n\n")
	content.WriteString("Live session feed.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(logWidth-6, 10))) + "\n\n")

	if len(m.logLines) == 0 {
		content.WriteString(promptStyle.Render("Listening on " + status.Channel + "...") + "\n")
	} else {
		content.WriteString(strings.Join(m.logLines, "\n"))
	}

	m.logViewport.SetContent(content.String())
	m.logViewport.GotoBottom()
}

func (m *ConsoleUI) writeMetadata() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("SESSION") + "\n\n")

	if m.session != "" {
		content.WriteString("Session:\n")
		content.WriteString(shortID(m.session) + "\n\n")
	}

	if ev, ok := m.latest[status.KeyLocation]; ok {
		if v, ok := ev.Value.(map[string]any); ok {
			content.WriteString("Location:\n")
			content.WriteString(m.atlas.Name(gamemap.ID(num(v, "map"))) + "\n")
			content.WriteString(fmt.Sprintf("(%d,%d) %s\n\n", num(v, "x"), num(v, "y"), str(v, "facing")))
		}
	}

	content.WriteString("Quest:\n")
	if ev, ok := m.latest[status.KeyActiveQuest]; ok {
		if quest, _ := ev.Value.(string); quest != "" {
			content.WriteString(quest + "\n\n")
		} else {
			content.WriteString("all complete\n\n")
		}
	} else {
		content.WriteString("unknown\n\n")
	}

	if ev, ok := m.latest[status.KeyPathProgress]; ok {
		if v, ok := ev.Value.(map[string]any); ok {
			content.WriteString("Route:\n")
			content.WriteString(fmt.Sprintf("target %d/%d (%s)\n", num(v, "index")+1, num(v, "total"), str(v, "status")))
			content.WriteString(fmt.Sprintf("%d steps left\n\n", num(v, "steps_left")))
		}
	}

	if ev, ok := m.latest[status.KeyBattle]; ok {
		if s, _ := ev.Value.(string); s != "" {
			content.WriteString("Battle:\n")
			content.WriteString(battleStyle.Render(s) + "\n\n")
		}
	}

	content.WriteString("Events:\n")
	content.WriteString(fmt.Sprintf("%d received\n\n", m.eventCount))

	if m.closed {
		content.WriteString(errorStyle.Render("stream closed") + "\n\n")
	}
	if m.copied {
		content.WriteString(navStyle.Render("summary copied") + "\n\n")
	}

	content.WriteString("Commands:\n")
	content.WriteString("• q: Quit\n")
	content.WriteString("• c: Copy summary\n")
	content.WriteString("• Wheel: Scroll log\n")

	return content.String()
}

// summaryText is the plain-text session summary placed on the
// clipboard.
func (m *ConsoleUI) summaryText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "session %s\n", m.session)
	if ev, ok := m.latest[status.KeyLocation]; ok {
		if v, ok := ev.Value.(map[string]any); ok {
			fmt.Fprintf(&b, "location: %s (%d,%d)\n",
				m.atlas.Name(gamemap.ID(num(v, "map"))), num(v, "x"), num(v, "y"))
		}
	}
	if ev, ok := m.latest[status.KeyActiveQuest]; ok {
		fmt.Fprintf(&b, "quest: %v\n", ev.Value)
	}
	if ev, ok := m.latest[status.KeyNavStatus]; ok {
		fmt.Fprintf(&b, "nav: %v\n", ev.Value)
	}
	fmt.Fprintf(&b, "events: %d\n", m.eventCount)
	return b.String()
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				return m, nil
			}
		}

	case eventMsg:
		// Keep draining while the modal is up.
		m.applyEvent(msg.event)
		return m, m.waitForEvent()
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Console?"))
	content.WriteString("\n\n")
	content.WriteString("The agent keeps running; this only closes the viewer.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to keep watching"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	logWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - logWidth - 6

	logPanel := logPanelStyle.Width(logWidth).Height(m.height - 2).Render(
		m.logViewport.View(),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, logPanel, metaPanel)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8] + "..."
	}
	return id
}

// num reads an integer field out of a decoded JSON object.
func num(m map[string]any, key string) int {
	if f, ok := m[key].(float64); ok {
		return int(f)
	}
	return 0
}

func str(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}
