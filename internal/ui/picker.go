package ui

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/netclock/internal/discovery"
)

// ScanFunc finds display bridges. (*discovery.Scanner).ScanForDisplays fits.
type ScanFunc func(ctx context.Context) ([]*discovery.Display, error)

type scanCompleteMsg struct {
	displays []*discovery.Display
	err      error
}

// pickerKeyMap defines key bindings for the bridge picker
type pickerKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Rescan key.Binding
	Manual key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k pickerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Rescan, k.Manual, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k pickerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter},
		{k.Rescan, k.Manual, k.Quit},
	}
}

// displayItem wraps a Display for use with bubbles/list
type displayItem struct {
	display *discovery.Display
}

func (d displayItem) FilterValue() string {
	return d.display.Instance + " " + d.display.IP + " " + d.display.Hostname
}

func (d displayItem) Title() string { return d.display.Instance }

func (d displayItem) Description() string {
	auth := "open"
	if d.display.RequiresAuth() {
		auth = "token"
	}
	return fmt.Sprintf("%s:%d • %s", d.display.IP, d.display.Port, auth)
}

// displayDelegate renders one bridge per two lines.
type displayDelegate struct{}

func (displayDelegate) Height() int { return 2 }

func (displayDelegate) Spacing() int { return 1 }

func (displayDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (displayDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(displayItem)
	if !ok {
		return
	}
	title := "  " + it.Title()
	if index == m.Index() {
		title = SelectedItemStyle.Render("→ " + it.Title())
	}
	fmt.Fprint(w, title+"\n"+NoteStyle.Render("    "+it.Description()))
}

// PickerModel lets the user choose a display bridge found over mDNS, or
// type an address by hand.
type PickerModel struct {
	scan ScanFunc

	Scanning   bool
	ManualMode bool
	Err        error

	list     list.Model
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	keys     pickerKeyMap
	selected *discovery.Display
}

// NewPickerModel creates the picker.
func NewPickerModel(scan ScanFunc) PickerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	input := textinput.New()
	input.Placeholder = "192.168.4.16:8787"
	input.CharLimit = 64
	input.Width = 30

	l := list.New([]list.Item{}, displayDelegate{}, MinTerminalWidth, 12)
	l.Title = "Display bridges"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = TitleStyle

	return PickerModel{
		scan:     scan,
		Scanning: true,
		list:     l,
		input:    input,
		spinner:  s,
		help:     help.New(),
		keys: pickerKeyMap{
			Up: key.NewBinding(
				key.WithKeys("up", "k"),
				key.WithHelp("↑/k", "move up"),
			),
			Down: key.NewBinding(
				key.WithKeys("down", "j"),
				key.WithHelp("↓/j", "move down"),
			),
			Enter: key.NewBinding(
				key.WithKeys("enter"),
				key.WithHelp("enter", "connect"),
			),
			Rescan: key.NewBinding(
				key.WithKeys("r"),
				key.WithHelp("r", "rescan"),
			),
			Manual: key.NewBinding(
				key.WithKeys("m"),
				key.WithHelp("m", "enter address"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q", "ctrl+c"),
				key.WithHelp("q", "quit"),
			),
		},
	}
}

// Init starts the first scan.
func (m PickerModel) Init() tea.Cmd {
	return tea.Batch(m.startScan(), m.spinner.Tick)
}

func (m PickerModel) startScan() tea.Cmd {
	scan := m.scan
	return func() tea.Msg {
		displays, err := scan(context.Background())
		return scanCompleteMsg{displays: displays, err: err}
	}
}

// Update handles messages and updates the model
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.ManualMode {
			return m.updateManual(msg)
		}
		return m.updateList(msg)

	case tea.WindowSizeMsg:
		m.list.SetWidth(clampWidth(msg.Width) - 4)
		if msg.Height > 8 {
			m.list.SetHeight(msg.Height - 6)
		}

	case scanCompleteMsg:
		m.Scanning = false
		m.Err = msg.err
		items := make([]list.Item, len(msg.displays))
		for i, d := range msg.displays {
			items[i] = displayItem{display: d}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m PickerModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Enter):
		if item, ok := m.list.SelectedItem().(displayItem); ok {
			m.selected = item.display
			return m, tea.Quit
		}
		return m, nil

	case key.Matches(msg, m.keys.Rescan):
		if m.Scanning {
			return m, nil
		}
		m.Scanning = true
		m.Err = nil
		return m, tea.Batch(m.list.SetItems(nil), m.startScan(), m.spinner.Tick)

	case key.Matches(msg, m.keys.Manual):
		m.ManualMode = true
		m.input.SetValue("")
		return m, m.input.Focus()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m PickerModel) updateManual(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.ManualMode = false
		m.input.Blur()
		m.Err = nil
		return m, nil

	case "enter":
		d, err := manualDisplay(m.input.Value())
		if err != nil {
			m.Err = err
			return m, nil
		}
		m.selected = d
		m.ManualMode = false
		m.input.Blur()
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// manualDisplay builds a Display from "host:port".
func manualDisplay(addr string) (*discovery.Display, error) {
	host, portStr, err := net.SplitHostPort(strings.TrimSpace(addr))
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port %q", portStr)
	}
	return &discovery.Display{
		Instance:     "manual",
		Hostname:     host,
		IP:           host,
		Port:         port,
		DiscoveredAt: time.Now(),
	}, nil
}

// Selected returns the chosen bridge, or nil when the user quit.
func (m PickerModel) Selected() *discovery.Display {
	return m.selected
}

// View renders the picker
func (m PickerModel) View() string {
	var content string
	switch {
	case m.ManualMode:
		content = "Bridge address: " + m.input.View()
	case m.Scanning:
		content = m.spinner.View() + " Searching for display bridges..."
	case len(m.list.Items()) == 0:
		content = lipgloss.NewStyle().Foreground(WarningColor).Bold(true).Render("No display bridges found") +
			"\n\n" + TroubleshootingItemStyle.Render("  • Is `netclock run` advertising on this network?") +
			"\n" + TroubleshootingItemStyle.Render("  • Press m to enter an address")
	default:
		content = m.list.View()
	}

	if m.Err != nil {
		content += "\n\n" + ErrorMessageStyle.Render(FailureMarker+" "+m.Err.Error())
	}
	return content + "\n\n" + m.help.View(m.keys)
}
