package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/netclock/internal/bus"
	"github.com/muurk/netclock/internal/display"
	"github.com/muurk/netclock/internal/dpp"
	"github.com/muurk/netclock/internal/netmgr"
)

// Source delivers frames from the bridge. *display.Client implements it.
type Source interface {
	Next() (display.Frame, error)
}

// Sender forwards commands to the bridge. *display.Client implements it.
type Sender interface {
	SendCommand(cmd bus.Command) error
}

type frameMsg struct{ frame display.Frame }

type disconnectedMsg struct{ err error }

type tickMsg time.Time

type sentMsg struct {
	cmd bus.Command
	err error
}

// clockKeyMap defines key bindings for the clock screen
type clockKeyMap struct {
	InitWifi key.Binding
	SyncTime key.Binding
	Help     key.Binding
	Quit     key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k clockKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.InitWifi, k.SyncTime, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k clockKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.InitWifi, k.SyncTime},
		{k.Help, k.Quit},
	}
}

// ClockModel is the display client: clock face, network status and the
// provisioning QR payload while one is on screen.
type ClockModel struct {
	source   Source
	sender   Sender
	location *time.Location

	now     time.Time
	status  *netmgr.Status
	qr      string
	qrInfo  *dpp.URI
	notice  string
	lastErr string
	err     error

	Width    int
	Height   int
	spinner  spinner.Model
	retryBar progress.Model
	help     help.Model
	keys     clockKeyMap
}

// NewClockModel creates the display model. sender may be nil for a
// read-only display.
func NewClockModel(source Source, sender Sender, loc *time.Location) ClockModel {
	if loc == nil {
		loc = time.Local
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = 30

	width, height := GetTerminalSize()
	return ClockModel{
		source:   source,
		sender:   sender,
		location: loc,
		now:      time.Now(),
		Width:    width,
		Height:   height,
		spinner:  s,
		retryBar: bar,
		help:     help.New(),
		keys: clockKeyMap{
			InitWifi: key.NewBinding(
				key.WithKeys("w"),
				key.WithHelp("w", "re-provision wifi"),
			),
			SyncTime: key.NewBinding(
				key.WithKeys("s"),
				key.WithHelp("s", "sync time"),
			),
			Help: key.NewBinding(
				key.WithKeys("?"),
				key.WithHelp("?", "help"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q", "ctrl+c", "esc"),
				key.WithHelp("q", "quit"),
			),
		},
	}
}

// Init starts the frame reader, the clock tick and the spinner.
func (m ClockModel) Init() tea.Cmd {
	return tea.Batch(waitForFrame(m.source), tick(), m.spinner.Tick)
}

func waitForFrame(src Source) tea.Cmd {
	return func() tea.Msg {
		f, err := src.Next()
		if err != nil {
			return disconnectedMsg{err: err}
		}
		return frameMsg{frame: f}
	}
}

func tick() tea.Cmd {
	return tea.Every(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m ClockModel) send(cmd bus.Command) tea.Cmd {
	sender := m.sender
	return func() tea.Msg {
		return sentMsg{cmd: cmd, err: sender.SendCommand(cmd)}
	}
}

// Update handles messages and updates the model
func (m ClockModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.InitWifi):
			return m.command(bus.CommandInitWifi)
		case key.Matches(msg, m.keys.SyncTime):
			return m.command(bus.CommandSyncTime)
		}

	case tea.WindowSizeMsg:
		m.Width = clampWidth(msg.Width)
		m.Height = msg.Height

	case frameMsg:
		m.apply(msg.frame)
		return m, waitForFrame(m.source)

	case disconnectedMsg:
		m.err = msg.err

	case tickMsg:
		m.now = time.Time(msg)
		return m, tick()

	case sentMsg:
		if msg.err != nil {
			m.notice = ""
			m.lastErr = msg.err.Error()
		} else {
			m.notice = "sent " + msg.cmd.String()
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m ClockModel) command(cmd bus.Command) (tea.Model, tea.Cmd) {
	if m.sender == nil || m.err != nil {
		m.lastErr = "not connected, " + cmd.String() + " not sent"
		return m, nil
	}
	m.lastErr = ""
	return m, m.send(cmd)
}

func (m *ClockModel) apply(f display.Frame) {
	switch f.Type {
	case display.FrameShowQR:
		m.qr = f.URI
		m.qrInfo = nil
		if u, err := dpp.ParseURI(f.URI); err == nil {
			m.qrInfo = u
		}
	case display.FrameHideQR:
		m.qr = ""
		m.qrInfo = nil
	case display.FrameStatus:
		if f.Status != nil {
			s := *f.Status
			m.status = &s
		}
		if f.Time != nil {
			m.now = *f.Time
		}
	case display.FrameError:
		m.lastErr = f.Error
	}
}

// QR returns the provisioning URI on screen, or "".
func (m ClockModel) QR() string {
	return m.qr
}

// Status returns the last status received, or nil.
func (m ClockModel) Status() *netmgr.Status {
	return m.status
}

// Err returns the connection error once the bridge has gone away.
func (m ClockModel) Err() error {
	return m.err
}

// View renders the clock screen
func (m ClockModel) View() string {
	width := m.Width
	if width == 0 {
		width = MinTerminalWidth
	}

	sections := []string{
		TitleStyle.Render("NETCLOCK"),
		m.renderClock(),
		RenderHorizontalDivider(width-2, "─"),
		m.renderStatus(),
	}
	if m.qr != "" {
		sections = append(sections, m.renderQR(width))
	}
	if m.err != nil {
		sections = append(sections, ErrorMessageStyle.Render(FailureMarker+" disconnected: "+m.err.Error()))
	} else if m.lastErr != "" {
		sections = append(sections, ErrorMessageStyle.Render(FailureMarker+" "+m.lastErr))
	} else if m.notice != "" {
		sections = append(sections, NoteStyle.Render(SuccessMarker+" "+m.notice))
	}
	sections = append(sections, m.help.View(m.keys))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m ClockModel) renderClock() string {
	local := m.now.In(m.location)
	clock := ClockStyle.Render(local.Format("15:04:05"))
	date := DateStyle.Render(local.Format("Monday 2 January 2006") + " " + local.Format("MST"))
	return lipgloss.JoinVertical(lipgloss.Left, clock, date)
}

func (m ClockModel) renderStatus() string {
	if m.status == nil {
		return m.spinner.View() + " " + NoteStyle.Render("waiting for status")
	}
	s := m.status

	state := s.State
	if state == "" {
		state = netmgr.StateIdle
	}
	stateLine := StateStyle(state).Render(strings.ToUpper(string(state)))
	switch state {
	case netmgr.StateStarting, netmgr.StateConnecting, netmgr.StateRetrying, netmgr.StateProvisioning:
		stateLine = m.spinner.View() + " " + stateLine
	}

	radio := "off"
	if s.RadioOn {
		radio = RadioMarker + " on"
	}

	lines := []string{
		row("State", stateLine),
		row("Radio", radio),
	}
	if s.SSID != "" {
		lines = append(lines, row("Network", s.SSID))
	}
	if s.RetryCount > 0 && s.MaxRetries > 0 {
		pct := float64(s.RetryCount) / float64(s.MaxRetries)
		lines = append(lines, row("Retries",
			m.retryBar.ViewAs(pct)+fmt.Sprintf(" %d/%d", s.RetryCount, s.MaxRetries)))
	}
	if s.LastOutcome != "" {
		lines = append(lines, row("Outcome", s.LastOutcome))
	}
	lines = append(lines, row("Last sync", m.formatTime(s.LastSync)))
	if !s.NextSync.IsZero() {
		lines = append(lines, row("Next sync", m.formatTime(s.NextSync)))
	}
	return strings.Join(lines, "\n")
}

func (m ClockModel) renderQR(width int) string {
	lines := []string{
		lipgloss.NewStyle().Foreground(WarningColor).Bold(true).Render("Scan with a DPP configurator"),
		"",
		ValueStyle.Render(m.qr),
	}
	if u := m.qrInfo; u != nil {
		if u.Info != "" {
			lines = append(lines, "", row("Device", u.Info))
		}
		if len(u.Channels) > 0 {
			channels := make([]string, len(u.Channels))
			for i, c := range u.Channels {
				channels[i] = c.String()
			}
			lines = append(lines, row("Channels", strings.Join(channels, ",")))
		}
	}
	return BoxStyle(width, WarningColor).Render(strings.Join(lines, "\n"))
}

func (m ClockModel) formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.In(m.location).Format("2006-01-02 15:04:05")
}

func row(k, v string) string {
	return KeyStyle.Render(k+":") + " " + ValueStyle.Render(v)
}
