// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Dan Bogdan

package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dlbogdan/otgwctl/pkg/logger"
	"github.com/dlbogdan/otgwctl/pkg/opentherm"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Interactive TUI for monitoring and controlling the boiler",
	Long: `Live dashboard for the OpenTherm Gateway session.

Shows gateway and boiler connectivity, the takeover state, and the key
telemetry values, refreshed twice a second.

Keys:
  t       take control from the thermostat
  r       relinquish control
  s       focus the setpoint input; enter applies it (requires takeover)
  esc     leave the setpoint input
  q       quit

Supports both serial and WebSocket connections.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// Log entry shown in the events panel
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

type statusModel struct {
	mgr      *opentherm.Manager
	connInfo string

	setpointInput textinput.Model
	inputFocused  bool

	eventLog      []eventLogEntry
	maxLogEntries int

	// Dispatch codes whose settled state has not been reported yet.
	awaiting map[string]bool

	width    int
	height   int
	quitting bool
}

type statusTickMsg time.Time

func initialStatusModel(mgr *opentherm.Manager, connInfo string) statusModel {
	ti := textinput.New()
	ti.Placeholder = "45.0"
	ti.CharLimit = 6
	ti.Width = 8

	return statusModel{
		mgr:           mgr,
		connInfo:      connInfo,
		setpointInput: ti,
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 100,
		awaiting:      make(map[string]bool),
		width:         80,
		height:        24,
	}
}

func (m statusModel) Init() tea.Cmd {
	return tea.Batch(
		statusTickCmd(),
		tea.EnterAltScreen,
	)
}

func statusTickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return statusTickMsg(t)
	})
}

func (m statusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case statusTickMsg:
		m.collectOutcomes()
		return m, statusTickCmd()
	}

	return m, nil
}

func (m statusModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.inputFocused {
		switch msg.String() {
		case "esc":
			m.inputFocused = false
			m.setpointInput.Blur()
			return m, nil
		case "enter":
			m.applySetpoint()
			m.inputFocused = false
			m.setpointInput.Blur()
			return m, nil
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.setpointInput, cmd = m.setpointInput.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "t":
		m.dispatch("TCtrl", "takeover requested", m.mgr.TakeControl)
	case "r":
		m.dispatch("CS0", "relinquish requested", m.mgr.RelinquishControl)
	case "s":
		m.inputFocused = true
		m.setpointInput.Focus()
	}
	return m, nil
}

// dispatch launches a managed command and remembers to report its outcome.
func (m *statusModel) dispatch(code, note string, launch func() bool) {
	if !launch() {
		m.addLogEntry(fmt.Sprintf("%s rejected: already pending", code), true)
		return
	}
	m.awaiting[code] = true
	m.addLogEntry(note, false)
}

func (m *statusModel) applySetpoint() {
	raw := strings.TrimSpace(m.setpointInput.Value())
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		m.addLogEntry(fmt.Sprintf("invalid setpoint %q", raw), true)
		return
	}
	m.dispatch("CS", fmt.Sprintf("setpoint %.2f requested", v), func() bool {
		return m.mgr.SetControlSetpoint(v)
	})
}

// collectOutcomes reports commands that settled since the last tick.
func (m *statusModel) collectOutcomes() {
	for code := range m.awaiting {
		st, ok := m.mgr.CommandStatus(code)
		if !ok || st.Status == opentherm.StatusPending {
			continue
		}
		delete(m.awaiting, code)
		if st.Status == opentherm.StatusSuccess {
			m.addLogEntry(fmt.Sprintf("%s succeeded: %s", code, st.Result), false)
		} else {
			m.addLogEntry(fmt.Sprintf("%s failed: %s (%s)", code, st.Status, st.ErrorCode), true)
		}
	}
}

func (m *statusModel) addLogEntry(message string, isError bool) {
	m.eventLog = append(m.eventLog, eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

func (m statusModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	ctrl := m.mgr.Controller()

	var s strings.Builder
	s.WriteString(titleStyle.Render("OTGWCTL - BOILER STATUS"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf(
		"%s | t: takeover  r: relinquish  s: setpoint  q: quit", m.connInfo)))
	s.WriteString("\n\n")

	// Connectivity panel
	connContent := strings.Builder{}
	if version, ok := ctrl.GatewayVersion(); ok {
		connContent.WriteString(fmt.Sprintf("%s %s   ",
			labelStyle.Render("Gateway:"), valueStyle.Render(version)))
	} else {
		connContent.WriteString(fmt.Sprintf("%s %s   ",
			labelStyle.Render("Gateway:"), warningStyle.Render("version unknown")))
	}
	if connected, ok := ctrl.ThermostatConnected(); !ok {
		connContent.WriteString(fmt.Sprintf("%s %s   ",
			labelStyle.Render("Thermostat:"), headerStyle.Render("unknown")))
	} else if connected {
		connContent.WriteString(fmt.Sprintf("%s %s   ",
			labelStyle.Render("Thermostat:"), valueStyle.Render("connected")))
	} else {
		connContent.WriteString(fmt.Sprintf("%s %s   ",
			labelStyle.Render("Thermostat:"), errorStyle.Render("disconnected")))
	}
	if ctrl.IsBoilerConnected() {
		connContent.WriteString(fmt.Sprintf("%s %s",
			labelStyle.Render("Boiler:"), valueStyle.Render("alive")))
	} else {
		connContent.WriteString(fmt.Sprintf("%s %s",
			labelStyle.Render("Boiler:"), errorStyle.Render("silent")))
	}
	connContent.WriteString("\n")

	if ctrl.IsActive() {
		connContent.WriteString(fmt.Sprintf("%s %s",
			labelStyle.Render("Control:"), warningStyle.Render("TAKEN OVER")))
		if !ctrl.LastKeepAlive().IsZero() {
			connContent.WriteString(headerStyle.Render(fmt.Sprintf(
				"  (keep-alive %s ago)", time.Since(ctrl.LastKeepAlive()).Round(time.Second))))
		}
	} else {
		connContent.WriteString(fmt.Sprintf("%s %s",
			labelStyle.Render("Control:"), valueStyle.Render("thermostat")))
	}
	if ctrl.IsFaultPresent() {
		connContent.WriteString("   ")
		connContent.WriteString(errorStyle.Render("BOILER FAULT"))
		if code, ok := ctrl.OEMFaultCode(); ok {
			connContent.WriteString(errorStyle.Render(fmt.Sprintf(" (OEM %d)", code)))
		}
	}
	s.WriteString(boxStyle.Render(connContent.String()))
	s.WriteString("\n\n")

	// Telemetry panel
	teleContent := strings.Builder{}
	writeTemp := func(label string, get func() (float64, bool), unit string) {
		if v, ok := get(); ok {
			teleContent.WriteString(fmt.Sprintf("%s %s\n",
				labelStyle.Render(label), valueStyle.Render(fmt.Sprintf("%.2f%s", v, unit))))
		}
	}
	writeTemp("Boiler water:", ctrl.BoilerWaterTemperature, "°C")
	writeTemp("Return water:", ctrl.ReturnWaterTemperature, "°C")
	writeTemp("Room temp:   ", ctrl.RoomTemperature, "°C")
	writeTemp("Room setp:   ", ctrl.RoomSetpoint, "°C")
	writeTemp("Control setp:", ctrl.ControlSetpoint, "°C")
	writeTemp("DHW temp:    ", ctrl.DHWTemperature, "°C")
	writeTemp("Outside:     ", ctrl.OutsideTemperature, "°C")
	writeTemp("Modulation:  ", ctrl.RelativeModulation, "%")
	writeTemp("CH pressure: ", ctrl.CHWaterPressure, " bar")

	flameLine := strings.Builder{}
	writeFlag := func(label string, on bool) {
		flameLine.WriteString(labelStyle.Render(label))
		flameLine.WriteString(" ")
		if on {
			flameLine.WriteString(valueStyle.Render("on"))
		} else {
			flameLine.WriteString(headerStyle.Render("off"))
		}
		flameLine.WriteString("   ")
	}
	writeFlag("Flame:", ctrl.IsFlameOn())
	writeFlag("CH:", ctrl.IsCHEnabled())
	writeFlag("DHW:", ctrl.IsDHWEnabled())
	teleContent.WriteString(flameLine.String())
	teleContent.WriteString("\n")

	s.WriteString(boxStyle.Render(teleContent.String()))
	s.WriteString("\n\n")

	// Setpoint input
	if m.inputFocused {
		s.WriteString(labelStyle.Render("New control setpoint:"))
		s.WriteString(" ")
		s.WriteString(m.setpointInput.View())
		s.WriteString(headerStyle.Render("  (enter to apply, esc to cancel)"))
		s.WriteString("\n\n")
	}

	// Event log
	s.WriteString(labelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	logHeight := m.height - 20
	if logHeight < 4 {
		logHeight = 4
	}
	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	logContent := strings.Builder{}
	if len(m.eventLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			stamp := entry.timestamp.Format("15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(stamp), errorStyle.Render("✗ "+entry.message)))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(stamp), warningStyle.Render("ℹ "+entry.message)))
			}
		}
	}
	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))

	return s.String()
}

func runStatus(cmd *cobra.Command, args []string) error {
	// The TUI owns the terminal; keep the engine quiet.
	log := logger.NewNop()

	ctx := context.Background()
	mgr, connInfo, stop, err := startEngine(ctx, log)
	if err != nil {
		return err
	}
	defer stop()

	p := tea.NewProgram(initialStatusModel(mgr, connInfo), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}
