package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/soundbenchlab/tracktape/internal/audio"
	"github.com/soundbenchlab/tracktape/internal/mix"
	"github.com/soundbenchlab/tracktape/internal/service"
)

// viewState represents the current panel screen
type viewState int

const (
	stateDeviceSelect viewState = iota
	stateControls
	stateRecording
)

// controlFocus identifies the form field that receives adjustments
type controlFocus int

const (
	focusStream controlFocus = iota
	focusChannels
	focusMode
	focusRouting
	focusFileName
	focusDestination
	focusCount
)

// deviceItem wraps a capture device for the list component
type deviceItem struct {
	device audio.Device
}

func (i deviceItem) Title() string {
	return i.device.Label()
}

func (i deviceItem) Description() string {
	return fmt.Sprintf("%d channels (inferred)", audio.InferChannelCount(i.device.Name))
}

func (i deviceItem) FilterValue() string {
	return i.device.Name
}

// Messages produced by the recording commands and the refresh tick
type recordingStartedMsg struct {
	line string
	err  error
}

type recordingStoppedMsg struct {
	line string
	err  error
}

type tickMsg time.Time

// UI-related key mappings
type keyMap struct {
	Tab      key.Binding
	ShiftTab key.Binding
	Left     key.Binding
	Right    key.Binding
	Enter    key.Binding
	Record   key.Binding
	Stop     key.Binding
	Devices  key.Binding
	Copy     key.Binding
	Back     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next field"),
	),
	ShiftTab: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "previous field"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "previous value"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "next value"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Record: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "record"),
	),
	Stop: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "stop"),
	),
	Devices: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "devices"),
	),
	Copy: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy output path"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "q"),
		key.WithHelp("ctrl+c/q", "quit"),
	),
}

// Model is the panel state
type Model struct {
	session service.Service

	state    viewState
	list     list.Model
	focus    controlFocus
	snapshot service.Snapshot

	channelsInput textinput.Model
	nameInput     textinput.Model
	destInput     textinput.Model

	status     string
	errorText  string
	lastOutput string
	elapsed    time.Duration

	width  int
	height int
}

// New builds the panel model over an initialized session
func New(session service.Service) Model {
	devices := session.Devices()
	items := make([]list.Item, len(devices))
	for i, device := range devices {
		items[i] = deviceItem{device: device}
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Select Audio Capture Device"
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(true)

	channelsInput := textinput.New()
	channelsInput.Prompt = "› "
	channelsInput.CharLimit = 3
	channelsInput.Width = 12

	nameInput := textinput.New()
	nameInput.Prompt = "› "
	nameInput.Placeholder = "optional label"
	nameInput.CharLimit = 64
	nameInput.Width = 40

	destInput := textinput.New()
	destInput.Prompt = "› "
	destInput.CharLimit = 256
	destInput.Width = 40

	m := Model{
		session:       session,
		state:         stateControls,
		list:          l,
		channelsInput: channelsInput,
		nameInput:     nameInput,
		destInput:     destInput,
		status:        "Not recording.",
	}
	m.refreshSnapshot()
	m.nameInput.SetValue(m.snapshot.FileName)
	m.destInput.SetValue(m.snapshot.DestinationFolder)

	return m
}

// Run drives the panel until the user quits
func Run(session service.Service) error {
	p := tea.NewProgram(New(session), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-4)

	case recordingStartedMsg:
		if msg.err != nil {
			m.status = msg.line
			if msg.line == "" {
				m.status = "Recording failed."
			}
			m.errorText = m.session.GetLastError()
			return m, nil
		}
		m.status = msg.line
		m.errorText = ""
		m.state = stateRecording
		m.elapsed = 0
		if _, session := m.session.GetRecordingStatus(); session != nil {
			m.lastOutput = session.OutputFile
		}
		return m, tickCmd()

	case recordingStoppedMsg:
		m.status = msg.line
		m.state = stateControls
		if msg.err != nil {
			m.errorText = m.session.GetLastError()
		} else {
			m.errorText = ""
		}
		return m, nil

	case tickMsg:
		if m.state != stateRecording {
			return m, nil
		}
		status, session := m.session.GetRecordingStatus()
		if status != audio.StatusRecording {
			// The capture process died on its own
			m.state = stateControls
			m.status = "Recording stopped."
			m.errorText = m.session.GetLastError()
			if m.errorText == "" {
				m.errorText = "Recording process exited unexpectedly"
			}
			return m, nil
		}
		if session != nil {
			m.elapsed = time.Since(session.StartTime).Round(time.Second)
		}
		return m, tickCmd()

	case tea.KeyMsg:
		switch m.state {
		case stateDeviceSelect:
			return m.updateDeviceSelect(msg)
		case stateControls:
			return m.updateControls(msg)
		case stateRecording:
			return m.updateRecording(msg)
		}
	}

	// Cursor blink and other component messages
	if input := m.focusedInput(); input != nil {
		*input, cmd = input.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) updateDeviceSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Enter):
		if err := m.session.SelectDeviceAt(m.list.Index()); err != nil {
			m.errorText = err.Error()
			return m, nil
		}
		// A user-typed channel count survives the device change, only an
		// empty field follows the new device's inference
		m.refreshSnapshot()
		m.state = stateControls
		return m, nil

	case key.Matches(msg, keys.Back):
		m.state = stateControls
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateControls(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Text fields swallow printable keys while focused, so global actions
	// only apply when typing is not in progress or for control sequences.
	focusedField := m.focusedInput()
	inTextField := focusedField != nil && focusedField.Focused()

	switch {
	case key.Matches(msg, keys.Quit):
		if !inTextField || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case key.Matches(msg, keys.Tab):
		return m.cycleFocus(1)

	case key.Matches(msg, keys.ShiftTab):
		return m.cycleFocus(-1)

	case key.Matches(msg, keys.Back):
		if inTextField {
			return m.blurInputs()
		}

	case key.Matches(msg, keys.Enter):
		if focusedField != nil && !inTextField {
			focusedField.Focus()
			return m, textinput.Blink
		}

	case key.Matches(msg, keys.Record):
		if !inTextField {
			return m, m.startRecordingCmd()
		}

	case key.Matches(msg, keys.Devices):
		if !inTextField {
			m.state = stateDeviceSelect
			return m, nil
		}

	case key.Matches(msg, keys.Copy):
		if !inTextField && m.lastOutput != "" {
			m.copyOutputPath()
			return m, nil
		}

	case key.Matches(msg, keys.Left):
		if !inTextField {
			m.adjustFocusedField(-1)
			return m, nil
		}

	case key.Matches(msg, keys.Right):
		if !inTextField {
			m.adjustFocusedField(1)
			return m, nil
		}
	}

	if input := m.focusedInput(); input != nil {
		var cmd tea.Cmd
		before := input.Value()
		*input, cmd = input.Update(msg)
		if input.Value() != before {
			m.pushInputValue()
			m.refreshSnapshot()
		}
		return m, cmd
	}

	return m, nil
}

func (m Model) updateRecording(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		// Stop the capture before leaving, otherwise FFmpeg keeps the
		// device open
		return m, tea.Sequence(m.stopRecordingCmd(), tea.Quit)

	case key.Matches(msg, keys.Stop), key.Matches(msg, keys.Enter):
		return m, m.stopRecordingCmd()

	case key.Matches(msg, keys.Copy):
		m.copyOutputPath()
		return m, nil
	}

	return m, nil
}

// cycleFocus moves the form focus and keeps text inputs in sync
func (m Model) cycleFocus(delta int) (tea.Model, tea.Cmd) {
	m.focus = controlFocus((int(m.focus) + delta + int(focusCount)) % int(focusCount))

	m.channelsInput.Blur()
	m.nameInput.Blur()
	m.destInput.Blur()

	if input := m.focusedInput(); input != nil {
		input.Focus()
		return m, textinput.Blink
	}
	return m, nil
}

func (m Model) blurInputs() (tea.Model, tea.Cmd) {
	m.channelsInput.Blur()
	m.nameInput.Blur()
	m.destInput.Blur()
	return m, nil
}

// focusedInput returns the text input under focus, nil for selector fields
func (m *Model) focusedInput() *textinput.Model {
	switch m.focus {
	case focusChannels:
		return &m.channelsInput
	case focusFileName:
		return &m.nameInput
	case focusDestination:
		return &m.destInput
	}
	return nil
}

// pushInputValue forwards the focused text field's value to the session
func (m *Model) pushInputValue() {
	switch m.focus {
	case focusChannels:
		m.session.SetTotalChannels(m.channelsInput.Value())
	case focusFileName:
		m.session.SetFileName(m.nameInput.Value())
	case focusDestination:
		m.session.SetDestination(m.destInput.Value())
	}
}

// adjustFocusedField steps the focused selector through its options
func (m *Model) adjustFocusedField(delta int) {
	switch m.focus {
	case focusStream:
		m.session.SetStreamIndex(1 - m.snapshot.StreamIndex)

	case focusMode:
		current := 0
		for i, mode := range mix.Modes {
			if mode == m.snapshot.Mode {
				current = i
				break
			}
		}
		next := (current + delta + len(mix.Modes)) % len(mix.Modes)
		m.session.SetMode(mix.Modes[next])

	case focusRouting:
		switch m.snapshot.Mode {
		case mix.ModeMono:
			options := m.session.MonoOptions()
			m.session.SetMonoChannel(stepInt(options, m.snapshot.MonoChannel, delta))
		case mix.ModeStereo:
			options := m.session.StereoPairOptions()
			m.session.SetStereoPair(stepString(options, m.snapshot.StereoPair, delta))
		}
	}

	m.refreshSnapshot()
}

func (m *Model) refreshSnapshot() {
	m.snapshot = m.session.Snapshot()
	if m.snapshot.ChannelsInferred {
		m.channelsInput.Placeholder = fmt.Sprintf("%d (inferred)", m.snapshot.TotalChannels)
	}
	if m.snapshot.OutputFile != "" {
		m.lastOutput = m.snapshot.OutputFile
	}
}

func (m *Model) copyOutputPath() {
	if err := clipboard.WriteAll(m.lastOutput); err != nil {
		m.errorText = fmt.Sprintf("clipboard unavailable: %v", err)
		return
	}
	m.status = "Output path copied to clipboard."
}

func (m Model) startRecordingCmd() tea.Cmd {
	return func() tea.Msg {
		line, err := m.session.StartRecording()
		return recordingStartedMsg{line: line, err: err}
	}
}

func (m Model) stopRecordingCmd() tea.Cmd {
	return func() tea.Msg {
		line, err := m.session.StopRecording()
		return recordingStoppedMsg{line: line, err: err}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// stepInt moves through int options relative to the current selection
func stepInt(options []int, current, delta int) int {
	idx := 0
	for i, opt := range options {
		if opt == current {
			idx = i
			break
		}
	}
	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(options) {
		idx = len(options) - 1
	}
	return options[idx]
}

// stepString moves through string options relative to the current selection
func stepString(options []string, current string, delta int) string {
	idx := 0
	for i, opt := range options {
		if opt == current {
			idx = i
			break
		}
	}
	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(options) {
		idx = len(options) - 1
	}
	return options[idx]
}

func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(" TrackTape ") + "\n\n")

	switch m.state {
	case stateDeviceSelect:
		sb.WriteString(m.list.View() + "\n")
		sb.WriteString(helpStyle.Render("enter: select • esc: back • q: quit") + "\n")

	case stateControls:
		sb.WriteString(m.renderControls())

	case stateRecording:
		sb.WriteString(m.renderRecording())
	}

	if m.errorText != "" {
		sb.WriteString("\n" + errorStyle.Render("Error: "+m.errorText) + "\n")
	}

	return docStyle.Render(sb.String())
}

func (m Model) renderControls() string {
	var sb strings.Builder

	sb.WriteString(subtitleStyle.Render(" Capture Settings ") + "\n\n")
	sb.WriteString(renderField("Device", m.snapshot.Device.Label(), false))
	sb.WriteString(renderField("Stream", fmt.Sprintf("%d", m.snapshot.StreamIndex), m.focus == focusStream))

	sb.WriteString(renderField("Total channels", m.channelsInput.View(), m.focus == focusChannels))

	sb.WriteString(renderField("Mode", string(m.snapshot.Mode), m.focus == focusMode))
	sb.WriteString(renderField("Routing", m.routingValue(), m.focus == focusRouting))
	sb.WriteString(renderField("File name", m.nameInput.View(), m.focus == focusFileName))
	sb.WriteString(renderField("Destination", m.destInput.View(), m.focus == focusDestination))

	sb.WriteString("\n" + statusStyle.Render(m.status) + "\n\n")
	sb.WriteString(helpStyle.Render("tab: next field • ←/→: adjust • r: record • d: devices • q: quit") + "\n")

	return sb.String()
}

func (m Model) renderRecording() string {
	var sb strings.Builder

	sb.WriteString(recordingStyle.Render(" ● RECORDING ") + "\n\n")
	sb.WriteString(fmt.Sprintf("Elapsed: %s\n", m.elapsed))
	sb.WriteString(fmt.Sprintf("Output:  %s\n", highlightStyle.Render(m.lastOutput)))
	sb.WriteString("\n" + statusStyle.Render(m.status) + "\n\n")
	sb.WriteString(helpStyle.Render("s/enter: stop • y: copy output path • q: stop and quit") + "\n")

	return sb.String()
}

// routingValue renders the mode-dependent routing selector
func (m Model) routingValue() string {
	switch m.snapshot.Mode {
	case mix.ModeMono:
		return fmt.Sprintf("channel %d", m.snapshot.MonoChannel)
	case mix.ModeStereo:
		return fmt.Sprintf("pair %s", m.snapshot.StereoPair)
	default:
		return fmt.Sprintf("all %d channels", m.snapshot.TotalChannels)
	}
}

func renderField(label, value string, focused bool) string {
	style := inactiveStyle
	if focused {
		style = activeStyle
	}
	return fmt.Sprintf("%s %s\n", style.Render(fmt.Sprintf("%-15s", label+":")), value)
}
