// Package tui is the interactive terminal front end for a game of pebbles.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/pebbles/internal/client"
	"github.com/lox/pebbles/internal/game"
	"github.com/lox/pebbles/internal/protocol"
)

// TUIModel represents the Bubble Tea model for a game of pebbles
type TUIModel struct {
	ctx     context.Context
	game    Game
	initial game.Config
	updates <-chan client.Update
	logger  *log.Logger

	// UI components
	logViewport viewport.Model
	actionInput textinput.Model

	// State
	gameLog     []string
	state       *protocol.StateData
	busy        bool
	quitting    bool
	focusedPane int // 0 = log, 1 = input

	// Dimensions
	width       int
	height      int
	initialized bool // Track if viewport has been properly sized

	// Test mode
	testMode    bool
	capturedLog []string // For test assertions
}

type startedMsg struct {
	update client.Update
	err    error
}

type resultMsg struct {
	command Command
	update  client.Update
	err     error
}

type stateMsg struct {
	state protocol.StateData
	err   error
}

type remoteUpdateMsg struct {
	update client.Update
}

type updatesClosedMsg struct{}

// NewTUIModel creates a model that starts a game with initial when run.
func NewTUIModel(ctx context.Context, g Game, initial game.Config, logger *log.Logger) *TUIModel {
	return NewTUIModelWithOptions(ctx, g, initial, logger, false)
}

// NewTUIModelWithOptions creates a new TUI model with test mode option
func NewTUIModelWithOptions(ctx context.Context, g Game, initial game.Config, logger *log.Logger, testMode bool) *TUIModel {
	// Sized properly when WindowSizeMsg arrives
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "take N, giveup, restart <easy|hard> <count> <max>, help"
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 100
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	return &TUIModel{
		ctx:         ctx,
		game:        g,
		initial:     initial,
		logger:      logger.WithPrefix("tui"),
		logViewport: vp,
		actionInput: ti,
		gameLog:     []string{},
		focusedPane: 1, // Start with input focused
		testMode:    testMode,
		capturedLog: []string{},
	}
}

// SetUpdates subscribes the model to changes made by other players.
func (m *TUIModel) SetUpdates(updates <-chan client.Update) {
	m.updates = updates
}

// Init initializes the TUI model
func (m *TUIModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.start(), m.listenForUpdates())
}

func (m *TUIModel) start() tea.Cmd {
	return func() tea.Msg {
		update, err := m.game.Initialize(m.ctx, m.initial)
		return startedMsg{update: update, err: err}
	}
}

func (m *TUIModel) fetchState() tea.Cmd {
	return func() tea.Msg {
		state, err := m.game.State(m.ctx)
		return stateMsg{state: state, err: err}
	}
}

func (m *TUIModel) listenForUpdates() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	return func() tea.Msg {
		update, ok := <-m.updates
		if !ok {
			return updatesClosedMsg{}
		}
		return remoteUpdateMsg{update: update}
	}
}

// Update handles messages in the TUI
func (m *TUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case startedMsg:
		if errors.Is(msg.err, game.ErrAlreadyInitialized) {
			m.AddLogEntry("A game is already running; joining it.")
			return m, m.fetchState()
		}
		if msg.err != nil {
			m.addError(msg.err)
			return m, nil
		}
		m.applyUpdate(msg.update, true)

	case resultMsg:
		m.busy = false
		if msg.err != nil {
			m.addError(msg.err)
			return m, nil
		}
		if msg.command.Kind == CommandTake {
			m.addStyled(UserStyle, fmt.Sprintf("You take %s.", pebbles(msg.command.Pebbles)))
		}
		if msg.command.Kind == CommandGiveUp {
			m.addStyled(UserStyle, "You give up.")
		}
		m.applyUpdate(msg.update, msg.command.Kind == CommandRestart)

	case stateMsg:
		if msg.err != nil {
			m.addError(msg.err)
			return m, nil
		}
		m.state = &msg.state
		m.AddLogEntry(describeState(msg.state))

	case remoteUpdateMsg:
		m.addStyled(InfoStyle, "Another player changed the game.")
		m.applyUpdate(msg.update, msg.update.State.GameID != m.gameID())
		return m, m.listenForUpdates()

	case updatesClosedMsg:
		m.addStyled(WarningStyle, "Disconnected from server.")

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logger.Debug("Updating dimensions", "width", m.width, "height", m.height)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "tab":
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.actionInput.Focus()
			} else {
				m.focusedPane = 0
				m.actionInput.Blur()
			}
		case "enter":
			if m.focusedPane == 1 {
				input := strings.TrimSpace(m.actionInput.Value())
				m.actionInput.SetValue("")
				if cmd := m.Submit(input); cmd != nil {
					return m, cmd
				}
			}
		case "up", "k":
			if m.focusedPane == 0 {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == 0 {
				m.logViewport.ScrollDown(1)
			}
		case "pgup", "b":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageUp()
			}
		case "pgdown", "f":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageDown()
			}
		case "home", "g":
			if m.focusedPane == 0 {
				m.logViewport.GotoTop()
			}
		case "end", "G":
			if m.focusedPane == 0 {
				m.logViewport.GotoBottom()
			}
		}
	}

	var cmd tea.Cmd
	if m.focusedPane == 1 {
		m.actionInput, cmd = m.actionInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// Submit handles one line of input and returns the command that carries it
// out, if any.
func (m *TUIModel) Submit(input string) tea.Cmd {
	command, err := ParseCommand(input)
	if err != nil {
		m.addError(err)
		return nil
	}

	switch command.Kind {
	case CommandNone:
		return nil
	case CommandHelp:
		for _, line := range strings.Split(HelpText, "\n") {
			m.addStyled(InfoStyle, line)
		}
		return nil
	case CommandQuit:
		m.quitting = true
		return tea.Quit
	case CommandState:
		return m.fetchState()
	}

	if m.busy {
		m.addStyled(WarningStyle, "Still waiting for the last move.")
		return nil
	}
	m.busy = true

	return func() tea.Msg {
		var (
			update client.Update
			err    error
		)
		switch command.Kind {
		case CommandTake:
			update, err = m.game.Turn(m.ctx, command.Pebbles)
		case CommandGiveUp:
			update, err = m.game.GiveUp(m.ctx)
		case CommandRestart:
			update, err = m.game.Restart(m.ctx, command.Config)
		}
		return resultMsg{command: command, update: update, err: err}
	}
}

// applyUpdate logs the events of a change and adopts its snapshot.
func (m *TUIModel) applyUpdate(update client.Update, fresh bool) {
	m.state = &update.State
	s := update.State

	if fresh {
		m.AddBoldLogEntry(describeNewGame(s))
	}
	for _, e := range update.Events {
		m.logEvent(e)
	}
	if !s.Concluded() {
		m.addStyled(PoolStyle, fmt.Sprintf("%s remain. Your move.", pebbles(s.PebblesRemaining)))
	}
}

func (m *TUIModel) logEvent(e game.Event) {
	switch e.Type {
	case game.EventTypeCounterTurn:
		m.addStyled(ProgramStyle, fmt.Sprintf("Program takes %s.", pebbles(e.Pebbles)))
	case game.EventTypeWon:
		if e.Winner == game.User {
			m.addStyled(SuccessStyle, "You win!")
		} else {
			m.addStyled(ProgramStyle, "Program wins.")
		}
		m.addStyled(InfoStyle, "Type 'restart <easy|hard> <count> <max>' to play again.")
	}
}

func (m *TUIModel) gameID() string {
	if m.state == nil {
		return ""
	}
	return m.state.GameID
}

func describeNewGame(s protocol.StateData) string {
	first := "You move first."
	if s.FirstPlayer == game.Program {
		first = "Program moves first."
	}
	return fmt.Sprintf("New %s game: %s, take 1 to %d per turn. %s",
		s.Difficulty, pebbles(s.PebblesCount), s.MaxPebblesPerTurn, first)
}

func describeState(s protocol.StateData) string {
	line := fmt.Sprintf("%s of %d left, take 1 to %d, %s, %s moved first",
		pebbles(s.PebblesRemaining), s.PebblesCount, s.MaxPebblesPerTurn, s.Difficulty, s.FirstPlayer)
	if s.Winner != nil {
		line += fmt.Sprintf(", %s won", *s.Winner)
	}
	return line + "."
}

func pebbles(n uint32) string {
	if n == 1 {
		return "1 pebble"
	}
	return fmt.Sprintf("%d pebbles", n)
}

// View renders the TUI
func (m *TUIModel) View() string {
	if m.quitting {
		return ""
	}

	// Don't render until we have valid dimensions
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)

	actionStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(max(m.width-2, 1)).
		Height(max(actionHeight, 1))
	if m.focusedPane == 1 {
		actionStyle = actionStyle.BorderForeground(lipgloss.Color("#04B575"))
	}
	actionPane := actionStyle.Render(actionContent)

	sidebarContent := m.renderSidebarPane()
	sidebarWidth := max(lipgloss.Width(sidebarContent), 25)
	paneHeight := max(m.height-actionHeight-4, 1) // borders and action pane

	sidebarPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(sidebarWidth).
		Height(paneHeight).
		Render(sidebarContent)

	logWidth := max(m.width-sidebarWidth-4, 1)
	m.logViewport.Width = logWidth
	m.logViewport.Height = paneHeight
	m.logViewport.SetContent(m.renderLogPane())

	// On first proper sizing, follow the newest entries
	if !m.initialized && logWidth > 1 && paneHeight > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(logWidth).
		Height(paneHeight)
	if m.focusedPane == 0 {
		logStyle = logStyle.BorderForeground(lipgloss.Color("#04B575"))
	}
	logPane := logStyle.Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

func (m *TUIModel) renderLogPane() string {
	return strings.Join(m.gameLog, "\n")
}

func (m *TUIModel) renderSidebarPane() string {
	var content strings.Builder

	content.WriteString(HeaderStyle.Render(" pebbles "))
	content.WriteString("\n\n")

	if m.state == nil {
		content.WriteString(InfoStyle.Render("No game yet"))
		return content.String()
	}

	s := m.state
	content.WriteString(RenderPebbles(s.PebblesRemaining))
	content.WriteString("\n\n")
	fmt.Fprintf(&content, "Remaining:  %d / %d\n", s.PebblesRemaining, s.PebblesCount)
	fmt.Fprintf(&content, "Per turn:   1-%d\n", s.MaxPebblesPerTurn)
	fmt.Fprintf(&content, "Difficulty: %s\n", s.Difficulty)
	fmt.Fprintf(&content, "First:      %s\n", s.FirstPlayer)

	switch {
	case s.Winner == nil:
		content.WriteString(WarningStyle.Render("Your move"))
	case *s.Winner == game.User:
		content.WriteString(SuccessStyle.Render("You won"))
	default:
		content.WriteString(ProgramStyle.Render("Program won"))
	}

	if s.GameID != "" {
		content.WriteString("\n\n")
		content.WriteString(InfoStyle.Render("game " + shortID(s.GameID)))
	}
	return content.String()
}

func shortID(id string) string {
	if len(id) > 10 {
		return id[len(id)-10:]
	}
	return id
}

func (m *TUIModel) renderActionPane() string {
	var content strings.Builder

	content.WriteString(m.actionInput.View())
	content.WriteString("\n")

	help := "Tab to scroll log • Enter to submit • Ctrl+C to quit"
	if m.focusedPane == 0 {
		help = "Log focused: ↑↓ scroll, PgUp/PgDn half page, Home/End, Tab to input"
	}
	content.WriteString(InfoStyle.Render(help))
	return content.String()
}

// AddLogEntry adds an entry to the game log
func (m *TUIModel) AddLogEntry(entry string) {
	m.appendLog(entry, entry)
}

// AddBoldLogEntry adds a bold entry to the game log
func (m *TUIModel) AddBoldLogEntry(entry string) {
	m.appendLog(lipgloss.NewStyle().Bold(true).Render(entry), entry)
}

func (m *TUIModel) addStyled(style lipgloss.Style, entry string) {
	m.appendLog(style.Render(entry), entry)
}

func (m *TUIModel) addError(err error) {
	m.logger.Debug("Command failed", "error", err)
	m.addStyled(ErrorStyle, "Error: "+err.Error())
}

func (m *TUIModel) appendLog(rendered, plain string) {
	m.gameLog = append(m.gameLog, rendered)

	if m.testMode {
		m.capturedLog = append(m.capturedLog, plain)
		return // Skip UI updates in test mode
	}

	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// GetCapturedLog returns the captured log entries (test mode only)
func (m *TUIModel) GetCapturedLog() []string {
	if !m.testMode {
		return nil
	}
	result := make([]string, len(m.capturedLog))
	copy(result, m.capturedLog)
	return result
}

// IsTestMode returns whether the TUI is in test mode
func (m *TUIModel) IsTestMode() bool {
	return m.testMode
}
