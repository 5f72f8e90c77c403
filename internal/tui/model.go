// Package tui is the terminal chat view: a bubbletea program around chat.Session.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"recipechat/internal/chat"
)

const inputHeight = 3

// replyMsg delivers the outcome of a chat request to Update.
type replyMsg struct {
	content string
	err     error
}

// Model is the bubbletea model of the chat view.
type Model struct {
	ctx      context.Context
	session  *chat.Session
	sender   chat.Sender
	endpoint string
	logger   *zap.Logger

	input   textarea.Model
	spinner spinner.Model
	pane    *historyPane
	styles  Styles

	width  int
	height int
	ready  bool
}

// Option customizes a Model.
type Option func(*Model)

// WithEndpoint shows the backend URL in the footer.
func WithEndpoint(endpoint string) Option {
	return func(m *Model) { m.endpoint = endpoint }
}

// WithContext sets the context chat requests run under; cancelling it aborts an
// in-flight request.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		if ctx != nil {
			m.ctx = ctx
		}
	}
}

// WithLogger sets the logger used for request outcomes.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New builds the chat view around sender.
func New(sender chat.Sender, opts ...Option) Model {
	styles := DefaultStyles()

	ta := textarea.New()
	ta.Placeholder = chat.Placeholder
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	m := Model{
		ctx:     context.Background(),
		session: chat.NewSession(),
		sender:  sender,
		logger:  zap.NewNop(),
		input:   ta,
		spinner: sp,
		pane:    newHistoryPane(styles),
		styles:  styles,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.session.OnCommit(m.pane.commit)
	m.pane.redraw()
	return m
}

// Session exposes the conversation state.
func (m Model) Session() *chat.Session { return m.session }

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case replyMsg:
		if msg.err != nil {
			m.logger.Debug("chat reply failed", zap.Error(msg.err))
		}
		m.session.Resolve(msg.content, msg.err)
		m.input.Reset()
		return m, m.input.Focus()

	case spinner.TickMsg:
		if !m.session.Awaiting() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.pane.spinner = m.spinner.View()
		m.pane.redraw()
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey maps keyboard input onto the session. Enter submits, Alt+Enter stands in
// for the held modifier and inserts a newline.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.pane.viewport, cmd = m.pane.viewport.Update(msg)
		return m, cmd
	}

	// The input is disabled while a reply is pending.
	if m.session.Awaiting() {
		return m, nil
	}

	if msg.Type == tea.KeyEnter {
		req, suppress := m.session.KeyPress(chat.KeySubmit, msg.Alt)
		if req != nil {
			m.input.Blur()
			m.pane.spinner = m.spinner.View()
			m.pane.redraw()
			return m, tea.Batch(m.send(req.Query), m.spinner.Tick)
		}
		if suppress {
			return m, nil
		}
		m.input.InsertString("\n")
		m.session.UpdateDraft(m.input.Value())
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.session.UpdateDraft(m.input.Value())
	return m, cmd
}

func (m Model) send(query string) tea.Cmd {
	ctx, sender := m.ctx, m.sender
	return func() tea.Msg {
		reply, err := sender.Send(ctx, query)
		return replyMsg{content: reply, err: err}
	}
}

func (m *Model) layout() {
	width := m.width - 4
	if width < 10 {
		width = 10
	}
	m.input.SetWidth(width)

	header := m.renderHeader(chat.Project(m.session.Snapshot())[0])
	chrome := lipgloss.Height(header) + inputHeight + 2 + 1
	m.pane.resize(m.width, m.height-chrome)
	m.pane.redraw()
	m.pane.viewport.GotoBottom()
}

// Run starts the chat view on the terminal and blocks until the user quits.
func Run(ctx context.Context, sender chat.Sender, opts ...Option) error {
	opts = append([]Option{WithContext(ctx)}, opts...)
	p := tea.NewProgram(New(sender, opts...), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
