package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"recipechat/internal/chat"
	"recipechat/internal/models"
)

// historyPane owns the scrollable message list. It is shared by pointer between
// copies of Model so the session commit hook can reach it.
type historyPane struct {
	styles   Styles
	renderer *glamour.TermRenderer
	width    int
	spinner  string
	last     chat.Snapshot
	content  string
	viewport viewport.Model
}

func newHistoryPane(styles Styles) *historyPane {
	return &historyPane{styles: styles, width: 80, viewport: viewport.New(80, 10)}
}

// commit is registered as the session's OnCommit hook. Draft edits leave the pane
// alone; history and awaiting changes redraw it and follow the latest message.
func (p *historyPane) commit(snap chat.Snapshot) {
	changed := len(snap.History) != len(p.last.History) || snap.Awaiting != p.last.Awaiting
	p.last = snap
	if !changed {
		return
	}
	p.redraw()
	p.viewport.GotoBottom()
}

func (p *historyPane) redraw() {
	p.content = p.render(chat.Project(p.last))
	p.viewport.SetContent(p.content)
}

func (p *historyPane) resize(width, height int) {
	if width < 20 {
		width = 20
	}
	if height < 1 {
		height = 1
	}
	p.viewport.Width = width
	p.viewport.Height = height
	if width == p.width && p.renderer != nil {
		return
	}
	p.width = width
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(p.bubbleWidth()-4),
	)
	if err == nil {
		p.renderer = r
	}
}

func (p *historyPane) bubbleWidth() int {
	w := p.width * 3 / 4
	if w < 16 {
		w = 16
	}
	return w
}

// render styles every block except the header, which Model.View draws above the pane.
func (p *historyPane) render(blocks []chat.Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		switch b.Kind {
		case chat.BlockHeader:
			continue
		case chat.BlockHint:
			sb.WriteString(p.styles.Hint.Width(p.width).Render(b.Content))
		case chat.BlockMessage:
			sb.WriteString(p.renderMessage(b))
		case chat.BlockThinking:
			line := p.styles.Thinking.Render(strings.TrimSpace(p.spinner+" "+b.Content))
			sb.WriteString(p.styles.Bot.Render(line))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (p *historyPane) renderMessage(b chat.Block) string {
	if b.Role == models.RoleUser {
		label := p.styles.Label.Foreground(colorUser).Render("You")
		body := p.styles.User.MaxWidth(p.bubbleWidth()).Render(b.Content)
		return lipgloss.PlaceHorizontal(p.width, lipgloss.Right, lipgloss.JoinVertical(lipgloss.Right, label, body))
	}
	label := p.styles.Label.Foreground(colorAccent).Render("Chef")
	body := p.styles.Bot.MaxWidth(p.bubbleWidth()).Render(p.safeRenderMarkdown(b.Content))
	return lipgloss.JoinVertical(lipgloss.Left, label, body)
}

// safeRenderMarkdown falls back to plain text when glamour fails or panics.
func (p *historyPane) safeRenderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = content
		}
	}()

	if p.renderer != nil && content != "" {
		rendered, err := p.renderer.Render(content)
		if err == nil {
			return strings.Trim(rendered, "\n")
		}
	}
	return content
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	blocks := chat.Project(m.session.Snapshot())
	header := m.renderHeader(blocks[0])

	inputStyle := m.styles.Input
	if m.session.Awaiting() {
		inputStyle = m.styles.Disabled
	}
	inputArea := inputStyle.Render(m.input.View())

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		m.pane.viewport.View(),
		inputArea,
		m.renderFooter(),
	)
}

func (m Model) renderHeader(b chat.Block) string {
	return m.styles.Header.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		m.styles.Title.Render(b.Title),
		m.styles.Subtitle.Render(b.Content),
	))
}

func (m Model) renderFooter() string {
	hint := "enter send • alt+enter newline • pgup/pgdn scroll • ctrl+c quit"
	if m.session.Awaiting() {
		hint = "waiting for the chef… • pgup/pgdn scroll • ctrl+c quit"
	}
	if m.endpoint != "" {
		hint += " • " + m.endpoint
	}
	return m.styles.Footer.Render(hint)
}
