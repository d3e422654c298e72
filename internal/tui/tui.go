package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zuo-Peng/ai-study-companion/internal/chat"
	"github.com/Zuo-Peng/ai-study-companion/internal/study"
)

type focusArea int

const (
	focusNav focusArea = iota
	focusInput
)

type model struct {
	ctx    context.Context
	cancel context.CancelFunc
	sess   *study.Session

	items      []navItem
	cursor     int
	listOffset int
	openKey    string // key of the page shown on the right

	focus   focusArea
	input   textinput.Model
	content viewport.Model

	asking    bool
	streamCh  chan tea.Msg
	streaming string
	questions []string
	lastErr   string
	status    string
	learning  bool

	width    int
	height   int
	ready    bool
	quitting bool
}

func initialModel(ctx context.Context, sess *study.Session) model {
	ti := textinput.New()
	ti.Placeholder = "Ask a question..."
	ti.Prompt = "> "
	ti.PromptStyle = styleInputPrompt
	ti.TextStyle = styleInput
	ti.CharLimit = 4096

	ctx, cancel := context.WithCancel(ctx)
	m := model{
		ctx:     ctx,
		cancel:  cancel,
		sess:    sess,
		items:   buildNav(sess.Document()),
		input:   ti,
		content: viewport.New(0, 0),
	}
	m.openCurrent()
	return m
}

// Run starts the study TUI on sess and blocks until it exits.
func Run(ctx context.Context, sess *study.Session) error {
	m := initialModel(ctx, sess)
	defer m.cancel()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadFollowUps(false))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.content = newViewport(m.contentWidth(), m.panelHeight())
		m.input.Width = m.width - 4
		m.refreshContent(false)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			m.cancel()
			return m, tea.Quit

		case key.Matches(msg, keys.Focus):
			m.toggleFocus()
			return m, nil

		case key.Matches(msg, keys.Refresh):
			if !m.asking && len(m.sess.History()) > 0 {
				m.status = "生成新的问题..."
				return m, m.loadFollowUps(true)
			}
			return m, nil

		case key.Matches(msg, keys.Copy):
			m.status = m.copyLastAnswer()
			return m, nil

		case key.Matches(msg, keys.Learning):
			m.learning = !m.learning
			m.refreshContent(true)
			return m, nil

		case key.Matches(msg, keys.PreviewUp):
			m.content.LineUp(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.PreviewDn):
			m.content.LineDown(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.PageUp):
			m.content.LineUp(m.panelHeight())
			return m, nil

		case key.Matches(msg, keys.PageDown):
			m.content.LineDown(m.panelHeight())
			return m, nil
		}

		if m.focus == focusNav {
			return m.updateNav(msg)
		}

		if key.Matches(msg, keys.Enter) {
			cmd := m.ask(m.input.Value())
			return m, cmd
		}

		var tiCmd tea.Cmd
		m.input, tiCmd = m.input.Update(msg)
		return m, tiCmd

	case tea.MouseMsg:
		if !m.ready {
			return m, nil
		}
		region, itemIdx := m.hitTest(msg.X, msg.Y)

		switch {
		case region == regionList && msg.Button == tea.MouseButtonWheelUp:
			if m.listOffset > 0 {
				m.listOffset--
			}
			return m, nil

		case region == regionList && msg.Button == tea.MouseButtonWheelDown:
			maxOffset := max(len(m.items)-m.panelHeight()/linesPerItem, 0)
			if m.listOffset < maxOffset {
				m.listOffset++
			}
			return m, nil

		case region == regionList && msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
			if itemIdx >= 0 && itemIdx < len(m.items) && m.cursor != itemIdx && !m.asking {
				m.cursor = itemIdx
				m.adjustListScroll(m.panelHeight())
				cmds = append(cmds, m.openCurrent())
			}
			return m, tea.Batch(cmds...)

		case region == regionContent && (msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown):
			var vpCmd tea.Cmd
			m.content, vpCmd = m.content.Update(msg)
			return m, vpCmd
		}
		return m, nil

	case streamDeltaMsg:
		m.streaming += msg.delta
		m.refreshContent(true)
		return m, waitForStream(m.streamCh)

	case streamDoneMsg:
		m.asking = false
		m.streaming = ""
		m.streamCh = nil
		m.lastErr = ""
		m.status = ""
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.lastErr = msg.err.Error()
		}
		m.questions = nil
		m.refreshContent(true)
		if msg.page == m.openKey {
			cmds = append(cmds, m.loadFollowUps(false))
		}
		return m, tea.Batch(cmds...)

	case followUpsMsg:
		if msg.page != m.openKey {
			return m, nil // stale
		}
		m.questions = msg.questions
		m.status = ""
		m.refreshContent(true)
		return m, nil
	}

	return m, tea.Batch(cmds...)
}

func (m model) updateNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 && !m.asking {
			m.cursor--
			m.adjustListScroll(m.panelHeight())
			return m, m.openCurrent()
		}

	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.items)-1 && !m.asking {
			m.cursor++
			m.adjustListScroll(m.panelHeight())
			return m, m.openCurrent()
		}

	case key.Matches(msg, keys.Enter):
		m.toggleFocus()

	case key.Matches(msg, keys.Pick):
		i := int(msg.String()[0] - '1')
		if i >= 0 && i < len(m.questions) {
			return m, m.ask(m.questions[i])
		}
	}
	return m, nil
}

func (m *model) toggleFocus() {
	if m.focus == focusNav {
		m.focus = focusInput
		m.input.Focus()
	} else {
		m.focus = focusNav
		m.input.Blur()
	}
}

// openCurrent opens the page under the cursor. The input is pre-filled
// with the initial prompt while the page has no conversation yet.
func (m *model) openCurrent() tea.Cmd {
	if len(m.items) == 0 {
		return nil
	}
	it := m.items[m.cursor]
	if it.key() == m.openKey {
		return nil
	}
	if _, err := m.sess.Open(it.Section, it.Subsection); err != nil {
		m.lastErr = err.Error()
		m.refreshContent(false)
		return nil
	}
	m.openKey = it.key()
	m.questions = nil
	m.lastErr = ""
	m.learning = false

	if len(m.sess.History()) == 0 {
		m.input.SetValue(strings.TrimSpace(m.sess.InitialPrompt()))
	} else {
		m.input.SetValue("")
	}
	m.input.CursorEnd()
	m.refreshContent(false)
	return m.loadFollowUps(false)
}

func (m *model) ask(text string) tea.Cmd {
	text = strings.TrimSpace(text)
	if m.asking || text == "" || m.openKey == "" {
		return nil
	}
	m.asking = true
	m.streaming = ""
	m.lastErr = ""
	m.learning = false
	m.status = "AI 正在回答..."
	m.input.SetValue("")
	m.streamCh = make(chan tea.Msg, 64)
	m.refreshContent(true)
	return askCmd(m.ctx, m.sess, m.openKey, text, m.streamCh)
}

func (m model) loadFollowUps(refresh bool) tea.Cmd {
	if m.openKey == "" || len(m.sess.History()) == 0 {
		return nil
	}
	return followUpsCmd(m.ctx, m.sess, m.openKey, refresh)
}

func (m model) copyLastAnswer() string {
	hist := m.sess.History()
	for i := len(hist) - 1; i >= 0; i-- {
		if hist[i].Role != chat.RoleAssistant {
			continue
		}
		if err := clipboard.WriteAll(hist[i].Content); err != nil {
			return "copy failed: " + err.Error()
		}
		return "已复制最后一条回答"
	}
	return "no answer to copy"
}

// refreshContent re-renders the right panel. With follow set the view
// sticks to the bottom, otherwise it starts at the top.
func (m *model) refreshContent(follow bool) {
	width := m.contentWidth()
	var s string
	if m.learning {
		s = renderLearning(m.sess.LearningHistory(), width)
	} else {
		_, node := m.sess.Current()
		s = renderPage(pageView{
			Node:      node,
			History:   m.sess.History(),
			Streaming: m.streaming,
			Asking:    m.asking,
			Questions: m.questions,
			Err:       m.lastErr,
		}, width)
	}
	m.content.SetContent(s)
	if follow {
		m.content.GotoBottom()
	} else {
		m.content.GotoTop()
	}
}

func (m model) View() string {
	if m.quitting || !m.ready {
		return ""
	}

	listW := m.listWidth()
	contentW := m.contentWidth()
	panelH := m.panelHeight()

	listBorder, contentBorder := styleActiveBorder, stylePanelBorder
	if m.focus == focusInput {
		listBorder, contentBorder = stylePanelBorder, styleActiveBorder
	}

	listPanel := listBorder.
		Width(listW).
		Height(panelH).
		Render(m.renderList(listW, panelH))

	m.content.Width = contentW
	m.content.Height = panelH
	contentPanel := contentBorder.
		Width(contentW).
		Height(panelH).
		Render(m.content.View())

	header := styleTitle.Render(m.sess.Lecture) + styleDim.Render("  "+m.sess.ID)
	panels := lipgloss.JoinHorizontal(lipgloss.Top, listPanel, contentPanel)

	return lipgloss.JoinVertical(lipgloss.Left, header, panels, m.input.View(), m.statusBar())
}

func (m model) listWidth() int {
	if m.width <= 0 {
		return 30
	}
	return max(m.width*30/100-4, 20)
}

func (m model) contentWidth() int {
	if m.width <= 0 {
		return 70
	}
	return max(m.width*70/100-4, 20)
}

func (m model) panelHeight() int {
	if m.height <= 0 {
		return 20
	}
	// header (1) + input (1) + status bar (1) + borders (2)
	return max(m.height-5, 5)
}

type mouseRegion int

const (
	regionNone mouseRegion = iota
	regionList
	regionContent
)

// hitTest maps terminal coordinates to a panel region and list item index.
func (m model) hitTest(x, y int) (mouseRegion, int) {
	pH := m.panelHeight()
	contentYStart := 2 // header (1) + top border (1)
	contentYEnd := contentYStart + pH - 1

	if y < contentYStart || y > contentYEnd {
		return regionNone, -1
	}
	relY := y - contentYStart

	lw := m.listWidth()
	listBoxRight := lw + 1

	if x >= 1 && x <= lw {
		return regionList, m.listOffset + relY/linesPerItem
	}
	if x > listBoxRight+1 {
		return regionContent, -1
	}
	return regionNone, -1
}

func (m model) statusBar() string {
	var parts []string
	if m.status != "" {
		parts = append(parts, m.status)
	}
	if m.focus == focusNav {
		parts = append(parts, "up/dn navigate", "1-3 ask suggestion", "Enter/Tab edit question")
	} else {
		parts = append(parts, "Enter send", "Tab navigate")
	}
	parts = append(parts, "C-r new questions", "C-y copy", "C-l history", "Esc quit")
	return styleStatusBar.Render(strings.Join(parts, " | "))
}
