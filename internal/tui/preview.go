package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zuo-Peng/ai-study-companion/internal/chat"
	"github.com/Zuo-Peng/ai-study-companion/internal/parse"
	"github.com/Zuo-Peng/ai-study-companion/internal/render"
	"github.com/Zuo-Peng/ai-study-companion/internal/study"
)

// streamDeltaMsg carries one fragment of the answer being streamed.
type streamDeltaMsg struct {
	delta string
}

// streamDoneMsg is sent once the answer is complete.
type streamDoneMsg struct {
	page   string
	answer string
	err    error
}

// followUpsMsg delivers the suggested questions for a page.
type followUpsMsg struct {
	page      string
	questions []string
}

// askCmd runs the question in a goroutine and feeds its fragments through
// ch; the model re-arms waitForStream after each one.
func askCmd(ctx context.Context, sess *study.Session, page, text string, ch chan tea.Msg) tea.Cmd {
	go func() {
		defer close(ch)
		answer, err := sess.Ask(ctx, text, func(d string) {
			select {
			case ch <- streamDeltaMsg{delta: d}:
			case <-ctx.Done():
			}
		})
		select {
		case ch <- streamDoneMsg{page: page, answer: answer, err: err}:
		case <-ctx.Done():
		}
	}()
	return waitForStream(ch)
}

func waitForStream(ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func followUpsCmd(ctx context.Context, sess *study.Session, page string, refresh bool) tea.Cmd {
	return func() tea.Msg {
		var qs []string
		if refresh {
			qs = sess.RefreshFollowUps(ctx)
		} else {
			qs = sess.FollowUps(ctx)
		}
		return followUpsMsg{page: page, questions: qs}
	}
}

// pageView is everything the right panel shows for the current page.
type pageView struct {
	Node      *parse.ContentNode
	History   []chat.Message
	Streaming string
	Asking    bool
	Questions []string
	Err       string
}

// renderPage renders the node body, the conversation, the answer being
// streamed and the suggested questions, wrapped to width.
func renderPage(v pageView, width int) string {
	if v.Node == nil {
		return styleDim.Render("Select a section on the left.")
	}

	var b strings.Builder
	b.WriteString(styleTitle.Render(v.Node.Title) + "\n\n")
	if v.Node.Content != "" {
		b.WriteString(render.Wrap(v.Node.Content, width) + "\n")
	}
	if p, ok := v.Node.Prompt.Get(); ok && p != "" {
		b.WriteString("\n" + styleDim.Render("AI 提示词:") + "\n")
		b.WriteString(render.Wrap(p, width) + "\n")
	}

	for _, msg := range v.History {
		b.WriteString("\n" + roleLabel(msg.Role) + "\n")
		b.WriteString(formatAnswer(msg.Content, width) + "\n")
	}

	if v.Asking {
		b.WriteString("\n" + roleLabel(chat.RoleAssistant) + "\n")
		b.WriteString(render.Wrap(v.Streaming+"▌", width) + "\n")
	}

	if v.Err != "" {
		b.WriteString("\n" + styleError.Render(render.Wrap(v.Err, width)) + "\n")
	}

	if len(v.Questions) > 0 && !v.Asking {
		b.WriteString("\n" + styleDim.Render("建议的追加提问:") + "\n")
		for i, q := range v.Questions {
			b.WriteString(styleQuestion.Render(render.Wrap(fmt.Sprintf("%d. %s", i+1, q), width)) + "\n")
		}
	}
	return b.String()
}

func roleLabel(role string) string {
	if role == chat.RoleUser {
		return styleUser.Render("你")
	}
	return styleAssistant.Render("AI")
}

func formatAnswer(text string, width int) string {
	if strings.HasPrefix(text, chat.ErrorPrefix) {
		return styleError.Render(render.Wrap(text, width))
	}
	return render.Wrap(text, width)
}

// renderLearning renders the question/answer log of the whole session.
func renderLearning(entries []study.LearningEntry, width int) string {
	if len(entries) == 0 {
		return styleDim.Render("No questions asked yet.")
	}
	var b strings.Builder
	b.WriteString(styleTitle.Render("学习历史") + "\n")
	for _, e := range entries {
		title := e.Section
		if e.Subsection != "" {
			title += " - " + e.Subsection
		}
		b.WriteString("\n" + styleTitle.Render(title) + "  " + styleDim.Render(e.Time.Format("15:04:05")) + "\n")
		b.WriteString(styleUser.Render("提示词: ") + render.Wrap(e.Prompt, width) + "\n")
		b.WriteString(styleAssistant.Render("AI回应: ") + formatAnswer(e.Response, width) + "\n")
	}
	return b.String()
}

// newViewport creates a new viewport model with the given dimensions.
func newViewport(width, height int) viewport.Model {
	return viewport.New(width, height)
}
