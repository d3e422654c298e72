package tui

import (
	"context"
	"iter"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zuo-Peng/ai-study-companion/internal/chat"
	"github.com/Zuo-Peng/ai-study-companion/internal/parse"
	"github.com/Zuo-Peng/ai-study-companion/internal/study"
)

const lecture = "## 基础\n概览\n### JVM\n虚拟机\n**AI提示词：**\n```\n解释 JVM\n```\n### GC\n垃圾回收\n## 集合\nList\n"

type fakeProvider struct{}

func (fakeProvider) StreamResponse(ctx context.Context, messages []chat.Message, topic string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, f := range []string{"答", "案"} {
			if !yield(f) {
				return
			}
		}
	}
}

func (fakeProvider) FollowUpQuestions(ctx context.Context, history []chat.Message, topic string) []string {
	return []string{"追问一", "追问二", "追问三"}
}

func newTestModel(t *testing.T) model {
	t.Helper()
	sess := study.New("s1", "java", parse.Parse(lecture), fakeProvider{}, nil, nil)
	m := initialModel(context.Background(), sess)
	t.Cleanup(m.cancel)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(model)
}

// drain runs cmd and feeds every resulting message back into the model
// until no command is left.
func drain(t *testing.T, m model, cmd tea.Cmd) model {
	t.Helper()
	for i := 0; cmd != nil && i < 100; i++ {
		msg := cmd()
		if msg == nil {
			break
		}
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, c := range batch {
				m = drain(t, m, c)
			}
			return m
		}
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(model)
	}
	return m
}

func TestBuildNav(t *testing.T) {
	items := buildNav(parse.Parse(lecture))
	var got []string
	for _, it := range items {
		s := it.Section + "/" + it.Subsection
		if it.HasPrompt {
			s += "*"
		}
		got = append(got, s)
	}
	if want := "基础/,基础/JVM*,基础/GC,集合/"; strings.Join(got, ",") != want {
		t.Fatalf("got %q", got)
	}
}

func TestInitialModelOpensFirstPage(t *testing.T) {
	m := newTestModel(t)
	page, node := m.sess.Current()
	if page.Section != "基础" || node == nil {
		t.Fatalf("expected first section open, got %+v", page)
	}
	if m.input.Value() != "概览" {
		t.Errorf("input should hold the section content, got %q", m.input.Value())
	}
}

func TestNavigationPrefillsPrompt(t *testing.T) {
	m := newTestModel(t)
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(model)

	page, _ := m.sess.Current()
	if page.Subsection != "JVM" {
		t.Fatalf("expected JVM page, got %+v", page)
	}
	if m.input.Value() != "解释 JVM" {
		t.Errorf("input=%q", m.input.Value())
	}
}

func TestAskStreamsAndLoadsFollowUps(t *testing.T) {
	m := newTestModel(t)
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(model)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(model)
	if m.focus != focusInput {
		t.Fatal("tab should focus the input")
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(model)
	if !m.asking || m.input.Value() != "" {
		t.Fatalf("expected asking state, asking=%v input=%q", m.asking, m.input.Value())
	}
	m = drain(t, m, cmd)

	if m.asking {
		t.Fatal("stream should be finished")
	}
	hist := m.sess.History()
	if len(hist) != 2 || hist[0].Content != "解释 JVM" || hist[1].Content != "答案" {
		t.Fatalf("history=%+v", hist)
	}
	if strings.Join(m.questions, ",") != "追问一,追问二,追问三" {
		t.Fatalf("questions=%q", m.questions)
	}

	// picking a suggestion from the navigation panel asks it
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(model)
	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	m = next.(model)
	m = drain(t, m, cmd)
	hist = m.sess.History()
	if len(hist) != 4 || hist[2].Content != "追问二" {
		t.Fatalf("history after pick=%+v", hist)
	}
}

func TestAskIgnoresBlankInput(t *testing.T) {
	m := newTestModel(t)
	m.input.SetValue("   ")
	if cmd := m.ask(m.input.Value()); cmd != nil || m.asking {
		t.Fatal("blank input must not start a request")
	}
}

func TestRenderPage(t *testing.T) {
	doc := parse.Parse(lecture)
	node, _ := doc.Node("基础", "JVM")

	got := renderPage(pageView{
		Node: node,
		History: []chat.Message{
			{Role: chat.RoleUser, Content: "问"},
			{Role: chat.RoleAssistant, Content: chat.ErrorPrefix + "timeout"},
		},
		Questions: []string{"a", "b", "c"},
	}, 60)
	for _, want := range []string{"JVM", "虚拟机", "解释 JVM", "问", "timeout", "1. a", "3. c"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %q", want, got)
		}
	}

	streaming := renderPage(pageView{Node: node, Asking: true, Streaming: "部分", Questions: []string{"a"}}, 60)
	if !strings.Contains(streaming, "部分▌") {
		t.Errorf("streaming text missing: %q", streaming)
	}
	if strings.Contains(streaming, "1. a") {
		t.Errorf("questions should be hidden while streaming")
	}

	if !strings.Contains(renderPage(pageView{}, 60), "Select a section") {
		t.Errorf("empty view should prompt for a selection")
	}
}

func TestRenderLearning(t *testing.T) {
	if !strings.Contains(renderLearning(nil, 40), "No questions") {
		t.Fatal("expected empty message")
	}
	got := renderLearning([]study.LearningEntry{{Section: "基础", Subsection: "JVM", Prompt: "p", Response: "r"}}, 40)
	if !strings.Contains(got, "基础 - JVM") || !strings.Contains(got, "p") {
		t.Fatalf("got %q", got)
	}
}

func TestAdjustListScroll(t *testing.T) {
	m := model{cursor: 12}
	m.adjustListScroll(5)
	if m.listOffset != 8 {
		t.Fatalf("listOffset=%d", m.listOffset)
	}
	m.cursor = 3
	m.adjustListScroll(5)
	if m.listOffset != 3 {
		t.Fatalf("listOffset=%d", m.listOffset)
	}
}
