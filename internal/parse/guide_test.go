package parse

import (
	"reflect"
	"strings"
	"testing"
)

const sampleLecture = `# Java Web 开发指南

## 目录
- 环境准备
- 项目结构
- 数据库

## 环境准备

本章介绍开发环境。

### 安装 JDK

下载并安装 JDK 17。

**AI提示词：**
` + "```" + `
请解释 JDK 与 JRE 的区别
` + "```" + `

安装完成后验证版本。

### 配置 Maven

编辑 settings.xml。

## 项目结构

### 目录约定

src/main/java 存放源码。

#### 更深的标题

仍属于目录约定。
`

// allText collects every content and prompt string in the document.
func allText(doc *Document) string {
	var b strings.Builder
	for _, s := range doc.Sections() {
		b.WriteString(s.Title + "\n" + s.Content + "\n")
		for _, c := range s.Children {
			b.WriteString(c.Title + "\n" + c.Content + "\n")
			if p, ok := c.Prompt.Get(); ok {
				b.WriteString(p + "\n")
			}
		}
	}
	return b.String()
}

func TestParse_ScenarioA(t *testing.T) {
	doc := Parse("## Intro\nhello\n### Basics\nworld\n")

	if doc.Len() != 1 {
		t.Fatalf("expected 1 section, got %d", doc.Len())
	}
	intro, ok := doc.Section("Intro")
	if !ok {
		t.Fatalf("section %q not found", "Intro")
	}
	if intro.Content != "hello" {
		t.Errorf("expected section content %q, got %q", "hello", intro.Content)
	}
	if len(intro.Children) != 1 {
		t.Fatalf("expected 1 child, got %d", len(intro.Children))
	}
	basics := intro.Children[0]
	if basics.Title != "Basics" {
		t.Errorf("expected child title %q, got %q", "Basics", basics.Title)
	}
	if basics.Content != "world" {
		t.Errorf("expected child content %q, got %q", "world", basics.Content)
	}
	if basics.Prompt.IsSet() {
		t.Errorf("expected no prompt")
	}
}

func TestParse_ScenarioB_PromptInSubsection(t *testing.T) {
	doc := Parse("## S\n### Sub\nbody **AI提示词：** text ```do X``` more\n")

	sub, ok := doc.Node("S", "Sub")
	if !ok {
		t.Fatalf("subsection not found")
	}
	p, ok := sub.Prompt.Get()
	if !ok {
		t.Fatalf("expected a prompt")
	}
	if p != "do X" {
		t.Errorf("expected prompt %q, got %q", "do X", p)
	}
	if sub.Content != "body text more" {
		t.Errorf("expected content %q, got %q", "body text more", sub.Content)
	}
}

func TestParse_ScenarioC_UnclosedFence(t *testing.T) {
	body := "body **AI提示词：** text ```do X\nmore"
	doc := Parse("## S\n### Sub\n" + body + "\n")

	sub, _ := doc.Node("S", "Sub")
	if sub.Prompt.IsSet() {
		t.Errorf("expected no prompt for unclosed fence")
	}
	if sub.Content != body {
		t.Errorf("expected body unchanged %q, got %q", body, sub.Content)
	}
}

func TestParse_ScenarioD_TableOfContentsSkipped(t *testing.T) {
	doc := Parse("## 目录\n- one\n- two\n- three\n## Topic\ncontent\n")

	if got := doc.Titles(); !reflect.DeepEqual(got, []string{"Topic"}) {
		t.Fatalf("expected titles [Topic], got %v", got)
	}
	text := allText(doc)
	for _, l := range []string{"- one", "- two", "- three", "目录"} {
		if strings.Contains(text, l) {
			t.Errorf("skipped line %q leaked into the tree", l)
		}
	}
	topic, _ := doc.Section("Topic")
	if topic.Content != "content" {
		t.Errorf("expected %q, got %q", "content", topic.Content)
	}
}

func TestParse_ScenarioE_DuplicateSectionLastWins(t *testing.T) {
	doc := Parse("## A\nfirst\n## B\nb\n## A\nsecond\n")

	if doc.Len() != 2 {
		t.Fatalf("expected 2 sections, got %d", doc.Len())
	}
	a, _ := doc.Section("A")
	if a.Content != "second" {
		t.Errorf("expected content of second occurrence, got %q", a.Content)
	}
	if a.Line != 5 {
		t.Errorf("expected heading line 5, got %d", a.Line)
	}
	// The entry keeps the position of its first appearance.
	if got := doc.Titles(); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("expected order [A B], got %v", got)
	}
}

func TestParse_Idempotent(t *testing.T) {
	a := Parse(sampleLecture)
	b := Parse(sampleLecture)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("parsing the same text twice produced different documents")
	}
}

func TestParse_ContentPartition(t *testing.T) {
	doc := Parse(sampleLecture)

	for _, sec := range doc.Sections() {
		if len(sec.Children) == 0 {
			continue
		}
		for _, line := range strings.Split(sec.Content, "\n") {
			if strings.HasPrefix(line, "### ") {
				t.Errorf("section %q content contains child heading %q", sec.Title, line)
			}
		}
		for _, c := range sec.Children {
			if c.Content != "" && strings.Contains(sec.Content, c.Content) {
				t.Errorf("section %q content contains body of child %q", sec.Title, c.Title)
			}
		}
	}

	env, _ := doc.Section("环境准备")
	if env.Content != "本章介绍开发环境。" {
		t.Errorf("unexpected section content %q", env.Content)
	}
	structure, _ := doc.Section("项目结构")
	if structure.Content != "" {
		t.Errorf("expected empty content for section with no intro, got %q", structure.Content)
	}
}

func TestParse_SampleLecture(t *testing.T) {
	doc := Parse(sampleLecture)

	if got := doc.Titles(); !reflect.DeepEqual(got, []string{"环境准备", "项目结构"}) {
		t.Fatalf("unexpected titles %v", got)
	}
	if doc.SubsectionCount() != 3 {
		t.Errorf("expected 3 subsections, got %d", doc.SubsectionCount())
	}

	jdk, ok := doc.Node("环境准备", "安装 JDK")
	if !ok {
		t.Fatalf("subsection not found")
	}
	p, ok := jdk.Prompt.Get()
	if !ok || p != "请解释 JDK 与 JRE 的区别" {
		t.Errorf("unexpected prompt %q (present=%v)", p, ok)
	}
	want := "下载并安装 JDK 17。\n\n安装完成后验证版本。"
	if jdk.Content != want {
		t.Errorf("expected content %q, got %q", want, jdk.Content)
	}

	conv, _ := doc.Node("项目结构", "目录约定")
	if !strings.Contains(conv.Content, "#### 更深的标题") {
		t.Errorf("deeper headings should stay in the body, got %q", conv.Content)
	}
	if strings.Contains(allText(doc), "- 数据库") {
		t.Errorf("table of contents leaked into the tree")
	}
}

func TestParse_OrderPreservation(t *testing.T) {
	doc := Parse("## S\n### c\n1\n### a\n2\n### b\n3\n")
	sec, _ := doc.Section("S")
	if got := sec.ChildTitles(); !reflect.DeepEqual(got, []string{"c", "a", "b"}) {
		t.Errorf("expected source order [c a b], got %v", got)
	}
}

func TestParse_OrphanSubsection(t *testing.T) {
	doc := Parse("### Early\nlost text\n## Real\nbody\n")

	if len(doc.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(doc.Warnings))
	}
	w := doc.Warnings[0]
	if w.Kind != WarnOrphanSubsection || w.Line != 1 {
		t.Errorf("unexpected warning %+v", w)
	}
	if doc.Len() != 1 {
		t.Fatalf("expected 1 section, got %d", doc.Len())
	}
	if strings.Contains(allText(doc), "lost text") {
		t.Errorf("orphan subsection body leaked into the tree")
	}
	real, _ := doc.Section("Real")
	if real.Content != "body" {
		t.Errorf("expected %q, got %q", "body", real.Content)
	}
}

func TestParse_SectionsNeverCarryPrompts(t *testing.T) {
	doc := Parse("## S\nintro **AI提示词：** ```x```\n")
	sec, _ := doc.Section("S")
	if sec.Prompt.IsSet() {
		t.Errorf("section should not carry a prompt")
	}
	if !strings.Contains(sec.Content, "**AI提示词：**") {
		t.Errorf("section body should be kept verbatim, got %q", sec.Content)
	}
}

func TestParse_EdgeCases(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		titles []string
	}{
		{"empty", "", nil},
		{"no headings", "just text\nmore text", nil},
		{"preamble dropped", "# Title\nintro\n## A\nbody", []string{"A"}},
		{"toc at end", "## A\nx\n## 目录\n- a", []string{"A"}},
		{"empty title", "## \nbody", []string{""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Parse(tt.input)
			got := doc.Titles()
			if len(got) == 0 && len(tt.titles) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.titles) {
				t.Errorf("expected %v, got %v", tt.titles, got)
			}
		})
	}
}

func TestParse_CRLF(t *testing.T) {
	doc := Parse("## A\r\nline\r\n### B\r\nx\r\n")
	b, ok := doc.Node("A", "B")
	if !ok {
		t.Fatalf("subsection not found in CRLF input; titles=%v", doc.Titles())
	}
	if b.Content != "x" {
		t.Errorf("expected %q, got %q", "x", b.Content)
	}
	if b.Line != 3 {
		t.Errorf("expected line 3, got %d", b.Line)
	}
}

func TestParse_EmptySubsectionBodies(t *testing.T) {
	doc := Parse("## A\n### B\n### C\nc\n")
	b, _ := doc.Node("A", "B")
	c, _ := doc.Node("A", "C")
	if b.Content != "" || c.Content != "c" {
		t.Errorf("unexpected contents B=%q C=%q", b.Content, c.Content)
	}
}

func TestParser_CustomMarkers(t *testing.T) {
	p := New(Options{
		SectionPrefix:    "# ",
		SubsectionPrefix: "## ",
		TOCHeading:       "# Contents",
		PromptMarker:     "PROMPT:",
	})
	doc := p.Parse("# Contents\n- x\n# One\nintro\n## Two\ntext PROMPT: ```ask``` tail\n")

	if got := doc.Titles(); !reflect.DeepEqual(got, []string{"One"}) {
		t.Fatalf("unexpected titles %v", got)
	}
	two, _ := doc.Node("One", "Two")
	if p, _ := two.Prompt.Get(); p != "ask" {
		t.Errorf("expected prompt %q, got %q", "ask", p)
	}
	if two.Content != "text tail" {
		t.Errorf("unexpected content %q", two.Content)
	}
}

func TestScanState_SkipRegionTransitions(t *testing.T) {
	s := newScanState(DefaultOptions())

	s.step(1, "## 目录")
	if !s.skipping {
		t.Fatalf("expected skip flag after toc heading")
	}
	s.step(2, "### not a subsection")
	if len(s.buf) != 0 || s.section != nil {
		t.Fatalf("lines inside toc must be discarded")
	}
	s.step(3, "## Next")
	if s.skipping {
		t.Fatalf("expected skip flag cleared by the next section")
	}
	if s.section == nil || s.section.Title != "Next" {
		t.Fatalf("expected section Next to be open")
	}
	s.step(4, "body")
	if !reflect.DeepEqual(s.buf, []string{"body"}) {
		t.Errorf("unexpected buffer %v", s.buf)
	}
}
