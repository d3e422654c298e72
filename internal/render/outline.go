package render

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/ai-study-companion/internal/parse"
)

const promptMark = " [AI]"

// Outline draws the section tree of a lecture. Nodes carrying an AI prompt
// are marked with [AI]; parser warnings are listed at the end.
func Outline(name string, doc *parse.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d sections, %d subsections)\n", name, doc.Len(), doc.SubsectionCount())

	sections := doc.Sections()
	for i, sec := range sections {
		last := i == len(sections)-1
		branch, indent := "├─ ", "│  "
		if last {
			branch, indent = "└─ ", "   "
		}
		b.WriteString(branch + sec.Title + "\n")

		for j, sub := range sec.Children {
			subBranch := "├─ "
			if j == len(sec.Children)-1 {
				subBranch = "└─ "
			}
			mark := ""
			if sub.Prompt.IsSet() {
				mark = promptMark
			}
			b.WriteString(indent + subBranch + sub.Title + mark + "\n")
		}
	}

	if len(doc.Warnings) > 0 {
		b.WriteString("warnings:\n")
		for _, w := range doc.Warnings {
			fmt.Fprintf(&b, "  line %d: %s\n", w.Line, w.Text)
		}
	}
	return b.String()
}

// Node renders one section or subsection for the terminal: title, body and
// the AI prompt if there is one, wrapped to width columns.
func Node(node *parse.ContentNode, width int) string {
	var b strings.Builder
	b.WriteString(node.Title + "\n")
	b.WriteString(strings.Repeat("=", min(max(runewidth.StringWidth(node.Title), 3), max(width, 3))) + "\n")

	if node.Content != "" {
		b.WriteString("\n" + Wrap(node.Content, width) + "\n")
	}
	if len(node.Children) > 0 {
		b.WriteString("\n")
		for _, c := range node.Children {
			b.WriteString("  - " + c.Title + "\n")
		}
	}
	if p, ok := node.Prompt.Get(); ok {
		b.WriteString("\nAI 提示词:\n")
		b.WriteString(indentLines(Wrap(p, max(width-2, 0)), "  ") + "\n")
	}
	return b.String()
}
