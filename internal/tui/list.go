package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/ai-study-companion/internal/parse"
)

// linesPerItem is the number of terminal lines each navigation entry occupies.
const linesPerItem = 1

// navItem is one row of the navigation tree: a section, or a subsection
// when Subsection is set.
type navItem struct {
	Section    string
	Subsection string
	HasPrompt  bool
}

func (it navItem) key() string {
	return it.Section + "\x00" + it.Subsection
}

// buildNav flattens the document into navigation rows in document order.
func buildNav(doc *parse.Document) []navItem {
	var items []navItem
	for _, sec := range doc.Sections() {
		items = append(items, navItem{Section: sec.Title})
		for _, sub := range sec.Children {
			items = append(items, navItem{Section: sec.Title, Subsection: sub.Title, HasPrompt: sub.Prompt.IsSet()})
		}
	}
	return items
}

// renderList renders the left panel: the section tree with scrolling.
func (m model) renderList(width, height int) string {
	if len(m.items) == 0 {
		return lipgloss.NewStyle().
			Foreground(colorDim).
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No sections")
	}

	var lines []string
	for i, it := range m.items {
		if i < m.listOffset {
			continue
		}
		if len(lines)+linesPerItem > height {
			break
		}
		lines = append(lines, formatNavLine(it, width, i == m.cursor))
	}

	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

// formatNavLine formats one row:
//
//	> 基础
//	    JVM *
func formatNavLine(it navItem, width int, selected bool) string {
	prefix := "  "
	if selected {
		prefix = "> "
	}
	title := it.Section
	indent := ""
	if it.Subsection != "" {
		title = it.Subsection
		indent = "  "
	}
	mark := ""
	if it.HasPrompt {
		mark = " *"
	}

	maxW := max(width-len(prefix)-len(indent)-len(mark), 0)
	if runewidth.StringWidth(title) > maxW {
		title = runewidth.Truncate(title, maxW, "…")
	}

	var styled string
	switch {
	case selected:
		styled = styleListSelected.Render(prefix + indent + title)
	case it.Subsection == "":
		styled = prefix + styleListSection.Render(title)
	default:
		styled = prefix + indent + styleListNormal.Render(title)
	}
	if mark != "" {
		styled += stylePromptMark.Render(mark)
	}
	return styled
}

// adjustListScroll keeps the cursor visible within the list viewport.
func (m *model) adjustListScroll(listHeight int) {
	visibleItems := max(listHeight/linesPerItem, 1)
	if m.cursor < m.listOffset {
		m.listOffset = m.cursor
	}
	if m.cursor >= m.listOffset+visibleItems {
		m.listOffset = m.cursor - visibleItems + 1
	}
}
