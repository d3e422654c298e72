package parse

// Prompt is the optional AI instruction embedded in a subsection body.
// The zero value is "no prompt".
type Prompt struct {
	text string
	ok   bool
}

// SomePrompt returns a present prompt holding text.
func SomePrompt(text string) Prompt {
	return Prompt{text: text, ok: true}
}

// NoPrompt returns the absent prompt.
func NoPrompt() Prompt {
	return Prompt{}
}

// Get returns the prompt text and whether a prompt is present.
func (p Prompt) Get() (string, bool) {
	return p.text, p.ok
}

// IsSet reports whether a prompt is present.
func (p Prompt) IsSet() bool {
	return p.ok
}

// ContentNode is one heading-delimited unit of a lecture: a section or a subsection.
type ContentNode struct {
	Title    string
	Content  string
	Prompt   Prompt
	Line     int // 1-based line of the heading in the source text
	Children []*ContentNode
}

// Child returns the first child with the given title.
func (n *ContentNode) Child(title string) (*ContentNode, bool) {
	for _, c := range n.Children {
		if c.Title == title {
			return c, true
		}
	}
	return nil, false
}

// ChildTitles lists child titles in document order.
func (n *ContentNode) ChildTitles() []string {
	titles := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		titles = append(titles, c.Title)
	}
	return titles
}

// Warning kinds.
const (
	WarnOrphanSubsection = "orphan_subsection"
)

// Warning records a structural anomaly the parser tolerated.
type Warning struct {
	Kind string
	Line int
	Text string
}

// Document is the result of parsing one lecture: sections keyed by title.
//
// A repeated section title replaces the earlier node but keeps the position
// of the first appearance in Titles.
type Document struct {
	sections map[string]*ContentNode
	order    []string
	Warnings []Warning
}

func newDocument() *Document {
	return &Document{sections: make(map[string]*ContentNode)}
}

func (d *Document) put(node *ContentNode) {
	if _, ok := d.sections[node.Title]; !ok {
		d.order = append(d.order, node.Title)
	}
	d.sections[node.Title] = node
}

// Section looks up a section by title.
func (d *Document) Section(title string) (*ContentNode, bool) {
	n, ok := d.sections[title]
	return n, ok
}

// Node looks up a section, or one of its subsections when subsection is non-empty.
func (d *Document) Node(section, subsection string) (*ContentNode, bool) {
	sec, ok := d.Section(section)
	if !ok || subsection == "" {
		return sec, ok
	}
	return sec.Child(subsection)
}

// Titles returns section titles in document order.
func (d *Document) Titles() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Sections returns section nodes in document order.
func (d *Document) Sections() []*ContentNode {
	out := make([]*ContentNode, 0, len(d.order))
	for _, t := range d.order {
		out = append(out, d.sections[t])
	}
	return out
}

// Len returns the number of sections.
func (d *Document) Len() int {
	return len(d.order)
}

// SubsectionCount returns the number of subsections across all sections.
func (d *Document) SubsectionCount() int {
	n := 0
	for _, s := range d.sections {
		n += len(s.Children)
	}
	return n
}
