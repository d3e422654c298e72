package parse

import (
	"fmt"
	"strings"
)

// Parser turns lecture text into a Document.
type Parser struct {
	opts Options
}

// New returns a Parser for the given markers. Empty markers fall back to
// DefaultOptions.
func New(opts Options) *Parser {
	return &Parser{opts: opts.withDefaults()}
}

// Parse parses raw with the default markers.
func Parse(raw string) *Document {
	return New(DefaultOptions()).Parse(raw)
}

// Parse scans raw once, line by line. It never fails: malformed structure
// produces empty or partial nodes and, for subsection headings with no
// open section, a Warning.
func (p *Parser) Parse(raw string) *Document {
	s := newScanState(p.opts)
	for i, line := range strings.Split(raw, "\n") {
		s.step(i+1, line)
	}
	return s.finish()
}

// scanState is the accumulator threaded through the line scan.
type scanState struct {
	opts       Options
	doc        *Document
	section    *ContentNode
	subsection *ContentNode
	buf        []string
	skipping   bool // inside the table of contents
	orphan     bool // inside a subsection that has no section
}

func newScanState(opts Options) *scanState {
	return &scanState{opts: opts, doc: newDocument()}
}

func (s *scanState) step(lineNo int, line string) {
	line = strings.TrimSuffix(line, "\r")
	kind := s.opts.Classify(line)

	if kind == LineTableOfContents {
		s.skipping = true
		return
	}
	if s.skipping {
		if kind != LineSection {
			return
		}
		s.skipping = false
	}

	switch kind {
	case LineSection:
		s.flush()
		s.section = &ContentNode{
			Title: headingTitle(line, s.opts.SectionPrefix),
			Line:  lineNo,
		}
		s.doc.put(s.section)
		s.subsection = nil
		s.orphan = false

	case LineSubsection:
		s.flush()
		title := headingTitle(line, s.opts.SubsectionPrefix)
		if s.section == nil {
			s.subsection = nil
			s.orphan = true
			s.doc.Warnings = append(s.doc.Warnings, Warning{
				Kind: WarnOrphanSubsection,
				Line: lineNo,
				Text: fmt.Sprintf("subsection %q appears before any section; dropped", title),
			})
			return
		}
		s.orphan = false
		s.subsection = &ContentNode{Title: title, Line: lineNo}
		s.section.Children = append(s.section.Children, s.subsection)

	default:
		s.buf = append(s.buf, line)
	}
}

// flush moves the buffered body into the node being built and resets the
// buffer. Only subsections carry prompts.
func (s *scanState) flush() {
	body := strings.TrimSpace(strings.Join(s.buf, "\n"))
	s.buf = s.buf[:0]

	switch {
	case s.orphan:
	case s.subsection != nil:
		s.subsection.Prompt, s.subsection.Content = s.opts.ExtractPrompt(body)
	case s.section != nil:
		s.section.Content = body
	}
}

func (s *scanState) finish() *Document {
	s.flush()
	for _, sec := range s.doc.sections {
		if len(sec.Children) > 0 {
			sec.Content = s.truncateAtSubsection(sec.Content)
		}
	}
	return s.doc
}

// truncateAtSubsection keeps only the lines before the first subsection
// heading, trimmed.
func (s *scanState) truncateAtSubsection(content string) string {
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		if s.opts.Classify(l) == LineSubsection {
			lines = lines[:i]
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
