package parse

import "strings"

// LineKind classifies a single lecture line.
type LineKind int

const (
	LineOther LineKind = iota
	LineSection
	LineSubsection
	LineTableOfContents
)

func (k LineKind) String() string {
	switch k {
	case LineSection:
		return "section"
	case LineSubsection:
		return "subsection"
	case LineTableOfContents:
		return "toc"
	default:
		return "other"
	}
}

// Options holds the literal markers of the lecture format.
type Options struct {
	SectionPrefix    string `toml:"section_prefix"`
	SubsectionPrefix string `toml:"subsection_prefix"`
	TOCHeading       string `toml:"toc_heading"`
	PromptMarker     string `toml:"prompt_marker"`
	Fence            string `toml:"fence"`
}

// DefaultOptions returns the markers used by the lecture files.
func DefaultOptions() Options {
	return Options{
		SectionPrefix:    "## ",
		SubsectionPrefix: "### ",
		TOCHeading:       "## 目录",
		PromptMarker:     "**AI提示词：**",
		Fence:            "```",
	}
}

// withDefaults fills empty markers from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SectionPrefix == "" {
		o.SectionPrefix = d.SectionPrefix
	}
	if o.SubsectionPrefix == "" {
		o.SubsectionPrefix = d.SubsectionPrefix
	}
	if o.TOCHeading == "" {
		o.TOCHeading = d.TOCHeading
	}
	if o.PromptMarker == "" {
		o.PromptMarker = d.PromptMarker
	}
	if o.Fence == "" {
		o.Fence = d.Fence
	}
	return o
}

// ClassifyLine classifies line using the default markers.
func ClassifyLine(line string) LineKind {
	return DefaultOptions().Classify(line)
}

// Classify classifies line. The table-of-contents heading wins over the
// plain section prefix it shares.
func (o Options) Classify(line string) LineKind {
	switch {
	case strings.HasPrefix(line, o.TOCHeading):
		return LineTableOfContents
	case strings.HasPrefix(line, o.SectionPrefix):
		return LineSection
	case strings.HasPrefix(line, o.SubsectionPrefix):
		return LineSubsection
	default:
		return LineOther
	}
}

// headingTitle strips prefix from a heading line and trims the rest.
func headingTitle(line, prefix string) string {
	return strings.TrimSpace(strings.TrimPrefix(line, prefix))
}
