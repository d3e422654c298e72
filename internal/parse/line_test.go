package parse

import "testing"

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line string
		want LineKind
	}{
		{"## Intro", LineSection},
		{"## 目录", LineTableOfContents},
		{"## 目录 (Contents)", LineTableOfContents},
		{"### Basics", LineSubsection},
		{"#### Deeper", LineOther},
		{"# Title", LineOther},
		{"##NoSpace", LineOther},
		{" ## indented", LineOther},
		{"", LineOther},
		{"plain text", LineOther},
	}
	for _, tt := range tests {
		if got := ClassifyLine(tt.line); got != tt.want {
			t.Errorf("ClassifyLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestOptions_WithDefaults(t *testing.T) {
	o := Options{PromptMarker: "PROMPT:"}.withDefaults()
	d := DefaultOptions()
	if o.PromptMarker != "PROMPT:" {
		t.Errorf("explicit marker overwritten: %q", o.PromptMarker)
	}
	if o.SectionPrefix != d.SectionPrefix || o.Fence != d.Fence || o.TOCHeading != d.TOCHeading {
		t.Errorf("defaults not applied: %+v", o)
	}
}
