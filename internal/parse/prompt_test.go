package parse

import (
	"reflect"
	"strings"
	"testing"
)

const marker = "**AI提示词：**"

func TestExtractPrompt(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantPrompt string
		wantOK     bool
		wantRest   string
	}{
		{
			name:     "no marker",
			body:     "plain body ```code```",
			wantRest: "plain body ```code```",
		},
		{
			name:     "marker without fence",
			body:     "text " + marker + " nothing fenced",
			wantRest: "text " + marker + " nothing fenced",
		},
		{
			name:     "opening fence only",
			body:     "text " + marker + "\n```\nunterminated",
			wantRest: "text " + marker + "\n```\nunterminated",
		},
		{
			name:       "inline",
			body:       "body " + marker + " text ```do X``` more",
			wantPrompt: "do X",
			wantOK:     true,
			wantRest:   "body text more",
		},
		{
			name:       "multiline block",
			body:       "Intro line\n\n" + marker + "\n```\nExplain X\nin detail\n```\n\nOutro line",
			wantPrompt: "Explain X\nin detail",
			wantOK:     true,
			wantRest:   "Intro line\n\nOutro line",
		},
		{
			name:       "prompt only",
			body:       marker + "\n```\nonly the prompt\n```",
			wantPrompt: "only the prompt",
			wantOK:     true,
			wantRest:   "",
		},
		{
			name:       "fence before marker is ignored",
			body:       "```early```\n" + marker + "\n```late```",
			wantPrompt: "late",
			wantOK:     true,
			wantRest:   "```early```",
		},
		{
			name:       "first block after marker wins",
			body:       marker + " ```one``` then ```two```",
			wantPrompt: "one",
			wantOK:     true,
			wantRest:   "then ```two```",
		},
		{
			name:       "single line break gap",
			body:       "before\n" + marker + "```p```after",
			wantPrompt: "p",
			wantOK:     true,
			wantRest:   "before\nafter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt, rest := ExtractPrompt(tt.body)
			got, ok := prompt.Get()
			if ok != tt.wantOK {
				t.Fatalf("expected present=%v, got %v", tt.wantOK, ok)
			}
			if got != tt.wantPrompt {
				t.Errorf("expected prompt %q, got %q", tt.wantPrompt, got)
			}
			if rest != tt.wantRest {
				t.Errorf("expected remainder %q, got %q", tt.wantRest, rest)
			}
		})
	}
}

// TestExtractPrompt_RoundTrip re-inserts the prompt after the text that
// preceded its opening fence and compares word sequences with the body
// stripped of the marker and fences.
func TestExtractPrompt_RoundTrip(t *testing.T) {
	bodies := []string{
		"body " + marker + " text ```do X``` more",
		"Intro\n\n" + marker + "\n```\nExplain the JVM\nbriefly\n```\n\nOutro words here",
		"a b c " + marker + "```x y``` d e",
		marker + "\n```\nprompt\n```\ntrailing",
	}

	for _, body := range bodies {
		prompt, rest := ExtractPrompt(body)
		p, ok := prompt.Get()
		if !ok {
			t.Fatalf("expected prompt in %q", body)
		}

		before, after, _ := strings.Cut(body, marker)
		lead := before + after[:strings.Index(after, "```")]
		k := len(strings.Fields(lead))

		restWords := strings.Fields(rest)
		rebuilt := append([]string{}, restWords[:k]...)
		rebuilt = append(rebuilt, strings.Fields(p)...)
		rebuilt = append(rebuilt, restWords[k:]...)

		stripped := strings.Replace(body, marker, " ", 1)
		stripped = strings.Replace(stripped, "```", " ", 2)
		if want := strings.Fields(stripped); !reflect.DeepEqual(rebuilt, want) {
			t.Errorf("round trip mismatch for %q:\n got  %v\n want %v", body, rebuilt, want)
		}
	}
}

func TestPrompt_ZeroValueIsAbsent(t *testing.T) {
	var p Prompt
	if p.IsSet() {
		t.Errorf("zero Prompt should be absent")
	}
	if got, ok := SomePrompt("").Get(); !ok || got != "" {
		t.Errorf("SomePrompt(\"\") should be present and empty")
	}
}
