package parse

import (
	"strings"
	"unicode"
)

// ExtractPrompt splits an embedded AI prompt out of body using the default
// markers. See Options.ExtractPrompt.
func ExtractPrompt(body string) (Prompt, string) {
	return DefaultOptions().ExtractPrompt(body)
}

// ExtractPrompt looks for the prompt marker in body and takes the first
// fenced block after it as the prompt. The remainder is body with the
// marker, both fences and the prompt removed, trimmed.
//
// A missing marker, opening fence or closing fence yields no prompt and
// body unchanged.
func (o Options) ExtractPrompt(body string) (Prompt, string) {
	o = o.withDefaults()

	before, rest, found := strings.Cut(body, o.PromptMarker)
	if !found {
		return NoPrompt(), body
	}

	open := strings.Index(rest, o.Fence)
	if open < 0 {
		return NoPrompt(), body
	}
	between := rest[:open]
	afterOpen := rest[open+len(o.Fence):]

	end := strings.Index(afterOpen, o.Fence)
	if end < 0 {
		return NoPrompt(), body
	}
	prompt := strings.TrimSpace(afterOpen[:end])
	after := afterOpen[end+len(o.Fence):]

	return SomePrompt(prompt), joinPieces(before, between, after)
}

// joinPieces trims each piece and joins the non-empty ones. The separator
// follows the whitespace that was between them: a space for an inline gap,
// a newline for one line break, a blank line for more.
func joinPieces(pieces ...string) string {
	var b strings.Builder
	gap := ""
	for _, p := range pieces {
		t := strings.TrimSpace(p)
		if t == "" {
			gap += p
			continue
		}
		lead := p[:len(p)-len(strings.TrimLeftFunc(p, unicode.IsSpace))]
		trail := p[len(lead)+len(t):]
		if b.Len() > 0 {
			b.WriteString(separator(gap + lead))
		}
		b.WriteString(t)
		gap = trail
	}
	return b.String()
}

func separator(ws string) string {
	switch strings.Count(ws, "\n") {
	case 0:
		return " "
	case 1:
		return "\n"
	default:
		return "\n\n"
	}
}
