package render

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/Zuo-Peng/ai-study-companion/internal/parse"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
)

// HTML converts lecture markdown to an HTML fragment.
func HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// Markdown rebuilds a normalized markdown document from a parsed lecture,
// with each prompt as a fenced block under its subsection.
func Markdown(name string, doc *parse.Document) string {
	var b strings.Builder
	b.WriteString("# " + name + "\n")
	for _, sec := range doc.Sections() {
		b.WriteString("\n## " + sec.Title + "\n")
		if sec.Content != "" {
			b.WriteString("\n" + sec.Content + "\n")
		}
		for _, sub := range sec.Children {
			b.WriteString("\n### " + sub.Title + "\n")
			if sub.Content != "" {
				b.WriteString("\n" + sub.Content + "\n")
			}
			if p, ok := sub.Prompt.Get(); ok {
				b.WriteString("\n> **AI 提示词**\n\n```text\n" + p + "\n```\n")
			}
		}
	}
	return b.String()
}

const pageTemplate = `<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { max-width: 860px; margin: 2em auto; padding: 0 1em; font-family: sans-serif; line-height: 1.6; }
pre { background: #f6f8fa; padding: 1em; overflow-x: auto; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ddd; padding: 4px 8px; }
</style>
</head>
<body>
%s</body>
</html>
`

// ExportHTML renders a whole lecture as a standalone HTML page.
func ExportHTML(name string, doc *parse.Document) (string, error) {
	body, err := HTML(Markdown(name, doc))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(pageTemplate, html.EscapeString(name), body), nil
}
