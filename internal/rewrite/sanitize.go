package rewrite

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var (
	codeBlockRe = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	lineRe      = regexp.MustCompile(`^(\s*)((?:[-*•+]|\d{1,3}[.)])\s+)?(.*)$`)
	markdown    = goldmark.New()
)

// Sanitize removes markdown syntax a model may add despite instructions.
// Line count and leading list markers are preserved, since lines are paired
// back to paragraphs by position.
func Sanitize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = stripCodeBlock(s)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = sanitizeLine(line)
	}
	return strings.Join(lines, "\n")
}

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

func sanitizeLine(line string) string {
	line = strings.TrimRight(line, " \t")
	m := lineRe.FindStringSubmatch(line)
	if m == nil || m[3] == "" {
		return line
	}
	indent, marker, rest := m[1], m[2], m[3]
	plain := inlineText([]byte(rest))
	if plain == "" {
		plain = rest
	}
	return indent + marker + plain
}

// inlineText renders a markdown fragment as the text a reader would see.
func inlineText(src []byte) string {
	doc := markdown.Parser().Parse(text.NewReader(src))
	var buf bytes.Buffer
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Text:
			buf.Write(v.Segment.Value(src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.AutoLink:
			buf.Write(v.Label(src))
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(bytes.TrimRight(seg.Value(src), "\n"))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}
