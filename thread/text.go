package thread

import (
	"strings"

	"golang.org/x/net/html"
)

// PlainText converts Hacker News comment HTML into plain text. Paragraph
// tags become blank lines, links keep their visible text and entities are
// decoded. Malformed markup degrades to whatever text could be tokenized.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(sb.String())
		case html.TextToken:
			sb.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "p":
				if sb.Len() > 0 {
					sb.WriteString("\n\n")
				}
			case "br":
				sb.WriteString("\n")
			}
		}
	}
}

// Truncate keeps the first n runes of s, appending an ellipsis when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
