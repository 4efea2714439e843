package prompt

import (
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)

// Render substitutes {{name}} placeholders with values from fields.
// Placeholders without a value render as the empty string, so edited
// templates that drift from the known field set still produce output.
func Render(template string, fields map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(m string) string {
		key := placeholderRe.FindStringSubmatch(m)[1]
		return fields[key]
	})
}

// Placeholders returns the distinct placeholder names used in a template,
// in order of first appearance.
func Placeholders(template string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

var hnPrefixRe = regexp.MustCompile(`(?i)^(Show HN|Ask HN|Tell HN|Launch HN):\s*`)

// SentimentQuestion derives a statement to evaluate comments against from
// a post title. Questions are kept as-is; anything else becomes a claim
// that the titled thing is good.
func SentimentQuestion(title string) string {
	q := strings.TrimSpace(hnPrefixRe.ReplaceAllString(title, ""))
	if !strings.HasSuffix(q, "?") {
		q = `"` + q + `" is a good/positive thing`
	}
	return q
}
