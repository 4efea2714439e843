package hn

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	digitsRe  = regexp.MustCompile(`^\d+$`)
	idParamRe = regexp.MustCompile(`[?&]id=(\d+)`)
)

// ParsePostID extracts a post ID from either a bare number or a URL
// carrying an id query parameter, such as a news.ycombinator.com item link.
func ParsePostID(input string) (int, bool) {
	s := strings.TrimSpace(input)
	if digitsRe.MatchString(s) {
		return atoiPositive(s)
	}
	if m := idParamRe.FindStringSubmatch(s); m != nil {
		return atoiPositive(m[1])
	}
	return 0, false
}

func atoiPositive(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
