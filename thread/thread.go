package thread

import (
	"math"
	"strings"
)

// Sentiment is the stance a comment takes towards the sentiment question.
type Sentiment string

const (
	Supportive Sentiment = "supportive"
	Neutral    Sentiment = "neutral"
	Opposing   Sentiment = "opposing"
)

// Representative intensity scores used when a provider omits the score.
const (
	SupportiveScore = 9
	NeutralScore    = 7
	OpposingScore   = 3
)

// MaxKeywords caps the keyword phrases kept per analysis.
const MaxKeywords = 5

// ParseSentiment maps a provider label to a Sentiment.
// The NPS-style labels "promoter" and "detractor" are accepted as aliases.
func ParseSentiment(s string) (Sentiment, bool) {
	switch s {
	case "supportive", "promoter":
		return Supportive, true
	case "neutral":
		return Neutral, true
	case "opposing", "detractor":
		return Opposing, true
	}
	return "", false
}

// FallbackScore returns the representative score for a sentiment.
// Unknown values map to the neutral score.
func FallbackScore(s Sentiment) int {
	switch s {
	case Supportive:
		return SupportiveScore
	case Opposing:
		return OpposingScore
	default:
		return NeutralScore
	}
}

// scoreBand returns the inclusive score range belonging to a sentiment.
func scoreBand(s Sentiment) (int, int) {
	switch s {
	case Supportive:
		return 9, 10
	case Opposing:
		return 0, 6
	default:
		return 7, 8
	}
}

// NormalizeScore turns a raw provider score into one consistent with the
// sentiment. Missing or non-finite scores take the fallback value; finite
// scores are rounded and clamped into the sentiment's band.
func NormalizeScore(s Sentiment, raw *float64) int {
	if raw == nil || math.IsNaN(*raw) || math.IsInf(*raw, 0) {
		return FallbackScore(s)
	}
	lo, hi := scoreBand(s)
	v := int(math.Round(*raw))
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Analysis is the enrichment result attached to a comment.
type Analysis struct {
	Sentiment      Sentiment `json:"sentiment"`
	IntensityScore *int      `json:"intensityScore,omitempty"`
	Summary        string    `json:"summary"`
	Keywords       []string  `json:"keywords"`
}

// Score returns the intensity score, falling back to the sentiment's
// representative value when no score is recorded.
func (a *Analysis) Score() int {
	if a == nil {
		return NeutralScore
	}
	if a.IntensityScore != nil {
		return *a.IntensityScore
	}
	return FallbackScore(a.Sentiment)
}

func (a *Analysis) clone() *Analysis {
	if a == nil {
		return nil
	}
	c := *a
	if a.IntensityScore != nil {
		v := *a.IntensityScore
		c.IntensityScore = &v
	}
	if a.Keywords != nil {
		c.Keywords = append([]string(nil), a.Keywords...)
	}
	return &c
}

// normalized returns a copy that satisfies the analysis invariants, or nil
// when the sentiment is not a known label.
func (a *Analysis) normalized() *Analysis {
	sentiment, ok := ParseSentiment(strings.ToLower(strings.TrimSpace(string(a.Sentiment))))
	if !ok {
		return nil
	}
	var raw *float64
	if a.IntensityScore != nil {
		f := float64(*a.IntensityScore)
		raw = &f
	}
	score := NormalizeScore(sentiment, raw)

	keywords := make([]string, 0, MaxKeywords)
	for _, kw := range a.Keywords {
		if len(keywords) == MaxKeywords {
			break
		}
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}

	return &Analysis{
		Sentiment:      sentiment,
		IntensityScore: &score,
		Summary:        strings.TrimSpace(a.Summary),
		Keywords:       keywords,
	}
}

// Comment is one node of a discussion tree.
type Comment struct {
	ID int `json:"id"`
	// ParentID is nil for direct children of the analysed post.
	ParentID *int       `json:"parentId"`
	Author   string     `json:"author"`
	Time     int64      `json:"time"`
	Text     string     `json:"text"`
	Deleted  bool       `json:"deleted,omitempty"`
	Dead     bool       `json:"dead,omitempty"`
	Children []*Comment `json:"children"`
	Analysis *Analysis  `json:"analysis,omitempty"`
}

// IsTarget reports whether the comment is eligible for enrichment.
func (c *Comment) IsTarget() bool {
	return c.Text != "" && !c.Deleted && !c.Dead
}

// Tree is the ordered list of top-level comments under a post.
type Tree []*Comment

// Walk visits every comment depth-first, parent before children. A
// comment linked from more than one place is visited once, at its first
// position.
func (t Tree) Walk(fn func(c *Comment)) {
	t.walk(make(map[*Comment]bool), fn)
}

func (t Tree) walk(seen map[*Comment]bool, fn func(c *Comment)) {
	for _, c := range t {
		if seen[c] {
			continue
		}
		seen[c] = true
		fn(c)
		Tree(c.Children).walk(seen, fn)
	}
}

// Flatten returns every comment in depth-first order.
func (t Tree) Flatten() []*Comment {
	var out []*Comment
	t.Walk(func(c *Comment) { out = append(out, c) })
	return out
}

// CountTargets returns the number of comments eligible for enrichment.
func (t Tree) CountTargets() int {
	n := 0
	t.Walk(func(c *Comment) {
		if c.IsTarget() {
			n++
		}
	})
	return n
}

// Normalize repairs analyses that did not come from this program, such as
// an imported file. Ineligible comments lose their analysis, labels are
// mapped to a known sentiment (unknown labels drop the analysis), scores
// are moved into the sentiment's band and keywords are capped.
func (t Tree) Normalize() {
	t.Walk(func(c *Comment) {
		if c.Analysis == nil {
			return
		}
		if !c.IsTarget() {
			c.Analysis = nil
			return
		}
		c.Analysis = c.Analysis.normalized()
	})
}

// Clone returns a deep copy of the tree. No comment, analysis or keyword
// slice is shared with the original.
func (t Tree) Clone() Tree {
	if t == nil {
		return nil
	}
	out := make(Tree, len(t))
	for i, c := range t {
		out[i] = c.clone()
	}
	return out
}

func (c *Comment) clone() *Comment {
	cp := *c
	if c.ParentID != nil {
		p := *c.ParentID
		cp.ParentID = &p
	}
	cp.Analysis = c.Analysis.clone()
	cp.Children = Tree(c.Children).Clone()
	return &cp
}
