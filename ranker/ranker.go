package ranker

import (
	"math"
	"sort"
	"strings"

	"hn-sentiment/thread"
)

// TopKeywords is the number of keyword phrases kept in Stats.
const TopKeywords = 10

// KeywordCount is a keyword phrase and how many analyses mention it.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// Stats summarises the sentiment of an analysed thread.
type Stats struct {
	Analyzable int `json:"analyzable"`
	Analyzed   int `json:"analyzed"`
	Supportive int `json:"supportive"`
	Neutral    int `json:"neutral"`
	Opposing   int `json:"opposing"`
	// NetScore is an NPS-style score from -100 to 100.
	NetScore int            `json:"netScore"`
	Keywords []KeywordCount `json:"keywords"`
}

// Compute aggregates the analyses in tree.
// Formula: net = round(100 * (supportive - opposing) / analyzed)
// Keywords are counted case-insensitively and reported in the spelling
// first seen; ties keep first-seen order.
func Compute(tree thread.Tree) Stats {
	var s Stats
	counts := make(map[string]*KeywordCount)
	var order []*KeywordCount

	tree.Walk(func(c *thread.Comment) {
		if !c.IsTarget() {
			return
		}
		s.Analyzable++
		if c.Analysis == nil {
			return
		}
		s.Analyzed++
		switch c.Analysis.Sentiment {
		case thread.Supportive:
			s.Supportive++
		case thread.Opposing:
			s.Opposing++
		default:
			s.Neutral++
		}
		for _, kw := range c.Analysis.Keywords {
			kw = strings.TrimSpace(kw)
			if kw == "" {
				continue
			}
			key := strings.ToLower(kw)
			if kc, ok := counts[key]; ok {
				kc.Count++
				continue
			}
			kc := &KeywordCount{Keyword: kw, Count: 1}
			counts[key] = kc
			order = append(order, kc)
		}
	})

	if s.Analyzed > 0 {
		s.NetScore = int(math.Round(100 * float64(s.Supportive-s.Opposing) / float64(s.Analyzed)))
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Count > order[j].Count
	})
	if len(order) > TopKeywords {
		order = order[:TopKeywords]
	}
	s.Keywords = make([]KeywordCount, len(order))
	for i, kc := range order {
		s.Keywords[i] = *kc
	}
	return s
}

// KeywordList returns the top keyword phrases joined for display.
func (s Stats) KeywordList() string {
	names := make([]string, len(s.Keywords))
	for i, kc := range s.Keywords {
		names[i] = kc.Keyword
	}
	return strings.Join(names, ", ")
}
