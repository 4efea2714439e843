package thread

import (
	"fmt"
	"slices"
)

// SortMode selects the ordering applied by Sort.
type SortMode string

const (
	SortDefault       SortMode = "default"
	SortTimeAsc       SortMode = "time-asc"
	SortTimeDesc      SortMode = "time-desc"
	SortIntensityAsc  SortMode = "intensity-asc"
	SortIntensityDesc SortMode = "intensity-desc"
)

// SortModes lists every accepted mode in display order.
var SortModes = []SortMode{SortDefault, SortTimeAsc, SortTimeDesc, SortIntensityAsc, SortIntensityDesc}

// ParseSortMode converts a user-supplied name into a SortMode.
func ParseSortMode(s string) (SortMode, error) {
	switch s {
	case "", "default":
		return SortDefault, nil
	case "time-asc":
		return SortTimeAsc, nil
	case "time-desc":
		return SortTimeDesc, nil
	case "intensity-asc", "sentiment-asc":
		return SortIntensityAsc, nil
	case "intensity-desc", "sentiment-desc":
		return SortIntensityDesc, nil
	}
	return "", fmt.Errorf("unknown sort mode %q", s)
}

// Sort returns a reordered deep copy of the tree. The input is never
// modified. Every sibling list is sorted independently and stably, so
// comments with equal keys keep their original relative order.
func Sort(t Tree, mode SortMode) Tree {
	out := t.Clone()
	if out == nil {
		out = Tree{}
	}
	cmp := comparator(mode)
	if cmp == nil {
		return out
	}
	sortLevel(out, cmp)
	return out
}

func sortLevel(list []*Comment, cmp func(a, b *Comment) int) {
	slices.SortStableFunc(list, cmp)
	for _, c := range list {
		sortLevel(c.Children, cmp)
	}
}

func comparator(mode SortMode) func(a, b *Comment) int {
	switch mode {
	case SortTimeAsc:
		return func(a, b *Comment) int { return compareInt64(a.Time, b.Time) }
	case SortTimeDesc:
		return func(a, b *Comment) int { return compareInt64(b.Time, a.Time) }
	case SortIntensityAsc:
		return func(a, b *Comment) int { return a.Analysis.Score() - b.Analysis.Score() }
	case SortIntensityDesc:
		return func(a, b *Comment) int { return b.Analysis.Score() - a.Analysis.Score() }
	}
	return nil
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
