package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"hn-sentiment/ranker"
	"hn-sentiment/storage"
	"hn-sentiment/thread"
)

const commentPreviewRunes = 160

// progressLine redraws a single status line in place.
type progressLine struct {
	w       io.Writer
	written bool
}

func newProgressLine(w io.Writer) *progressLine {
	return &progressLine{w: w}
}

func (p *progressLine) update(format string, args ...any) {
	fmt.Fprintf(p.w, "\r\033[K"+format, args...)
	p.written = true
}

func (p *progressLine) done() {
	if p.written {
		fmt.Fprintln(p.w)
		p.written = false
	}
}

// renderDocument prints an analysis as an indented comment tree.
func renderDocument(w io.Writer, doc *thread.Document, stats ranker.Stats, prefs storage.Preferences, mode thread.SortMode) {
	bold := color.New(color.Bold).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	fmt.Fprintf(w, "%s\n", bold(doc.Title))
	fmt.Fprintf(w, "%s\n", faint(doc.PostURL))
	fmt.Fprintf(w, "Question: %s\n", doc.SentimentQuestion)
	fmt.Fprintf(w, "Model: %s  Analysed: %s\n\n", doc.Model, doc.AnalyzedAt)

	fmt.Fprintf(w, "%d of %d comments analysed  %s %d  %s %d  %s %d  net %+d\n",
		stats.Analyzed, stats.Analyzable,
		sentimentColor(thread.Supportive)("supportive"), stats.Supportive,
		sentimentColor(thread.Neutral)("neutral"), stats.Neutral,
		sentimentColor(thread.Opposing)("opposing"), stats.Opposing,
		stats.NetScore,
	)
	if prefs.ShowKeywords {
		if kw := stats.KeywordList(); kw != "" {
			fmt.Fprintf(w, "Keywords: %s\n", kw)
		}
	}
	if prefs.ShowSummary && doc.ThreadSummary != "" {
		fmt.Fprintf(w, "\n%s\n", doc.ThreadSummary)
	}
	fmt.Fprintln(w)

	renderComments(w, thread.Sort(doc.Comments, mode), 0, prefs)
}

func renderComments(w io.Writer, list []*thread.Comment, depth int, prefs storage.Preferences) {
	indent := strings.Repeat("  ", depth)
	for _, c := range list {
		fmt.Fprintf(w, "%s%s\n", indent, commentLine(c, prefs))
		renderComments(w, c.Children, depth+1, prefs)
	}
}

func commentLine(c *thread.Comment, prefs storage.Preferences) string {
	if c.Deleted || c.Dead || c.Text == "" {
		return color.New(color.Faint).Sprintf("[%d removed]", c.ID)
	}

	text := thread.Truncate(thread.PlainText(c.Text), commentPreviewRunes)
	line := fmt.Sprintf("%s: %s", c.Author, strings.ReplaceAll(text, "\n", " "))
	if !prefs.ShowSentiment || c.Analysis == nil {
		return line
	}
	tag := fmt.Sprintf("[%s %d]", c.Analysis.Sentiment, c.Analysis.Score())
	return sentimentColor(c.Analysis.Sentiment)(tag) + " " + line
}

func sentimentColor(s thread.Sentiment) func(a ...any) string {
	switch s {
	case thread.Supportive:
		return color.New(color.FgGreen).SprintFunc()
	case thread.Opposing:
		return color.New(color.FgRed).SprintFunc()
	}
	return color.New(color.FgYellow).SprintFunc()
}
