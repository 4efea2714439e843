package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"hn-sentiment/prompt"
	"hn-sentiment/ranker"
	"hn-sentiment/thread"
)

// ErrInvalidResponse is returned when a model reply cannot be used.
var ErrInvalidResponse = errors.New("invalid model response")

const (
	maxTopComments      = 5
	topCommentChars     = 300
	postBodyChars       = 1500
	articleExcerptChars = 4000
)

// Summarizer turns prompts into analyses, sentiment questions and thread
// summaries using a language model.
type Summarizer struct {
	llm       Completer
	templates prompt.Templates
}

// New creates a Summarizer. Empty templates fall back to the built-in ones.
func New(llm Completer, templates prompt.Templates) *Summarizer {
	return &Summarizer{
		llm:       llm,
		templates: templates.WithDefaults(),
	}
}

// AnalyzeComment classifies one comment's HTML against the question.
// Its signature matches analyzer.EnrichFunc.
func (s *Summarizer) AnalyzeComment(ctx context.Context, question, commentHTML string) (*thread.Analysis, error) {
	p := prompt.Render(s.templates.Analysis, map[string]string{
		"sentiment_question": question,
		"comment_text":       thread.PlainText(commentHTML),
	})

	reply, err := s.llm.Complete(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("analyzing comment: %w", err)
	}

	analysis, err := ParseAnalysis(reply)
	if err != nil {
		slog.Warn("failed to parse analysis response", "error", err, "text", reply)
		return nil, err
	}
	return analysis, nil
}

// QuestionInput is the post context used to generate a sentiment question.
type QuestionInput struct {
	Title string
	// Text is the post body as HTML, empty for link posts.
	Text string
	URL  string
	// Excerpt is readable text of the linked article, if it was fetched.
	Excerpt string
	// TopComments are root comment bodies as HTML, in thread order.
	TopComments []string
}

// GenerateQuestion asks the model for a statement commenters can agree or
// disagree with.
func (s *Summarizer) GenerateQuestion(ctx context.Context, in QuestionInput) (string, error) {
	p := prompt.Render(s.templates.Question, questionFields(in))

	reply, err := s.llm.Complete(ctx, p)
	if err != nil {
		return "", fmt.Errorf("generating question: %w", err)
	}

	question := firstLine(stripMarkdownCodeBlock(reply))
	question = strings.Trim(question, "\"'“” ")
	if question == "" {
		return "", fmt.Errorf("%w: empty question", ErrInvalidResponse)
	}
	return question, nil
}

func questionFields(in QuestionInput) map[string]string {
	fields := map[string]string{"title": in.Title}

	if body := thread.PlainText(in.Text); body != "" {
		fields["body_section"] = "\nPost text:\n" + thread.Truncate(body, postBodyChars) + "\n"
	}

	if in.URL != "" {
		section := "\nLinked URL: " + in.URL + "\n"
		if in.Excerpt != "" {
			section += "\nArticle excerpt:\n" + thread.Truncate(in.Excerpt, articleExcerptChars) + "\n"
		}
		fields["url_section"] = section
	}

	var comments []string
	for _, c := range in.TopComments {
		if len(comments) == maxTopComments {
			break
		}
		text := thread.PlainText(c)
		if text == "" {
			continue
		}
		comments = append(comments, "- "+thread.Truncate(text, topCommentChars))
	}
	if len(comments) > 0 {
		fields["top_comments_section"] = "\nTop comments:\n" + strings.Join(comments, "\n") + "\n"
	}
	return fields
}

// SummarizeThread writes a short prose summary of a thread's statistics.
func (s *Summarizer) SummarizeThread(ctx context.Context, question string, stats ranker.Stats) (string, error) {
	p := prompt.Render(s.templates.ThreadSummary, map[string]string{
		"sentiment_question": question,
		"analyzed_count":     strconv.Itoa(stats.Analyzed),
		"analyzable_count":   strconv.Itoa(stats.Analyzable),
		"nps_score":          strconv.Itoa(stats.NetScore),
		"promoters":          strconv.Itoa(stats.Supportive),
		"neutrals":           strconv.Itoa(stats.Neutral),
		"detractors":         strconv.Itoa(stats.Opposing),
		"top_keywords":       stats.KeywordList(),
	})

	reply, err := s.llm.Complete(ctx, p)
	if err != nil {
		return "", fmt.Errorf("summarizing thread: %w", err)
	}

	summary := stripMarkdownCodeBlock(reply)
	if summary == "" {
		return "", fmt.Errorf("%w: empty summary", ErrInvalidResponse)
	}
	return summary, nil
}

type analysisResponse struct {
	Sentiment      string          `json:"sentiment"`
	IntensityScore json.RawMessage `json:"intensityScore"`
	NPSScore       json.RawMessage `json:"npsScore"`
	Summary        any             `json:"summary"`
	Keywords       json.RawMessage `json:"keywords"`
}

// ParseAnalysis decodes a model reply into an Analysis. The reply may be
// wrapped in a Markdown code block. The sentiment must be one of the known
// labels; the score is made consistent with it.
func ParseAnalysis(reply string) (*thread.Analysis, error) {
	text := stripMarkdownCodeBlock(reply)

	var resp analysisResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return nil, fmt.Errorf("%w: decoding analysis JSON: %v", ErrInvalidResponse, err)
	}

	sentiment, ok := thread.ParseSentiment(strings.ToLower(strings.TrimSpace(resp.Sentiment)))
	if !ok {
		return nil, fmt.Errorf("%w: unknown sentiment %q", ErrInvalidResponse, resp.Sentiment)
	}

	raw := parseScore(resp.IntensityScore)
	if raw == nil {
		raw = parseScore(resp.NPSScore)
	}
	score := thread.NormalizeScore(sentiment, raw)

	keywords := make([]string, 0, thread.MaxKeywords)
	for _, kw := range parseKeywords(resp.Keywords) {
		if len(keywords) == thread.MaxKeywords {
			break
		}
		s := strings.TrimSpace(fmt.Sprint(kw))
		if kw == nil || s == "" {
			continue
		}
		keywords = append(keywords, s)
	}

	summary := ""
	if resp.Summary != nil {
		summary = strings.TrimSpace(fmt.Sprint(resp.Summary))
	}

	return &thread.Analysis{
		Sentiment:      sentiment,
		IntensityScore: &score,
		Summary:        summary,
		Keywords:       keywords,
	}, nil
}

// parseKeywords returns the elements of a JSON array. Anything that is not
// an array yields no keywords.
func parseKeywords(raw json.RawMessage) []any {
	var list []any
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	return list
}

// parseScore accepts a JSON number or a numeric string. Anything else is
// treated as missing.
func parseScore(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// stripMarkdownCodeBlock removes markdown code block wrappers from text.
// Models may wrap JSON responses in ```json ... ``` blocks.
func stripMarkdownCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		// Remove opening fence (possibly with language tag)
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		// Remove closing fence
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
