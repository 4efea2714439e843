package storage

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hn-sentiment/ranker"
	"hn-sentiment/thread"
)

// newTestStore creates a Store backed by a temporary SQLite database.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New(%q): %v", dbPath, err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleDocument(postID int, analyzedAt string) *thread.Document {
	score := 9
	parent := 101
	return &thread.Document{
		Version:           thread.SchemaVersion,
		PostID:            postID,
		PostURL:           thread.DiscussionURL(postID),
		Title:             "Show HN: Something",
		SentimentQuestion: "Something is useful",
		Model:             "anthropic/claude-haiku-4.5",
		AnalyzedAt:        analyzedAt,
		RunID:             "run-1",
		Post:              thread.Post{ID: postID, Title: "Show HN: Something", Author: "op", Time: 1700000000},
		Comments: thread.Tree{
			{
				ID:     101,
				Author: "alice",
				Text:   "Nice work",
				Analysis: &thread.Analysis{
					Sentiment:      thread.Supportive,
					IntensityScore: &score,
					Summary:        "Praises the work.",
					Keywords:       []string{"nice"},
				},
				Children: []*thread.Comment{
					{ID: 102, ParentID: &parent, Author: "bob", Text: "Agreed", Children: []*thread.Comment{}},
				},
			},
		},
	}
}

func TestNew(t *testing.T) {
	t.Run("creates database and tables", func(t *testing.T) {
		s := newTestStore(t)
		for _, table := range []string{"analyses", "watches", "settings"} {
			if _, err := s.db.Exec("SELECT COUNT(*) FROM " + table); err != nil {
				t.Errorf("%s table missing: %v", table, err)
			}
		}
	})

	t.Run("invalid path returns error", func(t *testing.T) {
		_, err := New("/nonexistent/dir/db.sqlite")
		if err == nil {
			t.Fatal("expected error for invalid path, got nil")
		}
	})
}

func TestSaveAndLoadAnalysis(t *testing.T) {
	s := newTestStore(t)
	doc := sampleDocument(100, "2026-01-02T03:04:05Z")

	if err := s.SaveAnalysis(doc); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}

	got, err := s.LoadAnalysis(100)
	if err != nil {
		t.Fatalf("LoadAnalysis: %v", err)
	}
	if got == nil {
		t.Fatal("expected stored analysis")
	}
	if got.Title != doc.Title || got.SentimentQuestion != doc.SentimentQuestion || got.RunID != "run-1" {
		t.Errorf("unexpected document header: %+v", got)
	}
	if len(got.Comments) != 1 || len(got.Comments[0].Children) != 1 {
		t.Fatalf("unexpected tree shape: %+v", got.Comments)
	}
	a := got.Comments[0].Analysis
	if a == nil || a.Sentiment != thread.Supportive || a.IntensityScore == nil || *a.IntensityScore != 9 {
		t.Errorf("analysis not preserved: %+v", a)
	}
	child := got.Comments[0].Children[0]
	if child.ParentID == nil || *child.ParentID != 101 || child.Analysis != nil {
		t.Errorf("child not preserved: %+v", child)
	}
	if got.Comments[0].ParentID != nil {
		t.Errorf("expected nil parent for root comment")
	}
}

func TestSaveAnalysis_Replaces(t *testing.T) {
	s := newTestStore(t)
	first := sampleDocument(100, "2026-01-01T00:00:00Z")
	if err := s.SaveAnalysis(first); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}

	second := sampleDocument(100, "2026-01-02T00:00:00Z")
	second.SentimentQuestion = "Updated question"
	if err := s.SaveAnalysis(second); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}

	list, err := s.ListAnalyses()
	if err != nil {
		t.Fatalf("ListAnalyses: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 analysis, got %d", len(list))
	}
	if list[0].Question != "Updated question" {
		t.Errorf("expected replaced analysis, got %q", list[0].Question)
	}
}

func TestLoadAnalysis_NotFound(t *testing.T) {
	s := newTestStore(t)
	got, err := s.LoadAnalysis(999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing analysis, got %+v", got)
	}
}

func TestListAnalyses_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	for _, d := range []*thread.Document{
		sampleDocument(1, "2026-01-01T00:00:00Z"),
		sampleDocument(2, "2026-03-01T00:00:00Z"),
		sampleDocument(3, "2026-02-01T00:00:00Z"),
	} {
		if err := s.SaveAnalysis(d); err != nil {
			t.Fatalf("SaveAnalysis: %v", err)
		}
	}

	list, err := s.ListAnalyses()
	if err != nil {
		t.Fatalf("ListAnalyses: %v", err)
	}
	var ids []int
	for _, a := range list {
		ids = append(ids, a.PostID)
	}
	if len(ids) != 3 || ids[0] != 2 || ids[1] != 3 || ids[2] != 1 {
		t.Errorf("expected [2 3 1], got %v", ids)
	}
}

func TestDeleteAnalysis(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveAnalysis(sampleDocument(100, "2026-01-01T00:00:00Z")); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}

	deleted, err := s.DeleteAnalysis(100)
	if err != nil || !deleted {
		t.Fatalf("DeleteAnalysis = %v, %v; want true, nil", deleted, err)
	}
	deleted, err = s.DeleteAnalysis(100)
	if err != nil || deleted {
		t.Fatalf("second DeleteAnalysis = %v, %v; want false, nil", deleted, err)
	}
	if got, _ := s.LoadAnalysis(100); got != nil {
		t.Error("analysis still present after delete")
	}
}

func TestWatches(t *testing.T) {
	s := newTestStore(t)

	for _, id := range []int{10, 20, 10} {
		if err := s.AddWatch(id); err != nil {
			t.Fatalf("AddWatch(%d): %v", id, err)
		}
	}

	watches, err := s.ListWatches()
	if err != nil {
		t.Fatalf("ListWatches: %v", err)
	}
	if len(watches) != 2 {
		t.Fatalf("expected 2 watches, got %d", len(watches))
	}
	for _, w := range watches {
		if w.AddedAt == 0 || w.LastRunAt != 0 {
			t.Errorf("unexpected watch timestamps: %+v", w)
		}
	}

	at := time.Date(2026, 5, 1, 6, 0, 0, 0, time.UTC)
	if err := s.MarkWatchRun(20, at); err != nil {
		t.Fatalf("MarkWatchRun: %v", err)
	}
	watches, _ = s.ListWatches()
	for _, w := range watches {
		if w.PostID == 20 && w.LastRunAt != at.Unix() {
			t.Errorf("expected last run %d, got %d", at.Unix(), w.LastRunAt)
		}
	}

	removed, err := s.RemoveWatch(10)
	if err != nil || !removed {
		t.Fatalf("RemoveWatch = %v, %v; want true, nil", removed, err)
	}
	removed, _ = s.RemoveWatch(10)
	if removed {
		t.Error("expected second RemoveWatch to report false")
	}
	watches, _ = s.ListWatches()
	if len(watches) != 1 || watches[0].PostID != 20 {
		t.Errorf("unexpected watches after remove: %+v", watches)
	}
}

func TestSettings(t *testing.T) {
	s := newTestStore(t)

	val, err := s.GetSetting("missing")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if val != "" {
		t.Errorf("expected empty string for missing key, got %q", val)
	}

	if err := s.SetSetting("k", "v1"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := s.SetSetting("k", "v2"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if val, _ := s.GetSetting("k"); val != "v2" {
		t.Errorf("expected v2, got %q", val)
	}
}

func TestPreferences(t *testing.T) {
	s := newTestStore(t)

	prefs, err := s.LoadPreferences("default-model")
	if err != nil {
		t.Fatalf("LoadPreferences: %v", err)
	}
	if prefs != DefaultPreferences("default-model") {
		t.Errorf("expected defaults, got %+v", prefs)
	}

	prefs.Model = "openai/gpt-5-mini"
	prefs.ShowKeywords = false
	prefs.SortMode = thread.SortIntensityDesc
	if err := s.SavePreferences(prefs); err != nil {
		t.Fatalf("SavePreferences: %v", err)
	}

	got, err := s.LoadPreferences("default-model")
	if err != nil {
		t.Fatalf("LoadPreferences: %v", err)
	}
	if got != prefs {
		t.Errorf("expected %+v, got %+v", prefs, got)
	}
}

func TestPreferences_MergesOverDefaults(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetSetting(preferencesKey, `{"showSummary":false,"sortMode":"sentiment-asc"}`); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}

	got, err := s.LoadPreferences("m")
	if err != nil {
		t.Fatalf("LoadPreferences: %v", err)
	}
	want := Preferences{Model: "m", ShowSummary: false, ShowKeywords: true, ShowSentiment: true, SortMode: thread.SortIntensityAsc}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestPreferences_Corrupt(t *testing.T) {
	s := newTestStore(t)
	s.SetSetting(preferencesKey, "{not json")

	got, err := s.LoadPreferences("m")
	if err == nil {
		t.Fatal("expected decode error")
	}
	if got != DefaultPreferences("m") {
		t.Errorf("expected defaults on error, got %+v", got)
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	doc := sampleDocument(42, "2026-01-02T03:04:05Z")
	doc.Version = ""

	var buf bytes.Buffer
	if err := WriteDocument(&buf, doc); err != nil {
		t.Fatalf("WriteDocument: %v", err)
	}
	if !strings.Contains(buf.String(), `"hnPostId": 42`) {
		t.Errorf("expected indented JSON with hnPostId, got:\n%s", buf.String())
	}
	if doc.Version != "" {
		t.Error("WriteDocument must not modify its input")
	}

	got, err := ReadDocument(&buf)
	if err != nil {
		t.Fatalf("ReadDocument: %v", err)
	}
	if got.Version != thread.SchemaVersion {
		t.Errorf("expected version %q, got %q", thread.SchemaVersion, got.Version)
	}
	if got.PostID != 42 || got.Comments[0].Children[0].Author != "bob" {
		t.Errorf("unexpected document: %+v", got)
	}
}

func TestReadDocument_Invalid(t *testing.T) {
	tests := map[string]string{
		"not json":        "{",
		"missing version": `{"hnPostId": 1, "comments": []}`,
		"missing post id": `{"version": "1.0", "comments": []}`,
		"wrong shape":     `[1, 2, 3]`,
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadDocument(strings.NewReader(input))
			if !errors.Is(err, ErrInvalidDocument) {
				t.Errorf("expected ErrInvalidDocument, got %v", err)
			}
		})
	}
}

func TestReadDocument_FillsDefaults(t *testing.T) {
	got, err := ReadDocument(strings.NewReader(`{"version": "1.0", "hnPostId": 7}`))
	if err != nil {
		t.Fatalf("ReadDocument: %v", err)
	}
	if got.Comments == nil || len(got.Comments) != 0 {
		t.Errorf("expected empty comment list, got %v", got.Comments)
	}
	if got.PostURL != "https://news.ycombinator.com/item?id=7" {
		t.Errorf("unexpected post URL %q", got.PostURL)
	}
}

func TestReadDocument_NormalizesAnalyses(t *testing.T) {
	input := `{
  "version": "1.0",
  "hnPostId": 9,
  "comments": [
    {"id": 1, "text": "a", "analysis": {"sentiment": "promoter", "intensityScore": 7,
      "keywords": ["k1", "k2", "k3", "k4", "k5", "k6", "k7"]}},
    {"id": 2, "text": "b", "analysis": {"sentiment": "supportive", "intensityScore": 1}},
    {"id": 3, "text": "c", "analysis": {"sentiment": "neutral", "intensityScore": 8}},
    {"id": 4, "deleted": true, "analysis": {"sentiment": "opposing", "intensityScore": 2}},
    {"id": 5, "text": "e", "analysis": {"sentiment": "positive"}}
  ]
}`
	doc, err := ReadDocument(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadDocument: %v", err)
	}
	c := doc.Comments

	if a := c[0].Analysis; a == nil || a.Sentiment != thread.Supportive || a.Score() != 9 || len(a.Keywords) != thread.MaxKeywords {
		t.Errorf("promoter analysis not normalized: %+v", a)
	}
	if a := c[1].Analysis; a == nil || a.Score() != 9 {
		t.Errorf("expected supportive score clamped to 9, got %+v", a)
	}
	if c[3].Analysis != nil {
		t.Error("deleted comment must not keep an analysis")
	}
	if c[4].Analysis != nil {
		t.Error("unknown sentiment must be dropped")
	}

	stats := ranker.Compute(doc.Comments)
	if stats.Supportive != 2 || stats.Neutral != 1 || stats.Opposing != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	sorted := thread.Sort(doc.Comments, thread.SortIntensityDesc)
	var order []int
	for _, cm := range sorted {
		order = append(order, cm.ID)
	}
	want := []int{1, 2, 3, 4, 5}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("intensity-desc order = %v, want %v", order, want)
		}
	}
}

func TestExportFileName(t *testing.T) {
	if got := ExportFileName(123); got != "hn-123-analysis.json" {
		t.Errorf("unexpected file name %q", got)
	}
}
