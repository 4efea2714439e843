package notify

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hn-sentiment/ranker"
	"hn-sentiment/thread"
)

type mockSender struct {
	lastChatID int64
	lastText   string
	msgID      int
	err        error
}

func (m *mockSender) SendHTML(chatID int64, text string) (int, error) {
	m.lastChatID = chatID
	m.lastText = text
	m.msgID++
	return m.msgID, m.err
}

func testDoc() *thread.Document {
	return &thread.Document{
		PostID:            42,
		Title:             "Show HN: <Rust> & friends",
		SentimentQuestion: "Rust is a good choice",
		ThreadSummary:     "Mostly positive.",
		Post:              thread.Post{ID: 42, URL: "https://example.com/a?b=1&c=2"},
	}
}

func testStats() ranker.Stats {
	return ranker.Stats{
		Analyzable: 10,
		Analyzed:   8,
		Supportive: 5,
		Neutral:    2,
		Opposing:   1,
		NetScore:   50,
		Keywords:   []ranker.KeywordCount{{Keyword: "rust", Count: 4}, {Keyword: "gc", Count: 2}},
	}
}

func TestFormatDigest(t *testing.T) {
	msg := FormatDigest(testDoc(), testStats())

	for _, want := range []string{
		"<b>Show HN: &lt;Rust&gt; &amp; friends</b>",
		"<i>Rust is a good choice</i>",
		"8 of 10 comments analysed",
		"👍 5 | 😐 2 | 👎 1",
		"Net score: <b>+50</b>",
		"rust, gc",
		"Mostly positive.",
		`href="https://news.ycombinator.com/item?id=42"`,
		`href="https://example.com/a?b=1&amp;c=2"`,
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("digest missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatDigest_Minimal(t *testing.T) {
	doc := &thread.Document{PostID: 7, Title: "Ask HN: anything"}
	msg := FormatDigest(doc, ranker.Stats{NetScore: -20})

	if strings.Contains(msg, "<i>") {
		t.Error("expected no question line")
	}
	if strings.Contains(msg, "🏷") {
		t.Error("expected no keyword line")
	}
	if strings.Contains(msg, "Article") {
		t.Error("expected no article link for text posts")
	}
	if !strings.Contains(msg, "Net score: <b>-20</b>") {
		t.Errorf("expected negative net score, got:\n%s", msg)
	}
}

func TestFormatDigest_TruncatesSummary(t *testing.T) {
	doc := testDoc()
	doc.ThreadSummary = strings.Repeat("x", maxSummaryRunes*2)
	msg := FormatDigest(doc, testStats())
	if len([]rune(msg)) > 4096 {
		t.Errorf("digest too long for telegram: %d runes", len([]rune(msg)))
	}
}

func TestNotifier_Notify(t *testing.T) {
	sender := &mockSender{}
	n := New(sender, 12345)

	if err := n.Notify(testDoc(), testStats()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.lastChatID != 12345 {
		t.Errorf("expected chat 12345, got %d", sender.lastChatID)
	}
	if !strings.Contains(sender.lastText, "Net score") {
		t.Errorf("unexpected text: %s", sender.lastText)
	}
}

func TestNotifier_SendError(t *testing.T) {
	sendErr := errors.New("blocked")
	n := New(&mockSender{err: sendErr}, 1)

	err := n.Notify(testDoc(), testStats())
	if !errors.Is(err, sendErr) {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
}

func TestTelegram_SendHTML(t *testing.T) {
	var form map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"bot","username":"test_bot"}}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			if err := r.ParseForm(); err != nil {
				t.Errorf("parse form: %v", err)
			}
			form = map[string]string{
				"chat_id":    r.PostForm.Get("chat_id"),
				"text":       r.PostForm.Get("text"),
				"parse_mode": r.PostForm.Get("parse_mode"),
			}
			fmt.Fprint(w, `{"ok":true,"result":{"message_id":99,"date":0,"chat":{"id":123,"type":"private"}}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	tg, err := NewTelegramWithEndpoint("test-token", server.URL+"/bot%s/%s", server.Client())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgID, err := tg.SendHTML(123, "<b>hi</b>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msgID != 99 {
		t.Errorf("expected message id 99, got %d", msgID)
	}
	if form["chat_id"] != "123" {
		t.Errorf("expected chat_id 123, got %q", form["chat_id"])
	}
	if form["text"] != "<b>hi</b>" {
		t.Errorf("unexpected text %q", form["text"])
	}
	if form["parse_mode"] != "HTML" {
		t.Errorf("expected HTML parse mode, got %q", form["parse_mode"])
	}
}

func TestTelegram_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/getMe") {
			fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"bot","username":"test_bot"}}`)
			return
		}
		fmt.Fprint(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
	}))
	defer server.Close()

	tg, err := NewTelegramWithEndpoint("test-token", server.URL+"/bot%s/%s", server.Client())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tg.SendHTML(1, "x"); err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("expected chat not found error, got %v", err)
	}
}

func TestNewTelegram_BadToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ok":false,"error_code":401,"description":"Unauthorized"}`)
	}))
	defer server.Close()

	if _, err := NewTelegramWithEndpoint("bad", server.URL+"/bot%s/%s", server.Client()); err == nil {
		t.Fatal("expected error for rejected token")
	}
}
