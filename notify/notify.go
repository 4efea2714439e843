package notify

import (
	"fmt"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hn-sentiment/ranker"
	"hn-sentiment/thread"
)

// maxSummaryRunes keeps a digest well under Telegram's 4096 character limit.
const maxSummaryRunes = 2000

// Sender sends messages to a chat.
type Sender interface {
	SendHTML(chatID int64, text string) (int, error)
}

// Telegram sends messages through the Telegram Bot API.
type Telegram struct {
	api *tgbotapi.BotAPI
}

// NewTelegram connects to the Bot API with the given token.
func NewTelegram(token string) (*Telegram, error) {
	return NewTelegramWithEndpoint(token, tgbotapi.APIEndpoint, &http.Client{})
}

// NewTelegramWithEndpoint connects through a custom endpoint, which must be
// a format string taking the token and the method name.
func NewTelegramWithEndpoint(token, endpoint string, client *http.Client) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("connecting to telegram: %w", err)
	}
	return &Telegram{api: api}, nil
}

// SendHTML sends an HTML-formatted message and returns its message ID.
func (t *Telegram) SendHTML(chatID int64, text string) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	sent, err := t.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("sending message: %w", err)
	}
	return sent.MessageID, nil
}

// Notifier posts analysis digests to one chat.
type Notifier struct {
	sender Sender
	chatID int64
}

// New creates a Notifier.
func New(sender Sender, chatID int64) *Notifier {
	return &Notifier{sender: sender, chatID: chatID}
}

// Notify sends the digest for a completed analysis.
func (n *Notifier) Notify(doc *thread.Document, stats ranker.Stats) error {
	if _, err := n.sender.SendHTML(n.chatID, FormatDigest(doc, stats)); err != nil {
		return fmt.Errorf("notifying post %d: %w", doc.PostID, err)
	}
	return nil
}

// FormatDigest formats an analysis for Telegram using HTML.
func FormatDigest(doc *thread.Document, stats ranker.Stats) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 <b>%s</b>\n", escapeHTML(doc.Title))
	if doc.SentimentQuestion != "" {
		fmt.Fprintf(&sb, "<i>%s</i>\n", escapeHTML(doc.SentimentQuestion))
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "💬 %d of %d comments analysed\n", stats.Analyzed, stats.Analyzable)
	fmt.Fprintf(&sb, "👍 %d | 😐 %d | 👎 %d\n", stats.Supportive, stats.Neutral, stats.Opposing)
	fmt.Fprintf(&sb, "Net score: <b>%+d</b>\n", stats.NetScore)
	if kw := stats.KeywordList(); kw != "" {
		fmt.Fprintf(&sb, "🏷 %s\n", escapeHTML(kw))
	}

	if doc.ThreadSummary != "" {
		fmt.Fprintf(&sb, "\n%s\n", escapeHTML(thread.Truncate(doc.ThreadSummary, maxSummaryRunes)))
	}

	fmt.Fprintf(&sb, "\n🔗 <a href=\"%s\">HN Discussion</a>", thread.DiscussionURL(doc.PostID))
	if doc.Post.URL != "" {
		fmt.Fprintf(&sb, " | <a href=\"%s\">Article</a>", escapeHTML(doc.Post.URL))
	}
	return sb.String()
}

func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}
