// Package format отвечает за канонический проводной формат ретранслятора.
// Формат обязан быть стабильным байт-в-байт: каждый узел ретрансляции
// разбирает вывод других узлов для восстановления вложенных ответов.
package format

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	replyHeadMarker = "┌─"
	replyTailMarker = "└─"
	boldSeparator   = "**: "

	replyContentLimit = 50
)

var (
	mentionRe  = regexp.MustCompile(`<@!?(\d+)>`)
	boldNameRe = regexp.MustCompile(`(?s)\*\*(.+?)\*\*:?\s*(.*)`)
)

// Kind — распознанная форма ретранслированного сообщения
type Kind string

const (
	KindNested  Kind = "nested"
	KindMention Kind = "mention"
	KindPlain   Kind = "plain"
)

// ParsedContent — результат обратного разбора проводного формата
type ParsedContent struct {
	Username  string
	Content   string
	MentionID string
	Kind      Kind
}

// MessageURL строит каноническую ссылку на сообщение
func MessageURL(guildID, channelID, messageID string) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}

// Attachments: картинки рендерятся инлайн, остальное — ссылкой
func attachmentSuffix(contentType, filename, url string) string {
	if strings.HasPrefix(contentType, "image/") {
		return fmt.Sprintf("\n[📷 Image](%s)", url)
	}
	return fmt.Sprintf("\n[📎 %s](%s)", filename, url)
}

// FormatRelayedMessage строит проводную строку сообщения:
// "{url} • **<@user>**: {content}{attachments}\n\n",
// с префиксом контекста ответа, если он есть
func FormatRelayedMessage(guildID, channelID, messageID, authorID, content string, attachments []Attachment, replyPrefix string) string {
	var b strings.Builder

	if replyPrefix != "" {
		b.WriteString(replyPrefix)
	}

	b.WriteString(MessageURL(guildID, channelID, messageID))
	b.WriteString(" • **<@")
	b.WriteString(authorID)
	b.WriteString(">**: ")
	b.WriteString(content)

	for _, a := range attachments {
		b.WriteString(attachmentSuffix(a.ContentType, a.Filename, a.URL))
	}

	b.WriteString("\n\n")
	return b.String()
}

// Attachment — минимум, нужный формату
type Attachment struct {
	URL         string
	Filename    string
	ContentType string
}

// FormatReplyContext строит двухстрочный префикс контекста ответа.
// Контент обрезается до 50 символов, жирные маркеры снимаются.
func FormatReplyContext(username, content, userID string) string {
	content = strings.TrimSpace(content)
	content = strings.ReplaceAll(content, "**", "")
	content = strings.ReplaceAll(content, "__", "")
	content = strings.ReplaceAll(content, "\n", " ")

	runes := []rune(content)
	if len(runes) > replyContentLimit {
		content = string(runes[:replyContentLimit-3]) + "..."
	}

	who := username
	if userID != "" {
		who = "<@" + userID + ">"
	}

	return fmt.Sprintf("%s Replying to %s: %s\n%s ", replyHeadMarker, who, content, replyTailMarker)
}

// ParseRelayedContent — обратная операция к FormatRelayedMessage.
// Используется, когда отвечают на сообщение самого ретранслятора
// и нужно восстановить исходного автора. Три формы по порядку:
// вложенный ответ, обычное сообщение с упоминанием, сырой текст.
func ParseRelayedContent(text string) ParsedContent {
	if strings.Contains(text, replyHeadMarker) && strings.Contains(text, replyTailMarker) {
		if parsed, ok := parseNested(text); ok {
			return parsed
		}
	}

	if idx := strings.LastIndex(text, boldSeparator); idx >= 0 {
		before := text[:idx]
		content := strings.TrimSpace(text[idx+len(boldSeparator):])

		parsed := ParsedContent{Content: content, Kind: KindMention}
		if m := mentionRe.FindStringSubmatch(before); m != nil {
			parsed.MentionID = m[1]
		}
		return parsed
	}

	return ParsedContent{Username: "Someone", Content: strings.TrimSpace(text), Kind: KindPlain}
}

// parseNested достает последний сегмент "**Имя**: контент" после
// последнего маркера └─ : при ответе на ответ наружу поднимается
// только последнее человеческое сообщение, не вся цепочка
func parseNested(text string) (ParsedContent, bool) {
	idx := strings.LastIndex(text, replyTailMarker)
	if idx < 0 {
		return ParsedContent{}, false
	}

	segment := text[idx+len(replyTailMarker):]

	m := boldNameRe.FindStringSubmatch(segment)
	if m == nil {
		return ParsedContent{}, false
	}

	name := strings.TrimSpace(strings.TrimSuffix(m[1], ":"))
	parsed := ParsedContent{
		Username: name,
		Content:  strings.TrimSpace(m[2]),
		Kind:     KindNested,
	}

	if mm := mentionRe.FindStringSubmatch(name); mm != nil {
		parsed.MentionID = mm[1]
		parsed.Username = ""
	}

	return parsed, true
}
