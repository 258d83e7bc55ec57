package relay

// RejectReason — причина отклонения сообщения политикой комнаты.
// Отклонение — штатный исход, не ошибка: пользователь получает
// реакцию-сигнал, а для контентных причин еще и личное пояснение.
type RejectReason string

const (
	RejectRateLimit  RejectReason = "rate_limit"
	RejectDuplicate  RejectReason = "duplicate"
	RejectTooLong    RejectReason = "too_long"
	RejectURL        RejectReason = "url"
	RejectAttachment RejectReason = "attachment"
	RejectMention    RejectReason = "mention"
	RejectBlocked    RejectReason = "blocked"
)

// Emoji — реакция, которой помечается отклоненное сообщение
func (r RejectReason) Emoji() string {
	switch r {
	case RejectRateLimit:
		return "⏳"
	case RejectDuplicate:
		return "♻️"
	case RejectTooLong:
		return "📝"
	case RejectURL:
		return "🔗"
	case RejectAttachment:
		return "📎"
	case RejectMention:
		return "🔕"
	case RejectBlocked:
		return "⚠️"
	}
	return "❌"
}

// Explanation — текст личного сообщения отправителю.
// Пустая строка значит, что личное сообщение не отправляется
// (рейт-лимит и дубликаты сигнализируются только реакцией).
func (r RejectReason) Explanation() string {
	switch r {
	case RejectTooLong:
		return "Your message was not relayed: it exceeds the maximum length for this room."
	case RejectURL:
		return "Your message was not relayed: links are not allowed in this room."
	case RejectAttachment:
		return "Your message was not relayed: attachments are not allowed in this room."
	case RejectMention:
		return "Your message was not relayed: mentions are not allowed in this room."
	case RejectBlocked:
		return "Your message was not relayed: it contains blocked content."
	}
	return ""
}
