package domain

const (
	previewMaxRunes = 50
	previewFallback = "New message"
)

// MessagePreview renders the short notification body for a chat message.
// Text messages are truncated to 50 characters with a trailing ellipsis;
// media messages map to fixed labels.
func MessagePreview(m *ChatMessage) string {
	switch m.Type {
	case MessageTypeText:
		if m.Text == "" {
			return previewFallback
		}
		runes := []rune(m.Text)
		if len(runes) > previewMaxRunes {
			return string(runes[:previewMaxRunes]) + "..."
		}
		return m.Text
	case MessageTypeImage:
		return "📷 Photo"
	case MessageTypeFile:
		return "📎 File"
	default:
		return previewFallback
	}
}
