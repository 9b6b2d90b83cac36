package entity

import "time"

// Message is an immutable unit of communication within a chat session.
// Ids are ULIDs, so ordering by (sentAt, id) is stable even for messages
// appended within the same millisecond. Only the read flag ever changes.
type Message struct {
	ID            string    `json:"id" firestore:"id"`
	ChatID        string    `json:"chat_id" firestore:"chatId"`
	SenderID      string    `json:"sender_id" firestore:"senderId"`
	Content       string    `json:"content,omitempty" firestore:"content,omitempty"`
	AttachmentURL string    `json:"attachment_url,omitempty" firestore:"attachmentUrl,omitempty"`
	SentAt        time.Time `json:"sent_at" firestore:"sentAt"`
	ReadBy        []string  `json:"read_by" firestore:"readBy"`
}

// Empty reports whether the message carries neither text nor an attachment.
func (m *Message) Empty() bool {
	return m.Content == "" && m.AttachmentURL == ""
}
