package conversation

import (
	"time"

	"github.com/google/uuid"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Status is the delivery status shown next to a message.
type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

// displayTimeLayout mirrors a two-digit hour/minute clock.
const displayTimeLayout = "03:04 PM"

// Message is a single chat turn. The JSON names are part of the backup format.
type Message struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Sender    Sender `json:"sender"`
	Timestamp string `json:"timestamp"`
	Status    Status `json:"status"`
}

// NewUserMessage builds an outgoing customer message.
func NewUserMessage(text string, at time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    SenderUser,
		Timestamp: at.Format(displayTimeLayout),
		Status:    StatusSent,
	}
}

// NewBotMessage builds an assistant message.
func NewBotMessage(text string, at time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    SenderBot,
		Timestamp: at.Format(displayTimeLayout),
		Status:    StatusRead,
	}
}

// IsUser reports whether the message came from the customer.
func (m Message) IsUser() bool {
	return m.Sender == SenderUser
}
