package conversation

// DefaultWindow is how many recent messages are sent to the model as context.
const DefaultWindow = 10

// Conversation is an append-only message log. Methods return a new value and never
// mutate the receiver's backing array, so snapshots held elsewhere stay stable.
type Conversation []Message

// Append adds a message at the end.
func (c Conversation) Append(m Message) Conversation {
	out := make(Conversation, len(c), len(c)+1)
	copy(out, c)
	return append(out, m)
}

// Reset replaces the whole history with a single message.
func Reset(greeting Message) Conversation {
	return Conversation{greeting}
}

// Restore replaces the history wholesale. A nil slice is not a sequence and is rejected.
func Restore(messages []Message) (Conversation, bool) {
	if messages == nil {
		return nil, false
	}
	out := make(Conversation, len(messages))
	copy(out, messages)
	return out, true
}

// Window returns the last n messages (all of them when there are fewer).
func (c Conversation) Window(n int) []Message {
	if n <= 0 {
		return nil
	}
	if len(c) <= n {
		return append([]Message(nil), c...)
	}
	return append([]Message(nil), c[len(c)-n:]...)
}
