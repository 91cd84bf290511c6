package session

import (
	"time"

	"github.com/atulbakery/ishan-assistant/src/conversation"
	"github.com/atulbakery/ishan-assistant/src/order"
)

// State is everything one chat session owns.
type State struct {
	ID           string                    `json:"id"`
	PersonaID    string                    `json:"personaId"`
	Messages     conversation.Conversation `json:"messages"`
	Overrides    map[string]string         `json:"overrides"`
	PendingOrder *order.Order              `json:"pendingOrder"`
	Typing       bool                      `json:"typing"`
	TypingSince  time.Time                 `json:"typingSince"`
	UpdatedAt    time.Time                 `json:"updatedAt"`
}

// Action is a state transition request understood by Reduce.
type Action interface {
	isAction()
}

// Send records a customer message and starts typing.
type Send struct {
	Message conversation.Message
	At      time.Time
}

// Receive records the assistant reply. A non-nil Order replaces any pending one.
type Receive struct {
	Message conversation.Message
	Order   *order.Order
}

// ConfirmOrder clears the pending order once it has been handed off.
type ConfirmOrder struct{}

// EditOrder discards the pending order so the customer can keep chatting.
type EditOrder struct{}

// SwitchPersona changes persona and restarts the conversation with Greeting.
type SwitchPersona struct {
	PersonaID string
	Greeting  conversation.Message
}

// UpdateInstruction stores an instruction override for a persona.
type UpdateInstruction struct {
	PersonaID   string
	Instruction string
}

// Restore replaces the history and, when Instructions is non-nil, the overrides.
type Restore struct {
	Messages     []conversation.Message
	Instructions map[string]string
}

func (Send) isAction()              {}
func (Receive) isAction()           {}
func (ConfirmOrder) isAction()      {}
func (EditOrder) isAction()         {}
func (SwitchPersona) isAction()     {}
func (UpdateInstruction) isAction() {}
func (Restore) isAction()           {}

// Reduce applies an action and returns the new state. The input is not modified.
func Reduce(s State, a Action) State {
	next := s.clone()
	switch a := a.(type) {
	case Send:
		next.Messages = next.Messages.Append(a.Message)
		next.Typing = true
		next.TypingSince = a.At
	case Receive:
		next.Messages = next.Messages.Append(a.Message)
		next.Typing = false
		next.TypingSince = time.Time{}
		if a.Order != nil {
			o := *a.Order
			next.PendingOrder = &o
		}
	case ConfirmOrder, EditOrder:
		next.PendingOrder = nil
	case SwitchPersona:
		next.PersonaID = a.PersonaID
		next.Messages = conversation.Reset(a.Greeting)
	case UpdateInstruction:
		if next.Overrides == nil {
			next.Overrides = map[string]string{}
		}
		next.Overrides[a.PersonaID] = a.Instruction
	case Restore:
		if msgs, ok := conversation.Restore(a.Messages); ok {
			next.Messages = msgs
		}
		if a.Instructions != nil {
			next.Overrides = copyMap(a.Instructions)
		}
	}
	return next
}

func (s State) clone() State {
	out := s
	out.Messages = append(conversation.Conversation(nil), s.Messages...)
	out.Overrides = copyMap(s.Overrides)
	if s.PendingOrder != nil {
		o := *s.PendingOrder
		out.PendingOrder = &o
	}
	return out
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
