package core

import (
	"context"
	"encoding/json"
)

// Roles used in conversation turns.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn represents a single chat turn.
type Turn struct {
	Role string
	Text string
}

// Schema is the subset of JSON Schema used to describe function parameters.
type Schema struct {
	Type        string
	Description string
	Properties  map[string]*Schema
	Items       *Schema
	Required    []string
}

// FunctionDeclaration is a capability the model may choose to invoke.
type FunctionDeclaration struct {
	Name        string
	Description string
	Parameters  *Schema
}

// FunctionCall is a structured invocation returned by the model.
type FunctionCall struct {
	Name string
	Args json.RawMessage
}

// Options controls model behavior; zero fields fall back to provider defaults.
// Temperature is a pointer so that an explicit 0 can be requested.
type Options struct {
	Model               string
	Temperature         *float64
	MaxCompletionTokens int
	SystemPrompt        string
}

// Request is one generate call.
type Request struct {
	Turns     []Turn
	Functions []FunctionDeclaration
	Options   Options
}

// Response carries either free text, function calls, or both.
type Response struct {
	Text  string
	Calls []FunctionCall
}

// Call returns the first call with the given name.
func (r *Response) Call(name string) (FunctionCall, bool) {
	if r == nil {
		return FunctionCall{}, false
	}
	for _, c := range r.Calls {
		if c.Name == name {
			return c, true
		}
	}
	return FunctionCall{}, false
}

// Client is a provider-agnostic interface for the completions we need.
type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// TextTurn is a convenience for a single user prompt.
func TextTurn(text string) []Turn {
	return []Turn{{Role: RoleUser, Text: text}}
}
