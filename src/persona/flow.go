package persona

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Step is one stage of the scripted conversation.
type Step struct {
	Key         string `yaml:"key"`
	Title       string `yaml:"title"`
	Instruction string `yaml:"instruction"`
}

// Flow is the ordered script the assistant walks through before taking an order.
// Ordering is only allowed from the last step on.
type Flow []Step

// Validate checks that every step is named and keys are unique.
func (f Flow) Validate() error {
	seen := make(map[string]struct{}, len(f))
	for i, s := range f {
		if strings.TrimSpace(s.Key) == "" || strings.TrimSpace(s.Title) == "" {
			return errors.Errorf("flow step %d: key and title are required", i+1)
		}
		if _, dup := seen[s.Key]; dup {
			return errors.Errorf("flow step %d: duplicate key %q", i+1, s.Key)
		}
		seen[s.Key] = struct{}{}
	}
	return nil
}

// Render writes the numbered step list used in the system instruction.
func (f Flow) Render() string {
	if len(f) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**CRITICAL RULE:** Do NOT ask for the order immediately. You MUST follow this specific %d-STEP CONVERSATION FLOW. Wait for the user's answer before moving to the next step.\n\n", len(f))
	b.WriteString("**Step-by-Step Flow:**\n")
	for i, s := range f {
		fmt.Fprintf(&b, "%d. **STEP %d (%s):** %s\n", i+1, i+1, s.Title, strings.TrimSpace(s.Instruction))
	}
	return b.String()
}
