package persona

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Persona is a named behavioral profile the assistant adopts.
type Persona struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	ShopName    string `yaml:"shopName" json:"shopName"`
	Avatar      string `yaml:"avatar" json:"avatar"`
	Description string `yaml:"description" json:"description"`

	// Verbatim instruction; when empty the instruction is rendered from the fields below.
	Text  string   `yaml:"instruction" json:"-"`
	Intro string   `yaml:"intro" json:"-"`
	Flow  Flow     `yaml:"flow" json:"-"`
	Menu  Menu     `yaml:"menu" json:"-"`
	Rules []string `yaml:"rules" json:"-"`
}

// Instruction returns the default system instruction for this persona.
func (p Persona) Instruction() string {
	if strings.TrimSpace(p.Text) != "" {
		return p.Text
	}

	var b strings.Builder
	if intro := strings.TrimSpace(p.Intro); intro != "" {
		b.WriteString(intro)
		b.WriteString("\n\n")
	}
	if flow := p.Flow.Render(); flow != "" {
		b.WriteString(flow)
		b.WriteString("\n")
	}
	if menu := p.Menu.Render(); menu != "" {
		b.WriteString(menu)
		b.WriteString("\n")
	}
	if len(p.Rules) > 0 {
		b.WriteString("**BEHAVIOR RULES:**\n")
		for i, r := range p.Rules {
			fmt.Fprintf(&b, "%d. %s\n", i+1, strings.TrimSpace(r))
		}
	}
	return strings.TrimSpace(b.String())
}

// Resolve picks the override for this persona if one exists.
func (p Persona) Resolve(overrides map[string]string) string {
	if v, ok := overrides[p.ID]; ok && strings.TrimSpace(v) != "" {
		return v
	}
	return p.Instruction()
}

func (p Persona) validate() error {
	if strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.Name) == "" {
		return errors.New("persona: id and name are required")
	}
	if err := p.Flow.Validate(); err != nil {
		return errors.Wrapf(err, "persona %s", p.ID)
	}
	return nil
}
