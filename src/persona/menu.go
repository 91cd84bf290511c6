package persona

import (
	"fmt"
	"strings"

	"github.com/atulbakery/ishan-assistant/src/order"
)

// MenuItem is a catalog entry. Items with size variants carry one price per size.
type MenuItem struct {
	Name   string  `yaml:"name"`
	Prices []int64 `yaml:"prices"`
}

// Section groups related products.
type Section struct {
	Name  string     `yaml:"section"`
	Emoji string     `yaml:"emoji"`
	Items []MenuItem `yaml:"items"`
}

// Menu is the full price list shown to the model.
type Menu []Section

// Render writes the menu block of the system instruction.
func (m Menu) Render() string {
	if len(m) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("**OFFICIAL MENU & PRICES:**\n")
	for _, sec := range m {
		b.WriteString("\n")
		if sec.Emoji != "" {
			b.WriteString(sec.Emoji)
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "**%s:**\n", sec.Name)
		for _, it := range sec.Items {
			prices := make([]string, 0, len(it.Prices))
			for _, p := range it.Prices {
				prices = append(prices, fmt.Sprintf("%s%d", order.Currency, p))
			}
			fmt.Fprintf(&b, "- %s: %s\n", it.Name, strings.Join(prices, " / "))
		}
	}
	return b.String()
}

// Len counts products across all sections.
func (m Menu) Len() int {
	n := 0
	for _, sec := range m {
		n += len(sec.Items)
	}
	return n
}
