package gateway

import (
	"fmt"

	"github.com/atulbakery/ishan-assistant/src/ai/core"
)

// CreateOrderSummary is the only function offered to the model. Calling it is optional.
var CreateOrderSummary = core.FunctionDeclaration{
	Name:        "create_order_summary",
	Description: "Call this function when the user wants to finalize their order or asks for a bill/total. It extracts the items, quantities, and prices.",
	Parameters: &core.Schema{
		Type: "object",
		Properties: map[string]*core.Schema{
			"items": {
				Type:        "array",
				Description: "List of items ordered",
				Items: &core.Schema{
					Type: "object",
					Properties: map[string]*core.Schema{
						"itemName":  {Type: "string", Description: "Name of the product (e.g., Black Forest Cake)"},
						"quantity":  {Type: "number", Description: "Quantity ordered"},
						"unitPrice": {Type: "number", Description: "Price per unit in Rupees"},
					},
					Required: []string{"itemName", "quantity", "unitPrice"},
				},
			},
		},
		Required: []string{"items"},
	},
}

// DefaultTone is used when a broadcast request leaves the tone empty.
const DefaultTone = "Exciting and Delicious"

// BroadcastPrompt builds the one-shot marketing prompt.
func BroadcastPrompt(topic, audience, tone string) string {
	if tone == "" {
		tone = DefaultTone
	}
	return fmt.Sprintf(`Write a WhatsApp marketing broadcast message about: "%s".
Target Audience: %s
Tone: %s

Rules:
1. Use formatting like *bold* for key points.
2. Include relevant emojis.
3. Include a clear Call to Action (CTA).
4. Keep it under 100 words.
`, topic, audience, tone)
}
