package order

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	DefaultMessagingHost = "wa.me"
	DefaultShopNumber    = "917043759959"
)

// Handoff is what the customer is sent off with after confirming.
type Handoff struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

// FormatHandoff renders the greeting-style message the customer sends to the shop.
func FormatHandoff(o Order, assistantName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s, I want to place a new order:\n\n", assistantName)
	for _, it := range o.items {
		fmt.Fprintf(&b, "• %d x %s (%s%d)\n", it.Quantity, it.ItemName, Currency, it.UnitPrice)
	}
	fmt.Fprintf(&b, "\n*Total Amount: %s%d*", Currency, o.total)
	b.WriteString("\n\nPlease confirm my order.")
	return b.String()
}

// Receipt renders the estimate shown before confirmation, one line per item with its
// line total.
func Receipt(o Order, shopName string) string {
	var b strings.Builder
	if shopName != "" {
		b.WriteString(strings.ToUpper(shopName))
		b.WriteString("\nESTIMATE\n\n")
	}
	for _, it := range o.items {
		fmt.Fprintf(&b, "%dx %s  %s%d\n", it.Quantity, it.ItemName, Currency, it.LineTotal())
	}
	fmt.Fprintf(&b, "\nTotal Amount  %s%d", Currency, o.total)
	return b.String()
}

// HandoffURL builds https://<host>/<shop>?text=<message>.
func HandoffURL(host, shop, text string) string {
	if host == "" {
		host = DefaultMessagingHost
	}
	if shop == "" {
		shop = DefaultShopNumber
	}
	u := fmt.Sprintf("https://%s/%s", host, url.PathEscape(shop))
	if text == "" {
		return u
	}
	return u + "?text=" + EncodeURIComponent(text)
}

// NewHandoff formats the order and addresses it to the shop.
func NewHandoff(o Order, assistantName, host, shop string) Handoff {
	msg := FormatHandoff(o, assistantName)
	return Handoff{Message: msg, URL: HandoffURL(host, shop, msg)}
}

// EncodeURIComponent escapes like the browser function of the same name: spaces
// become %20 rather than +.
func EncodeURIComponent(s string) string {
	escaped := url.QueryEscape(s)
	escaped = strings.ReplaceAll(escaped, "+", "%20")
	for _, keep := range []string{"!", "'", "(", ")", "*", "~"} {
		escaped = strings.ReplaceAll(escaped, url.QueryEscape(keep), keep)
	}
	return escaped
}
