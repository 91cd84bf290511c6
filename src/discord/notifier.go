package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/atulbakery/ishan-assistant/src/order"
	"github.com/atulbakery/ishan-assistant/src/session"
)

const (
	embedColor          = 0xC2185B
	maxEmbedDescription = 4096
)

// channelSender is the part of *discordgo.Session the notifier uses.
type channelSender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Notifier posts confirmed orders to a staff channel.
type Notifier struct {
	s        channelSender
	channel  func() string
	shopName string
}

// Open creates a bot session for the given token. The channel is resolved per message.
func Open(token string, channel func() string, shopName string) (*Notifier, *discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, nil, errors.Wrap(err, "discord session")
	}
	return NewNotifier(s, channel, shopName), s, nil
}

func NewNotifier(s channelSender, channel func() string, shopName string) *Notifier {
	return &Notifier{s: s, channel: channel, shopName: shopName}
}

func (n *Notifier) Name() string { return "discord" }

func (n *Notifier) OrderConfirmed(ctx context.Context, c session.Confirmation) error {
	channelID := n.channel()
	if channelID == "" {
		return errors.New("discord channel not configured")
	}
	msg := BuildOrderMessage(c, n.shopName)
	_, err := n.s.ChannelMessageSendComplex(channelID, msg, discordgo.WithContext(ctx))
	return errors.Wrap(err, "send discord order")
}

// FormatReceipt renders the order lines for a staff message.
func FormatReceipt(o order.Order) string {
	var b strings.Builder
	for _, it := range o.Items() {
		fmt.Fprintf(&b, "• %d x %s (%s%d) = %s%d\n", it.Quantity, it.ItemName, order.Currency, it.UnitPrice, order.Currency, it.LineTotal())
	}
	fmt.Fprintf(&b, "\n**Total Amount: %s%d**", order.Currency, o.TotalAmount())
	return b.String()
}

// BuildOrderMessage builds the embed posted for a confirmed order.
func BuildOrderMessage(c session.Confirmation, shopName string) *discordgo.MessageSend {
	title := "🧾 New order"
	if shopName != "" {
		title += " · " + shopName
	}
	desc := FormatReceipt(c.Order)
	if len(desc) > maxEmbedDescription {
		desc = strings.ToValidUTF8(desc[:maxEmbedDescription-3], "") + "..."
	}
	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       title,
			Description: desc,
			Color:       embedColor,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Assistant", Value: c.PersonaName, Inline: true},
				{Name: "Session", Value: c.SessionID, Inline: true},
			},
			Timestamp: c.ConfirmedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		}},
	}
}
