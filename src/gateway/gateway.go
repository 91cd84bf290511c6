package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/atulbakery/ishan-assistant/src/ai/core"
	"github.com/atulbakery/ishan-assistant/src/conversation"
	"github.com/atulbakery/ishan-assistant/src/logging"
	"github.com/atulbakery/ishan-assistant/src/order"
)

// Texts returned to the customer in place of a model reply.
const (
	OrderPreparedText  = "I've prepared your bill summary. Please confirm your order below. 👇"
	EmptyReplyText     = "I'm having trouble connecting right now. Please try again."
	ReplyFailureText   = "⚠️ Error generating response. Please check your API configuration."
	EmptyBroadcastText = "Could not generate broadcast message."
	BroadcastErrorText = "Error generating broadcast."
)

// DefaultTimeout bounds a single model call.
const DefaultTimeout = 30 * time.Second

// Reply is the gateway's answer to one customer message. Order is set only when the
// model asked for a bill.
type Reply struct {
	Text  string
	Order *order.Order
}

// Gateway wraps a model client with the assistant's tool and fallback rules. It never
// returns an error: failures are logged and turned into fixed customer-facing text.
type Gateway struct {
	client  core.Client
	initErr error
	timeout time.Duration
	window  int
}

// New builds the provider client. A construction failure, such as a missing API key,
// is kept and surfaced on first use.
func New(cfg core.FactoryConfig) *Gateway {
	client, err := core.NewClient(cfg)
	if err != nil {
		log.Warn().Err(err).Str("provider", cfg.Provider).Msg("model client unavailable")
	}
	return &Gateway{client: client, initErr: err, timeout: core.Or(cfg.Timeout, DefaultTimeout), window: conversation.DefaultWindow}
}

// NewWithClient wraps an existing client.
func NewWithClient(client core.Client, timeout time.Duration) *Gateway {
	return &Gateway{client: client, timeout: core.Or(timeout, DefaultTimeout), window: conversation.DefaultWindow}
}

// Timeout is the per-call deadline.
func (g *Gateway) Timeout() time.Duration {
	return g.timeout
}

// GenerateReply sends the last messages of history plus the new customer text under the
// given system instruction. Callers pass history with the new message already appended.
func (g *Gateway) GenerateReply(ctx context.Context, history []conversation.Message, text, instruction string) Reply {
	if g.initErr != nil || g.client == nil {
		log.Error().Err(g.initErr).Msg("generate reply: model client not configured")
		return Reply{Text: ReplyFailureText}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Generate(ctx, core.Request{
		Turns:     buildTurns(history, text, g.window),
		Functions: []core.FunctionDeclaration{CreateOrderSummary},
		Options:   core.Options{SystemPrompt: instruction},
	})
	if err != nil {
		logFailure(err, "generate reply failed")
		return Reply{Text: ReplyFailureText}
	}

	if call, ok := resp.Call(CreateOrderSummary.Name); ok {
		o, err := order.Decode(call.Args)
		if err != nil {
			log.Error().Err(err).Str("args", string(call.Args)).Msg("generate reply: bad order arguments")
			return Reply{Text: ReplyFailureText}
		}
		log.Debug().Int("items", o.Len()).Int64("total", o.TotalAmount()).Msg("order summary prepared")
		return Reply{Text: OrderPreparedText, Order: &o}
	}

	if strings.TrimSpace(resp.Text) == "" {
		return Reply{Text: EmptyReplyText}
	}
	return Reply{Text: resp.Text}
}

// GenerateBroadcast writes a one-off marketing message. No history or tools are used.
func (g *Gateway) GenerateBroadcast(ctx context.Context, topic, audience, tone string) string {
	if g.initErr != nil || g.client == nil {
		log.Error().Err(g.initErr).Msg("generate broadcast: model client not configured")
		return BroadcastErrorText
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Generate(ctx, core.Request{Turns: core.TextTurn(BroadcastPrompt(topic, audience, tone))})
	if err != nil {
		logFailure(err, "generate broadcast failed")
		return BroadcastErrorText
	}
	if strings.TrimSpace(resp.Text) == "" {
		return EmptyBroadcastText
	}
	return resp.Text
}

func buildTurns(history []conversation.Message, text string, window int) []core.Turn {
	recent := conversation.Conversation(history).Window(window)
	turns := make([]core.Turn, 0, len(recent)+1)
	for _, m := range recent {
		role := core.RoleModel
		if m.IsUser() {
			role = core.RoleUser
		}
		turns = append(turns, core.Turn{Role: role, Text: m.Text})
	}
	return append(turns, core.Turn{Role: core.RoleUser, Text: text})
}

func logFailure(err error, msg string) {
	log.Error().Err(err).Bool("rate_limited", logging.IsRateLimit(err)).Msg(msg)
}
