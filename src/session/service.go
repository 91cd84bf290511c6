package session

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/atulbakery/ishan-assistant/src/backup"
	"github.com/atulbakery/ishan-assistant/src/conversation"
	"github.com/atulbakery/ishan-assistant/src/gateway"
	"github.com/atulbakery/ishan-assistant/src/order"
	"github.com/atulbakery/ishan-assistant/src/persona"
)

// ErrNoPendingOrder is returned when confirming with nothing to confirm.
var ErrNoPendingOrder = errors.New("no pending order")

// Default reply delay bounds.
const (
	DefaultMinDelay = 600 * time.Millisecond
	DefaultMaxDelay = 1600 * time.Millisecond
)

// Generator produces assistant replies.
type Generator interface {
	GenerateReply(ctx context.Context, history []conversation.Message, text, instruction string) gateway.Reply
}

// Confirmation describes an order the customer has handed off to the shop.
type Confirmation struct {
	SessionID   string
	PersonaID   string
	PersonaName string
	Order       order.Order
	Handoff     order.Handoff
	ConfirmedAt time.Time
}

// OrderSink receives confirmed orders. Failures are logged and do not undo the
// confirmation.
type OrderSink interface {
	Name() string
	OrderConfirmed(ctx context.Context, c Confirmation) error
}

// Config wires a Service.
type Config struct {
	Catalog   *persona.Catalog
	Store     Store
	Generator Generator
	Sinks     []OrderSink

	// GatewayTimeout and MaxDelay bound how long a typing flag may stay set.
	GatewayTimeout time.Duration
	MinDelay       time.Duration
	MaxDelay       time.Duration

	Location      *time.Location
	MessagingHost string
	// ShopNumber is resolved on every confirmation so settings changes apply live.
	ShopNumber func() string

	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration)
}

// Service runs the chat workflow for many sessions.
type Service struct {
	cfg   Config
	locks sync.Map
}

func NewService(cfg Config) *Service {
	if cfg.Catalog == nil {
		cfg.Catalog = persona.Default()
	}
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = gateway.DefaultTimeout
	}
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	if cfg.Location == nil {
		cfg.Location = LoadLocation("")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepCtx
	}
	return &Service{cfg: cfg}
}

// Catalog returns the persona catalog in use.
func (s *Service) Catalog() *persona.Catalog {
	return s.cfg.Catalog
}

func (s *Service) lock(id string) func() {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *Service) shopNumber() string {
	if s.cfg.ShopNumber == nil {
		return order.DefaultShopNumber
	}
	return s.cfg.ShopNumber()
}

func (s *Service) now() time.Time {
	return s.cfg.Now().In(s.cfg.Location)
}

// Start creates a session greeted by the default persona.
func (s *Service) Start(ctx context.Context) (State, error) {
	p := s.cfg.Catalog.First()
	now := s.now()
	st := State{
		ID:        uuid.NewString(),
		PersonaID: p.ID,
		Messages:  conversation.Reset(conversation.NewBotMessage(Welcome(p, now), now)),
		Overrides: map[string]string{},
		UpdatedAt: now,
	}
	if err := s.cfg.Store.Put(ctx, st); err != nil {
		return State{}, errors.Wrap(err, "save new session")
	}
	log.Info().Str("session", st.ID).Str("persona", p.ID).Msg("session started")
	return st, nil
}

// Get loads a session.
func (s *Service) Get(ctx context.Context, id string) (State, error) {
	return s.cfg.Store.Get(ctx, id)
}

// Persona returns the session's active persona, falling back to the default one.
func (s *Service) Persona(st State) persona.Persona {
	if p, err := s.cfg.Catalog.Get(st.PersonaID); err == nil {
		return p
	}
	return s.cfg.Catalog.First()
}

// ActiveInstruction is the override for the session's persona, if any, else its default.
func (s *Service) ActiveInstruction(st State) string {
	return s.Persona(st).Resolve(st.Overrides)
}

func (s *Service) typingStale(st State, now time.Time) bool {
	return now.Sub(st.TypingSince) > s.cfg.GatewayTimeout+s.cfg.MaxDelay
}

// Send handles one customer message and waits for the assistant's reply. Blank text
// and messages sent while a reply is still pending are ignored.
func (s *Service) Send(ctx context.Context, id, text string) (State, bool, error) {
	unlock := s.lock(id)
	st, err := s.cfg.Store.Get(ctx, id)
	if err != nil {
		unlock()
		return State{}, false, err
	}
	now := s.now()
	if strings.TrimSpace(text) == "" || (st.Typing && !s.typingStale(st, now)) {
		unlock()
		return st, true, nil
	}

	instruction := s.ActiveInstruction(st)
	st = Reduce(st, Send{Message: conversation.NewUserMessage(text, now), At: now})
	st.UpdatedAt = now
	// The window already ends with the new message; the gateway appends its text once more
	// as the newest turn.
	history := []conversation.Message(st.Messages)
	err = s.cfg.Store.Put(ctx, st)
	unlock()
	if err != nil {
		return State{}, false, errors.Wrap(err, "save user message")
	}

	// The reply is applied even if the caller goes away, so typing always clears.
	bg := context.WithoutCancel(ctx)
	reply := s.generate(bg, history, text, instruction)
	s.cfg.Sleep(bg, s.delay())

	unlock = s.lock(id)
	defer unlock()
	st, err = s.cfg.Store.Get(bg, id)
	if err != nil {
		return State{}, false, err
	}
	now = s.now()
	st = Reduce(st, Receive{Message: conversation.NewBotMessage(reply.Text, now), Order: reply.Order})
	st.UpdatedAt = now
	if err := s.cfg.Store.Put(bg, st); err != nil {
		return State{}, false, errors.Wrap(err, "save reply")
	}
	return st, false, nil
}

func (s *Service) generate(ctx context.Context, history []conversation.Message, text, instruction string) gateway.Reply {
	if s.cfg.Generator == nil {
		return gateway.Reply{Text: gateway.ReplyFailureText}
	}
	return s.cfg.Generator.GenerateReply(ctx, history, text, instruction)
}

func (s *Service) delay() time.Duration {
	lo, hi := s.cfg.MinDelay, s.cfg.MaxDelay
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo)
}

// ConfirmOrder hands the pending order off to the shop and clears it.
func (s *Service) ConfirmOrder(ctx context.Context, id string) (order.Handoff, error) {
	unlock := s.lock(id)
	st, err := s.cfg.Store.Get(ctx, id)
	if err != nil {
		unlock()
		return order.Handoff{}, err
	}
	if st.PendingOrder == nil {
		unlock()
		return order.Handoff{}, ErrNoPendingOrder
	}

	p := s.Persona(st)
	pending := *st.PendingOrder
	handoff := order.NewHandoff(pending, p.Name, s.cfg.MessagingHost, s.shopNumber())
	now := s.now()
	st = Reduce(st, ConfirmOrder{})
	st.UpdatedAt = now
	err = s.cfg.Store.Put(ctx, st)
	unlock()
	if err != nil {
		return order.Handoff{}, errors.Wrap(err, "save confirmation")
	}

	log.Info().Str("session", id).Int("items", pending.Len()).Int64("total", pending.TotalAmount()).Msg("order confirmed")
	s.notify(context.WithoutCancel(ctx), Confirmation{
		SessionID:   id,
		PersonaID:   p.ID,
		PersonaName: p.Name,
		Order:       pending,
		Handoff:     handoff,
		ConfirmedAt: now,
	})
	return handoff, nil
}

func (s *Service) notify(ctx context.Context, c Confirmation) {
	if len(s.cfg.Sinks) == 0 {
		return
	}
	var g errgroup.Group
	for _, sink := range s.cfg.Sinks {
		sink := sink
		g.Go(func() error {
			if err := sink.OrderConfirmed(ctx, c); err != nil {
				log.Error().Err(err).Str("sink", sink.Name()).Str("session", c.SessionID).Msg("order sink failed")
			}
			return nil
		})
	}
	_ = g.Wait()
}

// EditOrder discards the pending order.
func (s *Service) EditOrder(ctx context.Context, id string) (State, error) {
	return s.apply(ctx, id, EditOrder{})
}

// SwitchPersona changes the assistant and restarts the conversation.
func (s *Service) SwitchPersona(ctx context.Context, id, personaID string) (State, error) {
	p, err := s.cfg.Catalog.Get(personaID)
	if err != nil {
		return State{}, err
	}
	return s.apply(ctx, id, SwitchPersona{PersonaID: p.ID, Greeting: conversation.NewBotMessage(SwitchedTo(p), s.now())})
}

// UpdateInstruction stores a custom instruction for a persona in this session.
func (s *Service) UpdateInstruction(ctx context.Context, id, personaID, instruction string) (State, error) {
	if _, err := s.cfg.Catalog.Get(personaID); err != nil {
		return State{}, err
	}
	return s.apply(ctx, id, UpdateInstruction{PersonaID: personaID, Instruction: instruction})
}

// Backup exports the session as a backup document plus its download filename.
func (s *Service) Backup(ctx context.Context, id string) ([]byte, string, error) {
	st, err := s.cfg.Store.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	now := s.now()
	blob, err := backup.Serialize(st.Messages, st.Overrides, now)
	if err != nil {
		return nil, "", err
	}
	return blob, backup.Filename(now), nil
}

// Restore replaces the session's history and overrides from a backup document. On
// failure the session is left untouched.
func (s *Service) Restore(ctx context.Context, id string, blob []byte) (State, error) {
	snap, err := backup.Deserialize(blob)
	if err != nil {
		return State{}, err
	}
	return s.apply(ctx, id, Restore{Messages: snap.Messages, Instructions: snap.Instructions})
}

func (s *Service) apply(ctx context.Context, id string, action Action) (State, error) {
	unlock := s.lock(id)
	defer unlock()

	st, err := s.cfg.Store.Get(ctx, id)
	if err != nil {
		return State{}, err
	}
	st = Reduce(st, action)
	st.UpdatedAt = s.now()
	if err := s.cfg.Store.Put(ctx, st); err != nil {
		return State{}, errors.Wrap(err, "save session")
	}
	return st, nil
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
