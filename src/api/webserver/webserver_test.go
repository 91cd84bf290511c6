package webserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/atulbakery/ishan-assistant/src/api/config"
	"github.com/atulbakery/ishan-assistant/src/api/types"
	"github.com/atulbakery/ishan-assistant/src/conversation"
	"github.com/atulbakery/ishan-assistant/src/gateway"
	"github.com/atulbakery/ishan-assistant/src/order"
	"github.com/atulbakery/ishan-assistant/src/session"
)

type stubGenerator struct {
	mu    sync.Mutex
	texts []string
	reply gateway.Reply
}

func (g *stubGenerator) GenerateReply(_ context.Context, _ []conversation.Message, text, _ string) gateway.Reply {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.texts = append(g.texts, text)
	return g.reply
}

type stubBroadcaster struct{ topic string }

func (b *stubBroadcaster) GenerateBroadcast(_ context.Context, topic, _, _ string) string {
	b.topic = topic
	return "*Fresh Plum Cakes* 🎄 Order today!"
}

type stubLedger struct{}

func (stubLedger) Recent(context.Context, int) ([]types.ConfirmedOrder, error) {
	return []types.ConfirmedOrder{{ID: 7, SessionID: "s", TotalAmount: 140}}, nil
}

type harness struct {
	router *gin.Engine
	gen    *stubGenerator
	bc     *stubBroadcaster
}

func newHarness(t *testing.T, mutate func(*config.Config, *Deps)) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte("open-sesame"), bcrypt.MinCost)
	require.NoError(t, err)

	gen := &stubGenerator{reply: gateway.Reply{Text: "Namaste!"}}
	bc := &stubBroadcaster{}
	cfg := config.Config{
		JWTSecret:         "test-secret",
		AdminPasswordHash: string(hash),
		AllowedOrigins:    []string{"http://localhost:3000"},
		RateLimit:         100,
	}
	d := Deps{
		Service: session.NewService(session.Config{
			Generator: gen,
			Sleep:     func(context.Context, time.Duration) {},
		}),
		Broadcaster: bc,
		Ledger:      stubLedger{},
	}
	if mutate != nil {
		mutate(&cfg, &d)
	}
	d.Config = cfg

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return &harness{router: New(ctx, d), gen: gen, bc: bc}
}

func (h *harness) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case string:
		rdr = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *harness) start(t *testing.T) session.State {
	t.Helper()
	w := h.do(t, http.MethodPost, "/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var st session.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	return st
}

func TestSessionLifecycle(t *testing.T) {
	h := newHarness(t, nil)
	st := h.start(t)
	require.Len(t, st.Messages, 1)

	w := h.do(t, http.MethodGet, "/v1/sessions/"+st.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	w = h.do(t, http.MethodGet, "/v1/sessions/"+st.ID, nil, "If-None-Match", etag)
	require.Equal(t, http.StatusNotModified, w.Code)

	w = h.do(t, http.MethodPost, "/v1/sessions/"+st.ID+"/messages", gin.H{"text": "<b>Priya</b> &amp; family"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Session session.State `json:"session"`
		Ignored bool          `json:"ignored"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.False(t, out.Ignored)
	require.Len(t, out.Session.Messages, 3)
	require.Equal(t, "Priya & family", out.Session.Messages[1].Text)
	require.Equal(t, []string{"Priya & family"}, h.gen.texts)

	w = h.do(t, http.MethodGet, "/v1/sessions/"+st.ID, nil, "If-None-Match", etag)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEqual(t, etag, w.Header().Get("ETag"))
}

func TestCleanStripsEncodedMarkup(t *testing.T) {
	s := NewSessions(nil)
	cases := map[string]string{
		"<b>Priya</b> &amp; family":                      "Priya & family",
		"&lt;script&gt;alert(1)&lt;/script&gt;":          "",
		"&amp;lt;script&amp;gt;x&amp;lt;/script&amp;gt;": "",
		"Two cakes &lt;b&gt;please&lt;/b&gt;":            "Two cakes please",
		"Rs 70 & 80 <3":                                  "Rs 70 & 80 <3",
		"it's \"fresh\"":                                 "it's \"fresh\"",
	}
	for in, want := range cases {
		require.Equal(t, want, s.clean(in), in)
	}
}

func TestEncodedScriptNeverReachesConversation(t *testing.T) {
	h := newHarness(t, nil)
	st := h.start(t)

	w := h.do(t, http.MethodPost, "/v1/sessions/"+st.ID+"/messages", gin.H{"text": "&lt;script&gt;alert(1)&lt;/script&gt;"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"ignored":true`)
	require.Empty(t, h.gen.texts)

	w = h.do(t, http.MethodPost, "/v1/sessions/"+st.ID+"/messages", gin.H{"text": "Hi &lt;img src=x onerror=alert(1)&gt;there"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), "onerror")
	require.Equal(t, []string{"Hi there"}, h.gen.texts)
}

func TestBlankMessageIgnored(t *testing.T) {
	h := newHarness(t, nil)
	st := h.start(t)
	w := h.do(t, http.MethodPost, "/v1/sessions/"+st.ID+"/messages", gin.H{"text": "  <br> "})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"ignored":true`)
	require.Empty(t, h.gen.texts)
}

func TestOrderConfirmAndEdit(t *testing.T) {
	h := newHarness(t, nil)
	o := order.New([]order.Item{{ItemName: "Black Forest Pastry", Quantity: 2, UnitPrice: 70}})
	h.gen.reply = gateway.Reply{Text: gateway.OrderPreparedText, Order: &o}
	st := h.start(t)

	w := h.do(t, http.MethodPost, "/v1/sessions/"+st.ID+"/messages", gin.H{"text": "2 black forest pastries please"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"totalAmount":140`)
	require.Contains(t, w.Body.String(), `"receipt":"ATUL BAKERY KIM\nESTIMATE\n\n2x Black Forest Pastry  ₹140\n`)

	w = h.do(t, http.MethodPost, "/v1/sessions/"+st.ID+"/order/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var handoff order.Handoff
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &handoff))
	require.True(t, strings.HasPrefix(handoff.URL, "https://wa.me/917043759959?text="))
	require.Contains(t, handoff.Message, "*Total Amount: ₹140*")

	w = h.do(t, http.MethodPost, "/v1/sessions/"+st.ID+"/order/confirm", nil)
	require.Equal(t, http.StatusConflict, w.Code)
	require.JSONEq(t, `{"err":"no pending order"}`, w.Body.String())

	h.do(t, http.MethodPost, "/v1/sessions/"+st.ID+"/messages", gin.H{"text": "again"})
	w = h.do(t, http.MethodPost, "/v1/sessions/"+st.ID+"/order/edit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"pendingOrder":null`)
}

func TestPersonaAndInstructions(t *testing.T) {
	h := newHarness(t, nil)
	st := h.start(t)

	w := h.do(t, http.MethodGet, "/v1/personas", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"id":"ishan-assistant"`)

	w = h.do(t, http.MethodPut, "/v1/sessions/"+st.ID+"/persona", gin.H{"personaId": "ishan-assistant"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Assistant switched to Ishan Assistant.")

	w = h.do(t, http.MethodPut, "/v1/sessions/"+st.ID+"/persona", gin.H{"personaId": "ghost"})
	require.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(t, http.MethodPut, "/v1/sessions/"+st.ID+"/instructions/ishan-assistant", gin.H{"instruction": "Keep it short."})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"ishan-assistant":"Keep it short."`)

	w = h.do(t, http.MethodPut, "/v1/sessions/"+st.ID+"/instructions/ishan-assistant", gin.H{})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBackupAndRestore(t *testing.T) {
	h := newHarness(t, nil)
	st := h.start(t)

	w := h.do(t, http.MethodGet, "/v1/sessions/"+st.ID+"/backup", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Disposition"), `filename="ishan_assistant_backup_`)
	blob := w.Body.String()

	w = h.do(t, http.MethodPost, "/v1/sessions/"+st.ID+"/restore", `{"messages":"nope"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"err":"Invalid Backup File"}`, w.Body.String())

	w = h.do(t, http.MethodPost, "/v1/sessions/"+st.ID+"/restore", blob)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestUnknownSession(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(t, http.MethodGet, "/v1/sessions/missing", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.JSONEq(t, `{"err":"session not found"}`, w.Body.String())
}

func TestRateLimit(t *testing.T) {
	h := newHarness(t, func(c *config.Config, _ *Deps) { c.RateLimit = 2 })
	st := h.start(t)
	path := "/v1/sessions/" + st.ID + "/messages"
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, path, gin.H{"text": "a"}).Code)
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, path, gin.H{"text": "b"}).Code)
	w := h.do(t, http.MethodPost, path, gin.H{"text": "c"})
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Contains(t, w.Body.String(), "rate limit exceeded")
}

func TestAdminFlow(t *testing.T) {
	h := newHarness(t, nil)

	w := h.do(t, http.MethodPost, "/v1/admin/broadcast", gin.H{"topic": "Christmas"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(t, http.MethodPost, "/v1/admin/login", gin.H{"password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(t, http.MethodPost, "/v1/admin/login", gin.H{"password": "open-sesame"})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)
	auth := "Bearer " + login.Token

	w = h.do(t, http.MethodPost, "/v1/admin/broadcast", gin.H{"topic": "Christmas plum cakes", "audience": "families"}, "Authorization", auth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, "Christmas plum cakes", h.bc.topic)
	var bc struct {
		Text string `json:"text"`
		URL  string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bc))
	require.Equal(t, "*Fresh Plum Cakes* 🎄 Order today!", bc.Text)
	require.True(t, strings.HasPrefix(bc.URL, "https://wa.me/917043759959?text=*Fresh%20Plum%20Cakes*"))

	w = h.do(t, http.MethodGet, "/v1/admin/orders", nil, "Authorization", auth)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"totalAmount":140`)

	w = h.do(t, http.MethodPut, "/v1/admin/settings/shop_number", gin.H{"value": "919999999999"}, "Authorization", auth)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = h.do(t, http.MethodPut, "/v1/admin/settings/jwt_secret", gin.H{"value": "1"}, "Authorization", auth)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminWithoutLedgerOrPassword(t *testing.T) {
	h := newHarness(t, func(c *config.Config, d *Deps) {
		c.AdminPasswordHash = ""
		d.Ledger = nil
	})
	w := h.do(t, http.MethodPost, "/v1/admin/login", gin.H{"password": "open-sesame"})
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	token, err := issueJWT("admin", []byte("test-secret"))
	require.NoError(t, err)
	w = h.do(t, http.MethodGet, "/v1/admin/orders", nil, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = h.do(t, http.MethodGet, "/v1/admin/orders", nil, "Authorization", "Bearer "+token+"x")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
