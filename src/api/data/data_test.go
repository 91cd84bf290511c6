package data

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/atulbakery/ishan-assistant/src/conversation"
	"github.com/atulbakery/ishan-assistant/src/order"
	"github.com/atulbakery/ishan-assistant/src/session"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := MustRedis("redis://" + mr.Addr() + "/0")
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+strings.ReplaceAll(t.Name(), "/", "_")+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func confirmation(at time.Time) session.Confirmation {
	o := order.New([]order.Item{
		{ItemName: "Black Forest Pastry", Quantity: 2, UnitPrice: 70},
		{ItemName: "Dry Fruit Cake", Quantity: 1, UnitPrice: 699},
	})
	return session.Confirmation{
		SessionID:   "s-1",
		PersonaID:   "ishan-assistant",
		PersonaName: "Ishan Assistant",
		Order:       o,
		Handoff:     order.NewHandoff(o, "Ishan Assistant", "", ""),
		ConfirmedAt: at,
	}
}

func TestSessionStoreRoundTrip(t *testing.T) {
	mr, rdb := newRedis(t)
	store := NewSessionStore(rdb, time.Hour)
	ctx := context.Background()

	_, err := store.Get(ctx, "nope")
	require.ErrorIs(t, err, session.ErrSessionNotFound)

	at := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	o := order.New([]order.Item{{ItemName: "Pineapple", Quantity: 3, UnitPrice: 60}})
	st := session.State{
		ID:           "abc",
		PersonaID:    "ishan-assistant",
		Messages:     conversation.Reset(conversation.NewBotMessage("hello", at)),
		PendingOrder: &o,
		UpdatedAt:    at,
	}
	require.NoError(t, store.Put(ctx, st))
	require.True(t, mr.Exists("session:abc"))
	require.Equal(t, time.Hour, mr.TTL("session:abc"))

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	require.Equal(t, st.Messages, got.Messages)
	require.NotNil(t, got.PendingOrder)
	require.EqualValues(t, 180, got.PendingOrder.TotalAmount())
	require.NotNil(t, got.Overrides)
	require.True(t, at.Equal(got.UpdatedAt))

	mr.FastForward(2 * time.Hour)
	_, err = store.Get(ctx, "abc")
	require.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestSessionStoreWorksWithService(t *testing.T) {
	_, rdb := newRedis(t)
	svc := session.NewService(session.Config{
		Store: NewSessionStore(rdb, time.Hour),
		Sleep: func(context.Context, time.Duration) {},
	})
	st, err := svc.Start(context.Background())
	require.NoError(t, err)
	_, err = svc.EditOrder(context.Background(), st.ID)
	require.NoError(t, err)
}

func TestOrderStreamPublishes(t *testing.T) {
	_, rdb := newRedis(t)
	at := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, NewOrderStream(rdb).OrderConfirmed(context.Background(), confirmation(at)))

	entries, err := rdb.XRange(context.Background(), streamOrders, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	v := entries[0].Values
	require.Equal(t, "s-1", v["session"])
	require.Equal(t, "839", v["total"])
	require.Contains(t, v["items"], `"itemName":"Black Forest Pastry"`)
	require.Contains(t, v["url"], "https://wa.me/917043759959?text=")
}

func TestLedgerWithoutDatabase(t *testing.T) {
	ctx := context.Background()
	require.ErrorIs(t, NewLedger(nil).OrderConfirmed(ctx, confirmation(time.Now())), ErrLedgerUnavailable)
	_, err := NewLedger(nil).Recent(ctx, 5)
	require.ErrorIs(t, err, ErrLedgerUnavailable)
}

func TestLedgerStoresOrders(t *testing.T) {
	db := newDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	first := confirmation(time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC))
	second := confirmation(time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC))
	second.SessionID = "s-2"
	require.NoError(t, ledger.OrderConfirmed(ctx, first))
	require.NoError(t, ledger.OrderConfirmed(ctx, second))

	rows, err := ledger.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "s-2", rows[0].SessionID)
	require.EqualValues(t, 839, rows[0].TotalAmount)
	require.Len(t, rows[0].Items, 2)
	require.EqualValues(t, 140, rows[0].Items[0].LineTotal)

	var nilLedger *Ledger
	require.Error(t, nilLedger.OrderConfirmed(ctx, first))
}

func TestSettingsCache(t *testing.T) {
	db := newDB(t)
	defer SetSettings(nil)

	require.NoError(t, SaveSetting(db, "shop_number", "919999999999"))
	require.Equal(t, "919999999999", GetSetting("shop_number"))

	SetSettings(nil)
	require.Equal(t, "", GetSetting("shop_number"))
	require.NoError(t, LoadSettings(db))
	require.Equal(t, "919999999999", GetSetting("shop_number"))
}
