package data

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/atulbakery/ishan-assistant/src/api/types"
	"github.com/atulbakery/ishan-assistant/src/session"
)

// ErrLedgerUnavailable is returned when no database is configured.
var ErrLedgerUnavailable = errors.New("ledger not initialized")

// Ledger records confirmed orders in MySQL.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) Name() string { return "ledger" }

// OrderConfirmed stores the order and its lines in one transaction.
func (l *Ledger) OrderConfirmed(ctx context.Context, c session.Confirmation) error {
	if l == nil || l.db == nil {
		return ErrLedgerUnavailable
	}

	row := types.ConfirmedOrder{
		SessionID:   c.SessionID,
		PersonaID:   c.PersonaID,
		TotalAmount: c.Order.TotalAmount(),
		Message:     c.Handoff.Message,
		HandoffURL:  c.Handoff.URL,
		CreatedAt:   c.ConfirmedAt,
	}
	for _, it := range c.Order.Items() {
		row.Items = append(row.Items, types.ConfirmedOrderItem{
			ItemName:  it.ItemName,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal(),
		})
	}
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		return errors.Wrap(err, "insert confirmed order")
	}
	return nil
}

// Recent returns the latest confirmed orders, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]types.ConfirmedOrder, error) {
	if l == nil || l.db == nil {
		return nil, ErrLedgerUnavailable
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var rows []types.ConfirmedOrder
	err := l.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "list confirmed orders")
	}
	return rows, nil
}
