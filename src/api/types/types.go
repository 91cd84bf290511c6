package types

import "time"

// Confirmed orders handed off to the shop
type ConfirmedOrder struct {
	ID          uint64               `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID   string               `gorm:"size:64;index;not null" json:"sessionId"`
	PersonaID   string               `gorm:"size:64" json:"personaId"`
	TotalAmount int64                `gorm:"not null" json:"totalAmount"`
	Message     string               `gorm:"type:text" json:"message"`
	HandoffURL  string               `gorm:"type:text" json:"url"`
	Items       []ConfirmedOrderItem `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt   time.Time            `gorm:"index" json:"createdAt"`
}

type ConfirmedOrderItem struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement" json:"-"`
	OrderID   uint64 `gorm:"index;not null" json:"-"`
	ItemName  string `gorm:"size:255;not null" json:"itemName"`
	Quantity  int    `gorm:"not null" json:"quantity"`
	UnitPrice int64  `gorm:"not null" json:"unitPrice"`
	LineTotal int64  `gorm:"not null" json:"lineTotal"`
}

// Settings
type Setting struct {
	Name  string `gorm:"primaryKey;size:64"`
	Value string `gorm:"type:text"`
}

func (ConfirmedOrder) TableName() string     { return "confirmed_orders" }
func (ConfirmedOrderItem) TableName() string { return "confirmed_order_items" }
func (Setting) TableName() string            { return "settings" }

// AllModels lists every table the service migrates.
var AllModels = []interface{}{
	&ConfirmedOrder{}, &ConfirmedOrderItem{}, &Setting{},
}
