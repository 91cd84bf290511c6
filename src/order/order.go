package order

import (
	"encoding/json"
)

// Currency prefixes every amount shown to the customer.
const Currency = "₹"

// Item is one receipt line as extracted from the model's tool call.
type Item struct {
	ItemName  string `json:"itemName"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
}

// LineTotal is quantity times unit price.
func (i Item) LineTotal() int64 {
	return int64(i.Quantity) * i.UnitPrice
}

// Order is a priced set of items. The total is always derived from the items;
// there is no way to set it directly.
type Order struct {
	items []Item
	total int64
}

// New builds an order and computes its total.
func New(items []Item) Order {
	cp := make([]Item, len(items))
	copy(cp, items)

	var total int64
	for _, it := range cp {
		total += it.LineTotal()
	}
	return Order{items: cp, total: total}
}

// Items returns a copy of the receipt lines.
func (o Order) Items() []Item {
	return append([]Item(nil), o.items...)
}

// TotalAmount returns the sum of every line total.
func (o Order) TotalAmount() int64 {
	return o.total
}

// Len returns the number of receipt lines.
func (o Order) Len() int {
	return len(o.items)
}

type wireOrder struct {
	Items       []Item `json:"items"`
	TotalAmount int64  `json:"totalAmount"`
}

func (o Order) MarshalJSON() ([]byte, error) {
	items := o.items
	if items == nil {
		items = []Item{}
	}
	return json.Marshal(wireOrder{Items: items, TotalAmount: o.total})
}

// UnmarshalJSON ignores any stored total and recomputes it from the items.
func (o *Order) UnmarshalJSON(b []byte) error {
	var w wireOrder
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*o = New(w.Items)
	return nil
}
