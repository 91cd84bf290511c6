package order

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidItems is returned when tool-call arguments do not match the order schema.
var ErrInvalidItems = errors.New("order: invalid items")

const (
	// MaxQuantity and MaxUnitPrice bound a single line so its total fits in an int64.
	MaxQuantity  = math.MaxInt32
	MaxUnitPrice = math.MaxInt64 / MaxQuantity
)

// Decode turns raw create_order_summary arguments into an Order.
//
// A missing or null "items" field yields an empty order. Anything else that does not
// fit {itemName: string, quantity: positive integer, unitPrice: non-negative number}
// is rejected. Numbers sent as strings are accepted, and prices are rounded to whole
// currency units.
func Decode(args []byte) (Order, error) {
	args = bytes.TrimSpace(args)
	if len(args) == 0 || bytes.Equal(args, []byte("null")) {
		return New(nil), nil
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(args, &top); err != nil {
		return Order{}, errors.Wrap(ErrInvalidItems, "arguments are not an object")
	}

	rawItems, ok := top["items"]
	if !ok || bytes.Equal(bytes.TrimSpace(rawItems), []byte("null")) {
		return New(nil), nil
	}

	var list []json.RawMessage
	if err := json.Unmarshal(rawItems, &list); err != nil {
		return Order{}, errors.Wrap(ErrInvalidItems, "items is not an array")
	}

	items := make([]Item, 0, len(list))
	var total int64
	for i, raw := range list {
		it, err := decodeItem(raw)
		if err != nil {
			return Order{}, errors.Wrapf(err, "item %d", i)
		}
		lt := it.LineTotal()
		if total > math.MaxInt64-lt {
			return Order{}, errors.Wrapf(ErrInvalidItems, "item %d: order total overflows", i)
		}
		total += lt
		items = append(items, it)
	}
	return New(items), nil
}

func decodeItem(raw json.RawMessage) (Item, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Item{}, errors.Wrap(ErrInvalidItems, "not an object")
	}

	var name string
	if err := json.Unmarshal(fields["itemName"], &name); err != nil {
		return Item{}, errors.Wrap(ErrInvalidItems, "itemName must be a string")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Item{}, errors.Wrap(ErrInvalidItems, "itemName is empty")
	}

	qty, err := decodeNumber(fields["quantity"])
	if err != nil {
		return Item{}, errors.Wrapf(ErrInvalidItems, "quantity: %v", err)
	}
	if qty != math.Trunc(qty) || qty < 1 || qty > MaxQuantity {
		return Item{}, errors.Wrapf(ErrInvalidItems, "quantity %v is not a positive integer", qty)
	}

	price, err := decodeNumber(fields["unitPrice"])
	if err != nil {
		return Item{}, errors.Wrapf(ErrInvalidItems, "unitPrice: %v", err)
	}
	if price < 0 {
		return Item{}, errors.Wrapf(ErrInvalidItems, "unitPrice %v is negative", price)
	}
	if math.Round(price) > MaxUnitPrice {
		return Item{}, errors.Wrapf(ErrInvalidItems, "unitPrice %v is too large", price)
	}

	return Item{
		ItemName:  name,
		Quantity:  int(qty),
		UnitPrice: int64(math.Round(price)),
	}, nil
}

func decodeNumber(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, errors.New("missing")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case json.Number:
		return n.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) {
			return 0, errors.Errorf("%q is not a number", n)
		}
		return f, nil
	default:
		return 0, errors.Errorf("unexpected %T", v)
	}
}
