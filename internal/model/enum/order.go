package enum

import "strings"

// Direction is the side of an outbound order command.
type Direction uint8

const (
	_direction_beg Direction = iota
	DirectionBuy
	DirectionSell
	_direction_end
)

func (d Direction) IsAvailable() bool {
	return d > _direction_beg && d < _direction_end
}

func (d Direction) String() string {
	switch d {
	case DirectionBuy:
		return "BUY"
	case DirectionSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// DirectionOf maps an alert action to an order direction.
func DirectionOf(a Action) (Direction, bool) {
	switch a {
	case ActionBuy:
		return DirectionBuy, true
	case ActionSell:
		return DirectionSell, true
	default:
		return _direction_beg, false
	}
}

// OrderType is the order kind configured per account.
type OrderType uint8

const (
	_order_type_beg OrderType = iota
	OrderTypeMarket
	OrderTypeLimit
	_order_type_end
)

func (t OrderType) IsAvailable() bool {
	return t > _order_type_beg && t < _order_type_end
}

func (t OrderType) String() string {
	switch t {
	case OrderTypeMarket:
		return "MARKET"
	case OrderTypeLimit:
		return "LIMIT"
	default:
		return "UNKNOWN"
	}
}

// ParseOrderType resolves an order type string, case-insensitive.
func ParseOrderType(s string) (OrderType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "market":
		return OrderTypeMarket, true
	case "limit":
		return OrderTypeLimit, true
	default:
		return _order_type_beg, false
	}
}

// TimeInForce is the lifetime of an outbound order command.
type TimeInForce uint8

const (
	_time_in_force_beg TimeInForce = iota
	TimeInForceDay
	_time_in_force_end
)

func (t TimeInForce) IsAvailable() bool {
	return t > _time_in_force_beg && t < _time_in_force_end
}

func (t TimeInForce) String() string {
	switch t {
	case TimeInForceDay:
		return "DAY"
	default:
		return "UNKNOWN"
	}
}
