package model

import (
	"main/internal/model/enum"

	"github.com/yanun0323/decimal"
)

// ZeroPrice is the limit price carried by market orders.
var ZeroPrice = decimal.Require("0")

// OrderIntent is one account's share of a signal: the concrete order
// the gate will submit downstream. Built per (signal, account) pair.
type OrderIntent struct {
	AccountID  string
	Instrument string
	Direction  enum.Direction
	Quantity   int
	OrderType  enum.OrderType
	LimitPrice decimal.Decimal
}
