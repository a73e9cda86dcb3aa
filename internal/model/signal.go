package model

import (
	"encoding/json"

	"github.com/yanun0323/decimal"
)

// Signal is a decoded alert for one instrument. The action stays raw
// here; the dispatcher resolves it and drops anything it cannot map.
type Signal struct {
	Ticker   string
	Action   string
	Price    decimal.Decimal
	HasPrice bool
	Interval int
}

// OutboundSignal is the mapped form published to broadcast clients
// and the audit journal. Field names match the historical wire shape.
type OutboundSignal struct {
	Ticker   string `json:"Ticker"`
	Action   string `json:"Action"`
	Price    any    `json:"Price"`
	Interval any    `json:"Interval"`
}

// Outbound builds the published form of the signal with the ticker
// already mapped to its target instrument.
func (s Signal) Outbound(instrument string) OutboundSignal {
	out := OutboundSignal{
		Ticker: instrument,
		Action: s.Action,
	}
	if s.HasPrice {
		out.Price = json.Number(s.Price.String())
	}
	if s.Interval != 0 {
		out.Interval = s.Interval
	}
	return out
}
