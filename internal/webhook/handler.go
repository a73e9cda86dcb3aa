package webhook

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"main/internal/model"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/decimal"
	"github.com/yanun0323/logs"
)

const _maxBodySize = 1 << 20

// Enqueuer hands a decoded signal to the dispatch pipeline.
type Enqueuer interface {
	Enqueue(sig model.Signal) error
}

// Handler receives alert webhooks, decodes them and returns
// immediately; processing happens asynchronously behind the queue.
type Handler struct {
	enqueuer Enqueuer
}

func NewHandler(enqueuer Enqueuer) *Handler {
	return &Handler{enqueuer: enqueuer}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhook", h.handle)
}

// alertPayload tolerates the loose upstream shapes: price and
// interval arrive as numbers, numeric strings, or not at all.
type alertPayload struct {
	Ticker   string `json:"ticker"`
	Action   string `json:"action"`
	Price    any    `json:"price"`
	Interval any    `json:"interval"`
}

func (h *Handler) handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, _maxBodySize))
	if err != nil {
		respond(w, http.StatusBadRequest, "error", err.Error())
		return
	}

	var payload alertPayload
	if err := sonic.ConfigFastest.Unmarshal(body, &payload); err != nil {
		logs.Warnf("decode alert body, err: %+v", err)
		respond(w, http.StatusBadRequest, "error", err.Error())
		return
	}

	sig := payload.signal()
	logs.Infof("signal received: ticker=%s action=%s interval=%d", sig.Ticker, sig.Action, sig.Interval)

	if err := h.enqueuer.Enqueue(sig); err != nil {
		logs.Warnf("enqueue signal for %s, err: %+v", sig.Ticker, err)
	}
	respond(w, http.StatusOK, "success", "Signal received")
}

func (p alertPayload) signal() model.Signal {
	sig := model.Signal{
		Ticker: strings.TrimSpace(p.Ticker),
		Action: strings.TrimSpace(p.Action),
	}
	if price, ok := parsePrice(p.Price); ok {
		sig.Price = price
		sig.HasPrice = true
	}
	sig.Interval, _ = parseInterval(p.Interval)
	return sig
}

func parsePrice(v any) (decimal.Decimal, bool) {
	switch price := v.(type) {
	case string:
		d, err := decimal.New(price)
		if err != nil {
			return d, false
		}
		return d, true
	case float64:
		d, err := decimal.New(strconv.FormatFloat(price, 'f', -1, 64))
		if err != nil {
			return d, false
		}
		return d, true
	default:
		var zero decimal.Decimal
		return zero, false
	}
}

func parseInterval(v any) (int, bool) {
	switch interval := v.(type) {
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(interval))
		if err != nil {
			return 0, false
		}
		return n, true
	case float64:
		return int(interval), true
	default:
		return 0, false
	}
}

func respond(w http.ResponseWriter, code int, status, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	payload, err := sonic.ConfigFastest.Marshal(map[string]string{
		"status":  status,
		"message": message,
	})
	if err != nil {
		return
	}
	_, _ = w.Write(payload)
}
