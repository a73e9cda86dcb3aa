package downstream

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync/atomic"
	"time"

	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/pkg/ws"
)

const _defaultCallTimeout = 15 * time.Second

// Command is the wire-level order sent to the trading endpoint.
type Command struct {
	ID          int64       `json:"id"`
	AccountID   string      `json:"accountId"`
	Instrument  string      `json:"instrument"`
	Direction   string      `json:"direction"`
	Quantity    int         `json:"quantity"`
	OrderKind   string      `json:"orderKind"`
	LimitPrice  json.Number `json:"limitPrice"`
	StopPrice   json.Number `json:"stopPrice"`
	TimeInForce string      `json:"timeInForce"`
}

type commandAck struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// Client is the websocket trading connection. It is not safe for
// concurrent use; the gate is the only caller.
type Client struct {
	wss         *ws.WebSocket
	accessID    string
	secretKey   string
	callTimeout time.Duration
	connected   bool
	nextID      atomic.Int64
}

func NewClient(ctx context.Context, url, accessID, secretKey string) *Client {
	return &Client{
		wss:         ws.New(ctx, url),
		accessID:    accessID,
		secretKey:   secretKey,
		callTimeout: _defaultCallTimeout,
	}
}

// Connect starts the websocket and, when credentials are configured,
// authenticates before reporting success.
func (c *Client) Connect(ctx context.Context) error {
	if c.accessID == "" {
		if err := c.wss.Start(ctx); err != nil {
			return errors.Wrap(err, "start wss")
		}
		c.connected = true
		return nil
	}

	if err := c.wss.Start(ctx, ws.Sidecar{
		Sender: func(ctx context.Context, client *ws.WebSocket) error {
			sum := sha256.Sum256([]byte(c.secretKey))
			authPayload := map[string]any{
				"id":     int64(0),
				"method": "auth",
				"params": []any{c.accessID, hex.EncodeToString(sum[:])},
			}
			if err := client.WriteJSON(authPayload); err != nil {
				return errors.Wrap(err, "write auth payload")
			}
			return nil
		},
		Waiter: func(ctx context.Context, m ws.Message) (bool, error) {
			resp, ok := ws.ReadMessage[commandAck](m)
			if !ok || resp.ID != 0 {
				return false, nil
			}
			if resp.Status != "success" {
				return false, errors.Errorf("authenticate rejected: %s", resp.Reason)
			}
			return true, nil
		},
	}); err != nil {
		return errors.Wrap(err, "start wss")
	}

	c.connected = true
	return nil
}

func (c *Client) IsConnected() bool {
	return c.connected
}

// Submit sends one order command and waits for its ack, bounded by
// the call timeout.
func (c *Client) Submit(ctx context.Context, intent model.OrderIntent) error {
	if !c.connected {
		return exception.ErrDownstreamClosed
	}

	cmd := c.commandOf(intent)
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	appendIntoRegister := false
	if err := c.wss.SendAndWait(ctx, ws.Sidecar{
		Sender: func(ctx context.Context, client *ws.WebSocket) error {
			if err := client.WriteJSON(cmd); err != nil {
				return errors.Wrap(err, "write order command").With("command", cmd)
			}
			return nil
		},
		Waiter: func(ctx context.Context, m ws.Message) (bool, error) {
			resp, ok := ws.ReadMessage[commandAck](m)
			if !ok || resp.ID != cmd.ID {
				return false, nil
			}
			if resp.Status != "success" {
				return false, errors.Errorf("order rejected: %s", resp.Reason)
			}
			return true, nil
		},
	}, appendIntoRegister); err != nil {
		return errors.Wrap(err, "send and wait")
	}

	return nil
}

// Close shuts the websocket down. Further submits report closed.
func (c *Client) Close() error {
	c.connected = false
	c.wss.Close()
	return nil
}

func (c *Client) commandOf(intent model.OrderIntent) Command {
	return Command{
		ID:          c.nextID.Add(1),
		AccountID:   intent.AccountID,
		Instrument:  intent.Instrument,
		Direction:   intent.Direction.String(),
		Quantity:    intent.Quantity,
		OrderKind:   intent.OrderType.String(),
		LimitPrice:  json.Number(intent.LimitPrice.String()),
		StopPrice:   json.Number("0"),
		TimeInForce: enum.TimeInForceDay.String(),
	}
}
