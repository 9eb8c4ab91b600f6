package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ZanKramar/polymarket-trading/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// reconnectDelay is the base delay before attempting to reconnect.
	reconnectDelay = 2 * time.Second

	// maxReconnectDelay caps the exponential backoff for reconnection.
	maxReconnectDelay = 60 * time.Second
)

// BookHandler is called for every full orderbook snapshot received on the
// market channel.
type BookHandler func(BookUpdate)

// WSClient is a WebSocket client for the Polymarket CLOB real-time market
// data feed. It manages the connection lifecycle and resubscribes after
// reconnects.
type WSClient struct {
	wsURL string
	conn  *websocket.Conn

	mu     sync.RWMutex
	closed bool

	// Subscriptions to restore on reconnect.
	subscriptions []WSCommand

	handlerMu    sync.RWMutex
	bookHandlers []BookHandler

	// done is closed when the client is shut down; stop belongs to the
	// current connection and is closed when a reconnect supersedes it, so
	// stale read/ping loops never outlive their connection.
	done chan struct{}
	stop chan struct{}
}

// NewWSClient creates a new WebSocket client for the given endpoint, e.g.
// "wss://ws-subscriptions-clob.polymarket.com/ws/market".
func NewWSClient(wsURL string) *WSClient {
	return &WSClient{
		wsURL: wsURL,
		done:  make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection and starts the read and ping
// loops. Previously registered subscriptions are replayed.
func (w *WSClient) Connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("polymarket/ws: %w", domain.ErrWSDisconnect)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 15 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return fmt.Errorf("polymarket/ws: connect: %w", err)
	}

	// Retire the previous connection and its loops, if any.
	if w.stop != nil {
		close(w.stop)
	}
	if w.conn != nil {
		_ = w.conn.Close()
	}
	stop := make(chan struct{})
	w.stop = stop
	w.conn = conn

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go w.readLoop(conn, stop)
	go w.pingLoop(conn, stop)

	for _, cmd := range w.subscriptions {
		if err := w.sendCommand(cmd); err != nil {
			return fmt.Errorf("polymarket/ws: restore subscription: %w", err)
		}
	}
	return nil
}

// Subscribe subscribes to book updates for the given outcome token IDs. The
// subscription survives reconnects.
func (w *WSClient) Subscribe(assetIDs []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return fmt.Errorf("polymarket/ws: not connected")
	}

	cmd := WSCommand{
		Type:    "subscribe",
		Channel: "book",
		Assets:  assetIDs,
	}
	if err := w.sendCommand(cmd); err != nil {
		return fmt.Errorf("polymarket/ws: subscribe: %w", err)
	}
	w.subscriptions = append(w.subscriptions, cmd)
	return nil
}

// OnBook registers a handler that is called for every book snapshot.
func (w *WSClient) OnBook(handler BookHandler) {
	w.handlerMu.Lock()
	w.bookHandlers = append(w.bookHandlers, handler)
	w.handlerMu.Unlock()
}

// Close shuts down the WebSocket connection and stops the read loop.
func (w *WSClient) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	close(w.done)

	if w.conn != nil {
		_ = w.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		return w.conn.Close()
	}
	return nil
}

// sendCommand sends a JSON command to the WebSocket. Caller must hold w.mu.
func (w *WSClient) sendCommand(cmd WSCommand) error {
	w.conn.SetWriteDeadline(time.Now().Add(writeWait))

	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

// readLoop continuously reads frames from its connection and dispatches book
// snapshots to the registered handlers. On disconnect it hands off to
// reconnect, unless the connection was already superseded or the client
// closed.
func (w *WSClient) readLoop(conn *websocket.Conn, stop chan struct{}) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-w.done:
				return
			case <-stop:
				return
			default:
			}
			w.reconnect()
			return // a fresh readLoop starts inside reconnect -> Connect
		}

		w.handleMessage(message)
	}
}

// pingLoop sends periodic pings on its connection to keep it alive. Pings go
// through WriteControl, which is safe alongside the command writes made under
// w.mu.
func (w *WSClient) pingLoop(conn *websocket.Conn, stop chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-stop:
			return
		case <-ticker.C:
			deadline := time.Now().Add(writeWait)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// handleMessage parses a raw frame and routes book snapshots to handlers.
// The market channel can deliver a single message or a batch array; both
// shapes are handled. Unparseable frames are dropped.
func (w *WSClient) handleMessage(raw []byte) {
	var batch []json.RawMessage
	if err := json.Unmarshal(raw, &batch); err != nil {
		batch = []json.RawMessage{raw}
	}

	for _, item := range batch {
		var envelope struct {
			EventType string `json:"event_type"`
		}
		if err := json.Unmarshal(item, &envelope); err != nil {
			continue
		}
		if envelope.EventType != "book" {
			continue
		}

		var book BookMessage
		if err := json.Unmarshal(item, &book); err != nil {
			continue
		}
		upd := book.ToBookUpdate()

		w.handlerMu.RLock()
		handlers := w.bookHandlers
		w.handlerMu.RUnlock()

		for _, h := range handlers {
			h(upd)
		}
	}
}

// reconnect re-establishes the connection with exponential backoff. It
// blocks until successful or the client is closed.
func (w *WSClient) reconnect() {
	delay := reconnectDelay

	for {
		select {
		case <-w.done:
			return
		default:
		}

		time.Sleep(delay)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := w.Connect(ctx)
		cancel()

		if err == nil {
			return
		}

		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}
