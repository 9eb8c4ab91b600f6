package polymarket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type wsTestServer struct {
	srv   *httptest.Server
	cmds  chan WSCommand
	conns chan *websocket.Conn
}

func newWSTestServer(t *testing.T) *wsTestServer {
	t.Helper()
	s := &wsTestServer{
		cmds:  make(chan WSCommand, 8),
		conns: make(chan *websocket.Conn, 8),
	}
	upgrader := websocket.Upgrader{}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.conns <- conn
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var cmd WSCommand
			if err := json.Unmarshal(data, &cmd); err != nil {
				continue
			}
			s.cmds <- cmd
		}
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *wsTestServer) url() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

func TestWSClientSubscribeAndDispatchBook(t *testing.T) {
	srv := newWSTestServer(t)

	client := NewWSClient(srv.url())
	books := make(chan BookUpdate, 1)
	client.OnBook(func(upd BookUpdate) { books <- upd })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	if err := client.Subscribe([]string{"tok1"}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	var conn *websocket.Conn
	select {
	case conn = <-srv.conns:
	case <-time.After(2 * time.Second):
		t.Fatal("server saw no connection")
	}

	select {
	case cmd := <-srv.cmds:
		if cmd.Type != "subscribe" || cmd.Channel != "book" || len(cmd.Assets) != 1 || cmd.Assets[0] != "tok1" {
			t.Fatalf("unexpected command: %+v", cmd)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server saw no subscribe command")
	}

	frame := `{"event_type":"book","asset_id":"tok1","market":"0xm1","bids":[{"price":"0.48","size":"100"}],"asks":[{"price":"0.52","size":"80"}],"timestamp":"1772380800000"}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("server write: %v", err)
	}

	select {
	case upd := <-books:
		if upd.AssetID != "tok1" || upd.MarketID != "0xm1" {
			t.Errorf("update = %+v", upd)
		}
		if len(upd.Bids) != 1 || upd.Bids[0].Price != 0.48 {
			t.Errorf("bids = %+v", upd.Bids)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("book update not dispatched")
	}

	if err := client.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}

func TestWSClientReconnectReplaysSubscriptions(t *testing.T) {
	srv := newWSTestServer(t)

	client := NewWSClient(srv.url())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	if err := client.Subscribe([]string{"tok1", "tok2"}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	<-srv.conns
	<-srv.cmds

	// A second Connect retires the first connection and its loops, then
	// replays the stored subscriptions on the new one.
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	select {
	case <-srv.conns:
	case <-time.After(2 * time.Second):
		t.Fatal("server saw no second connection")
	}
	select {
	case cmd := <-srv.cmds:
		if len(cmd.Assets) != 2 {
			t.Fatalf("replayed command = %+v", cmd)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not replayed after reconnect")
	}
}
