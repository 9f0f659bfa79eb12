package hub

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	gorilla "github.com/gorilla/websocket"

	"github.com/teslashibe/go-vega/internal/log"
)

// serveHub exposes h on /ws and returns the websocket URL.
func serveHub(t *testing.T, h *Hub) string {
	t.Helper()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		NewClient(h, c).Run()
	}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go app.Listener(ln)
	t.Cleanup(func() { app.Shutdown() })
	return "ws://" + ln.Addr().String() + "/ws"
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub_BroadcastReachesClients(t *testing.T) {
	h := New("test", log.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	url := serveHub(t, h)
	a, _, err := gorilla.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer a.Close()
	b, _, err := gorilla.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer b.Close()

	waitFor(t, func() bool { return h.ClientCount() == 2 })

	if err := h.BroadcastJSON(map[string]float64{"voltage": 12.2}); err != nil {
		t.Fatalf("BroadcastJSON: %v", err)
	}

	for _, conn := range []*gorilla.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var got map[string]float64
		json.Unmarshal(data, &got)
		if got["voltage"] != 12.2 {
			t.Errorf("got %s", data)
		}
	}

	a.Close()
	waitFor(t, func() bool { return h.ClientCount() == 1 })
}

func TestHub_ReplayHubSendsLastMessageToLateJoiner(t *testing.T) {
	h := New("panel", log.Discard(), WithReplay())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	h.Broadcast(NewJSONMessage([]byte(`{"heading":90}`)))
	waitFor(t, func() bool { return len(h.broadcast) == 0 })

	conn, _, err := gorilla.DefaultDialer.Dial(serveHub(t, h), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != `{"heading":90}` {
		t.Errorf("got %s", data)
	}
}

func TestHub_LateJoinerOnlySeesNewMessages(t *testing.T) {
	h := New("telemetry", log.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	h.Broadcast(NewJSONMessage([]byte(`{"voltage":11.1}`)))
	waitFor(t, func() bool { return len(h.broadcast) == 0 })

	conn, _, err := gorilla.DefaultDialer.Dial(serveHub(t, h), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	h.Broadcast(NewJSONMessage([]byte(`{"voltage":12.4}`)))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != `{"voltage":12.4}` {
		t.Errorf("first message = %s, want the one sent after joining", data)
	}
}

func TestHub_StopDisconnectsClients(t *testing.T) {
	h := New("test", log.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	conn, _, err := gorilla.DefaultDialer.Dial(serveHub(t, h), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	cancel()
	waitFor(t, func() bool { return h.ClientCount() == 0 })

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected the connection to be closed")
	}
}

func TestHub_BroadcastNeverBlocks(t *testing.T) {
	h := New("test", log.Discard())
	// Run is not started, so the channel fills up.
	for i := 0; i < 300; i++ {
		h.Broadcast(NewJSONMessage([]byte("{}")))
	}
	if h.Dropped() != 300-256 {
		t.Errorf("Dropped = %d, want %d", h.Dropped(), 300-256)
	}
}
