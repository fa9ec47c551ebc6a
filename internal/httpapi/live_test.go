package httpapi

import (
	"context"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialLive(t *testing.T, baseURL string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(baseURL, "http") + "/v1/search/live"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration) serverFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(timeout))
	var frame serverFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return frame
}

func TestLiveSearch_SettlesLastValue(t *testing.T) {
	s := newTestServer(t, Options{Debounce: 250 * time.Millisecond})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn := dialLive(t, ts.URL)
	for _, v := range []string{"s", "sh", "sho", "shoes"} {
		if err := conn.WriteJSON(clientFrame{Type: "input", Value: v}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	frame := readFrame(t, conn, 2*time.Second)
	if frame.Type != "settled" || frame.Value != "shoes" {
		t.Fatalf("frame = %+v, want settled shoes", frame)
	}
}

func TestLiveSearch_SubmitFlushes(t *testing.T) {
	s := newTestServer(t, Options{MaxDelay: time.Minute})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn := dialLive(t, ts.URL)
	delay := int64(60000)
	if err := conn.WriteJSON(clientFrame{Type: "input", Value: "boots", DelayMs: &delay}); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(clientFrame{Type: "submit"}); err != nil {
		t.Fatal(err)
	}

	frame := readFrame(t, conn, 2*time.Second)
	if frame.Type != "settled" || frame.Value != "boots" {
		t.Fatalf("frame = %+v, want settled boots", frame)
	}
}

func TestLiveSearch_EmptyValueSettles(t *testing.T) {
	s := newTestServer(t, Options{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn := dialLive(t, ts.URL)
	zero := int64(0)
	if err := conn.WriteJSON(clientFrame{Type: "input", Value: "", DelayMs: &zero}); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != `{"type":"settled","value":""}` {
		t.Errorf("frame = %s, want settled with empty value", got)
	}
}

func TestLiveSearch_BadFrames(t *testing.T) {
	s := newTestServer(t, Options{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn := dialLive(t, ts.URL)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{oops")); err != nil {
		t.Fatal(err)
	}
	if frame := readFrame(t, conn, 2*time.Second); frame.Type != "error" || frame.Error == "" {
		t.Errorf("frame = %+v, want error frame", frame)
	}

	if err := conn.WriteJSON(clientFrame{Type: "scroll"}); err != nil {
		t.Fatal(err)
	}
	frame := readFrame(t, conn, 2*time.Second)
	if frame.Type != "error" || !strings.Contains(frame.Error, "scroll") {
		t.Errorf("frame = %+v, want unknown type error", frame)
	}
}

func TestLiveSearch_DisconnectDisposes(t *testing.T) {
	s := newTestServer(t, Options{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn := dialLive(t, ts.URL)
	waitFor(t, func() bool { return s.LiveSessions() == 1 })

	delay := int64(1000)
	if err := conn.WriteJSON(clientFrame{Type: "input", Value: "x", DelayMs: &delay}); err != nil {
		t.Fatal(err)
	}
	conn.Close()

	waitFor(t, func() bool { return s.LiveSessions() == 0 })
}

func TestServe_ShutdownClosesSessions(t *testing.T) {
	s := newTestServer(t, Options{ShutdownTimeout: 2 * time.Second})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	conn := dialLive(t, "http://"+ln.Addr().String())
	waitFor(t, func() bool { return s.LiveSessions() == 1 })

	cancel()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("read after shutdown = %v, want going-away close", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() = %v, want nil", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
