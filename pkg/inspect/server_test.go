package inspect

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/statekit-dev/statekit/pkg/store"
)

// startTestServer runs the hub and serves the inspector handler on an
// ephemeral port, returning the ws:// URL of the stream endpoint.
func startTestServer(t *testing.T) (*Server, string) {
	t.Helper()

	s := New(nil)
	go s.hub.run()
	t.Cleanup(s.hub.close)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	return s, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func readRecord(t *testing.T, conn *websocket.Conn) Record {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var rec Record
	if err := json.Unmarshal(msg, &rec); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	return rec
}

func TestWatchStreamsMutations(t *testing.T) {
	s, url := startTestServer(t)

	count := store.NewAtom(0)
	defer store.CleanStores(count)
	unwatch := WatchAtom(s, "count", count)
	defer unwatch()

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	if resp != nil {
		defer resp.Body.Close()
	}
	defer conn.Close()

	// Give the hub a moment to register the client before mutating.
	time.Sleep(20 * time.Millisecond)
	count.Set(42)

	rec := readRecord(t, conn)
	if rec.Store != "count" {
		t.Errorf("expected store name count, got %q", rec.Store)
	}
	if v, ok := rec.Value.(float64); !ok || v != 42 {
		t.Errorf("expected value 42, got %v", rec.Value)
	}
	if rec.Seq == 0 {
		t.Errorf("expected a sequence number")
	}
}

func TestWatchMapIncludesChangedKey(t *testing.T) {
	s, url := startTestServer(t)

	profile := store.NewMap(map[string]string{})
	defer store.CleanStores(profile)
	unwatch := WatchMap(s, "profile", profile)
	defer unwatch()

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	if resp != nil {
		defer resp.Body.Close()
	}
	defer conn.Close()

	time.Sleep(20 * time.Millisecond)
	profile.SetKey("name", "alice")

	rec := readRecord(t, conn)
	if rec.Store != "profile" || rec.Key != "name" {
		t.Errorf("expected profile/name record, got %+v", rec)
	}
}

func TestHealthz(t *testing.T) {
	s := New(nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestStartShutsDownOnCancel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Address = "localhost:0"
	s := New(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}
