package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/frc2554/targetvision/internal/target"
)

func dialResults(t *testing.T, hub *ResultsHub) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(hub)
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	waitFor(t, func() bool { return hub.Clients() == 1 })
	return conn
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

func TestResultsHub_Publish(t *testing.T) {
	hub := NewResultsHub()
	conn := dialResults(t, hub)

	result := target.DetectionResult{
		TargetExists: true,
		Center1:      [2]int{50, 60},
		Center2:      [2]int{150, 60},
		Midpoint:     [2]float64{100, 60},
		YawAngle:     -12.145,
	}
	if err := hub.Publish(result); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}

	var msg ResultMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Result != result {
		t.Errorf("result = %+v, want %+v", msg.Result, result)
	}
	if msg.Timestamp == 0 {
		t.Error("timestamp should be set")
	}
}

func TestResultsHub_ClientDisconnect(t *testing.T) {
	hub := NewResultsHub()
	conn := dialResults(t, hub)

	conn.Close()
	waitFor(t, func() bool { return hub.Clients() == 0 })

	if err := hub.Publish(target.NoTarget()); err != nil {
		t.Errorf("Publish with no clients: %v", err)
	}
}

func TestResultsHub_RejectsPlainHTTP(t *testing.T) {
	hub := NewResultsHub()
	ts := httptest.NewServer(hub)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != 400 {
		t.Errorf("status = %d, want 400 for a non-upgrade request", resp.StatusCode)
	}
	if hub.Clients() != 0 {
		t.Errorf("clients = %d", hub.Clients())
	}
}
