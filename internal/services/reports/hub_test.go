package reports

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.viam.com/test"

	"distancing-worker-go/internal/models"
)

func dial(t *testing.T, srv *httptest.Server, source string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?source=" + source
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	test.That(t, err, test.ShouldBeNil)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for h.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, h.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubPublishReport(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeWS(w, r, r.URL.Query().Get("source"))
	}))
	defer srv.Close()

	all := dial(t, srv, "")
	gate := dial(t, srv, "gate")
	waitClients(t, h, 2)

	test.That(t, h.PublishReport(models.FrameReport{Source: "lobby", FrameID: 1, ViolationCount: 2}), test.ShouldBeNil)
	test.That(t, h.PublishReport(models.FrameReport{Source: "gate", FrameID: 2}), test.ShouldBeNil)

	var got models.FrameReport
	test.That(t, all.SetReadDeadline(time.Now().Add(5*time.Second)), test.ShouldBeNil)
	test.That(t, all.ReadJSON(&got), test.ShouldBeNil)
	test.That(t, got.FrameID, test.ShouldEqual, int64(1))
	test.That(t, got.ViolationCount, test.ShouldEqual, 2)
	test.That(t, all.ReadJSON(&got), test.ShouldBeNil)
	test.That(t, got.FrameID, test.ShouldEqual, int64(2))

	// the filtered client only sees its own source
	test.That(t, gate.SetReadDeadline(time.Now().Add(5*time.Second)), test.ShouldBeNil)
	_, data, err := gate.ReadMessage()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, json.Unmarshal(data, &got), test.ShouldBeNil)
	test.That(t, got.Source, test.ShouldEqual, "gate")

	gate.Close()
	waitClients(t, h, 1)

	h.Close()
	test.That(t, h.ClientCount(), test.ShouldEqual, 0)
	_, _, err = all.ReadMessage()
	test.That(t, err, test.ShouldNotBeNil)
}
