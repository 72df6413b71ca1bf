package meter_test

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	Md "github.com/maroda/meter/display"
	Me "github.com/maroda/meter/engine"
	Mt "github.com/maroda/meter/types"
)

func TestClientMessage_Event(t *testing.T) {
	t.Run("Converts a move", func(t *testing.T) {
		ev, err := Md.ClientMessage{Type: "move", X: 2.5}.Event()
		assertError(t, err, nil)
		assertInt(t, int(ev.Kind), int(Mt.EventMove))
		assertFloat(t, ev.X, 2.5)
	})

	t.Run("Rejects unknown types", func(t *testing.T) {
		_, err := Md.ClientMessage{Type: "drag"}.Event()
		assertError(t, err, Md.ErrUnknownKind)
	})
}

func TestHub_Draw(t *testing.T) {
	hub := Md.NewHub()

	t.Run("Starts empty", func(t *testing.T) {
		assertStringContains(t, hub.Last().State, "")
		assertInt(t, hub.Clients(), 0)
	})

	t.Run("Keeps the last snapshot", func(t *testing.T) {
		hub.Draw(Mt.Snapshot{State: "sound1Starts", Points: []float64{0}})
		hub.Draw(Mt.Snapshot{State: "sound1Continues", Points: []float64{0}})
		assertStringContains(t, hub.Last().State, "sound1Continues")
	})
}

func TestHub_Websocket(t *testing.T) {
	sess := makeTestSession(t, "")
	sess.Start()

	server := httptest.NewServer(sess.Handler())
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("could not dial %s: %v", wsURL, err)
	}
	defer conn.Close()

	t.Run("Sends the current snapshot on connect", func(t *testing.T) {
		snap := readSnapshot(t, conn)
		assertStringContains(t, snap.State, "start")
		waitUntil(t, func() bool { return sess.Hub.Clients() == 1 })
	})

	t.Run("Client events drive the session", func(t *testing.T) {
		assertError(t, conn.WriteJSON(Md.ClientMessage{Type: "click", X: 0}), nil)
		snap := readUntilState(t, conn, "sound1Starts")
		assertInt(t, len(snap.Points), 1)
	})

	t.Run("Bad messages are ignored", func(t *testing.T) {
		assertError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")), nil)
		assertError(t, conn.WriteJSON(Md.ClientMessage{Type: "wiggle", X: 1}), nil)
		assertError(t, conn.WriteJSON(Md.ClientMessage{Type: "move", X: 3}), nil)
		snap := readUntilState(t, conn, "sound1Continues")
		assertFloat(t, *snap.Cursor, 3)
	})

	t.Run("Control messages reach the driver", func(t *testing.T) {
		assertError(t, conn.WriteJSON(Md.ClientMessage{Type: "reset"}), nil)
		snap := readUntilState(t, conn, "start")
		assertInt(t, len(snap.Points), 0)
	})

	t.Run("Disconnecting removes the client", func(t *testing.T) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
		waitUntil(t, func() bool { return sess.Hub.Clients() == 0 })
	})
}

// Helpers //

func makeTestSession(t *testing.T, journal string) *Md.Session {
	t.Helper()
	cfg := Me.DefaultConfig()
	cfg.Journal = journal
	sess, err := Md.NewSession(cfg, nil)
	if err != nil {
		t.Fatalf("could not build session: %v", err)
	}
	t.Cleanup(func() { sess.Close() })
	return sess
}

// playScript queues script lines and waits for the session to reach want
func playScript(t *testing.T, sess *Md.Session, want string, lines ...string) {
	t.Helper()
	events, err := Me.ParseScript(strings.NewReader(strings.Join(lines, "\n")))
	assertError(t, err, nil)
	for _, ev := range events {
		if err := sess.Queue.Submit(ev); err != nil {
			t.Fatalf("could not queue %v: %v", ev, err)
		}
	}
	waitUntil(t, func() bool { return sess.Hub.Last().State == want })
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met before timeout")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readSnapshot(t *testing.T, conn *websocket.Conn) Mt.Snapshot {
	t.Helper()
	var snap Mt.Snapshot
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("could not read snapshot: %v", err)
	}
	return snap
}

func readUntilState(t *testing.T, conn *websocket.Conn, state string) Mt.Snapshot {
	t.Helper()
	for range 10 {
		snap := readSnapshot(t, conn)
		if snap.State == state {
			return snap
		}
	}
	t.Fatalf("never saw state %s", state)
	return Mt.Snapshot{}
}

func assertError(t testing.TB, got, want error) {
	t.Helper()
	if !errors.Is(got, want) {
		t.Errorf("got error %q want %q", got, want)
	}
}

func assertGotError(t testing.TB, got error) {
	t.Helper()
	if got == nil {
		t.Errorf("Expected an error but got %q", got)
	}
}

func assertStatus(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("did not get correct status, got %d, want %d", got, want)
	}
}

func assertInt(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("did not get correct value, got %d, want %d", got, want)
	}
}

func assertFloat(t *testing.T, got, want float64) {
	t.Helper()
	if got != want {
		t.Errorf("did not get correct value, got %v, want %v", got, want)
	}
}

func assertStringContains(t *testing.T, full, want string) {
	t.Helper()
	if !strings.Contains(full, want) {
		t.Errorf("Did not find %q, expected string contains %q", want, full)
	}
}
