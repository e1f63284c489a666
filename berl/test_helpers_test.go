package berl

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newTestServer starts an in-process WebSocket endpoint whose per-connection
// behavior is supplied by the test. The server is torn down via t.Cleanup.
func newTestServer(t *testing.T, handle func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		conn, err := upgrader.Upgrade(writer, request, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer func() { _ = conn.Close() }()
		handle(conn)
	}))
	t.Cleanup(server.Close)

	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// respondingHandler reads frames and answers each with a reply built by
// respond, until the client goes away. A nil reply suppresses the answer.
func respondingHandler(respond func(payload string) string) func(conn *websocket.Conn) {
	return func(conn *websocket.Conn) {
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			reply := respond(string(payload))
			if reply == "" {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(reply)); err != nil {
				return
			}
		}
	}
}

// frameRecorder captures frames the server receives from the client.
type frameRecorder struct {
	lock   sync.Mutex
	frames []string
	signal chan struct{}
}

func newFrameRecorder() *frameRecorder {
	return &frameRecorder{signal: make(chan struct{}, 64)}
}

func (recorder *frameRecorder) record(payload string) {
	recorder.lock.Lock()
	recorder.frames = append(recorder.frames, payload)
	recorder.lock.Unlock()
	select {
	case recorder.signal <- struct{}{}:
	default:
	}
}

func (recorder *frameRecorder) snapshot() []string {
	recorder.lock.Lock()
	defer recorder.lock.Unlock()
	return append([]string(nil), recorder.frames...)
}

// awaitFrames blocks until at least count frames arrived or the deadline
// passes, then returns whatever was captured.
func (recorder *frameRecorder) awaitFrames(count int, deadline time.Duration) []string {
	expiry := time.After(deadline)
	for {
		if frames := recorder.snapshot(); len(frames) >= count {
			return frames
		}
		select {
		case <-recorder.signal:
		case <-expiry:
			return recorder.snapshot()
		}
	}
}

// recordingObserver captures observer events for assertions.
type recordingObserver struct {
	lock     sync.Mutex
	sent     []*Message
	received []*Message
	failures []error
	warnings []string
	closed   bool
	reason   CloseReason
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{}
}

func (observer *recordingObserver) MessageSent(message *Message) {
	observer.lock.Lock()
	observer.sent = append(observer.sent, message)
	observer.lock.Unlock()
}

func (observer *recordingObserver) MessageReceived(message *Message) {
	observer.lock.Lock()
	observer.received = append(observer.received, message)
	observer.lock.Unlock()
}

func (observer *recordingObserver) SendFailure(_ *Message, err error) {
	observer.lock.Lock()
	observer.failures = append(observer.failures, err)
	observer.lock.Unlock()
}

func (observer *recordingObserver) ConnectionClosed(reason CloseReason, _ error) {
	observer.lock.Lock()
	observer.closed = true
	observer.reason = reason
	observer.lock.Unlock()
}

func (observer *recordingObserver) Warning(detail string, _ *Message) {
	observer.lock.Lock()
	observer.warnings = append(observer.warnings, detail)
	observer.lock.Unlock()
}

func (observer *recordingObserver) closeReason() (CloseReason, bool) {
	observer.lock.Lock()
	defer observer.lock.Unlock()
	return observer.reason, observer.closed
}

func mustConnect(t *testing.T, client *Client, uri string) {
	t.Helper()
	if err := client.Connect(uri); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect() })
}
