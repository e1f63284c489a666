package berl

import (
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ConnectionState describes the lifecycle position of a client connection.
type ConnectionState int

// Connection lifecycle states. A connection owns at most one live transport
// handle and moves Disconnected -> Connected -> Closing -> Closed.
const (
	ConnectionStateDisconnected ConnectionState = iota
	ConnectionStateConnected
	ConnectionStateClosing
	ConnectionStateClosed
)

func (state ConnectionState) String() string {
	switch state {
	case ConnectionStateConnected:
		return "connected"
	case ConnectionStateClosing:
		return "closing"
	case ConnectionStateClosed:
		return "closed"
	default:
		return "disconnected"
	}
}

// ConnectionStateListener receives connection state updates.
type ConnectionStateListener interface {
	ConnectionStateChanged(state ConnectionState)
}

// ConnectionStateListenerFunc adapts a function to ConnectionStateListener.
type ConnectionStateListenerFunc func(ConnectionState)

// ConnectionStateChanged implements ConnectionStateListener.
func (f ConnectionStateListenerFunc) ConnectionStateChanged(state ConnectionState) { f(state) }

// Client manages a single BERL WebSocket connection, the receive loop, and
// message routing. Exported methods are safe for concurrent use; handlers run
// on the receive goroutine and should not block it.
type Client struct {
	clientName string
	dialer     *websocket.Dialer

	lock      sync.Mutex // lifecycle state
	writeLock sync.Mutex // one in-flight frame write at a time
	conn      *websocket.Conn
	url       *url.URL
	state     ConnectionState
	done      chan struct{}

	handlerLock       sync.Mutex
	messageHandler    func(*Message)
	disconnectHandler func(*Client, error)

	listenerLock sync.Mutex
	listeners    []ConnectionStateListener

	observer   Observer
	correlator *correlator
}

// NewClient returns a new Client with an optional name used in logs.
func NewClient(clientName ...string) *Client {
	var clientNameInternal string
	if len(clientName) > 0 {
		clientNameInternal = clientName[0]
	} else {
		clientNameInternal = "berl-client"
	}

	return &Client{
		clientName: clientNameInternal,
		dialer:     websocket.DefaultDialer,
		observer:   NopObserver{},
		correlator: newCorrelator(),
	}
}

// ClientName returns the name given at construction.
func (client *Client) ClientName() string { return client.clientName }

// SetObserver sets the event sink on the receiver. Must be called before
// Connect.
func (client *Client) SetObserver(observer Observer) *Client {
	if observer != nil {
		client.observer = observer
	}
	return client
}

// SetDialer overrides the websocket dialer, e.g. to set a TLS config or
// handshake timeout.
func (client *Client) SetDialer(dialer *websocket.Dialer) *Client {
	if dialer != nil {
		client.dialer = dialer
	}
	return client
}

// SetMessageHandler sets the callback for inbound messages that no
// expectation claimed and no auto-reply rule consumed.
func (client *Client) SetMessageHandler(messageHandler func(*Message)) *Client {
	client.handlerLock.Lock()
	client.messageHandler = messageHandler
	client.handlerLock.Unlock()
	return client
}

// SetDisconnectHandler sets the callback invoked when the peer closes the
// connection. It is not invoked for caller-initiated Disconnect.
func (client *Client) SetDisconnectHandler(disconnectHandler func(*Client, error)) *Client {
	client.handlerLock.Lock()
	client.disconnectHandler = disconnectHandler
	client.handlerLock.Unlock()
	return client
}

// AddConnectionStateListener registers a listener for state transitions.
func (client *Client) AddConnectionStateListener(listener ConnectionStateListener) *Client {
	if listener == nil {
		return client
	}
	client.listenerLock.Lock()
	client.listeners = append(client.listeners, listener)
	client.listenerLock.Unlock()
	return client
}

// ClearConnectionStateListeners drops all registered listeners.
func (client *Client) ClearConnectionStateListeners() *Client {
	client.listenerLock.Lock()
	client.listeners = nil
	client.listenerLock.Unlock()
	return client
}

func (client *Client) unhandledHandler() func(*Message) {
	client.handlerLock.Lock()
	defer client.handlerLock.Unlock()
	return client.messageHandler
}

func (client *Client) notifyConnectionState(state ConnectionState) {
	client.listenerLock.Lock()
	listeners := append([]ConnectionStateListener(nil), client.listeners...)
	client.listenerLock.Unlock()
	for _, listener := range listeners {
		listener.ConnectionStateChanged(state)
	}
}

// State returns the current connection state.
func (client *Client) State() ConnectionState {
	client.lock.Lock()
	defer client.lock.Unlock()
	return client.state
}

// Connected reports whether the client currently holds a live connection.
func (client *Client) Connected() bool {
	return client.State() == ConnectionStateConnected
}

func (client *Client) setStateLocked(state ConnectionState) {
	client.state = state
}

// Connect opens the WebSocket connection to a ws:// or wss:// URI and starts
// the receive loop. A failed dial is not retried.
func (client *Client) Connect(uri string) error {
	client.lock.Lock()

	if client.state == ConnectionStateConnected || client.state == ConnectionStateClosing {
		client.lock.Unlock()
		return NewError(AlreadyConnectedError)
	}

	parsedURI, err := url.Parse(uri)
	if err != nil {
		client.lock.Unlock()
		return NewError(InvalidURIError, err)
	}
	switch parsedURI.Scheme {
	case "ws", "wss":
	default:
		client.lock.Unlock()
		return NewError(InvalidURIError, "scheme must be ws or wss, got "+parsedURI.Scheme)
	}

	conn, _, err := client.dialer.Dial(parsedURI.String(), nil)
	if err != nil {
		client.lock.Unlock()
		return NewError(ConnectionRefusedError, err)
	}

	client.url = parsedURI
	client.conn = conn
	client.correlator = newCorrelator()
	client.done = make(chan struct{})
	client.setStateLocked(ConnectionStateConnected)
	client.lock.Unlock()

	client.notifyConnectionState(ConnectionStateConnected)

	go client.readRoutine(conn, client.correlator)

	return nil
}

// Send serializes a message and writes it as one text frame. Valid only
// while connected; a write failure is surfaced to the caller, not retried.
func (client *Client) Send(message *Message) error {
	client.lock.Lock()
	if client.state != ConnectionStateConnected || client.conn == nil {
		client.lock.Unlock()
		return NewError(DisconnectedError, "client is not connected while trying to send data")
	}
	conn := client.conn
	client.lock.Unlock()

	text, err := encodeMessage(message)
	if err != nil {
		return err
	}

	client.writeLock.Lock()
	err = conn.WriteMessage(websocket.TextMessage, []byte(text))
	client.writeLock.Unlock()
	if err != nil {
		return NewError(ConnectionError, err)
	}

	client.observer.MessageSent(message)
	return nil
}

// SendFields is a convenience wrapper building and sending a structured
// message in one call.
func (client *Client) SendFields(fields map[string]interface{}) error {
	return client.Send(NewMessage(fields))
}

// readRoutine is the per-connection receive loop: one blocking read, decode,
// dispatch per iteration. It exits on transport closure and never on a parse
// failure.
func (client *Client) readRoutine(conn *websocket.Conn, correlator *correlator) {
	defer close(client.done)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			client.handleReadClosure(err, correlator)
			return
		}

		message := decodeMessage(string(payload))
		client.observer.MessageReceived(message)
		client.dispatch(message, correlator)
	}
}

// handleReadClosure runs the peer-initiated teardown. When the caller is
// already mid-Disconnect the loop just exits; Disconnect owns the cleanup.
func (client *Client) handleReadClosure(err error, correlator *correlator) {
	client.lock.Lock()
	if client.state != ConnectionStateConnected {
		client.lock.Unlock()
		return
	}
	client.setStateLocked(ConnectionStateClosing)
	conn := client.conn
	client.conn = nil
	client.setStateLocked(ConnectionStateClosed)
	client.lock.Unlock()

	client.notifyConnectionState(ConnectionStateClosing)
	client.notifyConnectionState(ConnectionStateClosed)

	if conn != nil {
		_ = conn.Close()
	}
	correlator.closeAll()
	client.observer.ConnectionClosed(CloseReasonPeer, err)

	client.handlerLock.Lock()
	disconnectHandler := client.disconnectHandler
	client.handlerLock.Unlock()
	if disconnectHandler != nil {
		disconnectHandler(client, err)
	}
}

// Disconnect stops the receive loop, closes the transport, and resolves every
// outstanding expectation with ErrConnectionClosed. It is idempotent: calling
// it on a closing or closed client is a no-op.
func (client *Client) Disconnect() error {
	client.lock.Lock()
	if client.state != ConnectionStateConnected {
		client.lock.Unlock()
		return nil
	}
	client.setStateLocked(ConnectionStateClosing)
	conn := client.conn
	client.conn = nil
	done := client.done
	correlator := client.correlator
	client.lock.Unlock()

	client.notifyConnectionState(ConnectionStateClosing)

	// Best-effort close handshake, then close the socket so the blocked
	// read returns promptly.
	client.writeLock.Lock()
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	client.writeLock.Unlock()
	err := conn.Close()

	if done != nil {
		<-done
	}

	client.lock.Lock()
	client.setStateLocked(ConnectionStateClosed)
	client.lock.Unlock()

	client.notifyConnectionState(ConnectionStateClosed)
	correlator.closeAll()
	client.observer.ConnectionClosed(CloseReasonCaller, nil)

	if err != nil {
		return NewError(ConnectionError, err)
	}
	return nil
}

// Close is an alias for Disconnect.
func (client *Client) Close() error {
	return client.Disconnect()
}

// ExpectNext registers interest in the next inbound message satisfying the
// predicate, ahead of auto-reply dispatch. The expectation resolves with the
// matched message, ErrTimedOut after the timeout, or ErrConnectionClosed if
// the session closes first.
func (client *Client) ExpectNext(predicate Predicate, timeout time.Duration) *Expectation {
	client.lock.Lock()
	correlator := client.correlator
	client.lock.Unlock()
	return correlator.expectNext(predicate, timeout)
}

// ExpectCount collects up to count inbound messages within the shared
// timeout. Fewer than count at the deadline is still a successful result.
func (client *Client) ExpectCount(count int, timeout time.Duration) *Collector {
	client.lock.Lock()
	correlator := client.correlator
	client.lock.Unlock()
	return correlator.expectCount(count, timeout)
}

// PendingExpectations reports how many waiters are currently outstanding.
func (client *Client) PendingExpectations() int {
	client.lock.Lock()
	correlator := client.correlator
	client.lock.Unlock()
	return correlator.pendingCount()
}
