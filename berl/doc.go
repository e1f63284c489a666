// Package berl provides a Go client for the BERL WebSocket server protocol:
// bidirectional exchange of discrete JSON text messages over one persistent
// connection.
//
// The primary lifecycle is:
//   - construct a Client with NewClient
//   - Connect to a ws:// or wss:// URI
//   - Send messages and react to inbound traffic via auto-replies,
//     expectations, or the unhandled-message handler
//   - Disconnect or Close when finished
//
// One receive goroutine per connection reads, decodes, and dispatches inbound
// messages in arrival order. Ping probes and echo requests are answered
// automatically; a message claimed by an outstanding expectation is delivered
// to that waiter instead and never auto-replied. Text that fails to parse as
// JSON is downgraded to a raw-text Message rather than treated as an error.
//
// Send may be called from any number of goroutines, including from handlers
// running on the receive path; frame writes are serialized internally.
//
// Errors are reported as typed errors created with NewError. Expectation
// waiters additionally receive the ErrTimedOut and ErrConnectionClosed
// sentinels, matchable with errors.Is.
package berl
