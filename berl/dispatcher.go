package berl

import "fmt"

// messageKind is the closed set of inbound classifications the client reacts
// to. Anything that is not a known discriminator value falls into
// kindUnknown and reaches the unhandled-message handler untouched.
type messageKind int

const (
	kindUnknown messageKind = iota
	kindRaw
	kindPing
	kindEcho
)

func classify(message *Message) messageKind {
	if message.IsRaw() {
		return kindRaw
	}
	if messageType, hasType := message.Type(); hasType && messageType == "ping" {
		return kindPing
	}
	if command, hasCommand := message.Command(); hasCommand && command == "echo" {
		return kindEcho
	}
	return kindUnknown
}

// dispatch applies the reaction rules to one inbound message, in precedence
// order: expectation match, ping auto-reply, echo auto-reply, unhandled
// handler. Only the receive goroutine calls dispatch, so rules run
// single-threaded per connection and in arrival order.
func (client *Client) dispatch(message *Message, correlator *correlator) {
	if correlator.offer(message) {
		return
	}

	switch classify(message) {
	case kindPing:
		client.replyPong(message)
	case kindEcho:
		client.replyEcho(message)
	default:
		if handler := client.unhandledHandler(); handler != nil {
			handler(message)
		}
	}
}

func (client *Client) replyPong(ping *Message) {
	fields := map[string]interface{}{"type": "pong"}
	if timestamp, hasTimestamp := ping.Timestamp(); hasTimestamp {
		fields["timestamp"] = timestamp
	}
	client.autoReply(NewMessage(fields))
}

func (client *Client) replyEcho(request *Message) {
	data, _ := request.Data()
	client.autoReply(NewMessage(map[string]interface{}{
		"type":     "echo_response",
		"original": data,
		"response": fmt.Sprintf("Echo: %v", data),
	}))
}

// autoReply sends a protocol reaction through the normal send path. A failed
// auto-reply is reported to the observer and otherwise contained: the receive
// loop keeps running.
func (client *Client) autoReply(reply *Message) {
	if err := client.Send(reply); err != nil {
		client.observer.SendFailure(reply, err)
	}
}
