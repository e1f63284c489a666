package berl

import "github.com/rs/zerolog"

// CloseReason attributes a connection shutdown to one side.
type CloseReason int

// Close reason values.
const (
	CloseReasonCaller CloseReason = iota
	CloseReasonPeer
)

func (reason CloseReason) String() string {
	if reason == CloseReasonPeer {
		return "peer"
	}
	return "caller"
}

// Observer receives the client's lifecycle and traffic events. The core never
// writes to a process-wide logger; callers inject whatever sink they want.
// Methods may be invoked from the receive goroutine and must not block.
type Observer interface {
	MessageSent(message *Message)
	MessageReceived(message *Message)
	SendFailure(message *Message, err error)
	ConnectionClosed(reason CloseReason, err error)
	Warning(detail string, message *Message)
}

// NopObserver discards every event. It is the default sink.
type NopObserver struct{}

// MessageSent implements Observer.
func (NopObserver) MessageSent(*Message) {}

// MessageReceived implements Observer.
func (NopObserver) MessageReceived(*Message) {}

// SendFailure implements Observer.
func (NopObserver) SendFailure(*Message, error) {}

// ConnectionClosed implements Observer.
func (NopObserver) ConnectionClosed(CloseReason, error) {}

// Warning implements Observer.
func (NopObserver) Warning(string, *Message) {}

// LogObserver adapts a zerolog logger to the Observer interface.
type LogObserver struct {
	logger zerolog.Logger
}

// NewLogObserver returns an observer that records events on the given logger.
func NewLogObserver(logger zerolog.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

// MessageSent implements Observer.
func (observer *LogObserver) MessageSent(message *Message) {
	observer.logger.Info().Str("payload", message.String()).Msg("message sent")
}

// MessageReceived implements Observer.
func (observer *LogObserver) MessageReceived(message *Message) {
	event := observer.logger.Info().Str("payload", message.String())
	if message.IsRaw() {
		event = event.Bool("raw", true)
	}
	event.Msg("message received")
}

// SendFailure implements Observer.
func (observer *LogObserver) SendFailure(message *Message, err error) {
	observer.logger.Error().Err(err).Str("payload", message.String()).Msg("send failed")
}

// ConnectionClosed implements Observer.
func (observer *LogObserver) ConnectionClosed(reason CloseReason, err error) {
	event := observer.logger.Info().Str("initiated_by", reason.String())
	if err != nil {
		event = event.Err(err)
	}
	event.Msg("connection closed")
}

// Warning implements Observer.
func (observer *LogObserver) Warning(detail string, message *Message) {
	event := observer.logger.Warn()
	if message != nil {
		event = event.Str("payload", message.String())
	}
	event.Msg(detail)
}
