package berl

import (
	"reflect"
)

// Message is one unit of exchange with the server: either a structured JSON
// object (string keys, heterogeneous values) or, when inbound text fails to
// parse, a raw-text payload. A Message is immutable once constructed.
type Message struct {
	fields map[string]interface{}
	raw    string
	isRaw  bool
}

// NewMessage builds a structured message from the given fields. The map is
// copied so later mutation by the caller does not leak into the message.
func NewMessage(fields map[string]interface{}) *Message {
	copied := make(map[string]interface{}, len(fields))
	for key, value := range fields {
		copied[key] = value
	}
	return &Message{fields: copied}
}

// NewRawMessage wraps unstructured text as a raw-text message.
func NewRawMessage(text string) *Message {
	return &Message{raw: text, isRaw: true}
}

// IsRaw reports whether the message carries unparsed text instead of fields.
func (msg *Message) IsRaw() bool {
	return msg != nil && msg.isRaw
}

// Raw returns the unparsed text of a raw message, or "" for structured ones.
func (msg *Message) Raw() string {
	if msg == nil {
		return ""
	}
	return msg.raw
}

// Field returns the value stored under key.
func (msg *Message) Field(key string) (interface{}, bool) {
	if msg == nil || msg.isRaw {
		return nil, false
	}
	value, present := msg.fields[key]
	return value, present
}

func (msg *Message) stringField(key string) (string, bool) {
	value, present := msg.Field(key)
	if !present {
		return "", false
	}
	text, isString := value.(string)
	return text, isString
}

// Type returns the "type" discriminator when present as a string.
func (msg *Message) Type() (string, bool) {
	return msg.stringField("type")
}

// Command returns the "command" discriminator when present as a string.
func (msg *Message) Command() (string, bool) {
	return msg.stringField("command")
}

// Timestamp returns the application-level "timestamp" field. The protocol
// does not guarantee its presence or shape.
func (msg *Message) Timestamp() (interface{}, bool) {
	return msg.Field("timestamp")
}

// Data returns the "data" field carried by echo requests and test payloads.
func (msg *Message) Data() (interface{}, bool) {
	return msg.Field("data")
}

// RequestID returns the application-level "request_id" correlation key.
func (msg *Message) RequestID() (string, bool) {
	return msg.stringField("request_id")
}

// Fields returns a copy of the structured fields; nil for raw messages.
func (msg *Message) Fields() map[string]interface{} {
	if msg == nil || msg.isRaw {
		return nil
	}
	copied := make(map[string]interface{}, len(msg.fields))
	for key, value := range msg.fields {
		copied[key] = value
	}
	return copied
}

// Copy returns an independent copy of the message.
func (msg *Message) Copy() *Message {
	if msg == nil {
		return nil
	}
	if msg.isRaw {
		return NewRawMessage(msg.raw)
	}
	return NewMessage(msg.fields)
}

// Equal reports structural equality. Raw messages compare by text, structured
// ones by deep field equality.
func (msg *Message) Equal(other *Message) bool {
	if msg == nil || other == nil {
		return msg == other
	}
	if msg.isRaw != other.isRaw {
		return false
	}
	if msg.isRaw {
		return msg.raw == other.raw
	}
	return reflect.DeepEqual(msg.fields, other.fields)
}

// String returns the wire form of the message.
func (msg *Message) String() string {
	text, err := encodeMessage(msg)
	if err != nil {
		return "<unencodable message>"
	}
	return text
}
