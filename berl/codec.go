package berl

import "encoding/json"

// encodeMessage serializes a message to its wire text. Structured messages
// marshal as one JSON object; raw messages pass their text through untouched.
func encodeMessage(message *Message) (string, error) {
	if message == nil {
		return "", NewError(EncodeError, "nil message")
	}
	if message.isRaw {
		return message.raw, nil
	}

	payload, err := json.Marshal(message.fields)
	if err != nil {
		return "", NewError(EncodeError, err)
	}
	return string(payload), nil
}

// decodeMessage parses inbound frame text. A parse failure is an expected
// condition, not an error: the text comes back as a raw message so the
// receive loop never stalls on malformed input.
func decodeMessage(text string) *Message {
	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(text), &fields); err != nil || fields == nil {
		return NewRawMessage(text)
	}
	return &Message{fields: fields}
}
