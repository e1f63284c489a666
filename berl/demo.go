package berl

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DemoMessages returns the canonical exchange used by the demo and test
// harness: one message per server-side behavior worth exercising. Each call
// mints a fresh request_id.
func DemoMessages() []*Message {
	return []*Message{
		NewMessage(map[string]interface{}{"type": "greeting", "message": "Hello from berl client!"}),
		NewMessage(map[string]interface{}{"command": "echo", "data": "Test echo message"}),
		NewMessage(map[string]interface{}{"type": "ping", "timestamp": time.Now().UTC().Format(time.RFC3339)}),
		NewMessage(map[string]interface{}{"command": "status", "request_id": uuid.NewString()}),
		NewMessage(map[string]interface{}{"type": "json_test", "data": map[string]interface{}{"nested": true, "value": 42.0}}),
	}
}

// ParseInput turns one line of user input into a message: JSON objects are
// taken as-is, anything else becomes a plain text message.
func ParseInput(line string) *Message {
	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(line), &fields); err == nil && fields != nil {
		return NewMessage(fields)
	}
	return NewMessage(map[string]interface{}{"type": "text", "message": line})
}
