package main

import (
	"encoding/json"
	"fmt"
	"time"
)

// respond builds the server's reply to one inbound frame. The second return
// is false when the frame warrants no reply at all (e.g. a client pong).
// Behavior mirrors the BERL server: every request-shaped message gets exactly
// one response, unparseable input gets a structured error instead of a drop.
func respond(payload string) (string, bool) {
	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &fields); err != nil || fields == nil {
		return marshal(map[string]interface{}{
			"type":     "error",
			"error":    "invalid_json",
			"received": payload,
		}), true
	}

	if command, isString := fields["command"].(string); isString {
		switch command {
		case "echo":
			data := fields["data"]
			return marshal(map[string]interface{}{
				"type":     "echo_response",
				"original": data,
				"response": fmt.Sprintf("Echo: %v", data),
			}), true
		case "status":
			reply := map[string]interface{}{
				"type":      "status_response",
				"status":    "ok",
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			}
			if requestID, present := fields["request_id"]; present {
				reply["request_id"] = requestID
			}
			return marshal(reply), true
		}
	}

	messageType, _ := fields["type"].(string)
	switch messageType {
	case "ping":
		reply := map[string]interface{}{"type": "pong"}
		if timestamp, present := fields["timestamp"]; present {
			reply["timestamp"] = timestamp
		}
		return marshal(reply), true
	case "pong":
		// Never answer a pong; that would ping-pong forever.
		return "", false
	case "greeting":
		return marshal(map[string]interface{}{
			"type":    "greeting_response",
			"message": "Hello from fakeberl!",
		}), true
	case "json_test":
		return marshal(map[string]interface{}{
			"type":     "json_test_response",
			"received": fields["data"],
		}), true
	case "text":
		return marshal(map[string]interface{}{
			"type":    "text_response",
			"message": fields["message"],
		}), true
	case "echo_response", "status_response", "greeting_response",
		"json_test_response", "text_response", "unknown_command", "error":
		// Replies from other clients in loopback setups; not requests.
		return "", false
	}

	return marshal(map[string]interface{}{
		"type":     "unknown_command",
		"received": fields,
	}), true
}

func marshal(fields map[string]interface{}) string {
	payload, err := json.Marshal(fields)
	if err != nil {
		return `{"type":"error","error":"marshal_failure"}`
	}
	return string(payload)
}
