package main

import (
	"encoding/json"
	"testing"
)

func decodeReply(t *testing.T, reply string) map[string]interface{} {
	t.Helper()
	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(reply), &fields); err != nil {
		t.Fatalf("reply is not JSON: %q", reply)
	}
	return fields
}

func TestRespondPing(t *testing.T) {
	reply, hasReply := respond(`{"type":"ping","timestamp":"2025-01-01T00:00:00Z"}`)
	if !hasReply {
		t.Fatalf("ping must be answered")
	}
	fields := decodeReply(t, reply)
	if fields["type"] != "pong" || fields["timestamp"] != "2025-01-01T00:00:00Z" {
		t.Fatalf("wrong pong: %v", fields)
	}

	reply, _ = respond(`{"type":"ping"}`)
	fields = decodeReply(t, reply)
	if _, present := fields["timestamp"]; present {
		t.Fatalf("pong must omit timestamp when ping had none: %v", fields)
	}
}

func TestRespondEcho(t *testing.T) {
	reply, hasReply := respond(`{"command":"echo","data":"Test echo message"}`)
	if !hasReply {
		t.Fatalf("echo must be answered")
	}
	fields := decodeReply(t, reply)
	if fields["type"] != "echo_response" ||
		fields["original"] != "Test echo message" ||
		fields["response"] != "Echo: Test echo message" {
		t.Fatalf("wrong echo response: %v", fields)
	}
}

func TestRespondStatus(t *testing.T) {
	reply, _ := respond(`{"command":"status","request_id":"test_001"}`)
	fields := decodeReply(t, reply)
	if fields["type"] != "status_response" || fields["request_id"] != "test_001" || fields["status"] != "ok" {
		t.Fatalf("wrong status response: %v", fields)
	}
}

func TestRespondJSONTest(t *testing.T) {
	reply, _ := respond(`{"type":"json_test","data":{"nested":true,"value":42}}`)
	fields := decodeReply(t, reply)
	if fields["type"] != "json_test_response" {
		t.Fatalf("wrong json_test response: %v", fields)
	}
	received, isMap := fields["received"].(map[string]interface{})
	if !isMap || received["nested"] != true || received["value"] != 42.0 {
		t.Fatalf("payload not echoed back: %v", fields["received"])
	}
}

func TestRespondInvalidJSON(t *testing.T) {
	reply, hasReply := respond("not json")
	if !hasReply {
		t.Fatalf("invalid input must produce a structured error")
	}
	fields := decodeReply(t, reply)
	if fields["type"] != "error" || fields["error"] != "invalid_json" || fields["received"] != "not json" {
		t.Fatalf("wrong error reply: %v", fields)
	}
}

func TestRespondSilentKinds(t *testing.T) {
	for _, payload := range []string{
		`{"type":"pong","timestamp":"T"}`,
		`{"type":"echo_response","original":"x"}`,
	} {
		if _, hasReply := respond(payload); hasReply {
			t.Fatalf("reply kind %q must not be answered", payload)
		}
	}
}

func TestRespondUnknown(t *testing.T) {
	reply, _ := respond(`{"type":"mystery","value":1}`)
	fields := decodeReply(t, reply)
	if fields["type"] != "unknown_command" {
		t.Fatalf("unknown messages should be flagged: %v", fields)
	}
}
