package main

import (
	"testing"

	"github.com/berlproject/berl-client-go/berl"
)

type warningRecorder struct {
	berl.NopObserver
	details  []string
	payloads []*berl.Message
}

func (recorder *warningRecorder) Warning(detail string, message *berl.Message) {
	recorder.details = append(recorder.details, detail)
	recorder.payloads = append(recorder.payloads, message)
}

func TestWarnSchemaDeviationsFlagsPongWithoutTimestamp(t *testing.T) {
	bare := berl.NewMessage(map[string]interface{}{"type": "pong"})
	responses := []*berl.Message{
		berl.NewMessage(map[string]interface{}{"type": "pong", "timestamp": "2026-08-31T10:00:00Z"}),
		bare,
		berl.NewMessage(map[string]interface{}{"type": "echo_response", "response": "Echo: hi"}),
	}

	recorder := &warningRecorder{}
	warnSchemaDeviations(responses, recorder)

	if len(recorder.details) != 1 {
		t.Fatalf("expected exactly one warning, got %d: %v", len(recorder.details), recorder.details)
	}
	if recorder.details[0] != "pong without timestamp" {
		t.Fatalf("unexpected warning detail: %q", recorder.details[0])
	}
	if !recorder.payloads[0].Equal(bare) {
		t.Fatalf("warning carried wrong payload: %v", recorder.payloads[0].Fields())
	}
}
