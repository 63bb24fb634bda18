package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
)

func TestSecurityAlertTaskRoundTrip(t *testing.T) {
	payload := SecurityAlertPayload{
		Event:          "impersonation.started",
		SessionID:      "sess-1",
		ImpersonatorID: 2,
		ImpersonatedID: 4,
		Reason:         "support ticket 812",
	}
	task, err := NewSecurityAlertTask(payload)
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if task.Type() != TaskSecurityAlert {
		t.Errorf("type = %q, want %q", task.Type(), TaskSecurityAlert)
	}

	var decoded SecurityAlertPayload
	if err := json.Unmarshal(task.Payload(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != payload {
		t.Errorf("decoded = %+v, want %+v", decoded, payload)
	}
}

func TestAlertHandler(t *testing.T) {
	handler := &AlertHandler{}

	task, err := NewSecurityAlertTask(SecurityAlertPayload{Event: "impersonation.started"})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if err := handler.Handle(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}

	// A malformed payload is dropped instead of retried forever.
	bad := asynq.NewTask(TaskSecurityAlert, []byte("not json"))
	if err := handler.Handle(context.Background(), bad); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("got %v, want SkipRetry", err)
	}
}
