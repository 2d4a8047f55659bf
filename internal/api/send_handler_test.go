package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/craftfair/dispatch/internal/engine"
)

// mockSender records calls and returns canned results.
type mockSender struct {
	enqueueResult engine.EnqueueResult
	sendNowID     string
	sendNowSent   bool

	enqueueTemplate string
	sendNowPayload  engine.SendNowPayload
}

func (m *mockSender) Enqueue(_ context.Context, tmpl, _ string, _ map[string]any, _ engine.EnqueueOptions) engine.EnqueueResult {
	m.enqueueTemplate = tmpl
	return m.enqueueResult
}

func (m *mockSender) SendNow(_ context.Context, payload engine.SendNowPayload) (string, bool) {
	m.sendNowPayload = payload
	return m.sendNowID, m.sendNowSent
}

func TestEnqueueMessageHandler(t *testing.T) {
	sender := &mockSender{enqueueResult: engine.EnqueueResult{MessageID: "m1"}}
	handler := EnqueueMessageHandler(sender)

	body := strings.NewReader(`{"template":"order_receipt","recipient":"buyer@example.com","context":{"order_number":"A-1"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages", body)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	var resp enqueueResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.MessageID != "m1" || resp.Skipped {
		t.Errorf("response = %+v, want m1 not skipped", resp)
	}
	if sender.enqueueTemplate != "order_receipt" {
		t.Errorf("enqueued template = %s, want order_receipt", sender.enqueueTemplate)
	}
}

func TestEnqueueMessageHandler_DuplicateReturns200(t *testing.T) {
	sender := &mockSender{enqueueResult: engine.EnqueueResult{MessageID: "m1", Skipped: true}}
	handler := EnqueueMessageHandler(sender)

	body := strings.NewReader(`{"template":"order_receipt","recipient":"buyer@example.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages", body)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for duplicate", rec.Code)
	}
	var resp enqueueResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if !resp.Skipped {
		t.Error("response not marked skipped")
	}
}

func TestEnqueueMessageHandler_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "{nope"},
		{"missing template", `{"recipient":"x@y.com"}`},
		{"missing recipient", `{"template":"order_receipt"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := EnqueueMessageHandler(&mockSender{})
			req := httptest.NewRequest(http.MethodPost, "/api/v1/messages", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestEnqueueMessageHandler_EngineFailure(t *testing.T) {
	handler := EnqueueMessageHandler(&mockSender{})

	body := strings.NewReader(`{"template":"order_receipt","recipient":"buyer@example.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages", body)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 for zero result", rec.Code)
	}
}

func TestSendNowHandler(t *testing.T) {
	sender := &mockSender{sendNowID: "m1", sendNowSent: true}
	handler := SendNowHandler(sender)

	body := strings.NewReader(`{"template":"order_receipt","recipient":"buyer@example.com","context":{"order_number":"A-1"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages/send-now", body)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp sendNowResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.MessageID != "m1" || !resp.Sent {
		t.Errorf("response = %+v, want m1 sent", resp)
	}
	if sender.sendNowPayload.Template != "order_receipt" {
		t.Errorf("payload template = %s, want order_receipt", sender.sendNowPayload.Template)
	}
}

func TestSendNowHandler_ByMessageID(t *testing.T) {
	sender := &mockSender{sendNowID: "m1", sendNowSent: true}
	handler := SendNowHandler(sender)

	body := strings.NewReader(`{"message_id":"m1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages/send-now", body)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if sender.sendNowPayload.MessageID != "m1" {
		t.Errorf("payload message_id = %s, want m1", sender.sendNowPayload.MessageID)
	}
}

func TestSendNowHandler_Validation(t *testing.T) {
	handler := SendNowHandler(&mockSender{})

	// Neither message_id nor template+recipient.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages/send-now", strings.NewReader(`{"template":"order_receipt"}`))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
