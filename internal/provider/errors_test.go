package provider

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		name          string
		statusCode    int
		body          string
		wantNil       bool
		wantPermanent bool
	}{
		{
			name:       "2xx is not an error",
			statusCode: 202,
			wantNil:    true,
		},
		{
			name:          "400 generic is transient",
			statusCode:    400,
			body:          "bad request",
			wantPermanent: false,
		},
		{
			name:          "400 invalid recipient is permanent",
			statusCode:    400,
			body:          `{"errors":[{"message":"Invalid recipient address"}]}`,
			wantPermanent: true,
		},
		{
			name:          "401 is permanent",
			statusCode:    401,
			body:          "unauthorized",
			wantPermanent: true,
		},
		{
			name:          "404 is permanent",
			statusCode:    404,
			body:          "not found",
			wantPermanent: true,
		},
		{
			name:          "429 is transient",
			statusCode:    429,
			body:          "too many requests",
			wantPermanent: false,
		},
		{
			name:          "500 generic is transient",
			statusCode:    500,
			body:          "internal server error",
			wantPermanent: false,
		},
		{
			name:          "500 invalid api key is permanent",
			statusCode:    500,
			body:          "Invalid API key provided",
			wantPermanent: true,
		},
		{
			name:          "503 is transient",
			statusCode:    503,
			body:          "service unavailable",
			wantPermanent: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyHTTPError("sendgrid", tt.statusCode, tt.body)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("ClassifyHTTPError() = %v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("ClassifyHTTPError() = nil, want error")
			}
			if got.Permanent != tt.wantPermanent {
				t.Errorf("Permanent = %v, want %v", got.Permanent, tt.wantPermanent)
			}
			if got.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %d, want %d", got.StatusCode, tt.statusCode)
			}
		})
	}
}

func TestIsPermanent(t *testing.T) {
	permanent := &DeliveryError{Provider: "sendgrid", Permanent: true}
	if !IsPermanent(permanent) {
		t.Error("IsPermanent(permanent) = false, want true")
	}
	if IsPermanent(&DeliveryError{Provider: "sendgrid"}) {
		t.Error("IsPermanent(transient) = true, want false")
	}
	if IsPermanent(errors.New("plain error")) {
		t.Error("IsPermanent(plain error) = true, want false")
	}
	wrapped := fmt.Errorf("send failed: %w", permanent)
	if !IsPermanent(wrapped) {
		t.Error("IsPermanent(wrapped) = false, want true")
	}
}
