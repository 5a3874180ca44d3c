package model

import (
	"encoding/json"
	"testing"
)

func TestErrorBody_Message(t *testing.T) {
	tests := []struct {
		body ErrorBody
		want string
	}{
		{ErrorBody{}, ""},
		{ErrorBody{Error: "invalid credentials"}, "invalid credentials"},
		{ErrorBody{Error: "db error", Detail: "flush failed"}, "db error: flush failed"},
		{ErrorBody{Detail: "boom"}, "boom"},
	}
	for _, tt := range tests {
		if got := tt.body.Message(); got != tt.want {
			t.Errorf("Message(%+v) = %q, want %q", tt.body, got, tt.want)
		}
	}
}

func TestErrorBody_DecodeNetworkDiagnostic(t *testing.T) {
	var b ErrorBody
	if err := json.Unmarshal([]byte(`{"error":"network error","detail":"connection refused"}`), &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if b.Error != "network error" || b.Detail != "connection refused" {
		t.Errorf("got %+v", b)
	}
}
