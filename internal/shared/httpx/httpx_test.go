package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type payload struct {
	UserID string `json:"userId" validate:"required"`
	Stake  int64  `json:"stake" validate:"gt=0"`
	Kind   string `json:"kind" validate:"omitempty,oneof=A B"`
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantOK   bool
		wantCode int
		wantMsgs int
	}{
		{name: "valid", body: `{"userId":"u1","stake":100}`, wantOK: true},
		{name: "bad json", body: `{"userId":`, wantCode: http.StatusBadRequest},
		{name: "unknown field", body: `{"userId":"u1","stake":1,"x":1}`, wantCode: http.StatusBadRequest},
		{name: "two invalid fields", body: `{"stake":0}`, wantCode: http.StatusUnprocessableEntity, wantMsgs: 2},
		{name: "oneof", body: `{"userId":"u","stake":1,"kind":"C"}`, wantCode: http.StatusUnprocessableEntity, wantMsgs: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			ok := Decode(rec, req, &p)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok {
				return
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			var body ErrorBody
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if len(body.Error.Messages) != tt.wantMsgs {
				t.Errorf("messages = %v", body.Error.Messages)
			}
		})
	}
}

func TestValidateMessages(t *testing.T) {
	msgs := Validate(&payload{Stake: -1})
	want := []string{"userId is required", "stake must be gt 0"}
	if len(msgs) != len(want) {
		t.Fatalf("msgs = %v", msgs)
	}
	for i := range want {
		if msgs[i] != want[i] {
			t.Errorf("msg %d = %q, want %q", i, msgs[i], want[i])
		}
	}
}
