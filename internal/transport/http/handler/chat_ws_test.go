package handler

import "testing"

func TestDecodeInbound(t *testing.T) {
	tests := map[string]string{
		`{"message":"When is the final?"}`: "When is the final?",
		`{"message":""}`:                   "",
		`{"text":"wrong field"}`:           "",
		`not json`:                         "",
		`{"message":42}`:                   "",
	}
	for in, want := range tests {
		if got := DecodeInbound([]byte(in)); got != want {
			t.Errorf("DecodeInbound(%q) = %q, want %q", in, got, want)
		}
	}
}
