package worker

import (
	"encoding/json"
	"testing"
	"time"

	"courseassist/internal/wellbeing"
)

func TestDecodeAlert(t *testing.T) {
	in := wellbeing.Analysis{
		Timestamp:        time.Date(2024, 10, 3, 14, 0, 0, 0, time.UTC),
		StudentID:        "s-42",
		Message:          "I'm overwhelmed and failing and behind",
		WellbeingScore:   3,
		StressIndicators: 3,
		FlagForReview:    true,
	}
	body, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := DecodeAlert(body)
	if err != nil {
		t.Fatalf("DecodeAlert: %v", err)
	}
	if got.StudentID != "s-42" || got.StressIndicators != 3 || !got.Timestamp.Equal(in.Timestamp) {
		t.Fatalf("unexpected alert %+v", got)
	}
}

func TestDecodeAlertRejects(t *testing.T) {
	for name, body := range map[string]string{
		"not json":   "{",
		"no student": `{"wellbeing_score": 1}`,
	} {
		if _, err := DecodeAlert([]byte(body)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
