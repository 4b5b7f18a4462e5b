package domain

import (
	"strings"
	"testing"
)

func TestPostPurchaseReasonRender(t *testing.T) {
	r := PostPurchaseReason{Days: 3}
	text := r.Render()
	if !strings.Contains(text, "D+3") {
		t.Errorf("post-purchase reason must reference the D+3 follow-up, got %q", text)
	}
}

func TestApproachingCycleReasonRender(t *testing.T) {
	r := ApproachingCycleReason{Deviation: 84.2}
	text := r.Render()
	if !strings.Contains(text, "84%") {
		t.Errorf("expected deviation percent in reason, got %q", text)
	}
}

func TestCycleExceededReasonEscalationThreshold(t *testing.T) {
	tests := []struct {
		name          string
		reason        CycleExceededReason
		wantSubstring string
		wantAbsent    string
	}{
		{
			name:          "escalated deviation states the threshold verbatim",
			reason:        CycleExceededReason{Deviation: 142.7, EscalationPct: 130},
			wantSubstring: "130%",
		},
		{
			name:       "plain exceedance does not mention the threshold",
			reason:     CycleExceededReason{Deviation: 112.0},
			wantAbsent: "130%",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			text := tc.reason.Render()
			if tc.wantSubstring != "" && !strings.Contains(text, tc.wantSubstring) {
				t.Errorf("reason %q missing %q", text, tc.wantSubstring)
			}
			if tc.wantAbsent != "" && strings.Contains(text, tc.wantAbsent) {
				t.Errorf("reason %q should not contain %q", text, tc.wantAbsent)
			}
		})
	}
}

func TestReasonFromRecordRoundTrip(t *testing.T) {
	reasons := []Reason{
		PostPurchaseReason{Days: 3},
		ApproachingCycleReason{Deviation: 75.5},
		CycleExceededReason{Deviation: 140.0, EscalationPct: 130},
	}

	for _, original := range reasons {
		rebuilt := ReasonFromRecord(original.Code(), original.DeviationPercent(), 130, 3)
		if rebuilt.Code() != original.Code() {
			t.Errorf("round trip changed code: %q -> %q", original.Code(), rebuilt.Code())
		}
	}
}
