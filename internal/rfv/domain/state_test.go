package domain

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPendente, StatusEnviado, true},
		{StatusPendente, StatusSkipped, true},
		{StatusPendente, StatusRespondeu, false},
		{StatusPendente, StatusConverteu, false},
		{StatusEnviado, StatusRespondeu, true},
		{StatusEnviado, StatusSemResposta, true},
		{StatusEnviado, StatusSkipped, false},
		{StatusEnviado, StatusPendente, true},
		{StatusRespondeu, StatusPendente, true},
		{StatusSemResposta, StatusPendente, true},
		{StatusRespondeu, StatusSemResposta, false},
		// Terminal states go nowhere, not even back to pendente.
		{StatusConverteu, StatusPendente, false},
		{StatusConverteu, StatusEnviado, false},
		{StatusSkipped, StatusPendente, false},
		{StatusSkipped, StatusEnviado, false},
		// converteu is the attributor's transition, never an operator's.
		{StatusRespondeu, StatusConverteu, false},
		{StatusSemResposta, StatusConverteu, false},
		// Unknown statuses are rejected outright.
		{Status("arquivado"), StatusPendente, false},
		{StatusPendente, Status("arquivado"), false},
	}

	for _, tc := range tests {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestIsReopen(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusEnviado, StatusPendente, true},
		{StatusRespondeu, StatusPendente, true},
		{StatusSemResposta, StatusPendente, true},
		{StatusPendente, StatusPendente, false},
		{StatusConverteu, StatusPendente, false},
		{StatusSkipped, StatusPendente, false},
		{StatusEnviado, StatusRespondeu, false},
	}

	for _, tc := range tests {
		if got := IsReopen(tc.from, tc.to); got != tc.want {
			t.Errorf("IsReopen(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := []Status{StatusConverteu, StatusSkipped}
	open := []Status{StatusPendente, StatusEnviado, StatusRespondeu, StatusSemResposta}

	for _, s := range terminal {
		if !IsTerminal(s) {
			t.Errorf("IsTerminal(%q) = false, want true", s)
		}
	}
	for _, s := range open {
		if IsTerminal(s) {
			t.Errorf("IsTerminal(%q) = true, want false", s)
		}
	}
}

func TestAttributableStatusesExcludeTerminalAndPending(t *testing.T) {
	for _, s := range AttributableStatuses() {
		if IsTerminal(s) {
			t.Errorf("attributable status %q must not be terminal", s)
		}
		if s == StatusPendente {
			t.Error("a task that was never sent must not be attributable")
		}
	}
}
