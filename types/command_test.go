package types

import "testing"

func TestCommandString(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{CommandNone, "none"},
		{CommandAIChat, "ai-chat"},
		{CommandLedgerBalance, "ledger-balance"},
		{Command(99), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.cmd.String(); got != tt.want {
				t.Errorf("String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOutcomeString(t *testing.T) {
	if OutcomeTooLate.String() != "too_late" {
		t.Errorf("unexpected outcome label %q", OutcomeTooLate.String())
	}
}
