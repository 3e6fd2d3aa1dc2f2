package types

import "time"

// Outcome is the result of asking the scheduler to arm a one-shot reminder.
type Outcome int

const (
	// OutcomeScheduled means the reminder will fire once at its instant.
	OutcomeScheduled Outcome = iota
	// OutcomeTooLate means the instant was not in the future; nothing was armed.
	OutcomeTooLate
)

func (o Outcome) String() string {
	switch o {
	case OutcomeScheduled:
		return "scheduled"
	case OutcomeTooLate:
		return "too_late"
	default:
		return "unknown"
	}
}

// ReminderRequest is a parsed /reminder command.
type ReminderRequest struct {
	Sender string
	FireAt time.Time
	Text   string
}
