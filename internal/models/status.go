package models

// Status is a reservation lifecycle state.
type Status string

const (
	StatusPendingDeposit Status = "pending_deposit"
	StatusConfirmed      Status = "confirmed"
	StatusWeatherHold    Status = "weather_hold"
	StatusRescheduled    Status = "rescheduled"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
	StatusNoShow         Status = "no_show"
	StatusExpired        Status = "expired"
)

// transitions lists every legal move. Anything absent is rejected.
// rescheduled -> weather_hold is legal so a trip can be held again after a
// reschedule; the original-date snapshot is written only on the first hold.
var transitions = map[Status][]Status{
	StatusPendingDeposit: {StatusConfirmed, StatusExpired, StatusWeatherHold, StatusCancelled, StatusNoShow},
	StatusConfirmed:      {StatusWeatherHold, StatusCancelled, StatusCompleted, StatusNoShow},
	StatusWeatherHold:    {StatusRescheduled, StatusConfirmed, StatusNoShow},
	StatusRescheduled:    {StatusWeatherHold, StatusCancelled, StatusCompleted, StatusNoShow},
	StatusCompleted:      {},
	StatusCancelled:      {},
	StatusNoShow:         {},
	StatusExpired:        {},
}

// ValidStatus reports whether s is one of the eight reservation statuses.
func ValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether a reservation in s can never change again.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCancelled, StatusNoShow, StatusCompleted, StatusExpired:
		return true
	}
	return false
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NonTerminalStatuses returns the statuses that count against capacity.
func NonTerminalStatuses() []Status {
	return []Status{StatusPendingDeposit, StatusConfirmed, StatusWeatherHold, StatusRescheduled}
}
