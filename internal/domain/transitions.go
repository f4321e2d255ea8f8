package domain

var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:       {TicketStatusInProgress, TicketStatusEscalated, TicketStatusClosed},
	TicketStatusInProgress: {TicketStatusEscalated, TicketStatusClosed},
	TicketStatusEscalated:  {TicketStatusInProgress, TicketStatusClosed},
	TicketStatusClosed:     {},
}

// CanTransition reports whether the status graph allows current -> next.
// Staying in the same status is not a transition and is always allowed except for unknown states.
func CanTransition(current, next TicketStatus) bool {
	if !current.IsValid() || !next.IsValid() {
		return false
	}
	if current == next {
		return true
	}
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}
