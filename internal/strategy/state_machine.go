package strategy

import "reversion/internal/models"

// state_machine.go - re-keyed to the Strategy Core's six states. Grounded
// on the teacher's ValidTransitions/CanTransition shape, with the
// transition table replaced per spec.md §4.5.

// ValidTransitions enumerates the legal state transitions.
var ValidTransitions = map[models.BotState][]models.BotState{
	models.StateBooting:         {models.StateRunning, models.StateError},
	models.StateRunning:         {models.StatePausedManual, models.StatePausedRiskLimit, models.StateError, models.StateShutdown},
	models.StatePausedManual:    {models.StateRunning, models.StatePausedRiskLimit, models.StateError, models.StateShutdown},
	models.StatePausedRiskLimit: {models.StateRunning, models.StateError, models.StateShutdown},
	models.StateError:           {models.StateShutdown},
	models.StateShutdown:        {},
}

// CanTransition reports whether moving from "from" to "to" is legal.
func CanTransition(from, to models.BotState) bool {
	allowed, ok := ValidTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// HasOpenPosition reports whether state can coexist with an open position;
// every state except BOOTING and SHUTDOWN can, since a position opened
// while RUNNING must still be monitored through a pause or an error.
func HasOpenPosition(s models.BotState) bool {
	return s != models.StateBooting && s != models.StateShutdown
}

// AcceptsEntries reports whether the entry gate may admit a new trade in
// this state. Only RUNNING does; every pause and terminal state blocks new
// entries while still allowing exits to proceed.
func AcceptsEntries(s models.BotState) bool {
	return s == models.StateRunning
}
