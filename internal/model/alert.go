package model

import "time"

//go:generate go run golang.org/x/tools/cmd/stringer -type=State -linecomment

// State is the lifecycle state of an Alert. A triggered alert keeps its own active bit, so pausing it is
// remembered while it still displays as triggered.
type State int

const (
	StateActive          State = iota // active
	StatePaused                       // paused
	StateTriggered                    // triggered
	StateTriggeredPaused              // triggered
)

func StateFromFlags(isActive, isTriggered bool) State {
	switch {
	case isTriggered && !isActive:
		return StateTriggeredPaused
	case isTriggered:
		return StateTriggered
	case !isActive:
		return StatePaused
	default:
		return StateActive
	}
}

type Alert struct {
	ID          string
	ProductID   string
	SourceID    string
	TargetPrice float64
	WebhookURL  string
	State       State
	CreatedAt   time.Time
	TriggeredAt *time.Time
}

// Flags projects State onto the isActive/isTriggered pair used by storage and the API.
func (a Alert) Flags() (isActive bool, isTriggered bool) {
	switch a.State {
	case StatePaused:
		return false, false
	case StateTriggered:
		return true, true
	case StateTriggeredPaused:
		return false, true
	default:
		return true, false
	}
}

func (s State) IsTriggered() bool {
	return s == StateTriggered || s == StateTriggeredPaused
}

// IsActive reports the active bit, which Pause and Resume toggle in every state.
func (s State) IsActive() bool {
	return s == StateActive || s == StateTriggered
}

func ValidateTarget(target float64) error {
	if !(target > 0) {
		return Invalid("targetPrice", "must be greater than 0, got %v", target)
	}
	return nil
}
