package engine

import (
	"errors"
	"fmt"
)

// ErrInvalidState is returned when a state-machine operation is called in
// the wrong phase. It indicates a programming error in the caller.
var ErrInvalidState = errors.New("engine: operation in invalid state")

// NotNextPlayerError is returned when an action is attributed to a seat
// that is not expected to act.
type NotNextPlayerError struct {
	Player Player
}

func (e *NotNextPlayerError) Error() string {
	return fmt.Sprintf("engine: player %d is not the next player", e.Player)
}
