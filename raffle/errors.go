package raffle

import "errors"

var (
	ErrEmptyPool         = errors.New("nothing left to draw")
	ErrIndexOutOfBounds  = errors.New("index out of bounds")
	ErrInconsistentState = errors.New("raffle is in an inconsistent state")
)
