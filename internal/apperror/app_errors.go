package apperror

import "errors"

var (
	ErrOutOfBounds       = errors.New("spot is out of bounds")
	ErrNoCard            = errors.New("no card at this spot")
	ErrAlreadyControlled = errors.New("card is controlled by another player")
	ErrSelfControlled    = errors.New("card is already controlled by this player")
	ErrMalformedBoard    = errors.New("malformed board file")
)
