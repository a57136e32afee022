package shared

import "fmt"

var (

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Rotation and queue errors
	ErrDuplicateName      = fmt.Errorf("a singer with that name is already in the rotation")
	ErrNotFound           = fmt.Errorf("not found")
	ErrSingerNotFound     = fmt.Errorf("singer %w", ErrNotFound)
	ErrEntryNotFound      = fmt.Errorf("queue entry %w", ErrNotFound)
	ErrSongNotFound       = fmt.Errorf("song %w", ErrNotFound)
	ErrRegularNotFound    = fmt.Errorf("regular singer %w", ErrNotFound)
	ErrInvariantViolation = fmt.Errorf("position invariant violated")
	ErrNotRegular         = fmt.Errorf("singer is not a regular")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
