package roster

import "errors"

var (
	// ErrInsufficientDoctors aborts generation when a shift cannot be
	// filled from the eligible pool.
	ErrInsufficientDoctors = errors.New("not enough eligible doctors for shift")

	// ErrAssignmentConflict rejects a manual assignment that collides with
	// an existing non-off entry and override was not requested.
	ErrAssignmentConflict = errors.New("doctor already assigned for that date and shift")

	// ErrSwapNotFound means one of the two referenced entries does not exist.
	ErrSwapNotFound = errors.New("schedule entry not found")

	// ErrAlreadySwapped rejects a swap touching an entry that is already
	// linked to a previous swap.
	ErrAlreadySwapped = errors.New("schedule entry already part of a swap")

	// ErrSwapSameDoctor rejects a swap whose two entries belong to the
	// same doctor.
	ErrSwapSameDoctor = errors.New("swap requires two different doctors")
)
