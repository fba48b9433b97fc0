package appointment

import "errors"

var (
	// ErrNotFound means no appointment exists with the given id.
	ErrNotFound = errors.New("appointment not found")

	// ErrServiceNotFound means the referenced catalog service does not exist.
	ErrServiceNotFound = errors.New("service not found")

	// ErrDoctorRequired means a non-consult booking arrived without a doctor.
	ErrDoctorRequired = errors.New("doctor is required for this service")

	// ErrPastSlot means the requested time is not strictly in the future.
	ErrPastSlot = errors.New("appointment time must be in the future")

	// ErrNoAvailability means the doctor has no non-off schedule entry
	// covering the requested slot's shift window.
	ErrNoAvailability = errors.New("doctor is not available at the requested time")

	// ErrSlotConflict means another active appointment already holds the
	// doctor+time slot.
	ErrSlotConflict = errors.New("slot is already booked")

	// ErrInvalidTransition means the requested status change is not an
	// edge of the lifecycle state machine.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrStaleStatus means the appointment's status changed between the
	// caller's read and the transition request.
	ErrStaleStatus = errors.New("appointment status changed concurrently")
)
