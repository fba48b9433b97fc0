package treatment

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrProtocolNotFound means the referenced protocol does not exist.
	ErrProtocolNotFound = errors.New("treatment protocol not found")

	// ErrTreatmentNotFound means no treatment exists with the given id.
	ErrTreatmentNotFound = errors.New("treatment not found")

	// ErrEmptyProtocol means the protocol carries no medicines, so no
	// follow-up plan can be derived from it.
	ErrEmptyProtocol = errors.New("protocol has no medicines")
)

// FailedCheckpoint names one checkpoint the generator could not book
// after exhausting its retry.
type FailedCheckpoint struct {
	Date   time.Time
	Reason string
}

// PartialFollowupError reports checkpoints that stayed unscheduled. It
// is a success-with-warnings outcome: the checkpoints that did book are
// committed and kept.
type PartialFollowupError struct {
	Failed []FailedCheckpoint
}

func (e *PartialFollowupError) Error() string {
	return fmt.Sprintf("%d follow-up checkpoint(s) could not be scheduled", len(e.Failed))
}
