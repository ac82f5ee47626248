package localdata

import (
	"errors"
	"fmt"

	"github.com/zmlAEQ/godtoss-node/internal/ssc"
)

// ErrCurrentSlotUnknown means the slot clock has no answer yet (node not
// synced). Callers may retry once slotting is available.
var ErrCurrentSlotUnknown = errors.New("current slot unknown")

// WrongPhaseError rejects a contribution kind outside its phase window.
// Certificates are never phase-rejected.
type WrongPhaseError struct {
	Tag  ssc.Tag
	Slot ssc.SlotID
}

func (e *WrongPhaseError) Error() string {
	return fmt.Sprintf("%s not acceptable at slot %d of epoch %d", e.Tag, e.Slot.Slot, e.Slot.Epoch)
}

// UnknownRichmenError means the stake table for the local epoch is not yet
// computed.
type UnknownRichmenError struct {
	Epoch ssc.EpochIndex
}

func (e *UnknownRichmenError) Error() string {
	return fmt.Sprintf("richmen unknown for epoch %d", e.Epoch)
}

// DifferentEpochsError means an epoch rollover raced the call between the
// epoch snapshot and the transaction.
type DifferentEpochsError struct {
	Stored ssc.EpochIndex
	Given  ssc.EpochIndex
}

func (e *DifferentEpochsError) Error() string {
	return fmt.Sprintf("local epoch %d differs from given epoch %d", e.Stored, e.Given)
}

// PayloadRejectedError wraps a toss evaluator rejection; Unwrap exposes the
// closed reason set for errors.Is.
type PayloadRejectedError struct {
	Reason error
}

func (e *PayloadRejectedError) Error() string {
	return fmt.Sprintf("payload rejected: %v", e.Reason)
}

func (e *PayloadRejectedError) Unwrap() error { return e.Reason }
