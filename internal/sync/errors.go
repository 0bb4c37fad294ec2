package sync

import (
	"fmt"

	"github.com/daaslabs/indexsync/internal/asset"
)

// RejectionError records a change event that the index permanently
// rejected. The event's key and sequence identify the offending
// mutation for an operator; the cursor is left at the last committed
// position so the run can resume after intervention.
type RejectionError struct {
	Event asset.ChangeEvent
	Err   error
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("index rejected event %s: %v", e.Event.String(), e.Err)
}

func (e *RejectionError) Unwrap() error {
	return e.Err
}
