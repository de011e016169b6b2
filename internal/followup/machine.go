package followup

import (
	"fmt"

	"github.com/jonathan/jobtrail/internal/types"
)

// transitions lists the legal target statuses per current status.
// Nothing leaves sent; dismissed only accepts a repeated dismiss.
var transitions = map[types.FollowUpStatus][]types.FollowUpStatus{
	types.FollowUpPending:   {types.FollowUpSent, types.FollowUpDismissed, types.FollowUpSnoozed},
	types.FollowUpSnoozed:   {types.FollowUpSent, types.FollowUpDismissed, types.FollowUpSnoozed, types.FollowUpPending},
	types.FollowUpDismissed: {types.FollowUpDismissed},
	types.FollowUpSent:      {},
}

// CanTransition reports whether a follow-up may move from one status to another.
func CanTransition(from, to types.FollowUpStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func checkTransition(fu *types.FollowUp, to types.FollowUpStatus) error {
	if CanTransition(fu.Status, to) {
		return nil
	}
	return &types.ValidationError{
		Field:   "status",
		Message: fmt.Sprintf("cannot move follow-up from %s to %s", fu.Status, to),
	}
}
