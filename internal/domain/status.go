package domain

// StatusNotStarted is reported for a record with no checkpoint set.
const StatusNotStarted = "not_started"

// DeriveStatus returns the most advanced checkpoint with a value.
//
// Checkpoints are scanned in reverse schema order. Fill order is not
// validated: a later checkpoint recorded before an earlier one is still
// reported as the current status.
func DeriveStatus(r Record) string {
	for i := len(checkpoints) - 1; i >= 0; i-- {
		if r.Checkpoint(checkpoints[i].Name) != "" {
			return checkpoints[i].Name
		}
	}
	return StatusNotStarted
}

// IsFinalized reports whether the terminal checkpoint has a value.
// Every completion test in the system goes through this predicate.
func IsFinalized(r Record) bool {
	return r.Checkpoint(Terminal().Name) != ""
}
