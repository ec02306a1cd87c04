/*
reclassify.go - Trailing-run block detection

PURPOSE:
  A long unbroken stretch of unavailable days at the tail of the observed
  window is far more likely a host-imposed block than a guest booking:
  legitimate bookings rarely span a contiguous month right up to the edge
  of the calendar. This pass runs once per listing per fetch cycle, after
  every day has absorbed the cycle's observations, and reclassifies such
  runs as blocks.

SCOPE:
  The scan answers for the listing's FULL ordered day set, never a single
  month: later days influence the verdict on earlier ones, which is why
  the pipeline must not aggregate months before this pass has run.
*/
package calendar

// BlockRunThreshold is the trailing-run length at and beyond which
// unbroken unavailability is classified as a host block.
const BlockRunThreshold = 30

// ReclassifyTrailing scans days (ordered by date, earliest first) from the
// latest date backwards, collecting the contiguous trailing run of
// currently-unavailable days. The run is classified as a block-run when it
// contains an already-blocked day, or when it reaches BlockRunThreshold
// days. A classified run has every member marked blocked; an unclassified
// run is left untouched.
//
// Returns the days whose blocked flag was newly set. Never reorders,
// shortens or extends days.
func ReclassifyTrailing(days []*Day) []*Day {
	run := make([]*Day, 0, BlockRunThreshold)
	isBlockRun := false

	for i := len(days) - 1; i >= 0; i-- {
		d := days[i]
		if d.Available {
			break
		}
		run = append(run, d)
		if d.Blocked {
			isBlockRun = true
		}
	}
	if len(run) >= BlockRunThreshold {
		isBlockRun = true
	}
	if !isBlockRun {
		return nil
	}

	// Marking blocked overrides any booking/cancellation estimates for
	// aggregation purposes: a blocked day is never counted as booked.
	var changed []*Day
	for _, d := range run {
		if d.Blocked {
			continue
		}
		d.Blocked = true
		changed = append(changed, d)
	}
	return changed
}
