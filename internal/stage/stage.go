package stage

import "time"

// Stage is the temporal classification of a project at a given instant.
// Exactly one stage applies at any time.
type Stage int

const (
	// Pending - funding window has not opened yet
	Pending Stage = iota
	// Funding - funding window is open for deposits
	Funding
	// NextInterval - vesting is running, waiting for the next claim interval
	NextInterval
	// EndVesting - inside the final vesting interval, waiting for vesting end
	EndVesting
	// ForceStopped - halted by contributor vote, vesting window elapsed
	ForceStopped
	// Complete - vesting window elapsed without a force stop
	Complete
)

// String returns the stage name as used in API responses
func (s Stage) String() string {
	switch s {
	case Pending:
		return "pending"
	case Funding:
		return "funding"
	case NextInterval:
		return "next_interval"
	case EndVesting:
		return "end_vesting"
	case ForceStopped:
		return "force_stopped"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Milestones are the ordered timestamps that drive stage evaluation, all in
// milliseconds since epoch (VestingInterval is a duration in milliseconds).
//
// Callers must guarantee StartedAt < EndedAt <= VestingStartTime <
// VestingEndTime and 0 < VestingInterval <= VestingEndTime-VestingStartTime;
// evaluation over a violated ordering is unspecified.
type Milestones struct {
	StartedAt        int64
	EndedAt          int64
	VestingStartTime int64
	VestingEndTime   int64
	VestingInterval  int64
	ForceStopped     bool
}

// Evaluation is the result of classifying a project at an instant.
// Remaining is only meaningful when HasRemaining is true; terminal stages
// (ForceStopped, Complete) have no countdown.
type Evaluation struct {
	Stage        Stage
	Remaining    time.Duration
	HasRemaining bool
}

// Evaluate classifies a project against the given instant.
//
// The branches form an ordered decision list; the first match wins. Note that
// ForceStopped is only reachable once the vesting window has fully elapsed: a
// force-stop vote during funding or vesting does not change the displayed
// stage until vesting time passes. That matches the contract front end's
// observed behavior and is kept intentionally.
//
// Evaluate is pure and never self-schedules; callers re-invoke it on a timer
// to stay current.
func Evaluate(now time.Time, m Milestones) Evaluation {
	nowMs := now.UnixMilli()

	switch {
	case nowMs < m.StartedAt:
		return remaining(Pending, m.StartedAt-nowMs)

	case nowMs < m.EndedAt:
		return remaining(Funding, m.EndedAt-nowMs)

	case nowMs < m.VestingEndTime:
		lastIntervalStart := m.VestingEndTime - m.VestingInterval
		if nowMs < lastIntervalStart {
			if next, ok := nextIntervalAfter(nowMs, m); ok {
				return remaining(NextInterval, next-nowMs)
			}
		}
		return remaining(EndVesting, m.VestingEndTime-nowMs)

	case m.ForceStopped:
		return Evaluation{Stage: ForceStopped}

	default:
		return Evaluation{Stage: Complete}
	}
}

// nextIntervalAfter finds the smallest VestingStartTime + k*VestingInterval
// (k >= 1) that is strictly after nowMs and strictly before VestingEndTime.
func nextIntervalAfter(nowMs int64, m Milestones) (int64, bool) {
	k := int64(1)
	if elapsed := nowMs - m.VestingStartTime; elapsed >= 0 {
		k = elapsed/m.VestingInterval + 1
	}

	next := m.VestingStartTime + k*m.VestingInterval
	if next > nowMs && next < m.VestingEndTime {
		return next, true
	}
	return 0, false
}

func remaining(s Stage, ms int64) Evaluation {
	return Evaluation{
		Stage:        s,
		Remaining:    time.Duration(ms) * time.Millisecond,
		HasRemaining: true,
	}
}
