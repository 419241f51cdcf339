package models

// Project is the canonical cached form of a crowdfunding project record.
//
// Records are created once by the ledger and only appended to afterwards
// (Funded/Claimed/ForceStop grow); the cache stores an immutable snapshot
// taken at fetch time. Staleness of the mutable fields is expected.
type Project struct {
	// Identification
	ID    uint64 `json:"id"`
	Title string `json:"title"`

	// Content address of the off-ledger description; opaque to the cache
	DescriptionRef string `json:"description_ref"`

	// Funding terms, display fixed-point decimals
	Target         string `json:"target"`
	MinimumDeposit string `json:"minimum_deposit"`

	// Milestones, milliseconds since epoch
	StartedAt        int64 `json:"started_at"`
	EndedAt          int64 `json:"ended_at"`
	VestingStartTime int64 `json:"vesting_start_time"`
	VestingEndTime   int64 `json:"vesting_end_time"`
	VestingInterval  int64 `json:"vesting_interval"` // duration, milliseconds

	// Mutable-on-ledger fields, snapshot at fetch time
	Funded      string   `json:"funded"`
	Claimed     string   `json:"claimed"`
	ForceStop   []string `json:"force_stop,omitempty"`
	ForceStopTs int64    `json:"force_stop_ts,omitempty"` // milliseconds, 0 when unset
}

// ForceStopped reports whether the project has been permanently halted by
// contributor vote.
func (p *Project) ForceStopped() bool {
	return len(p.ForceStop) > 0 && p.ForceStopTs > 0
}
