package models

// RawProject is a project record exactly as the contract's view call emits it:
// u64/u128 numerics as decimal strings, timestamps in nanoseconds, monetary
// amounts in the token's smallest unit. Conversion to the canonical Project
// happens at the ledger boundary.
type RawProject struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Target         string `json:"target"`
	MinimumDeposit string `json:"minimum_deposit"`

	// Nanosecond timestamps
	StartedAt        string `json:"started_at"`
	EndedAt          string `json:"ended_at"`
	VestingStartTime string `json:"vesting_start_time"`
	VestingEndTime   string `json:"vesting_end_time"`
	VestingInterval  string `json:"vesting_interval"`

	Funded      string   `json:"funded"`
	Claimed     string   `json:"claimed"`
	ForceStop   []string `json:"force_stop"`
	ForceStopTs string   `json:"force_stop_ts"`
}
