package ledger

import (
	"fmt"
	"strconv"

	"crowdcache/internal/models"
)

// nanosPerMilli converts the ledger's nanosecond timestamps to the cache's
// millisecond resolution (floor division).
const nanosPerMilli = 1_000_000

// MapProject converts a raw ledger record into its canonical cached form:
// nanosecond timestamps become milliseconds and smallest-unit amounts become
// display decimals.
func MapProject(raw models.RawProject) (models.Project, error) {
	id, err := strconv.ParseUint(raw.ID, 10, 64)
	if err != nil {
		return models.Project{}, fmt.Errorf("invalid project id %q: %w", raw.ID, err)
	}

	p := models.Project{
		ID:             id,
		Title:          raw.Title,
		DescriptionRef: raw.Description,
		ForceStop:      raw.ForceStop,
	}

	for _, conv := range []struct {
		name string
		src  string
		dst  *int64
	}{
		{"started_at", raw.StartedAt, &p.StartedAt},
		{"ended_at", raw.EndedAt, &p.EndedAt},
		{"vesting_start_time", raw.VestingStartTime, &p.VestingStartTime},
		{"vesting_end_time", raw.VestingEndTime, &p.VestingEndTime},
		{"vesting_interval", raw.VestingInterval, &p.VestingInterval},
	} {
		ms, err := nanosToMillis(conv.src)
		if err != nil {
			return models.Project{}, fmt.Errorf("project %d: invalid %s: %w", id, conv.name, err)
		}
		*conv.dst = ms
	}

	if raw.ForceStopTs != "" {
		ms, err := nanosToMillis(raw.ForceStopTs)
		if err != nil {
			return models.Project{}, fmt.Errorf("project %d: invalid force_stop_ts: %w", id, err)
		}
		p.ForceStopTs = ms
	}

	for _, conv := range []struct {
		name string
		src  string
		dst  *string
	}{
		{"target", raw.Target, &p.Target},
		{"minimum_deposit", raw.MinimumDeposit, &p.MinimumDeposit},
		{"funded", raw.Funded, &p.Funded},
		{"claimed", raw.Claimed, &p.Claimed},
	} {
		display, err := ToDecimal(conv.src)
		if err != nil {
			return models.Project{}, fmt.Errorf("project %d: invalid %s: %w", id, conv.name, err)
		}
		*conv.dst = display
	}

	return p, nil
}

// MapProjects converts a whole page, failing on the first bad record.
func MapProjects(raw []models.RawProject) ([]models.Project, error) {
	projects := make([]models.Project, len(raw))
	for i, r := range raw {
		p, err := MapProject(r)
		if err != nil {
			return nil, err
		}
		projects[i] = p
	}
	return projects, nil
}

func nanosToMillis(raw string) (int64, error) {
	ns, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid nanosecond timestamp %q: %w", raw, err)
	}
	return int64(ns / nanosPerMilli), nil
}
