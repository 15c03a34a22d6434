package region

import "time"

// Plan selects a regional channel plan. The set is closed: downlink
// commands and status reports encode it as a single selector byte.
type Plan uint8

const (
	// PlanAU915 is the Australian 915-928 MHz plan (wire selector 0).
	// The primary deployment region; dwell-time limits apply.
	PlanAU915 Plan = iota

	// PlanUS915 is the US 902-928 MHz plan (wire selector 1).
	PlanUS915

	// PlanEU868 is the European 863-870 MHz plan (wire selector 2).
	PlanEU868

	// PlanAS923 is the Asian 915-928 MHz plan (wire selector 3).
	PlanAS923
)

// planCount is the number of defined plans.
const planCount = 4

// FromSelector maps a wire selector byte to a plan.
// The second return value is false for selectors outside the closed set.
func FromSelector(v uint8) (Plan, bool) {
	if v >= planCount {
		return 0, false
	}
	return Plan(v), true
}

// Selector returns the wire selector byte for the plan.
func (p Plan) Selector() uint8 {
	return uint8(p)
}

// Valid reports whether the plan is a member of the closed set.
func (p Plan) Valid() bool {
	return p < planCount
}

// String returns the plan name.
func (p Plan) String() string {
	switch p {
	case PlanAU915:
		return "AU915"
	case PlanUS915:
		return "US915"
	case PlanEU868:
		return "EU868"
	case PlanAS923:
		return "AS923"
	default:
		return "UNKNOWN"
	}
}

// Params holds the plan parameters the core needs. Channel frequency tables
// stay inside the network stack.
type Params struct {
	// Name is the plan name as used in logs.
	Name string

	// UplinkChannels is the total uplink channel count.
	UplinkChannels int

	// SubBands is the number of selectable fixed sub-bands.
	// Zero means the plan has no sub-band structure and the sub-band
	// selector is ignored.
	SubBands int

	// ChannelsPerSubBand is the uplink channel count per sub-band.
	ChannelsPerSubBand int

	// DwellTimeLimited reports whether the plan imposes a regulatory
	// per-transmission dwell limit. Drives the dwell-enforcement default.
	DwellTimeLimited bool

	// MaxDwell is the per-transmission airtime cap where dwell limits
	// apply, zero otherwise.
	MaxDwell time.Duration

	// DefaultSubBand is the sub-band selector used until configured.
	// Selector 0 means "all sub-bands"; 1-8 pin a fixed sub-band.
	DefaultSubBand uint8
}

// Params returns the parameters for the plan.
func (p Plan) Params() Params {
	switch p {
	case PlanAU915:
		return Params{
			Name:               "AU915",
			UplinkChannels:     72,
			SubBands:           8,
			ChannelsPerSubBand: 8,
			DwellTimeLimited:   true,
			MaxDwell:           400 * time.Millisecond,
			DefaultSubBand:     2, // the common public-network sub-band
		}
	case PlanUS915:
		return Params{
			Name:               "US915",
			UplinkChannels:     72,
			SubBands:           8,
			ChannelsPerSubBand: 8,
			DwellTimeLimited:   true,
			MaxDwell:           400 * time.Millisecond,
			DefaultSubBand:     2,
		}
	case PlanEU868:
		return Params{
			Name:           "EU868",
			UplinkChannels: 8,
			// No sub-band structure; duty cycle is enforced per band by
			// the stack instead of via dwell limits.
			SubBands:         0,
			DwellTimeLimited: false,
			DefaultSubBand:   0,
		}
	case PlanAS923:
		return Params{
			Name:             "AS923",
			UplinkChannels:   8,
			SubBands:         0,
			DwellTimeLimited: true,
			MaxDwell:         400 * time.Millisecond,
			DefaultSubBand:   0,
		}
	default:
		return Params{Name: "UNKNOWN"}
	}
}
