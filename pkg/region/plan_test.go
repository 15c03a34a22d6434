package region

import "testing"

func TestFromSelector(t *testing.T) {
	tests := []struct {
		selector uint8
		want     Plan
		ok       bool
	}{
		{0, PlanAU915, true},
		{1, PlanUS915, true},
		{2, PlanEU868, true},
		{3, PlanAS923, true},
		{4, 0, false},
		{255, 0, false},
	}

	for _, tt := range tests {
		got, ok := FromSelector(tt.selector)
		if ok != tt.ok {
			t.Errorf("FromSelector(%d) ok = %v, want %v", tt.selector, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("FromSelector(%d) = %v, want %v", tt.selector, got, tt.want)
		}
	}
}

func TestSelectorRoundTrip(t *testing.T) {
	for _, p := range []Plan{PlanAU915, PlanUS915, PlanEU868, PlanAS923} {
		got, ok := FromSelector(p.Selector())
		if !ok || got != p {
			t.Errorf("FromSelector(%v.Selector()) = (%v, %v)", p, got, ok)
		}
	}
}

func TestParams(t *testing.T) {
	au := PlanAU915.Params()
	if !au.DwellTimeLimited {
		t.Error("AU915 must be dwell-time limited")
	}
	if au.SubBands != 8 || au.ChannelsPerSubBand != 8 {
		t.Errorf("AU915 sub-band shape = %dx%d, want 8x8", au.SubBands, au.ChannelsPerSubBand)
	}

	eu := PlanEU868.Params()
	if eu.DwellTimeLimited {
		t.Error("EU868 must not be dwell-time limited")
	}
	if eu.SubBands != 0 {
		t.Errorf("EU868 SubBands = %d, want 0", eu.SubBands)
	}
}

func TestString(t *testing.T) {
	if got := PlanAU915.String(); got != "AU915" {
		t.Errorf("String() = %q, want AU915", got)
	}
	if got := Plan(9).String(); got != "UNKNOWN" {
		t.Errorf("String() = %q, want UNKNOWN", got)
	}
}
