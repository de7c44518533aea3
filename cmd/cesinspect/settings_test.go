package main

import (
	"testing"

	"github.com/Faultbox/celestial-sim/internal/lod"
)

func TestSettingsRoundTrip(t *testing.T) {
	base := lod.DefaultOptions()
	base.Radius = 6
	base.MaxDepth = 7

	s := settingsFrom(base)
	if got := s.apply(lod.DefaultOptions()); got.MaxDepth != 7 || got.Radius != 1 {
		t.Errorf("apply kept MaxDepth %d Radius %v, want 7 and 1", got.MaxDepth, got.Radius)
	}

	s.depth = -3
	s.precise = false
	s.stitch = false
	got := s.apply(base)
	if got.MaxDepth != 0 {
		t.Errorf("negative depth applied as %d, want 0", got.MaxDepth)
	}
	if got.PreciseNormals || got.StitchEdges {
		t.Error("toggles not applied")
	}
	if got.Radius != 6 {
		t.Errorf("radius changed to %v", got.Radius)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("applied options invalid: %v", err)
	}
}
