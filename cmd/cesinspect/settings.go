package main

import "github.com/Faultbox/celestial-sim/internal/lod"

// settings are the body options editable from the panel. Changing any of
// them rebuilds the body.
type settings struct {
	depth     int32
	triSize   float32
	precise   bool
	stitch    bool
	verifyIdx bool
}

func settingsFrom(o lod.Options) settings {
	return settings{
		depth:     int32(o.MaxDepth),
		triSize:   o.TriangleScreenSize,
		precise:   o.PreciseNormals,
		stitch:    o.StitchEdges,
		verifyIdx: o.VerifyIndexCollection,
	}
}

// apply overlays s on base.
func (s settings) apply(base lod.Options) lod.Options {
	base.MaxDepth = uint32(max(s.depth, 0))
	base.TriangleScreenSize = s.triSize
	base.PreciseNormals = s.precise
	base.StitchEdges = s.stitch
	base.VerifyIndexCollection = s.verifyIdx
	return base
}
