package main

import (
	"testing"

	"github.com/chewxy/math32"
)

func TestOrbit(t *testing.T) {
	tests := []struct {
		name       string
		n          int
		start, end float32
		wantFrames int
	}{
		{"single frame", 1, 2, 0.5, 1},
		{"clamped", 0, 2, 0.5, 1},
		{"descent", 8, 2, 0.2, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const radius = 3
			frames := orbit(tt.n, radius, tt.start, tt.end)
			if len(frames) != tt.wantFrames {
				t.Fatalf("got %d frames, want %d", len(frames), tt.wantFrames)
			}
			last := frames[len(frames)-1]
			if math32.Abs(last.Altitude-tt.end) > 1e-5 {
				t.Errorf("last altitude = %v, want %v", last.Altitude, tt.end)
			}
			for _, f := range frames {
				want := radius * (1 + f.Altitude)
				if got := f.Eye.Length(); math32.Abs(got-want) > 1e-4 {
					t.Errorf("frame %d: distance %v, want %v", f.Index, got, want)
				}
			}
			if len(frames) > 1 && math32.Abs(frames[0].Altitude-tt.start) > 1e-5 {
				t.Errorf("first altitude = %v, want %v", frames[0].Altitude, tt.start)
			}
		})
	}
}
