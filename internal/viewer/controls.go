package viewer

import "github.com/veandco/go-sdl2/sdl"

// controls is the keyboard-driven viewer state.
type controls struct {
	frozen    bool // LOD updates paused, camera still moves
	wireframe bool
	orbiting  bool

	// One-shot requests, cleared by the frame that serves them.
	verify   bool
	snapshot bool
	quit     bool
}

// press applies one key press.
func (c *controls) press(key sdl.Scancode) {
	switch key {
	case sdl.SCANCODE_ESCAPE:
		c.quit = true
	case sdl.SCANCODE_F:
		c.frozen = !c.frozen
	case sdl.SCANCODE_W:
		c.wireframe = !c.wireframe
	case sdl.SCANCODE_O:
		c.orbiting = !c.orbiting
	case sdl.SCANCODE_V:
		c.verify = true
	case sdl.SCANCODE_F12:
		c.snapshot = true
	}
}
