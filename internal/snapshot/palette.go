package snapshot

import "image/color"

// levelPalette cycles through hues so adjacent subdivision levels contrast.
var levelPalette = [...]color.NRGBA{
	{R: 0x2e, G: 0x5e, B: 0xaa, A: 0xff},
	{R: 0x3f, G: 0x9b, B: 0x8f, A: 0xff},
	{R: 0x7b, G: 0xb6, B: 0x4f, A: 0xff},
	{R: 0xd9, G: 0xc2, B: 0x4a, A: 0xff},
	{R: 0xe0, G: 0x8a, B: 0x3c, A: 0xff},
	{R: 0xc9, G: 0x4c, B: 0x4c, A: 0xff},
	{R: 0xa4, G: 0x4f, B: 0x9e, A: 0xff},
	{R: 0x6c, G: 0x5c, B: 0xc4, A: 0xff},
}

// LevelColor returns the display color of a subdivision level.
func LevelColor(level uint32) color.NRGBA {
	return levelPalette[int(level)%len(levelPalette)]
}
