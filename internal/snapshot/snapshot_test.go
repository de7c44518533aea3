package snapshot

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/webp"

	"github.com/Faultbox/celestial-sim/internal/lod"
	"github.com/Faultbox/celestial-sim/pkg/math"
)

func testMesh(t *testing.T, camera math.Vec3) *lod.Mesh {
	t.Helper()
	b, err := lod.NewBody(lod.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	res, err := b.Update(context.Background(), camera)
	if err != nil {
		t.Fatal(err)
	}
	return res.Mesh
}

func TestRenderSphere(t *testing.T) {
	eye := math.Vec3{Z: 3}
	mesh := testMesh(t, eye)

	tests := []struct {
		name        string
		supersample int
	}{
		{"direct", 1},
		{"supersampled", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Width, opts.Height = 64, 48
			opts.Supersample = tt.supersample

			img, err := Render(mesh, View{Eye: eye}, opts)
			if err != nil {
				t.Fatal(err)
			}
			if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
				t.Fatalf("bounds = %v, want 64x48", b)
			}

			bg := opts.Background
			if c := img.NRGBAAt(0, 0); c != bg {
				t.Errorf("corner = %v, want background %v", c, bg)
			}
			if c := img.NRGBAAt(32, 24); c == bg {
				t.Error("center of the sphere shows background")
			}
		})
	}
}

func TestRenderRejectsEmptySize(t *testing.T) {
	_, err := Render(&lod.Mesh{}, View{Eye: math.Vec3{Z: 3}}, Options{})
	if !errors.Is(err, ErrEmptyImage) {
		t.Errorf("err = %v, want ErrEmptyImage", err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"png", PNG, false},
		{".WEBP", WebP, false},
		{"tga", TGA, false},
		{"jpg", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q, err %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}

	if f, err := FormatFromPath("out/moon.tga"); err != nil || f != TGA {
		t.Errorf("FormatFromPath = %q, %v", f, err)
	}
}

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	for y := range 4 {
		for x := range 8 {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(30 * x), G: uint8(60 * y), B: 200, A: 255})
		}
	}
	return img
}

func TestSaveFormats(t *testing.T) {
	dir := t.TempDir()
	src := testImage()

	decoders := map[Format]func([]byte) (image.Image, error){
		PNG:  func(b []byte) (image.Image, error) { return png.Decode(bytes.NewReader(b)) },
		WebP: func(b []byte) (image.Image, error) { return webp.Decode(bytes.NewReader(b)) },
		TGA:  func(b []byte) (image.Image, error) { return tga.Decode(bytes.NewReader(b)) },
	}

	for format, decode := range decoders {
		t.Run(string(format), func(t *testing.T) {
			path := filepath.Join(dir, "nested", "body."+string(format))
			if err := Save(path, src, ""); err != nil {
				t.Fatalf("Save: %v", err)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			img, err := decode(data)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if img.Bounds().Size() != src.Bounds().Size() {
				t.Fatalf("size = %v, want %v", img.Bounds().Size(), src.Bounds().Size())
			}
			r, g, b, _ := img.At(5, 2).RGBA()
			wr, wg, wb, _ := src.At(5, 2).RGBA()
			if r>>8 != wr>>8 || g>>8 != wg>>8 || b>>8 != wb>>8 {
				t.Errorf("pixel (5,2) = %d,%d,%d; want %d,%d,%d", r>>8, g>>8, b>>8, wr>>8, wg>>8, wb>>8)
			}
		})
	}
}

func TestSaveUnknownExtension(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "body.bmp"), testImage(), "")
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("err = %v, want ErrUnknownFormat", err)
	}
}

func TestFromPixelsFlips(t *testing.T) {
	// Two rows, bottom row red, top row blue, in OpenGL order.
	pixels := []byte{
		255, 0, 0, 255, 255, 0, 0, 255,
		0, 0, 255, 255, 0, 0, 255, 255,
	}
	img, err := FromPixels(pixels, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if c := img.RGBAAt(0, 0); c.B != 255 || c.R != 0 {
		t.Errorf("top-left = %v, want blue", c)
	}
	if c := img.RGBAAt(1, 1); c.R != 255 || c.B != 0 {
		t.Errorf("bottom-right = %v, want red", c)
	}

	if _, err := FromPixels(pixels, 3, 2); err == nil {
		t.Error("expected size mismatch error")
	}
}

func TestFilename(t *testing.T) {
	name := Filename("shots", "celestial", WebP)
	if !strings.HasPrefix(name, filepath.Join("shots", "celestial_")) || !strings.HasSuffix(name, ".webp") {
		t.Errorf("Filename = %s", name)
	}
}

func TestLevelColorCycles(t *testing.T) {
	if LevelColor(0) == LevelColor(1) {
		t.Error("adjacent levels share a color")
	}
	if LevelColor(3) != LevelColor(3+uint32(len(levelPalette))) {
		t.Error("palette does not wrap")
	}
}
