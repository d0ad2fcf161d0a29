// CLAUDE:SUMMARY Generates the synthetic PNG fixtures (opaque, colored, oversized, undersized, secondary) used to drive scenarios.
// Package fixture provides the synthetic input images a run uploads.
package fixture

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
)

// Role is the semantic purpose of a fixture.
type Role string

const (
	Opaque     Role = "opaque"     // white background with dark shapes
	Colored    Role = "colored"    // blue background with a green square
	Oversized  Role = "oversized"  // 2000x1500 grid
	Undersized Role = "undersized" // 16x16 icon-sized
	Secondary  Role = "secondary"  // second image for multi-file flows
)

// Fixture is one generated image.
type Fixture struct {
	Role   Role
	Path   string
	Width  int
	Height int
}

// Set holds fixtures by role.
type Set map[Role]Fixture

// Get returns the fixture for role.
func (s Set) Get(role Role) (Fixture, bool) {
	f, ok := s[role]
	return f, ok
}

// Generator writes PNG fixtures into Dir.
type Generator struct {
	Dir string
}

type spec struct {
	role  Role
	file  string
	w, h  int
	paint func(img *image.RGBA)
}

var specs = []spec{
	{Opaque, "test_white_bg.png", 200, 200, func(img *image.RGBA) {
		fill(img, img.Bounds(), color.RGBA{255, 255, 255, 255})
		fill(img, image.Rect(60, 60, 141, 141), color.RGBA{0, 0, 0, 255})
		ellipse(img, image.Rect(80, 30, 121, 56), color.RGBA{255, 0, 0, 255})
	}},
	{Colored, "test_color_bg.png", 200, 200, func(img *image.RGBA) {
		fill(img, img.Bounds(), color.RGBA{0, 100, 200, 255})
		fill(img, image.Rect(50, 50, 151, 151), color.RGBA{0, 200, 50, 255})
	}},
	{Oversized, "test_large.png", 2000, 1500, func(img *image.RGBA) {
		fill(img, img.Bounds(), color.RGBA{220, 220, 220, 255})
		line := color.RGBA{180, 180, 180, 255}
		for x := 0; x < 2000; x += 100 {
			fill(img, image.Rect(x, 0, x+2, 1500), line)
		}
		for y := 0; y < 1500; y += 100 {
			fill(img, image.Rect(0, y, 2000, y+2), line)
		}
		fill(img, image.Rect(400, 300, 1601, 1201), color.RGBA{100, 150, 200, 255})
	}},
	{Undersized, "test_small.png", 16, 16, func(img *image.RGBA) {
		fill(img, img.Bounds(), color.RGBA{255, 0, 0, 255})
		fill(img, image.Rect(4, 4, 13, 13), color.RGBA{0, 0, 255, 255})
	}},
	{Secondary, "test_second.png", 150, 150, func(img *image.RGBA) {
		fill(img, img.Bounds(), color.RGBA{255, 255, 0, 255})
		ellipse(img, image.Rect(20, 20, 131, 131), color.RGBA{200, 0, 200, 255})
	}},
}

// Fixtures writes every fixture and returns the set.
func (g *Generator) Fixtures(ctx context.Context) (Set, error) {
	if err := os.MkdirAll(g.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("fixture: mkdir: %w", err)
	}
	set := make(Set, len(specs))
	for _, s := range specs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img := image.NewRGBA(image.Rect(0, 0, s.w, s.h))
		s.paint(img)
		path := filepath.Join(g.Dir, s.file)
		if err := writePNG(path, img); err != nil {
			return nil, err
		}
		set[s.role] = Fixture{Role: s.role, Path: path, Width: s.w, Height: s.h}
	}
	return set, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("fixture: create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("fixture: encode %s: %w", path, err)
	}
	return f.Close()
}

func fill(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	draw.Draw(img, r, &image.Uniform{C: c}, image.Point{}, draw.Src)
}

// ellipse fills the ellipse inscribed in r.
func ellipse(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	cx := float64(r.Min.X+r.Max.X-1) / 2
	cy := float64(r.Min.Y+r.Max.Y-1) / 2
	rx := float64(r.Dx()) / 2
	ry := float64(r.Dy()) / 2
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			dx := (float64(x) - cx) / rx
			dy := (float64(y) - cy) / ry
			if dx*dx+dy*dy <= 1 {
				img.SetRGBA(x, y, c)
			}
		}
	}
}
