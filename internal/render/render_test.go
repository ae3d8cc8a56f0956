package render

import (
	"bytes"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"emitter-arena/internal/game"
)

func dotSnapshot(yUp bool) *game.GameSnapshot {
	return &game.GameSnapshot{
		Scene:  "test",
		YUp:    yUp,
		Width:  200,
		Height: 200,
		Entities: []game.EntitySnapshot{
			{X: 50, Y: 50, Radius: 5, Color: "#ff0000", Alpha: 1},
		},
		EntityCount: 1,
	}
}

func rgbaAt(t *testing.T, r *Renderer, snap *game.GameSnapshot, x, y int) color.RGBA {
	t.Helper()
	img := r.Render(snap)
	return img.RGBAAt(x, y)
}

func TestRenderEntityPosition(t *testing.T) {
	r := New(200, 200)
	r.SetHUD(false)

	tests := []struct {
		name   string
		yUp    bool
		hitY   int
		emptyY int
	}{
		{"y down", false, 50, 150},
		{"y up flips", true, 150, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := dotSnapshot(tt.yUp)

			hit := rgbaAt(t, r, snap, 50, tt.hitY)
			if hit.R != 255 || hit.G != 0 || hit.B != 0 {
				t.Errorf("Expected red entity at (50,%d), got %v", tt.hitY, hit)
			}

			empty := rgbaAt(t, r, snap, 50, tt.emptyY)
			if empty != background {
				t.Errorf("Expected background at (50,%d), got %v", tt.emptyY, empty)
			}
		})
	}
}

func TestRenderScalesToOutput(t *testing.T) {
	r := New(400, 400)
	r.SetHUD(false)

	// world (50,50) lands at (100,100) on a canvas twice the world size
	got := rgbaAt(t, r, dotSnapshot(false), 100, 100)
	if got.R != 255 || got.G != 0 {
		t.Errorf("Expected scaled entity at (100,100), got %v", got)
	}
}

func TestRenderSkipsFadedEntities(t *testing.T) {
	r := New(200, 200)
	r.SetHUD(false)

	snap := dotSnapshot(false)
	snap.Entities[0].Alpha = 0

	if got := rgbaAt(t, r, snap, 50, 50); got != background {
		t.Errorf("Expected faded entity to be invisible, got %v", got)
	}
}

func TestRenderSelectedEntityWhite(t *testing.T) {
	r := New(200, 200)
	r.SetHUD(false)

	snap := dotSnapshot(false)
	snap.Entities[0].Selected = true

	if got := rgbaAt(t, r, snap, 50, 50); got != selectedColor {
		t.Errorf("Expected selected entity drawn white, got %v", got)
	}
}

func TestRenderEmitterMarker(t *testing.T) {
	r := New(200, 200)
	r.SetHUD(false)

	// hit lies toward the tip, empty lies just past the base
	tests := []struct {
		name       string
		yUp        bool
		rotation   float64
		hitX, hitY int
		emptyX     int
		emptyY     int
	}{
		{"rotated toward +x", false, 90, 103, 100, 90, 100},
		{"y down points up the screen", false, 0, 100, 96, 100, 109},
		{"y up points down the screen", true, 0, 100, 103, 100, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &game.GameSnapshot{
				YUp:    tt.yUp,
				Width:  200,
				Height: 200,
				Emitters: []game.EmitterSnapshot{
					{Name: "gun", Mode: "continuous", X: 100, Y: 100, Rotation: tt.rotation, Running: true, Color: "#00ff00"},
				},
			}
			img := r.Render(snap)

			if got := img.RGBAAt(tt.hitX, tt.hitY); got.G != 255 || got.R != 0 {
				t.Errorf("Expected marker at (%d,%d), got %v", tt.hitX, tt.hitY, got)
			}
			if got := img.RGBAAt(tt.emptyX, tt.emptyY); got != background {
				t.Errorf("Expected background at (%d,%d), got %v", tt.emptyX, tt.emptyY, got)
			}
		})
	}
}

func TestRenderNilSnapshot(t *testing.T) {
	r := New(64, 48)
	img := r.Render(nil)
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 48 {
		t.Errorf("Expected 64x48 frame, got %v", img.Bounds())
	}
}

func TestEncodePNG(t *testing.T) {
	r := New(320, 180)
	snap := dotSnapshot(false)
	snap.Hud = game.HudSnapshot{Phase: "over", Reason: "time", Score: 7}

	var buf bytes.Buffer
	if err := r.EncodePNG(&buf, snap); err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("Expected valid PNG, got %v", err)
	}
	if img.Bounds().Dx() != 320 || img.Bounds().Dy() != 180 {
		t.Errorf("Expected 320x180, got %v", img.Bounds())
	}
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	r := New(100, 100)

	if err := r.SavePNG(path, dotSnapshot(true)); err != nil {
		t.Fatalf("SavePNG failed: %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("Expected non-empty file, got %v", err)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"#ff7043", color.RGBA{255, 112, 67, 255}},
		{"#81D4FA", color.RGBA{129, 212, 250, 255}},
		{"", color.RGBA{255, 255, 255, 255}},
		{"ff7043", color.RGBA{255, 255, 255, 255}},
		{"#fff", color.RGBA{255, 255, 255, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseHexColor(tt.in); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}
