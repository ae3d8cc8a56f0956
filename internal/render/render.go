// Package render draws engine snapshots into images.
// It is shared by the HTTP frame endpoint and the headless driver.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"
	"golang.org/x/image/font/basicfont"

	"emitter-arena/internal/game"
	"emitter-arena/internal/sim"
)

var (
	background = color.RGBA{12, 12, 28, 255}
	gridColor  = color.RGBA{30, 30, 45, 255}
	hudColor   = color.RGBA{230, 230, 240, 255}
	overColor  = color.RGBA{255, 62, 62, 255}

	selectedColor = color.RGBA{255, 255, 255, 255}
)

const gridSpacing = 80

// Renderer draws snapshots onto a reusable canvas. Safe for concurrent use;
// frames are serialized.
type Renderer struct {
	mu     sync.Mutex
	width  int
	height int
	dc     *gg.Context
	hud    bool
}

// New creates a renderer with an output size in pixels
func New(width, height int) *Renderer {
	dc := gg.NewContext(width, height)
	dc.SetFontFace(basicfont.Face7x13)
	return &Renderer{
		width:  width,
		height: height,
		dc:     dc,
		hud:    true,
	}
}

// SetHUD toggles the text overlay
func (r *Renderer) SetHUD(on bool) {
	r.mu.Lock()
	r.hud = on
	r.mu.Unlock()
}

// Size returns the output size
func (r *Renderer) Size() (int, int) {
	return r.width, r.height
}

// Render draws snap and returns a copy of the frame
func (r *Renderer) Render(snap *game.GameSnapshot) *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.draw(snap)
	src := r.dc.Image().(*image.RGBA)
	out := image.NewRGBA(src.Rect)
	copy(out.Pix, src.Pix)
	return out
}

// EncodePNG draws snap and writes it as PNG
func (r *Renderer) EncodePNG(w io.Writer, snap *game.GameSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.draw(snap)
	if err := png.Encode(w, r.dc.Image()); err != nil {
		return errors.Wrap(err, "failed to encode frame")
	}
	return nil
}

// SavePNG draws snap and writes it to path
func (r *Renderer) SavePNG(path string, snap *game.GameSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.draw(snap)
	if err := r.dc.SavePNG(path); err != nil {
		return errors.Wrapf(err, "failed to save frame %s", path)
	}
	return nil
}

func (r *Renderer) draw(snap *game.GameSnapshot) {
	dc := r.dc
	w, h := float64(r.width), float64(r.height)

	dc.SetColor(background)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	dc.SetColor(gridColor)
	dc.SetLineWidth(1)
	for x := 0.0; x < w; x += gridSpacing {
		dc.DrawLine(x, 0, x, h)
		dc.Stroke()
	}
	for y := 0.0; y < h; y += gridSpacing {
		dc.DrawLine(0, y, w, y)
		dc.Stroke()
	}

	if snap == nil {
		return
	}

	v := newView(snap, r.width, r.height)

	for i := range snap.Entities {
		e := &snap.Entities[i]
		if e.Alpha <= 0 {
			continue
		}
		x, y := v.point(e.X, e.Y)
		c := ParseHexColor(e.Color)
		if e.Selected {
			c = selectedColor
		}
		dc.SetColor(color.NRGBA{c.R, c.G, c.B, uint8(255 * e.Alpha)})
		radius := e.Radius
		if radius <= 0 {
			radius = 2
		}
		dc.DrawCircle(x, y, radius*v.scale)
		dc.Fill()
	}

	for i := range snap.Emitters {
		r.drawEmitter(v, &snap.Emitters[i])
	}

	if r.hud {
		r.drawHUD(snap)
	}
}

func (r *Renderer) drawEmitter(v view, em *game.EmitterSnapshot) {
	if em.Mode == "burst" {
		return
	}
	dc := r.dc

	t := sim.NewTransform(sim.Vec3{X: em.X, Y: em.Y})
	t.SetRotation(em.Rotation)
	for i, p := range sim.EmitterTriangle.World(t) {
		x, y := v.point(p.X, p.Y)
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.ClosePath()
	c := ParseHexColor(em.Color)
	if em.Running {
		dc.SetColor(c)
	} else {
		dc.SetColor(color.NRGBA{c.R, c.G, c.B, 120})
	}
	dc.Fill()
}

func (r *Renderer) drawHUD(snap *game.GameSnapshot) {
	dc := r.dc
	dc.SetColor(hudColor)
	dc.DrawString(fmt.Sprintf("%s  tick %d  entities %d", snap.Scene, snap.TickNumber, snap.EntityCount), 10, 20)

	hud := snap.Hud
	switch hud.Phase {
	case "playing":
		line := fmt.Sprintf("score %d  lives %d  best %d", hud.Score, hud.Lives, hud.HighScore)
		if hud.Remaining >= 0 {
			line += fmt.Sprintf("  time %.0f", hud.Remaining)
		}
		dc.DrawString(line, 10, 38)
	case "over":
		dc.SetColor(overColor)
		dc.DrawStringAnchored(fmt.Sprintf("GAME OVER (%s)  score %d", hud.Reason, hud.Score),
			float64(r.width)/2, float64(r.height)/2, 0.5, 0.5)
	}
}

// view maps world units to canvas pixels
type view struct {
	scale   float64
	offsetX float64
	offsetY float64
	height  float64
	yUp     bool
}

func newView(snap *game.GameSnapshot, width, height int) view {
	v := view{scale: 1, height: float64(snap.Height), yUp: snap.YUp}
	if snap.Width <= 0 || snap.Height <= 0 {
		v.height = float64(height)
		return v
	}
	sx := float64(width) / float64(snap.Width)
	sy := float64(height) / float64(snap.Height)
	v.scale = sx
	if sy < sx {
		v.scale = sy
	}
	v.offsetX = (float64(width) - float64(snap.Width)*v.scale) / 2
	v.offsetY = (float64(height) - float64(snap.Height)*v.scale) / 2
	return v
}

func (v view) point(x, y float64) (float64, float64) {
	if v.yUp {
		y = v.height - y
	}
	return v.offsetX + x*v.scale, v.offsetY + y*v.scale
}

// ParseHexColor parses "#rrggbb", falling back to white
func ParseHexColor(hex string) color.RGBA {
	if len(hex) != 7 || hex[0] != '#' {
		return color.RGBA{255, 255, 255, 255}
	}
	return color.RGBA{
		R: hexToByte(hex[1], hex[2]),
		G: hexToByte(hex[3], hex[4]),
		B: hexToByte(hex[5], hex[6]),
		A: 255,
	}
}

func hexToByte(h1, h2 byte) uint8 {
	return hexCharToNibble(h1)<<4 | hexCharToNibble(h2)
}

func hexCharToNibble(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}
