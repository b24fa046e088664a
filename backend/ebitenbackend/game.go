package ebitenbackend

import (
	"fmt"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/phanxgames/canopy"
)

// Game adapts a canopy Renderer to ebiten.Game. Each Draw renders one
// canopy frame into the screen. Screen clearing is turned off so a skipped
// frame keeps the previous pixels on screen.
type Game struct {
	renderer *canopy.Renderer
	backend  *Backend
	root     *canopy.Node

	// OnUpdate, when set, runs once per tick before drawing; input handling
	// and tree mutation belong here.
	OnUpdate func() error

	// ShowStats prints FPS and frame counters in the top-left corner of
	// every rendered frame.
	ShowStats bool

	outsideW, outsideH int
	scale              float64
	last               canopy.FrameResult
}

// NewGame wires r and b to draw root. r must present through b.
func NewGame(r *canopy.Renderer, b *Backend, root *canopy.Node) *Game {
	ebiten.SetScreenClearedEveryFrame(false)
	return &Game{renderer: r, backend: b, root: root}
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	if g.OnUpdate != nil {
		return g.OnUpdate()
	}
	return nil
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	g.backend.SetScreen(screen)
	g.last = g.renderer.RenderFrame(g.root)
	g.backend.SetScreen(nil)
	// Skipped frames keep the previous overlay on screen.
	if g.ShowStats && g.last == canopy.FrameRendered {
		ebitenutil.DebugPrint(screen, statsText(g.renderer.Stats(), ebiten.ActualFPS(), ebiten.ActualTPS()))
	}
}

// Layout implements ebiten.Game. The screen is sized in physical pixels; a
// change of window size or device scale resizes the backend and the root
// and forces the next frame.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	scale := 1.0
	if m := ebiten.Monitor(); m != nil {
		scale = m.DeviceScaleFactor()
	}
	if g.resize(outsideWidth, outsideHeight, scale) {
		g.backend.Resize(outsideWidth, outsideHeight, scale)
		if g.root != nil {
			g.root.SetBounds(canopy.RectXYWH(0, 0, float64(outsideWidth), float64(outsideHeight)))
		}
		g.renderer.ForceNextFrame()
	}
	return physicalSize(outsideWidth, outsideHeight, g.scale)
}

// LastResult returns what the most recent Draw did.
func (g *Game) LastResult() canopy.FrameResult { return g.last }

// Screenshot queues a PNG capture of the next rendered frame into dir and
// forces that frame.
func (g *Game) Screenshot(dir, label string) {
	g.backend.Capture(dir, label)
	g.renderer.ForceNextFrame()
}

// resize records the window geometry and reports whether it changed.
func (g *Game) resize(w, h int, scale float64) bool {
	if scale <= 0 {
		scale = 1
	}
	if w == g.outsideW && h == g.outsideH && scale == g.scale {
		return false
	}
	g.outsideW, g.outsideH, g.scale = w, h, scale
	return true
}

func statsText(st canopy.FrameStats, fps, tps float64) string {
	return fmt.Sprintf("FPS: %.1f\nTPS: %.1f\nframes: %d skipped: %d\ncache: %d hit %d miss",
		fps, tps, st.Frames, st.Skipped, st.CacheHits, st.CacheMisses)
}

// physicalSize converts a logical size to whole device pixels.
func physicalSize(w, h int, scale float64) (int, int) {
	return int(math.Ceil(float64(w) * scale)), int(math.Ceil(float64(h) * scale))
}
