package debug

import (
	"fmt"
	"runtime"

	"github.com/dustin/go-humanize"
	rl "github.com/gen2brain/raylib-go/raylib"

	"xr-trade/internal/interact"
)

const (
	fpsFontSize   = 20
	fpsPadding    = 12
	fpsLineHeight = fpsFontSize + 4
	// updateInterval: only refresh FPS/Mem text every N frames to reduce allocations.
	updateInterval = 30
)

// Debug holds runtime debugging overlays: FPS and memory at the top right, and the session HUD
// (one line per controller) at the top left. FPS and memory are off by default.
type Debug struct {
	ShowFPS      bool
	ShowMemAlloc bool
	ShowHUD      bool
	frameCount   uint32
	lastFpsText  string
	lastMemText  string
	lastMemStats runtime.MemStats
}

// New returns a Debug system with only the HUD shown.
func New() *Debug {
	return &Debug{ShowHUD: true}
}

// SetShowFPS sets whether the FPS counter is drawn (top-right, green).
func (d *Debug) SetShowFPS(show bool) {
	d.ShowFPS = show
}

// SetShowMemAlloc sets whether the memory allocation counter is drawn (top-right, under FPS).
func (d *Debug) SetShowMemAlloc(show bool) {
	d.ShowMemAlloc = show
}

// HUD returns one status line per controller: id, state and what it holds.
func HUD(s *interact.Session, active string) []string {
	var lines []string
	for _, c := range s.Hands.Controllers() {
		mark := " "
		if c.ID == active {
			mark = ">"
		}
		held := "-"
		if e := s.Held(c.ID); e != nil {
			held = e.String()
		}
		lines = append(lines, fmt.Sprintf("%s %-6s %-8s %s", mark, c.ID, s.State(c.ID), held))
	}
	return append(lines, fmt.Sprintf("  tick %s, %d entities", humanize.Comma(int64(s.Ticks())), s.Registry.Len()))
}

// Draw renders any enabled overlays. Call after the scene in the draw loop.
// Text is only recomputed every updateInterval frames to limit allocations.
func (d *Debug) Draw(hud []string) {
	d.frameCount++
	update := (d.frameCount % updateInterval) == 0
	if d.ShowFPS && d.lastFpsText == "" {
		update = true
	}
	if d.ShowMemAlloc && d.lastMemText == "" {
		update = true
	}

	if d.ShowHUD {
		for i, line := range hud {
			rl.DrawText(line, fpsPadding, int32(fpsPadding+i*fpsLineHeight), fpsFontSize, rl.RayWhite)
		}
	}

	screenW := int32(rl.GetScreenWidth())
	y := int32(fpsPadding)
	if d.ShowFPS {
		if update {
			d.lastFpsText = fmt.Sprintf("FPS: %d", rl.GetFPS())
		}
		drawRight(d.lastFpsText, screenW, y)
		y += fpsLineHeight
	}
	if d.ShowMemAlloc {
		if update {
			runtime.ReadMemStats(&d.lastMemStats)
			mb := float64(d.lastMemStats.Alloc) / (1024 * 1024)
			d.lastMemText = fmt.Sprintf("Mem: %.2f MiB", mb)
		}
		drawRight(d.lastMemText, screenW, y)
	}
}

func drawRight(text string, screenW, y int32) {
	if text == "" {
		return
	}
	w := rl.MeasureText(text, fpsFontSize)
	rl.DrawText(text, screenW-w-fpsPadding, y, fpsFontSize, rl.Green)
}
