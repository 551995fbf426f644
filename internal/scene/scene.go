package scene

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"xr-trade/internal/attach"
	"xr-trade/internal/entity"
)

const (
	gridExtent     = 10
	gridMinorStep  = 1
	gridMajorStep  = 5
	gridMinorAlpha = 50
	gridMajorAlpha = 120
	axisLineAlpha  = 220

	handRadius    = 0.04
	orbitSpeed    = 0.2
	zoomPerNotch  = 0.5
	heldWireColor = 255
)

var (
	defaultColor = rl.NewColor(128, 128, 128, 255)
	leftHand     = rl.NewColor(80, 160, 255, 255)
	rightHand    = rl.NewColor(255, 120, 80, 255)
	heldOutline  = rl.NewColor(heldWireColor, heldWireColor, heldWireColor, 255)
)

// Palette maps a visual tag to the color it is drawn in.
type Palette func(tag string, fallback rl.Color) rl.Color

// Scene holds a 3D camera and draws the workshop: the floor grid, every registered
// interactable as a box and each controller as a small sphere. It only reads session state.
type Scene struct {
	Camera      rl.Camera3D
	GridVisible bool
	palette     Palette
}

// New returns a scene with a perspective camera looking at the workbench from the front.
// Camera: position (0,2.5,4), target (0,0.5,0), up (0,1,0), fovy 45°. Grid is visible by default.
func New(palette Palette) *Scene {
	s := &Scene{palette: palette}
	s.Camera.Position = rl.NewVector3(0, 2.5, 4)
	s.Camera.Target = rl.NewVector3(0, 0.5, 0)
	s.Camera.Up = rl.NewVector3(0, 1, 0)
	s.Camera.Fovy = 45
	s.Camera.Projection = rl.CameraPerspective
	s.GridVisible = true
	return s
}

// SetGridVisible sets whether the floor grid is drawn.
func (s *Scene) SetGridVisible(visible bool) {
	s.GridVisible = visible
}

// Update runs once per frame. The keyboard belongs to the hands, so the camera only orbits
// while the right mouse button is down and zooms with the wheel.
func (s *Scene) Update() {
	var rotation rl.Vector3
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		rotation = rl.NewVector3(d.X*orbitSpeed, d.Y*orbitSpeed, 0)
	}
	zoom := -rl.GetMouseWheelMove() * zoomPerNotch
	rl.UpdateCameraPro(&s.Camera, rl.Vector3{}, rotation, zoom)
}

// Draw renders the 3D scene. Call after ClearBackground and before 2D overlays.
func (s *Scene) Draw(reg *entity.Registry, hands *attach.Manager) {
	rl.BeginMode3D(s.Camera)
	if s.GridVisible {
		drawGrid()
	}
	for _, e := range reg.All() {
		s.drawEntity(e)
	}
	for _, c := range hands.Controllers() {
		col := rightHand
		if c.Hand == attach.Left {
			col = leftHand
		}
		rl.DrawSphere(c.Pose.Position, handRadius, col)
	}
	rl.EndMode3D()
}

func (s *Scene) drawEntity(e *entity.Interactable) {
	col := defaultColor
	if s.palette != nil {
		col = s.palette(e.Visual, defaultColor)
	}
	var axis rl.Vector3
	var angle float32
	rl.QuaternionToAxisAngle(e.Pose.Rotation, &axis, &angle)

	pos, size := e.Position(), e.Extent()
	rl.PushMatrix()
	rl.Translatef(pos.X, pos.Y, pos.Z)
	rl.Rotatef(angle*rl.Rad2deg, axis.X, axis.Y, axis.Z)
	rl.DrawCubeV(rl.Vector3{}, size, col)
	if e.Held() {
		rl.DrawCubeWiresV(rl.Vector3{}, size, heldOutline)
	}
	rl.PopMatrix()
}

// drawGrid draws a grid on the XZ plane with major/minor lines and axis lines.
// Reuses start/end vectors to avoid per-frame allocations in the hot loop.
func drawGrid() {
	minor := rl.NewColor(128, 128, 128, gridMinorAlpha)
	major := rl.NewColor(160, 160, 160, gridMajorAlpha)
	axisX := rl.NewColor(220, 80, 80, axisLineAlpha)
	axisZ := rl.NewColor(80, 80, 220, axisLineAlpha)

	var start, end rl.Vector3
	for i := -gridExtent; i <= gridExtent; i += gridMinorStep {
		c := major
		if i%gridMajorStep != 0 {
			c = minor
		}
		start.X, start.Y, start.Z = float32(i), 0, float32(-gridExtent)
		end.X, end.Y, end.Z = float32(i), 0, float32(gridExtent)
		rl.DrawLine3D(start, end, c)
		start.X, start.Y, start.Z = float32(-gridExtent), 0, float32(i)
		end.X, end.Y, end.Z = float32(gridExtent), 0, float32(i)
		rl.DrawLine3D(start, end, c)
	}

	start.X, start.Y, start.Z = float32(-gridExtent), 0, 0
	end.X, end.Y, end.Z = float32(gridExtent), 0, 0
	rl.DrawLine3D(start, end, axisX)
	start.X, start.Y, start.Z = 0, 0, float32(-gridExtent)
	end.X, end.Y, end.Z = 0, 0, float32(gridExtent)
	rl.DrawLine3D(start, end, axisZ)
}
