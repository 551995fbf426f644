package graphics

import rl "github.com/gen2brain/raylib-go/raylib"

const (
	DefaultWidth  = 1280
	DefaultHeight = 720
)

// Run opens a window and runs the main loop. Each frame it calls update (input, simulation),
// then clears the screen and calls draw. The loop ends when the window is closed or ESC is
// pressed.
func Run(title string, update, draw func()) {
	rl.SetConfigFlags(rl.FlagMsaa4xHint | rl.FlagWindowResizable)
	rl.InitWindow(DefaultWidth, DefaultHeight, title)
	defer rl.CloseWindow()

	rl.SetTargetFPS(60)

	for !rl.WindowShouldClose() {
		update()

		rl.BeginDrawing()
		rl.ClearBackground(rl.NewColor(24, 24, 28, 255))
		draw()
		rl.EndDrawing()
	}
}
