package terminal

import (
	"unicode/utf8"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	BarHeight = 40
	prompt    = "> "
	fontSize  = 20
	padding   = 8
	// Number of history lines drawn above the input bar when the console is open.
	maxLinesOnScreen = 10
	lineHeight       = fontSize + 4
	maxHistory       = 200
)

var (
	// Reused every frame when drawing the bar to avoid per-frame color allocations.
	termBarColor    = rl.NewColor(40, 40, 40, 255)
	termLineColor   = rl.NewColor(80, 80, 80, 255)
	termChatBgColor = rl.NewColor(24, 24, 24, 240)
)

// Terminal is the console bar at the bottom of the window, shown and hidden with the grave key.
// While open it captures typing, and each submitted line is handed to exec (script commands
// such as "tick 5" or "dump"). While closed the keyboard drives the hands.
type Terminal struct {
	exec     func(line string) error
	history  []string
	inputBuf string
	open     bool
}

// New returns a closed console that runs submitted lines through exec.
func New(exec func(line string) error) *Terminal {
	return &Terminal{exec: exec}
}

// IsOpen returns true when the console is visible and capturing input.
func (t *Terminal) IsOpen() bool {
	return t.open
}

// Print appends a line to the console history.
func (t *Terminal) Print(line string) {
	t.history = append(t.history, line)
	if len(t.history) > maxHistory {
		t.history = t.history[len(t.history)-maxHistory:]
	}
}

// History returns the console lines, oldest first.
func (t *Terminal) History() []string {
	return t.history
}

// Write makes the console an io.Writer so command output lands in its history.
func (t *Terminal) Write(p []byte) (int, error) {
	start := 0
	for i, b := range p {
		if b == '\n' {
			t.Print(string(p[start:i]))
			start = i + 1
		}
	}
	if start < len(p) {
		t.Print(string(p[start:]))
	}
	return len(p), nil
}

// Submit echoes line and runs it, printing any error.
func (t *Terminal) Submit(line string) {
	t.Print(prompt + line)
	if t.exec == nil {
		return
	}
	if err := t.exec(line); err != nil {
		t.Print(err.Error())
	}
}

// Update handles the grave key (toggle open/closed) and, when open, typing, backspace and
// enter. Call once per frame.
func (t *Terminal) Update() {
	if rl.IsKeyPressed(rl.KeyGrave) {
		t.open = !t.open
		// drain the toggle key's character
		for rl.GetCharPressed() != 0 {
		}
		return
	}
	if !t.open {
		return
	}
	for {
		c := rl.GetCharPressed()
		if c == 0 {
			break
		}
		t.inputBuf += string(rune(c))
	}
	if rl.IsKeyPressed(rl.KeyBackspace) && len(t.inputBuf) > 0 {
		_, size := utf8.DecodeLastRuneInString(t.inputBuf)
		t.inputBuf = t.inputBuf[:len(t.inputBuf)-size]
	}
	if (rl.IsKeyPressed(rl.KeyEnter) || rl.IsKeyPressed(rl.KeyKpEnter)) && t.inputBuf != "" {
		line := t.inputBuf
		t.inputBuf = ""
		t.Submit(line)
	}
}

// Draw draws the bar at the bottom when open, and the recent history above it.
func (t *Terminal) Draw() {
	if !t.open {
		return
	}
	screenW := int(rl.GetScreenWidth())
	screenH := int(rl.GetScreenHeight())
	barY := screenH - BarHeight

	chatHeight := maxLinesOnScreen * lineHeight
	chatY := barY - chatHeight
	if chatY < 0 {
		chatHeight = barY
		chatY = 0
	}
	if chatHeight > 0 {
		rl.DrawRectangle(0, int32(chatY), int32(screenW), int32(chatHeight), termChatBgColor)
	}
	start := 0
	if len(t.history) > maxLinesOnScreen {
		start = len(t.history) - maxLinesOnScreen
	}
	for i := start; i < len(t.history); i++ {
		y := chatY + (i-start)*lineHeight + padding
		line := t.history[i]
		if len(line) > 200 {
			line = line[:197] + "..."
		}
		rl.DrawText(line, int32(padding), int32(y), int32(fontSize), rl.LightGray)
	}

	rl.DrawRectangle(0, int32(barY), int32(screenW), int32(BarHeight), termBarColor)
	rl.DrawRectangle(0, int32(barY), int32(screenW), 1, termLineColor)
	rl.DrawText(prompt+t.inputBuf+"|", int32(padding), int32(barY+padding), int32(fontSize), rl.White)
}
