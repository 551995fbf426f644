package input

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"xr-trade/internal/attach"
	"xr-trade/internal/geom"
	"xr-trade/internal/interact"
)

// DefaultSpeed is how far a virtual hand moves per second, in meters.
const DefaultSpeed = 0.8

// Keys is the keyboard state for one frame.
type Keys struct {
	Forward, Back, Left, Right, Up, Down bool
	// Trigger is the active hand's trigger; Swap switches the active hand on the frame it goes down.
	Trigger bool
	Swap    bool
}

// Keyboard turns keys into two virtual controllers, one active at a time. WASD moves the
// active hand on the floor plane, Q/E lowers and raises it, space is its trigger and Tab
// switches hands. The inactive hand keeps its pose and trigger, so it can hold something
// while the other works.
type Keyboard struct {
	hands  [2]interact.Input
	active int
	speed  float32
	swap   bool
}

// NewKeyboard returns both hands at chest height in front of the origin, left hand active.
func NewKeyboard(speed float32) *Keyboard {
	if speed <= 0 {
		speed = DefaultSpeed
	}
	return &Keyboard{
		hands: [2]interact.Input{
			{ControllerID: string(attach.Left), Hand: attach.Left, Pose: geom.At(-0.3, 1, 0.3)},
			{ControllerID: string(attach.Right), Hand: attach.Right, Pose: geom.At(0.3, 1, 0.3)},
		},
		speed: speed,
	}
}

// Active returns the hand the keys currently drive.
func (k *Keyboard) Active() attach.Handedness {
	return k.hands[k.active].Hand
}

// Apply advances the virtual hands by dt seconds of keys and returns both hands' inputs.
func (k *Keyboard) Apply(keys Keys, dt float32) []interact.Input {
	if keys.Swap && !k.swap {
		k.active = 1 - k.active
	}
	k.swap = keys.Swap

	h := &k.hands[k.active]
	var d rl.Vector3
	if keys.Forward {
		d.Z--
	}
	if keys.Back {
		d.Z++
	}
	if keys.Left {
		d.X--
	}
	if keys.Right {
		d.X++
	}
	if keys.Up {
		d.Y++
	}
	if keys.Down {
		d.Y--
	}
	h.Pose.Position = rl.Vector3Add(h.Pose.Position, rl.Vector3Scale(d, k.speed*dt))
	h.TriggerPressed = keys.Trigger
	return k.Inputs()
}

// Inputs returns both hands' current state without advancing them.
func (k *Keyboard) Inputs() []interact.Input {
	out := make([]interact.Input, len(k.hands))
	copy(out, k.hands[:])
	return out
}

// Sync adopts pose and trigger for the hands named in ins. Inputs for other controllers are
// ignored.
func (k *Keyboard) Sync(ins []interact.Input) {
	for _, in := range ins {
		for i := range k.hands {
			if k.hands[i].ControllerID == in.ControllerID {
				k.hands[i].Pose = in.Pose
				k.hands[i].TriggerPressed = in.TriggerPressed
			}
		}
	}
}

// Poll reads the raylib keyboard for this frame. Call once per frame.
func (k *Keyboard) Poll() []interact.Input {
	return k.Apply(Keys{
		Forward: rl.IsKeyDown(rl.KeyW),
		Back:    rl.IsKeyDown(rl.KeyS),
		Left:    rl.IsKeyDown(rl.KeyA),
		Right:   rl.IsKeyDown(rl.KeyD),
		Up:      rl.IsKeyDown(rl.KeyE),
		Down:    rl.IsKeyDown(rl.KeyQ),
		Trigger: rl.IsKeyDown(rl.KeySpace),
		Swap:    rl.IsKeyDown(rl.KeyTab),
	}, rl.GetFrameTime())
}
