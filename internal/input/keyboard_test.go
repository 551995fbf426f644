package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xr-trade/internal/attach"
	"xr-trade/internal/geom"
	"xr-trade/internal/interact"
)

func TestKeyboardMovesActiveHand(t *testing.T) {
	k := NewKeyboard(1)
	assert.Equal(t, attach.Left, k.Active())

	ins := k.Apply(Keys{Right: true, Up: true, Trigger: true}, 0.5)
	require.Len(t, ins, 2)
	assert.Equal(t, "left", ins[0].ControllerID)
	assert.InDelta(t, 0.2, ins[0].Pose.Position.X, 1e-6)
	assert.InDelta(t, 1.5, ins[0].Pose.Position.Y, 1e-6)
	assert.True(t, ins[0].TriggerPressed)
	assert.InDelta(t, 0.3, ins[1].Pose.Position.X, 1e-6)
	assert.False(t, ins[1].TriggerPressed)
}

func TestKeyboardSwapKeepsOtherHand(t *testing.T) {
	k := NewKeyboard(1)
	k.Apply(Keys{Trigger: true}, 0.1)

	// holding Tab swaps once
	k.Apply(Keys{Trigger: true, Swap: true}, 0.1)
	k.Apply(Keys{Swap: true, Forward: true}, 0.1)
	assert.Equal(t, attach.Right, k.Active())

	ins := k.Apply(Keys{Forward: true}, 0.1)
	assert.True(t, ins[0].TriggerPressed, "left hand keeps squeezing")
	assert.InDelta(t, 0.3, ins[0].Pose.Position.Z, 1e-6)
	assert.InDelta(t, 0.1, ins[1].Pose.Position.Z, 1e-6)

	k.Apply(Keys{}, 0.1)
	k.Apply(Keys{Swap: true}, 0.1)
	assert.Equal(t, attach.Left, k.Active())
}

func TestDefaultSpeed(t *testing.T) {
	k := NewKeyboard(0)
	ins := k.Apply(Keys{Left: true}, 1)
	assert.InDelta(t, -0.3-DefaultSpeed, ins[0].Pose.Position.X, 1e-6)
}

func TestKeyboardSync(t *testing.T) {
	k := NewKeyboard(1)
	k.Sync([]interact.Input{
		{ControllerID: "right", Pose: geom.At(2, 0.5, 0), TriggerPressed: true},
		{ControllerID: "other", Pose: geom.At(9, 9, 9)},
	})
	ins := k.Inputs()
	require.Len(t, ins, 2)
	assert.InDelta(t, -0.3, ins[0].Pose.Position.X, 1e-6)
	assert.InDelta(t, 2, ins[1].Pose.Position.X, 1e-6)
	assert.True(t, ins[1].TriggerPressed)

	// the inactive right hand keeps what it was given
	ins = k.Apply(Keys{Forward: true}, 1)
	assert.True(t, ins[1].TriggerPressed)
	assert.InDelta(t, 0, ins[1].Pose.Position.Z, 1e-6)
}
