package script

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xr-trade/internal/action"
	"xr-trade/internal/attach"
	"xr-trade/internal/engineconfig"
	"xr-trade/internal/geom"
	"xr-trade/internal/interact"
	"xr-trade/internal/workshop"
)

func newRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()
	sess, err := interact.New(engineconfig.Default(), nil)
	require.NoError(t, err)
	_, err = workshop.Default().Spawn(sess.Registry)
	require.NoError(t, err)
	var out bytes.Buffer
	return New(sess, &out, nil), &out
}

func TestCuttingStation(t *testing.T) {
	r, out := newRunner(t)
	src := `
connect -hand left left
pose left -2 0.05 0   # on the plank
press left
tick
expect -holder left plank
pose left -2 0.05 0.6 # drag it to the saw
tick
expect -count 2 plank
expect -count 1 saw
tick 2
expect -count 2 plank
release left
tick
`
	require.NoError(t, r.Run(context.Background(), strings.NewReader(src)))
	require.Len(t, r.Outcomes(), 1)
	assert.Equal(t, action.RuleCutHeld, r.Outcomes()[0].Rule)
	assert.Contains(t, out.String(), "tick 2: left cut-held-material split")
}

func TestNailingStation(t *testing.T) {
	r, _ := newRunner(t)
	src := `
pose right 0 0.15 0.6
press right
tick
expect -holder right hammer
pose right 0 0.05 0
tick 10
expect -depth 0 nail
release right
tick
expect -holder - hammer
`
	require.NoError(t, r.Run(context.Background(), strings.NewReader(src)))
	assert.Len(t, r.Outcomes(), 4)
}

func TestWiringStation(t *testing.T) {
	r, out := newRunner(t)
	src := `
pose left 2 0.5 0
press left
tick
expect -visual energized wire
move left 0 0.2 0
tick 3
expect -visual energized wire
release left
tick
expect -visual neutral wire
dump
`
	require.NoError(t, r.Run(context.Background(), strings.NewReader(src)))
	assert.Len(t, r.Outcomes(), 2)
	assert.Contains(t, out.String(), "wire#5(tool)")
	assert.Contains(t, out.String(), "pos=(2.000, 0.700, 0.000)")
}

func TestRunErrors(t *testing.T) {
	r, _ := newRunner(t)

	err := r.Run(context.Background(), strings.NewReader("tick\nexpect -visual energized wire\n"))
	assert.ErrorIs(t, err, ErrExpectation)
	assert.ErrorContains(t, err, "line 2")

	assert.Error(t, r.Exec("pose left 1 2"))
	assert.Error(t, r.Exec("pose left a b c"))
	assert.Error(t, r.Exec("tick 0"))
	assert.Error(t, r.Exec("fly away"))
	assert.Error(t, r.Exec("press"))
	assert.NoError(t, r.Exec("# nothing"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.Run(ctx, strings.NewReader("tick\n")), context.Canceled)
}

func TestWorkshopScript(t *testing.T) {
	f, err := os.Open(filepath.Join("..", "..", "scripts", "workshop.txt"))
	require.NoError(t, err)
	defer f.Close()

	r, _ := newRunner(t)
	require.NoError(t, r.Run(context.Background(), f))
	rules := map[string]int{}
	for _, o := range r.Outcomes() {
		rules[o.Rule]++
	}
	assert.Equal(t, map[string]int{
		action.RuleCutHeld:   1,
		action.RuleDriveNail: 4,
		action.RuleEnergize:  2,
	}, rules)
}

func TestHelp(t *testing.T) {
	r, out := newRunner(t)
	require.NoError(t, r.Exec("help"))
	assert.Contains(t, out.String(), "tick [N]\n")
	assert.Contains(t, out.String(), "pose ID X Y Z\n")
}

func TestRules(t *testing.T) {
	r, out := newRunner(t)
	require.NoError(t, r.Exec("rules"))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "cut-held-material      split  level held=material target=saw", lines[0])
	assert.Equal(t, "saw-through-material   split  edge  held=saw target=material", lines[1])
	assert.Contains(t, lines[3], "energize-wire")
	assert.Contains(t, lines[3], "grab  held=wire")
	assert.NotContains(t, lines[3], "target=")
}

func TestInputsFollowConnectionOrder(t *testing.T) {
	r, _ := newRunner(t)
	require.NoError(t, r.Exec("press right"))
	require.NoError(t, r.Exec("connect -hand left left"))
	require.NoError(t, r.Exec("rotate left 0 90 0"))

	ins := r.Inputs()
	require.Len(t, ins, 2)
	assert.Equal(t, "right", ins[0].ControllerID)
	assert.True(t, ins[0].TriggerPressed)
	assert.Equal(t, "left", ins[1].ControllerID)
	assert.Equal(t, "left", string(ins[1].Hand))
	assert.NotEqual(t, float32(1), ins[1].Pose.Rotation.W)
}

func TestSeedKeepsLiveHandsHolding(t *testing.T) {
	r, _ := newRunner(t)
	live := []interact.Input{
		{ControllerID: "left", Hand: attach.Left, Pose: geom.At(2, 0.5, 0), TriggerPressed: true},
		{ControllerID: "right", Hand: attach.Right, Pose: geom.At(0.3, 1, 0.3)},
	}
	r.sess.Tick(live)
	require.NoError(t, r.Exec("expect -holder left -visual energized wire"))

	r.Seed(live)
	require.NoError(t, r.Exec("tick"))
	require.NoError(t, r.Exec("expect -holder left -visual energized wire"))

	require.NoError(t, r.Exec("move left 0 0.2 0"))
	require.NoError(t, r.Exec("tick"))
	assert.Empty(t, r.Outcomes())
	ins := r.Inputs()
	require.Len(t, ins, 2)
	assert.Equal(t, "left", ins[0].ControllerID)
	assert.InDelta(t, 0.7, ins[0].Pose.Position.Y, 1e-5)
	assert.InDelta(t, 0.3, ins[1].Pose.Position.X, 1e-5)
	require.NoError(t, r.Exec("expect -holder left wire"))

	require.NoError(t, r.Exec("release left"))
	require.NoError(t, r.Exec("tick"))
	require.NoError(t, r.Exec("expect -holder - -visual neutral wire"))
}
