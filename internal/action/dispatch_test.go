package action

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xr-trade/internal/attach"
	"xr-trade/internal/engineconfig"
	"xr-trade/internal/entity"
	"xr-trade/internal/geom"
	"xr-trade/internal/mutate"
)

type bench struct {
	reg   *entity.Registry
	hands *attach.Manager
	mut   *mutate.Mutator
	disp  *Dispatcher
}

func newBench(t *testing.T, policy engineconfig.Policy) *bench {
	t.Helper()
	reg := entity.NewRegistry()
	hands := attach.New(reg, nil)
	mut := mutate.New(reg, nil, mutate.WithKerf(policy.Kerf))
	rules, err := DefaultRules(policy)
	require.NoError(t, err)
	disp, err := New(reg, hands, mut, rules, nil)
	require.NoError(t, err)
	for _, id := range []string{"left", "right"} {
		_, err := hands.Connect(id, attach.Handedness(id))
		require.NoError(t, err)
	}
	return &bench{reg: reg, hands: hands, mut: mut, disp: disp}
}

func (b *bench) add(t *testing.T, e *entity.Interactable) *entity.Interactable {
	t.Helper()
	require.NoError(t, b.reg.Register(e))
	return e
}

// grab puts the controller at pos and grabs whatever is there.
func (b *bench) grab(t *testing.T, controller string, pos rl.Vector3) (Outcome, bool) {
	t.Helper()
	b.hands.SetPose(controller, geom.At(pos.X, pos.Y, pos.Z))
	require.True(t, b.hands.TryGrab(controller, pos, 0.3))
	return b.disp.OnGrab(controller)
}

func (b *bench) move(controller string, x, y, z float32) {
	b.hands.SetPose(controller, geom.At(x, y, z))
	b.hands.Track(controller)
}

func plank(x, y, z float32) *entity.Interactable {
	return &entity.Interactable{
		Kind: entity.KindMaterial, Role: RolePlank, Pose: geom.At(x, y, z),
		Size: rl.NewVector3(1.5, 0.1, 0.3), Grabbable: true, Visual: "wood",
	}
}

func saw(x, y, z float32) *entity.Interactable {
	return &entity.Interactable{
		Kind: entity.KindTool, Role: RoleSaw, Pose: geom.At(x, y, z),
		Size: rl.NewVector3(0.3, 0.05, 0.5), Grabbable: true,
	}
}

func hammer(x, y, z float32) *entity.Interactable {
	return &entity.Interactable{
		Kind: entity.KindTool, Role: RoleHammer, Pose: geom.At(x, y, z),
		Size: rl.NewVector3(0.05, 0.3, 0.05), Grabbable: true,
	}
}

func nail(x, y, z, depth float32) *entity.Interactable {
	return &entity.Interactable{
		Kind: entity.KindFixture, Role: RoleNail, Pose: geom.At(x, y, z),
		Size: rl.NewVector3(0.02, 0.2, 0.02), Depth: depth, InitialDepth: depth,
	}
}

func wire(x, y, z float32) *entity.Interactable {
	return &entity.Interactable{
		Kind: entity.KindTool, Role: RoleWire, Pose: geom.At(x, y, z),
		Size: rl.NewVector3(0.6, 0.02, 0.02), Grabbable: true, Visual: "neutral",
	}
}

func TestDefaultRules(t *testing.T) {
	rules, err := DefaultRules(engineconfig.Default())
	require.NoError(t, err)
	names := make([]string, 0, len(rules))
	for _, r := range rules {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{RuleCutHeld, RuleSawThrough, RuleDriveNail, RuleEnergize}, names)
	assert.True(t, rules[0].Consumes())
	assert.False(t, rules[2].Consumes())

	p := engineconfig.Default()
	p.EnergizeMode = "whenever"
	_, err = DefaultRules(p)
	assert.Error(t, err)
}

func TestRuleValidate(t *testing.T) {
	good := Rule{Name: "x", Effect: EffectDeplete, Step: 0.1, TargetRole: RoleNail, Radius: 0.1, Mode: FireLevel}
	assert.NoError(t, good.Validate())

	bad := []Rule{
		{Effect: EffectDeplete, Step: 0.1},
		{Name: "x", Effect: EffectSplit, Ratio: 1.5},
		{Name: "x", Effect: EffectToggle, StateA: "a"},
		{Name: "x", Effect: EffectDeplete, Step: 0.1, TargetRole: RoleNail, Mode: FireLevel},
		{Name: "x", Effect: EffectToggle, StateA: "a", StateB: "b", Mode: FireGrab, Subject: SubjectTarget},
		{Name: "x"},
	}
	for _, r := range bad {
		assert.Error(t, r.Validate(), "%+v", r)
	}
}

func TestCutHeldMaterial(t *testing.T) {
	t.Run("splits once and leaves the hand empty", func(t *testing.T) {
		b := newBench(t, engineconfig.Default())
		p := b.add(t, plank(0, 1, 0))
		b.add(t, saw(2, 1, 0))
		_, fired := b.grab(t, "left", rl.NewVector3(0, 1, 0))
		assert.False(t, fired)
		assert.Equal(t, StateHolding, b.disp.State("left"))

		b.disp.BeginTick()
		b.move("left", 1.5, 1, 0)
		_, fired = b.disp.Evaluate("left")
		assert.False(t, fired)

		b.disp.BeginTick()
		b.move("left", 1.8, 1, 0)
		out, fired := b.disp.Evaluate("left")
		require.True(t, fired)
		assert.Equal(t, RuleCutHeld, out.Rule)
		assert.Equal(t, EffectSplit, out.Effect)
		assert.Equal(t, p.ID, out.Subject)
		assert.Len(t, out.Spawned, 2)
		assert.False(t, p.Alive)
		assert.Equal(t, StateIdle, b.disp.State("left"))
		assert.Nil(t, b.hands.HeldBy("left"))

		b.disp.BeginTick()
		_, fired = b.disp.Evaluate("left")
		assert.False(t, fired)
		assert.Equal(t, 3, b.reg.Len())
	})
	t.Run("no saw in the scene, no cut", func(t *testing.T) {
		b := newBench(t, engineconfig.Default())
		b.add(t, plank(0, 1, 0))
		b.grab(t, "left", rl.NewVector3(0, 1, 0))
		b.disp.BeginTick()
		_, fired := b.disp.Evaluate("left")
		assert.False(t, fired)
		assert.Equal(t, StateHolding, b.disp.State("left"))
	})
}

func TestSawThroughMaterial(t *testing.T) {
	b := newBench(t, engineconfig.Default())
	p := b.add(t, plank(0, 0.05, 0))
	s := b.add(t, saw(0, 0.5, 0))
	b.grab(t, "right", rl.NewVector3(0, 0.5, 0))
	require.Same(t, s, b.hands.HeldBy("right"))

	b.disp.BeginTick()
	b.move("right", 0, 0.2, 0)
	_, fired := b.disp.Evaluate("right")
	assert.False(t, fired, "saw above the plank")

	b.disp.BeginTick()
	b.move("right", 0, 0.1, 0)
	out, fired := b.disp.Evaluate("right")
	require.True(t, fired)
	assert.Equal(t, RuleSawThrough, out.Rule)
	assert.Equal(t, p.ID, out.Subject)
	assert.Equal(t, p.ID, out.Target)
	assert.False(t, p.Alive)
	assert.Same(t, s, b.hands.HeldBy("right"), "the saw stays in hand")
	assert.Equal(t, StateActionFiring, b.disp.State("right"))

	b.disp.BeginTick()
	assert.Equal(t, StateHolding, b.disp.State("right"))
	_, fired = b.disp.Evaluate("right")
	assert.False(t, fired, "the pieces under the blade wait for the next stroke")
	assert.Equal(t, 3, b.reg.Len())

	b.disp.BeginTick()
	b.move("right", 0, 0.5, 0)
	_, fired = b.disp.Evaluate("right")
	assert.False(t, fired)
	b.disp.BeginTick()
	b.move("right", 0.6, 0.1, 0)
	out, fired = b.disp.Evaluate("right")
	require.True(t, fired)
	assert.NotEqual(t, p.ID, out.Subject)
}

func TestSawThroughHeldPlankEmptiesOtherHand(t *testing.T) {
	b := newBench(t, engineconfig.Default())
	p := b.add(t, plank(0, 0.05, 0))
	b.add(t, saw(0, 0.6, 0))
	b.grab(t, "left", rl.NewVector3(0, 0.05, 0))
	b.grab(t, "right", rl.NewVector3(0, 0.6, 0))

	b.disp.BeginTick()
	b.move("right", 0, 0.1, 0)
	_, fired := b.disp.Evaluate("right")
	require.True(t, fired)
	assert.False(t, p.Alive)
	assert.Nil(t, b.hands.HeldBy("left"))
	assert.Equal(t, StateIdle, b.disp.State("left"))
	_, ok := b.hands.HolderOf(p.ID)
	assert.False(t, ok)
}

func TestDriveNail(t *testing.T) {
	t.Run("level mode drives every tick until seated", func(t *testing.T) {
		b := newBench(t, engineconfig.Default())
		n := b.add(t, nail(1, 0.1, 0, 0.2))
		b.add(t, hammer(0, 1, 0))
		b.grab(t, "right", rl.NewVector3(0, 1, 0))

		b.disp.BeginTick()
		b.move("right", 1, 0.5, 0)
		_, fired := b.disp.Evaluate("right")
		assert.False(t, fired)

		hits := 0
		for range 10 {
			b.disp.BeginTick()
			b.move("right", 1, 0.05, 0)
			out, fired := b.disp.Evaluate("right")
			if fired {
				hits++
				assert.Equal(t, RuleDriveNail, out.Rule)
				assert.Equal(t, n.ID, out.Subject)
			}
		}
		assert.Equal(t, 4, hits)
		assert.Equal(t, float32(0), n.Depth)
		assert.True(t, n.Alive)
		assert.Equal(t, StateHolding, b.disp.State("right"))
	})
	t.Run("edge mode needs the hammer to come back", func(t *testing.T) {
		p := engineconfig.Default()
		p.DepleteMode = engineconfig.ModeEdge
		b := newBench(t, p)
		n := b.add(t, nail(1, 0.1, 0, 0.2))
		b.add(t, hammer(0, 1, 0))
		b.grab(t, "right", rl.NewVector3(0, 1, 0))

		fire := func(y float32) bool {
			b.disp.BeginTick()
			b.move("right", 1, y, 0)
			_, fired := b.disp.Evaluate("right")
			return fired
		}
		assert.True(t, fire(0.15))
		assert.False(t, fire(0.15))
		assert.False(t, fire(0.6))
		assert.True(t, fire(0.15))
		assert.InDelta(t, 0.1, n.Depth, 1e-5)
	})
	t.Run("two hammers, one nail, one hit per tick", func(t *testing.T) {
		b := newBench(t, engineconfig.Default())
		n := b.add(t, nail(1, 0.1, 0, 0.2))
		b.add(t, hammer(0, 1, 0))
		b.add(t, hammer(0, 1, 1))
		b.grab(t, "left", rl.NewVector3(0, 1, 0))
		b.grab(t, "right", rl.NewVector3(0, 1, 1))

		b.disp.BeginTick()
		b.move("left", 1, 0.15, 0)
		b.move("right", 1, 0.15, 0)
		_, leftFired := b.disp.Evaluate("left")
		_, rightFired := b.disp.Evaluate("right")
		assert.True(t, leftFired)
		assert.False(t, rightFired)
		assert.InDelta(t, 0.15, n.Depth, 1e-5)
	})
}

func TestEnergizeWire(t *testing.T) {
	b := newBench(t, engineconfig.Default())
	w := b.add(t, wire(0, 1, 0))
	out, fired := b.grab(t, "left", rl.NewVector3(0, 1, 0))
	require.True(t, fired)
	assert.Equal(t, RuleEnergize, out.Rule)
	assert.Equal(t, "energized", w.Visual)
	assert.Equal(t, "energized", out.Visual)

	b.disp.BeginTick()
	b.move("left", 0.5, 1, 0)
	_, fired = b.disp.Evaluate("left")
	assert.False(t, fired, "holding does not toggle again")
	assert.Equal(t, "energized", w.Visual)

	b.hands.Release("left")
	outs := b.disp.OnRelease("left", w)
	require.Len(t, outs, 1)
	assert.Equal(t, "neutral", w.Visual)
	assert.Equal(t, StateIdle, b.disp.State("left"))
}

func TestForget(t *testing.T) {
	b := newBench(t, engineconfig.Default())
	b.add(t, wire(0, 1, 0))
	b.grab(t, "left", rl.NewVector3(0, 1, 0))
	b.disp.Forget("left")
	assert.Equal(t, StateIdle, b.disp.State("left"))
}
