package mutate

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/jinzhu/copier"
	"go.uber.org/zap"

	"xr-trade/internal/entity"
	"xr-trade/internal/geom"
	"xr-trade/internal/logger"
)

var (
	ErrNotAlive = errors.New("mutate: entity not alive")
	ErrRatio    = errors.New("mutate: split ratio must be in (0,1)")
	ErrStep     = errors.New("mutate: deplete step must be positive")
)

// DefaultRatio splits an entity into two equal pieces.
const DefaultRatio = float32(0.5)

// Listener is told about every change the mutator makes, so a host renderer can create,
// drop or restyle the matching meshes.
type Listener interface {
	Spawned(e *entity.Interactable)
	Destroyed(e *entity.Interactable)
	Changed(e *entity.Interactable)
}

// Mutator performs the state changes actions ask for: split, deplete and toggle.
type Mutator struct {
	reg      *entity.Registry
	log      *zap.SugaredLogger
	listener Listener
	kerf     float32
	register func(*entity.Interactable) error
}

// Option configures a Mutator.
type Option func(*Mutator)

// WithKerf sets the gap a split leaves between the two pieces.
func WithKerf(kerf float32) Option {
	return func(m *Mutator) { m.kerf = max(kerf, 0) }
}

// WithListener registers l to receive mutation notifications.
func WithListener(l Listener) Option {
	return func(m *Mutator) { m.listener = l }
}

// New returns a Mutator working on reg.
func New(reg *entity.Registry, log *zap.SugaredLogger, opts ...Option) *Mutator {
	m := &Mutator{reg: reg, log: logger.OrNop(log), register: reg.Register}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Split cuts e across its long axis into two registered pieces and unregisters e.
// The first piece covers ratio of the length on the negative side of the axis, the second the
// rest. Pieces sit at the source's ends, each pushed outward by half the kerf, and inherit
// everything else from the source.
func (m *Mutator) Split(e *entity.Interactable, ratio float32) (*entity.Interactable, *entity.Interactable, error) {
	if e == nil || !e.Alive {
		return nil, nil, ErrNotAlive
	}
	if ratio <= 0 || ratio >= 1 {
		return nil, nil, fmt.Errorf("%w: %v", ErrRatio, ratio)
	}
	axis := geom.LongAxis(e.Extent())
	dir := e.Pose.Axis(axis)
	length := geom.Component(e.Extent(), axis)
	baseLen := geom.Component(e.Size, axis)

	lenA := length * ratio
	lenB := length - lenA
	offA := -length/2 + lenA/2 - m.kerf/2
	offB := length/2 - lenB/2 + m.kerf/2

	a, err := m.piece(e, axis, baseLen*ratio, rl.Vector3Add(e.Position(), rl.Vector3Scale(dir, offA)))
	if err != nil {
		return nil, nil, err
	}
	b, err := m.piece(e, axis, baseLen*(1-ratio), rl.Vector3Add(e.Position(), rl.Vector3Scale(dir, offB)))
	if err != nil {
		m.reg.Unregister(a.ID)
		return nil, nil, err
	}

	m.reg.Unregister(e.ID)
	m.log.Debugw("split", "source", e.String(), "a", a.String(), "b", b.String(), "ratio", ratio)
	if m.listener != nil {
		m.listener.Destroyed(e)
		m.listener.Spawned(a)
		m.listener.Spawned(b)
	}
	return a, b, nil
}

func (m *Mutator) piece(src *entity.Interactable, axis int, size float32, pos rl.Vector3) (*entity.Interactable, error) {
	p := &entity.Interactable{}
	if err := copier.CopyWithOption(p, src, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("copy %s: %w", src, err)
	}
	p.ID = entity.NilID
	p.Holder = ""
	p.Size = geom.SetComponent(src.Size, axis, size)
	p.Pose.Position = pos
	ext := p.Extent()
	p.Radius = math32.Sqrt(ext.X*ext.X+ext.Y*ext.Y+ext.Z*ext.Z) / 2
	if err := m.register(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Deplete lowers e's remaining depth by step, clamped to [0, InitialDepth], and sinks e along
// its drive axis by the amount actually removed. It returns the remaining depth. A fully
// depleted entity stays registered.
func (m *Mutator) Deplete(e *entity.Interactable, step float32) (float32, error) {
	if e == nil || !e.Alive {
		return 0, ErrNotAlive
	}
	if step <= 0 {
		return e.Depth, fmt.Errorf("%w: %v", ErrStep, step)
	}
	before := math32.Min(math32.Max(e.Depth, 0), e.InitialDepth)
	after := math32.Max(before-step, 0)
	// snap float residue from repeated subtraction so initial/step applications land on zero
	if after <= step*1e-3 {
		after = 0
	}
	e.Depth = after
	if moved := before - after; moved > 0 {
		axis := e.DriveAxis
		if axis == (rl.Vector3{}) {
			axis = rl.NewVector3(0, -1, 0)
		}
		e.Pose.Position = rl.Vector3Add(e.Pose.Position, rl.Vector3Scale(rl.Vector3Normalize(axis), moved))
		m.reg.SetPose(e.ID, e.Pose)
	}
	m.log.Debugw("deplete", "entity", e.String(), "remaining", after)
	if m.listener != nil {
		m.listener.Changed(e)
	}
	return after, nil
}

// Toggle flips e's visual tag between stateA and stateB. A tag that is neither counts as
// stateA, so the first toggle always lands on stateB. It returns the new tag.
func (m *Mutator) Toggle(e *entity.Interactable, stateA, stateB string) (string, error) {
	if e == nil || !e.Alive {
		return "", ErrNotAlive
	}
	if e.Visual == stateB {
		e.Visual = stateA
	} else {
		e.Visual = stateB
	}
	m.log.Debugw("toggle", "entity", e.String(), "visual", e.Visual)
	if m.listener != nil {
		m.listener.Changed(e)
	}
	return e.Visual, nil
}

// Set forces e's visual tag to state. It reports whether the tag changed.
func (m *Mutator) Set(e *entity.Interactable, state string) bool {
	if e == nil || !e.Alive || e.Visual == state {
		return false
	}
	e.Visual = state
	if m.listener != nil {
		m.listener.Changed(e)
	}
	return true
}
