package action

import (
	"fmt"

	"xr-trade/internal/engineconfig"
	"xr-trade/internal/entity"
)

// Effect is what a rule does when it fires.
type Effect uint8

const (
	EffectSplit Effect = iota + 1
	EffectDeplete
	EffectToggle
)

func (e Effect) String() string {
	switch e {
	case EffectSplit:
		return "split"
	case EffectDeplete:
		return "deplete"
	case EffectToggle:
		return "toggle"
	}
	return fmt.Sprintf("effect(%d)", uint8(e))
}

// FireMode says how often a satisfied trigger fires.
type FireMode uint8

const (
	// FireLevel fires on every tick the condition holds.
	FireLevel FireMode = iota + 1
	// FireEdge fires once each time the condition goes from false to true.
	FireEdge
	// FireGrab fires once on the tick the entity is grabbed, with no proximity condition.
	FireGrab
)

// ParseFireMode maps the engineconfig mode names to a FireMode.
func ParseFireMode(s string) (FireMode, error) {
	switch s {
	case engineconfig.ModeLevel:
		return FireLevel, nil
	case engineconfig.ModeEdge:
		return FireEdge, nil
	case engineconfig.ModeGrab:
		return FireGrab, nil
	}
	return 0, fmt.Errorf("unknown fire mode %q", s)
}

func (m FireMode) String() string {
	switch m {
	case FireLevel:
		return engineconfig.ModeLevel
	case FireEdge:
		return engineconfig.ModeEdge
	case FireGrab:
		return engineconfig.ModeGrab
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// Measure is where a rule's distance is measured from.
type Measure uint8

const (
	FromHeld Measure = iota
	FromController
)

// Contact is how a rule decides the held side has reached the target.
type Contact uint8

const (
	// ContactDistance fires when the measured distance is strictly below Radius.
	ContactDistance Contact = iota
	// ContactOverlap fires when the held entity's box intersects the target's box.
	ContactOverlap
)

// Subject names which entity a rule's effect is applied to.
type Subject uint8

const (
	SubjectHeld Subject = iota
	SubjectTarget
)

// Rule is one row of the action table. A rule matches a held entity by kind and role, looks
// for the nearest live target by kind and role, and applies Effect to Subject when the contact
// condition holds. Empty roles and zero kinds match anything.
type Rule struct {
	Name string

	HeldKind entity.Kind
	HeldRole string

	TargetKind entity.Kind
	TargetRole string

	Measure Measure
	Contact Contact
	Radius  float32
	Mode    FireMode

	Effect  Effect
	Subject Subject

	Ratio float32 // split
	Step  float32 // deplete

	// StateA/StateB are the toggle pair. With RevertOnRelease the subject is set back to
	// StateA when the controller lets go.
	StateA          string
	StateB          string
	RevertOnRelease bool
}

// Consumes reports whether firing the rule destroys its subject.
func (r Rule) Consumes() bool {
	return r.Effect == EffectSplit
}

func (r Rule) matchesHeld(e *entity.Interactable) bool {
	return entity.HasRole(r.HeldKind, r.HeldRole)(e)
}

// needsTarget reports whether the rule looks for a target at all. Rules without one treat
// "held" as their whole condition.
func (r Rule) needsTarget() bool {
	return r.Mode != FireGrab && (r.TargetKind != 0 || r.TargetRole != "")
}

// Validate reports a rule that cannot fire sensibly.
func (r Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule without name")
	}
	switch r.Effect {
	case EffectSplit:
		if r.Ratio <= 0 || r.Ratio >= 1 {
			return fmt.Errorf("rule %s: split ratio %v not in (0,1)", r.Name, r.Ratio)
		}
	case EffectDeplete:
		if r.Step <= 0 {
			return fmt.Errorf("rule %s: deplete step must be positive", r.Name)
		}
	case EffectToggle:
		if r.StateA == "" || r.StateB == "" {
			return fmt.Errorf("rule %s: toggle needs two states", r.Name)
		}
	default:
		return fmt.Errorf("rule %s: unknown effect %v", r.Name, r.Effect)
	}
	if r.needsTarget() && r.Contact == ContactDistance && r.Radius <= 0 {
		return fmt.Errorf("rule %s: radius must be positive", r.Name)
	}
	if r.Mode == FireGrab && r.Subject != SubjectHeld {
		return fmt.Errorf("rule %s: grab rules act on the held entity", r.Name)
	}
	return nil
}

// Rule names used by DefaultRules.
const (
	RuleCutHeld    = "cut-held-material"
	RuleSawThrough = "saw-through-material"
	RuleDriveNail  = "drive-nail"
	RuleEnergize   = "energize-wire"
)

// Roles the default table refers to.
const (
	RolePlank  = "plank"
	RoleSaw    = "saw"
	RoleHammer = "hammer"
	RoleNail   = "nail"
	RoleWire   = "wire"
)

// DefaultRules builds the workshop action table from a policy:
//   - a held material brought within cut radius of a saw is split;
//   - a held saw whose blade comes to overlap a material splits that material, once per
//     stroke;
//   - a held hammer within hammer radius of a nail drives it one step;
//   - a held wire is energized when grabbed and goes neutral on release.
func DefaultRules(p engineconfig.Policy) ([]Rule, error) {
	deplete, err := ParseFireMode(p.DepleteMode)
	if err != nil {
		return nil, fmt.Errorf("deplete_mode: %w", err)
	}
	energize, err := ParseFireMode(p.EnergizeMode)
	if err != nil {
		return nil, fmt.Errorf("energize_mode: %w", err)
	}
	rules := []Rule{
		{
			Name:       RuleCutHeld,
			HeldKind:   entity.KindMaterial,
			TargetKind: entity.KindTool,
			TargetRole: RoleSaw,
			Measure:    FromHeld,
			Contact:    ContactDistance,
			Radius:     p.CutRadius,
			Mode:       FireLevel,
			Effect:     EffectSplit,
			Subject:    SubjectHeld,
			Ratio:      p.SplitRatio,
		},
		{
			Name:       RuleSawThrough,
			HeldKind:   entity.KindTool,
			HeldRole:   RoleSaw,
			TargetKind: entity.KindMaterial,
			Measure:    FromHeld,
			Contact:    ContactOverlap,
			Mode:       FireEdge,
			Effect:     EffectSplit,
			Subject:    SubjectTarget,
			Ratio:      p.SplitRatio,
		},
		{
			Name:       RuleDriveNail,
			HeldKind:   entity.KindTool,
			HeldRole:   RoleHammer,
			TargetKind: entity.KindFixture,
			TargetRole: RoleNail,
			Measure:    FromController,
			Contact:    ContactDistance,
			Radius:     p.HammerRadius,
			Mode:       deplete,
			Effect:     EffectDeplete,
			Subject:    SubjectTarget,
			Step:       p.DepleteStep,
		},
		{
			Name:            RuleEnergize,
			HeldKind:        entity.KindTool,
			HeldRole:        RoleWire,
			Mode:            energize,
			Effect:          EffectToggle,
			Subject:         SubjectHeld,
			StateA:          p.NeutralState,
			StateB:          p.EnergizedState,
			RevertOnRelease: true,
		},
	}
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}
	return rules, nil
}
