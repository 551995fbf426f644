package action

import (
	"fmt"

	"github.com/ErikKalkoken/go-set"
	"go.uber.org/zap"

	"xr-trade/internal/attach"
	"xr-trade/internal/entity"
	"xr-trade/internal/geom"
	"xr-trade/internal/logger"
	"xr-trade/internal/mutate"
)

// State is where a controller is in the hold/act cycle.
type State uint8

const (
	StateIdle State = iota
	StateHolding
	// StateActionFiring lasts from the moment a non-consuming action fires until the next tick.
	StateActionFiring
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHolding:
		return "holding"
	case StateActionFiring:
		return "firing"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Outcome describes one fired action.
type Outcome struct {
	Controller string
	Rule       string
	Effect     Effect
	// Subject is the entity the effect was applied to; Target the entity that satisfied the
	// trigger, NilID for targetless rules.
	Subject entity.ID
	Target  entity.ID
	// Spawned holds the pieces a split produced.
	Spawned   []entity.ID
	Remaining float32
	Visual    string
}

// Dispatcher runs the rule table for each controller. It keeps per-controller state and the
// per-tick record of which entities have already been acted on.
type Dispatcher struct {
	reg   *entity.Registry
	hands *attach.Manager
	mut   *mutate.Mutator
	rules []Rule
	log   *zap.SugaredLogger

	states map[string]State
	// prev remembers, per controller and rule index, whether the condition held last tick.
	prev map[string]map[int]bool
	// split guards against splitting the same entity twice in one grab.
	split set.Set[entity.ID]
	// claimed holds the entities acted on during the current tick.
	claimed set.Set[entity.ID]
}

// New returns a dispatcher over the given rule table.
func New(reg *entity.Registry, hands *attach.Manager, mut *mutate.Mutator, rules []Rule, log *zap.SugaredLogger) (*Dispatcher, error) {
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}
	return &Dispatcher{
		reg:     reg,
		hands:   hands,
		mut:     mut,
		rules:   rules,
		log:     logger.OrNop(log),
		states:  make(map[string]State),
		prev:    make(map[string]map[int]bool),
		split:   set.Of[entity.ID](),
		claimed: set.Of[entity.ID](),
	}, nil
}

// Rules returns the rule table.
func (d *Dispatcher) Rules() []Rule {
	out := make([]Rule, len(d.rules))
	copy(out, d.rules)
	return out
}

// State returns the controller's current state.
func (d *Dispatcher) State(controller string) State {
	return d.states[controller]
}

// BeginTick starts a new tick: target claims are cleared and controllers that fired last tick
// go back to holding.
func (d *Dispatcher) BeginTick() {
	d.claimed = set.Of[entity.ID]()
	for id, s := range d.states {
		if s == StateActionFiring {
			d.states[id] = StateHolding
		}
	}
}

// OnGrab moves the controller to holding and fires the first grab rule that matches the newly
// held entity.
func (d *Dispatcher) OnGrab(controller string) (Outcome, bool) {
	held := d.hands.HeldBy(controller)
	if held == nil {
		d.states[controller] = StateIdle
		return Outcome{}, false
	}
	d.states[controller] = StateHolding
	d.prev[controller] = make(map[int]bool)
	for _, r := range d.rules {
		if r.Mode != FireGrab || !r.matchesHeld(held) {
			continue
		}
		return d.fire(controller, r, held, nil)
	}
	return Outcome{}, false
}

// Evaluate checks every non-grab rule for a controller holding an entity with the trigger
// pressed and fires at most one: the first in table order whose condition fires this tick.
func (d *Dispatcher) Evaluate(controller string) (Outcome, bool) {
	held := d.hands.HeldBy(controller)
	if held == nil {
		d.states[controller] = StateIdle
		return Outcome{}, false
	}
	c, ok := d.hands.Controller(controller)
	if !ok {
		return Outcome{}, false
	}
	if d.states[controller] == StateIdle {
		d.states[controller] = StateHolding
	}
	prev := d.prev[controller]
	if prev == nil {
		prev = make(map[int]bool)
		d.prev[controller] = prev
	}

	var (
		chosen       *Rule
		chosenTarget *entity.Interactable
	)
	for i := range d.rules {
		r := &d.rules[i]
		if r.Mode == FireGrab || !r.matchesHeld(held) {
			continue
		}
		touching, target := d.condition(r, c, held)
		was := prev[i]
		prev[i] = touching
		met := touching && (target != nil || !r.needsTarget())
		if !met || chosen != nil {
			continue
		}
		if r.Mode == FireEdge && was {
			continue
		}
		if !d.eligible(r, d.subject(r, held, target)) {
			continue
		}
		chosen, chosenTarget = r, target
	}
	if chosen == nil {
		return Outcome{}, false
	}
	return d.fire(controller, *chosen, held, chosenTarget)
}

// OnRelease reverts release-sensitive toggles on the entity the controller just let go of and
// returns the controller to idle.
func (d *Dispatcher) OnRelease(controller string, released *entity.Interactable) []Outcome {
	d.states[controller] = StateIdle
	delete(d.prev, controller)
	if released == nil {
		return nil
	}
	var out []Outcome
	for _, r := range d.rules {
		if r.Effect != EffectToggle || !r.RevertOnRelease || !r.matchesHeld(released) {
			continue
		}
		if !d.mut.Set(released, r.StateA) {
			continue
		}
		d.log.Debugw("revert on release", "controller", controller, "rule", r.Name, "entity", released.String())
		out = append(out, Outcome{
			Controller: controller,
			Rule:       r.Name,
			Effect:     EffectToggle,
			Subject:    released.ID,
			Visual:     released.Visual,
		})
	}
	return out
}

// Forget drops all state for a disconnected controller.
func (d *Dispatcher) Forget(controller string) {
	delete(d.states, controller)
	delete(d.prev, controller)
}

func (d *Dispatcher) subject(r *Rule, held, target *entity.Interactable) *entity.Interactable {
	if r.Subject == SubjectTarget {
		return target
	}
	return held
}

// condition reports whether r's trigger is in contact for the controller and returns the target
// it can act on. Distance contact picks the nearest eligible target strictly inside the radius,
// overlap contact the first eligible target in registration order whose box meets the held one.
// Contact with a target that is not eligible still counts, so an edge rule waits for the held
// entity to leave before firing again; the returned target is nil in that case.
func (d *Dispatcher) condition(r *Rule, c *attach.Controller, held *entity.Interactable) (bool, *entity.Interactable) {
	if !r.needsTarget() {
		return true, nil
	}
	origin := held.Position()
	if r.Measure == FromController {
		origin = c.Pose.Position
	}
	var (
		touching bool
		best     *entity.Interactable
		bestDist float32
	)
	for _, t := range d.reg.FindRole(r.TargetKind, r.TargetRole) {
		if t.ID == held.ID {
			continue
		}
		skip := r.Subject == SubjectTarget && !d.eligible(r, t)
		switch r.Contact {
		case ContactOverlap:
			if !geom.Overlaps(held.Bounds(), t.Bounds()) {
				continue
			}
			touching = true
			if !skip {
				return true, t
			}
		default:
			dist := geom.Distance(origin, t.Position())
			if dist >= r.Radius {
				continue
			}
			touching = true
			if skip {
				continue
			}
			if best == nil || dist < bestDist && !geom.NearlyEqual(dist, bestDist) {
				best, bestDist = t, dist
			}
		}
	}
	return touching, best
}

// eligible reports whether the effect can still apply to subject this tick.
func (d *Dispatcher) eligible(r *Rule, subject *entity.Interactable) bool {
	if subject == nil || !subject.Alive || d.claimed.Contains(subject.ID) {
		return false
	}
	switch r.Effect {
	case EffectSplit:
		return !d.split.Contains(subject.ID)
	case EffectDeplete:
		return subject.Depth > 0
	case EffectToggle:
		return r.Mode != FireLevel || subject.Visual != r.StateB
	}
	return true
}

func (d *Dispatcher) fire(controller string, r Rule, held, target *entity.Interactable) (Outcome, bool) {
	subject := d.subject(&r, held, target)
	if !d.eligible(&r, subject) {
		return Outcome{}, false
	}
	d.states[controller] = StateActionFiring
	d.claimed.Add(subject.ID)
	out := Outcome{Controller: controller, Rule: r.Name, Effect: r.Effect, Subject: subject.ID}
	if target != nil {
		out.Target = target.ID
	}

	switch r.Effect {
	case EffectSplit:
		d.split.Add(subject.ID)
		a, b, err := d.mut.Split(subject, r.Ratio)
		if err != nil {
			d.log.Debugw("split skipped", "rule", r.Name, "entity", subject.String(), "error", err)
			d.states[controller] = StateHolding
			return Outcome{}, false
		}
		// pieces born this tick are not targets until the next one
		d.claimed.Add(a.ID, b.ID)
		out.Spawned = []entity.ID{a.ID, b.ID}
		out.Visual = subject.Visual
		if holder, ok := d.hands.HolderOf(subject.ID); ok {
			d.hands.Invalidate(subject.ID)
			d.states[holder] = StateIdle
			delete(d.prev, holder)
		}
		if subject == held {
			d.states[controller] = StateIdle
		}
	case EffectDeplete:
		remaining, err := d.mut.Deplete(subject, r.Step)
		if err != nil {
			d.log.Debugw("deplete skipped", "rule", r.Name, "entity", subject.String(), "error", err)
			d.states[controller] = StateHolding
			return Outcome{}, false
		}
		out.Remaining = remaining
	case EffectToggle:
		visual, err := d.mut.Toggle(subject, r.StateA, r.StateB)
		if err != nil {
			d.log.Debugw("toggle skipped", "rule", r.Name, "entity", subject.String(), "error", err)
			d.states[controller] = StateHolding
			return Outcome{}, false
		}
		out.Visual = visual
	}
	d.log.Debugw("action fired", "controller", controller, "rule", r.Name, "effect", r.Effect.String(), "subject", subject.String())
	return out, true
}
