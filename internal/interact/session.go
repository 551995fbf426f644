package interact

import (
	"fmt"

	"go.uber.org/zap"

	"xr-trade/internal/action"
	"xr-trade/internal/attach"
	"xr-trade/internal/engineconfig"
	"xr-trade/internal/entity"
	"xr-trade/internal/geom"
	"xr-trade/internal/logger"
	"xr-trade/internal/mutate"
)

// Input is one controller's state for a tick, as delivered by the host input layer.
type Input struct {
	ControllerID   string
	Hand           attach.Handedness
	Pose           geom.Transform
	TriggerPressed bool
}

// Session owns the interaction state of one VR session: the entity registry, the attachment
// table and the action dispatcher. It is driven once per frame through Tick and is not safe
// for concurrent use.
type Session struct {
	Registry   *entity.Registry
	Hands      *attach.Manager
	Dispatcher *action.Dispatcher
	Mutator    *mutate.Mutator

	policy  engineconfig.Policy
	log     *zap.SugaredLogger
	pressed map[string]bool
	ticks   uint64
}

// Option configures a Session.
type Option func(*options)

type options struct {
	rules    []action.Rule
	index    entity.Index
	listener mutate.Listener
}

// WithRules replaces the default rule table.
func WithRules(rules []action.Rule) Option {
	return func(o *options) { o.rules = rules }
}

// WithIndex backs the registry with a custom proximity index.
func WithIndex(idx entity.Index) Option {
	return func(o *options) { o.index = idx }
}

// WithListener forwards mutation notifications to l.
func WithListener(l mutate.Listener) Option {
	return func(o *options) { o.listener = l }
}

// New returns an empty session running under policy.
func New(policy engineconfig.Policy, log *zap.SugaredLogger, opts ...Option) (*Session, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	log = logger.OrNop(log)
	if o.rules == nil {
		rules, err := action.DefaultRules(policy)
		if err != nil {
			return nil, err
		}
		o.rules = rules
	}
	reg := entity.NewRegistry()
	if o.index != nil {
		reg = entity.NewRegistryWithIndex(o.index)
	}
	mutOpts := []mutate.Option{mutate.WithKerf(policy.Kerf)}
	if o.listener != nil {
		mutOpts = append(mutOpts, mutate.WithListener(o.listener))
	}
	hands := attach.New(reg, log)
	mut := mutate.New(reg, log, mutOpts...)
	disp, err := action.New(reg, hands, mut, o.rules, log)
	if err != nil {
		return nil, err
	}
	return &Session{
		Registry:   reg,
		Hands:      hands,
		Dispatcher: disp,
		Mutator:    mut,
		policy:     policy,
		log:        log,
		pressed:    make(map[string]bool),
	}, nil
}

// Policy returns the constants the session runs under.
func (s *Session) Policy() engineconfig.Policy {
	return s.policy
}

// Ticks returns how many ticks have run.
func (s *Session) Ticks() uint64 {
	return s.ticks
}

// Connect registers a controller. Controllers are processed in the order they connect.
func (s *Session) Connect(id string, hand attach.Handedness) error {
	_, err := s.Hands.Connect(id, hand)
	return err
}

// Disconnect releases and forgets a controller, reverting release-sensitive state on what it
// held.
func (s *Session) Disconnect(id string) error {
	held := s.Hands.HeldBy(id)
	if _, ok := s.Hands.Controller(id); ok && held != nil {
		s.Hands.Release(id)
		s.Dispatcher.OnRelease(id, held)
	}
	if err := s.Hands.Disconnect(id); err != nil {
		return err
	}
	s.Dispatcher.Forget(id)
	delete(s.pressed, id)
	return nil
}

// Tick advances the session by one frame. Inputs for unknown controllers connect them first,
// in input order. Controllers then run in connection order:
//   - a trigger press with an empty hand tries to grab the nearest free entity and fires any
//     grab rule for it;
//   - a held trigger moves the held entity with the controller and evaluates the rule table;
//   - a trigger release lets go, leaving the entity where it was last tracked.
//
// Controllers missing from inputs keep their last pose and count as not pressed.
func (s *Session) Tick(inputs []Input) []action.Outcome {
	s.ticks++
	s.Dispatcher.BeginTick()

	byID := make(map[string]Input, len(inputs))
	for _, in := range inputs {
		if _, ok := s.Hands.Controller(in.ControllerID); !ok {
			if err := s.Connect(in.ControllerID, in.Hand); err != nil {
				s.log.Warnw("ignoring input", "controller", in.ControllerID, "error", err)
				continue
			}
		}
		byID[in.ControllerID] = in
	}

	var outcomes []action.Outcome
	for _, c := range s.Hands.Controllers() {
		in, ok := byID[c.ID]
		if ok {
			s.Hands.SetPose(c.ID, in.Pose)
		}
		pressed := ok && in.TriggerPressed
		wasPressed := s.pressed[c.ID]
		s.pressed[c.ID] = pressed

		held := s.Hands.HeldBy(c.ID)
		if held == nil && c.Held != entity.NilID {
			// the held entity was destroyed outside the dispatcher
			s.Hands.Invalidate(c.Held)
			s.Dispatcher.OnRelease(c.ID, nil)
		}
		switch {
		case pressed && held == nil && !wasPressed:
			if !s.Hands.TryGrab(c.ID, c.Pose.Position, s.policy.GrabRadius) {
				continue
			}
			if out, fired := s.Dispatcher.OnGrab(c.ID); fired {
				outcomes = append(outcomes, out)
			}
		case pressed && held != nil:
			s.Hands.Track(c.ID)
			if out, fired := s.Dispatcher.Evaluate(c.ID); fired {
				outcomes = append(outcomes, out)
			}
		case !pressed && held != nil:
			s.Hands.Release(c.ID)
			outcomes = append(outcomes, s.Dispatcher.OnRelease(c.ID, held)...)
		}
	}
	return outcomes
}

// Held returns the entity the controller holds, or nil.
func (s *Session) Held(controller string) *entity.Interactable {
	return s.Hands.HeldBy(controller)
}

// State returns the controller's dispatcher state.
func (s *Session) State(controller string) action.State {
	return s.Dispatcher.State(controller)
}
