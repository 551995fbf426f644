package script

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"strconv"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"xr-trade/internal/action"
	"xr-trade/internal/attach"
	"xr-trade/internal/commands"
	"xr-trade/internal/entity"
	"xr-trade/internal/geom"
	"xr-trade/internal/interact"
	"xr-trade/internal/logger"
)

// ErrExpectation is returned when an expect line does not hold.
var ErrExpectation = errors.New("expectation failed")

// Runner drives a session from a line-oriented script:
//
//	connect [-hand left|right] ID
//	pose ID X Y Z
//	move ID DX DY DZ
//	rotate ID PITCH YAW ROLL   (degrees)
//	press ID / release ID
//	tick [N]
//	expect [-count N] [-visual TAG] [-depth D] [-holder ID] ROLE
//	dump / rules / help
//
// Controller state set by pose, press and friends persists until changed, so a script reads
// like someone holding a controller still between ticks.
type Runner struct {
	sess *interact.Session
	cmds *commands.Registry
	out  io.Writer
	log  *zap.SugaredLogger

	inputs   map[string]*interact.Input
	order    []string
	outcomes []action.Outcome
}

// New returns a runner feeding sess. Fired actions and dumps are written to out.
func New(sess *interact.Session, out io.Writer, log *zap.SugaredLogger) *Runner {
	if out == nil {
		out = io.Discard
	}
	r := &Runner{
		sess:   sess,
		cmds:   commands.NewRegistry(),
		out:    out,
		log:    logger.OrNop(log),
		inputs: make(map[string]*interact.Input),
	}
	r.register()
	return r
}

// Outcomes returns every action fired so far.
func (r *Runner) Outcomes() []action.Outcome {
	return r.outcomes
}

// Inputs returns the current scripted controller state in connection order.
func (r *Runner) Inputs() []interact.Input {
	out := make([]interact.Input, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.inputs[id])
	}
	return out
}

// Seed overwrites the scripted state of the controllers in ins, connecting order included, so
// lines run against a session someone else has been driving pick up where it left off.
func (r *Runner) Seed(ins []interact.Input) {
	for _, in := range ins {
		*r.input(in.ControllerID) = in
	}
}

// Run executes src line by line. It stops at the first failing line or when ctx is done.
func (r *Runner) Run(ctx context.Context, src io.Reader) error {
	scanner := bufio.NewScanner(src)
	n := 0
	for scanner.Scan() {
		n++
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.Exec(scanner.Text()); err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
	}
	return scanner.Err()
}

// Exec runs a single script line. Blank and comment lines do nothing.
func (r *Runner) Exec(line string) error {
	args := commands.Fields(line)
	if args == nil {
		return nil
	}
	r.log.Debugw("script", "line", line)
	return r.cmds.Execute(args)
}

// Step runs one session tick with the current scripted inputs.
func (r *Runner) Step() []action.Outcome {
	outs := r.sess.Tick(r.Inputs())
	for _, o := range outs {
		fmt.Fprintf(r.out, "tick %d: %s\n", r.sess.Ticks(), FormatOutcome(o))
	}
	r.outcomes = append(r.outcomes, outs...)
	return outs
}

func (r *Runner) register() {
	{
		fs := flag.NewFlagSet("connect", flag.ContinueOnError)
		hand := fs.String("hand", string(attach.Right), "left or right")
		r.cmds.Register("connect", "[-hand left|right] ID", fs, func() error {
			id, err := arg(fs, 0)
			if err != nil {
				return err
			}
			if err := r.sess.Connect(id, attach.Handedness(*hand)); err != nil {
				return err
			}
			r.input(id).Hand = attach.Handedness(*hand)
			return nil
		})
	}
	{
		fs := flag.NewFlagSet("pose", flag.ContinueOnError)
		r.cmds.Register("pose", "ID X Y Z", fs, func() error {
			in, v, err := r.vectorArgs(fs)
			if err != nil {
				return err
			}
			in.Pose.Position = v
			return nil
		})
	}
	{
		fs := flag.NewFlagSet("move", flag.ContinueOnError)
		r.cmds.Register("move", "ID DX DY DZ", fs, func() error {
			in, v, err := r.vectorArgs(fs)
			if err != nil {
				return err
			}
			in.Pose.Position = rl.Vector3Add(in.Pose.Position, v)
			return nil
		})
	}
	{
		fs := flag.NewFlagSet("rotate", flag.ContinueOnError)
		r.cmds.Register("rotate", "ID PITCH YAW ROLL", fs, func() error {
			in, v, err := r.vectorArgs(fs)
			if err != nil {
				return err
			}
			deg := float32(math.Pi / 180)
			in.Pose = in.Pose.WithEuler(v.X*deg, v.Y*deg, v.Z*deg)
			return nil
		})
	}
	for name, pressed := range map[string]bool{"press": true, "release": false} {
		fs := flag.NewFlagSet(name, flag.ContinueOnError)
		r.cmds.Register(name, "ID", fs, func() error {
			id, err := arg(fs, 0)
			if err != nil {
				return err
			}
			r.input(id).TriggerPressed = pressed
			return nil
		})
	}
	{
		fs := flag.NewFlagSet("tick", flag.ContinueOnError)
		r.cmds.Register("tick", "[N]", fs, func() error {
			n := 1
			if fs.NArg() > 0 {
				v, err := strconv.Atoi(fs.Arg(0))
				if err != nil || v < 1 {
					return fmt.Errorf("tick: bad count %q", fs.Arg(0))
				}
				n = v
			}
			for range n {
				r.Step()
			}
			return nil
		})
	}
	{
		fs := flag.NewFlagSet("expect", flag.ContinueOnError)
		count := fs.Int("count", -1, "number of live entities with the role")
		visual := fs.String("visual", "", "visual tag of the first entity with the role")
		depth := fs.String("depth", "", "remaining depth of the first entity with the role")
		holder := fs.String("holder", "", "controller holding the first entity with the role; - for none")
		r.cmds.Register("expect", "[-count N] [-visual TAG] [-depth D] [-holder ID|-] ROLE", fs, func() error {
			role, err := arg(fs, 0)
			if err != nil {
				return err
			}
			return r.expect(role, *count, *visual, *depth, *holder)
		})
	}
	{
		fs := flag.NewFlagSet("help", flag.ContinueOnError)
		r.cmds.Register("help", "", fs, func() error {
			_, err := io.WriteString(r.out, r.cmds.Usage())
			return err
		})
	}
	{
		fs := flag.NewFlagSet("rules", flag.ContinueOnError)
		r.cmds.Register("rules", "", fs, func() error {
			for _, rule := range r.sess.Dispatcher.Rules() {
				fmt.Fprintln(r.out, FormatRule(rule))
			}
			return nil
		})
	}
	{
		fs := flag.NewFlagSet("dump", flag.ContinueOnError)
		r.cmds.Register("dump", "", fs, func() error {
			Dump(r.out, r.sess.Registry)
			return nil
		})
	}
}

// input returns the scripted state for id, creating it at the identity pose.
func (r *Runner) input(id string) *interact.Input {
	in, ok := r.inputs[id]
	if !ok {
		in = &interact.Input{ControllerID: id, Hand: attach.Right, Pose: geom.Identity()}
		r.inputs[id] = in
		r.order = append(r.order, id)
	}
	return in
}

func (r *Runner) vectorArgs(fs *flag.FlagSet) (*interact.Input, rl.Vector3, error) {
	if fs.NArg() != 4 {
		return nil, rl.Vector3{}, fmt.Errorf("%s: want ID and three numbers", fs.Name())
	}
	var xyz [3]float32
	for i := range xyz {
		v, err := strconv.ParseFloat(fs.Arg(i+1), 32)
		if err != nil {
			return nil, rl.Vector3{}, fmt.Errorf("%s: %w", fs.Name(), err)
		}
		xyz[i] = float32(v)
	}
	return r.input(fs.Arg(0)), rl.NewVector3(xyz[0], xyz[1], xyz[2]), nil
}

func (r *Runner) expect(role string, count int, visual, depth, holder string) error {
	var live []*entity.Interactable
	for _, e := range r.sess.Registry.FindRole(0, role) {
		if e.Alive {
			live = append(live, e)
		}
	}
	if count >= 0 && len(live) != count {
		return fmt.Errorf("%w: %d %s, want %d", ErrExpectation, len(live), role, count)
	}
	if visual == "" && depth == "" && holder == "" {
		return nil
	}
	if len(live) == 0 {
		return fmt.Errorf("%w: no %s", ErrExpectation, role)
	}
	e := live[0]
	if visual != "" && e.Visual != visual {
		return fmt.Errorf("%w: %s is %q, want %q", ErrExpectation, e, e.Visual, visual)
	}
	if depth != "" {
		want, err := strconv.ParseFloat(depth, 32)
		if err != nil {
			return fmt.Errorf("expect: bad depth %q", depth)
		}
		if !geom.NearlyEqual(e.Depth, float32(want)) {
			return fmt.Errorf("%w: %s depth %v, want %v", ErrExpectation, e, e.Depth, want)
		}
	}
	if holder != "" {
		got := e.Holder
		if got == "" {
			got = "-"
		}
		if got != holder {
			return fmt.Errorf("%w: %s held by %s, want %s", ErrExpectation, e, got, holder)
		}
	}
	return nil
}

func arg(fs *flag.FlagSet, i int) (string, error) {
	if fs.NArg() <= i {
		return "", fmt.Errorf("%s: missing argument", fs.Name())
	}
	return fs.Arg(i), nil
}
