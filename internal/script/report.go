package script

import (
	"fmt"
	"io"
	"strings"

	"xr-trade/internal/action"
	"xr-trade/internal/entity"
)

// FormatOutcome renders a fired action as one line.
func FormatOutcome(o action.Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s subject=%d", o.Controller, o.Rule, o.Effect, o.Subject)
	if o.Target != entity.NilID && o.Target != o.Subject {
		fmt.Fprintf(&b, " target=%d", o.Target)
	}
	switch o.Effect {
	case action.EffectSplit:
		fmt.Fprintf(&b, " spawned=%v", o.Spawned)
	case action.EffectDeplete:
		fmt.Fprintf(&b, " remaining=%.3f", o.Remaining)
	case action.EffectToggle:
		fmt.Fprintf(&b, " visual=%s", o.Visual)
	}
	return b.String()
}

// FormatRule renders a rule table entry as one line.
func FormatRule(r action.Rule) string {
	line := fmt.Sprintf("%-22s %-6s %-5s held=%s", r.Name, r.Effect, r.Mode, describe(r.HeldKind, r.HeldRole))
	if r.Mode != action.FireGrab {
		line += " target=" + describe(r.TargetKind, r.TargetRole)
	}
	return line
}

func describe(kind entity.Kind, role string) string {
	switch {
	case role != "":
		return role
	case kind == 0:
		return "any"
	}
	return kind.String()
}

// Dump writes one line per registered entity in registration order.
func Dump(w io.Writer, reg *entity.Registry) {
	for _, e := range reg.All() {
		p := e.Position()
		fmt.Fprintf(w, "%-16s pos=(%.3f, %.3f, %.3f) size=(%.3f, %.3f, %.3f)",
			e.String(), p.X, p.Y, p.Z, e.Size.X, e.Size.Y, e.Size.Z)
		if e.Visual != "" {
			fmt.Fprintf(w, " visual=%s", e.Visual)
		}
		if e.InitialDepth > 0 {
			fmt.Fprintf(w, " depth=%.3f", e.Depth)
		}
		if e.Holder != "" {
			fmt.Fprintf(w, " held-by=%s", e.Holder)
		}
		fmt.Fprintln(w)
	}
}
