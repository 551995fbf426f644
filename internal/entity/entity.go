package entity

import (
	"fmt"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"

	"xr-trade/internal/geom"
)

// ID uniquely identifies an interactable within a registry. Zero is never a valid ID.
type ID uint64

// NilID is the zero value; Register assigns a fresh ID to entities that carry it.
const NilID ID = 0

// Kind is the coarse category an action rule matches on.
type Kind uint8

const (
	KindMaterial Kind = iota + 1
	KindTool
	KindFixture
)

func (k Kind) String() string {
	switch k {
	case KindMaterial:
		return "material"
	case KindTool:
		return "tool"
	case KindFixture:
		return "fixture"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps "material", "tool" or "fixture" (any case) to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "material":
		return KindMaterial, nil
	case "tool":
		return KindTool, nil
	case "fixture":
		return KindFixture, nil
	}
	return 0, fmt.Errorf("unknown kind %q", s)
}

// Interactable is anything the interaction layer can track, grab or mutate.
// Role names what the thing is (plank, saw, hammer, nail, wire) and is what rules match on
// together with Kind. Size is the unscaled box size; Pose.Scale multiplies it.
type Interactable struct {
	ID        ID
	Kind      Kind
	Role      string
	Pose      geom.Transform
	Size      rl.Vector3
	Radius    float32
	Visual    string
	Grabbable bool
	Alive     bool

	// Holder is the controller currently holding this entity, empty when free.
	Holder string

	// Depth is the remaining drivable depth for depletable fixtures; InitialDepth caps it.
	Depth        float32
	InitialDepth float32
	// DriveAxis is the unit direction the entity moves as it is depleted. Zero means -Y.
	DriveAxis rl.Vector3

	seq uint64
}

// Seq is the registration order of the entity. Lower values were registered earlier.
func (e *Interactable) Seq() uint64 {
	return e.seq
}

// Position is shorthand for the entity's world position.
func (e *Interactable) Position() rl.Vector3 {
	return e.Pose.Position
}

// Held reports whether some controller holds the entity.
func (e *Interactable) Held() bool {
	return e.Holder != ""
}

// TryClaim sets Holder to holder if the entity is currently free. It is the compare-and-set
// every grab goes through, so two claims can never both succeed.
func (e *Interactable) TryClaim(holder string) bool {
	if holder == "" || e.Holder != "" {
		return false
	}
	e.Holder = holder
	return true
}

// Unclaim clears Holder if it is holder. It reports whether the claim was cleared.
func (e *Interactable) Unclaim(holder string) bool {
	if e.Holder == "" || e.Holder != holder {
		return false
	}
	e.Holder = ""
	return true
}

// Extent is the world-space box size.
func (e *Interactable) Extent() rl.Vector3 {
	return e.Pose.Extent(e.Size)
}

// Bounds is the entity's world-space axis-aligned box.
func (e *Interactable) Bounds() rl.BoundingBox {
	return geom.Bounds(e.Pose, e.Size)
}

func (e *Interactable) String() string {
	return fmt.Sprintf("%s#%d(%s)", e.Role, e.ID, e.Kind)
}

// Predicate filters candidates in proximity queries.
type Predicate func(e *Interactable) bool

// Free accepts alive, grabbable entities that nobody holds.
func Free(e *Interactable) bool {
	return e.Alive && e.Grabbable && !e.Held()
}

// HasRole returns a predicate matching alive entities of the given kind and role.
// A zero kind or empty role matches any.
func HasRole(kind Kind, role string) Predicate {
	return func(e *Interactable) bool {
		if !e.Alive {
			return false
		}
		if kind != 0 && e.Kind != kind {
			return false
		}
		return role == "" || e.Role == role
	}
}
