package workshop

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"

	"xr-trade/internal/entity"
	"xr-trade/internal/geom"
)

// LayoutPath is where the trainer looks for a layout when none is given.
const LayoutPath = "config/workshop.yaml"

//go:embed default.yaml
var defaultLayout []byte

// EntityDef is the YAML definition of one interactable in a layout (e.g. config/workshop.yaml).
// Rotation is pitch, yaw, roll in degrees.
type EntityDef struct {
	Name      string     `yaml:"name,omitempty"`
	Kind      string     `yaml:"kind"`
	Role      string     `yaml:"role"`
	Size      [3]float32 `yaml:"size"`
	Position  [3]float32 `yaml:"position"`
	Rotation  [3]float32 `yaml:"rotation,omitempty"`
	Visual    string     `yaml:"visual,omitempty"`
	Grabbable bool       `yaml:"grabbable,omitempty"`
	Depth     float32    `yaml:"depth,omitempty"`
	DriveAxis [3]float32 `yaml:"drive_axis,omitempty"`
}

// Layout is a workshop: the interactables a session starts with and the colors visual tags
// are drawn in.
type Layout struct {
	Name     string            `yaml:"name"`
	Colors   map[string]string `yaml:"colors,omitempty"`
	Entities []EntityDef       `yaml:"entities"`
}

// Default returns the built-in layout: a cutting, a nailing and a wiring station side by side.
func Default() Layout {
	l, err := Parse(defaultLayout)
	if err != nil {
		panic(fmt.Sprintf("workshop: built-in layout: %v", err))
	}
	return l
}

// Load reads a layout from path. A missing file yields the built-in layout.
func Load(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Layout{}, err
	}
	l, err := Parse(data)
	if err != nil {
		return Layout{}, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// Parse decodes and validates a YAML layout.
func Parse(data []byte) (Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Layout{}, err
	}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// Validate checks every entity definition and color.
func (l Layout) Validate() error {
	var errs []error
	for i, d := range l.Entities {
		if err := d.validate(); err != nil {
			errs = append(errs, fmt.Errorf("entity %d (%s): %w", i, d.label(), err))
		}
	}
	for tag, c := range l.Colors {
		if _, err := ParseColor(c); err != nil {
			errs = append(errs, fmt.Errorf("color %s: %w", tag, err))
		}
	}
	return errors.Join(errs...)
}

func (d EntityDef) label() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Role
}

func (d EntityDef) validate() error {
	if _, err := entity.ParseKind(d.Kind); err != nil {
		return err
	}
	if d.Role == "" {
		return errors.New("missing role")
	}
	for _, s := range d.Size {
		if s <= 0 {
			return fmt.Errorf("size %v must be positive", d.Size)
		}
	}
	if d.Depth < 0 {
		return fmt.Errorf("negative depth %v", d.Depth)
	}
	return nil
}

// Interactable builds the entity described by d. The result is not registered.
func (d EntityDef) Interactable() (*entity.Interactable, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	kind, _ := entity.ParseKind(d.Kind)
	deg := float32(math.Pi / 180)
	pose := geom.At(d.Position[0], d.Position[1], d.Position[2]).
		WithEuler(d.Rotation[0]*deg, d.Rotation[1]*deg, d.Rotation[2]*deg)
	size := rl.NewVector3(d.Size[0], d.Size[1], d.Size[2])
	return &entity.Interactable{
		Kind:         kind,
		Role:         d.Role,
		Pose:         pose,
		Size:         size,
		Radius:       rl.Vector3Length(size) / 2,
		Visual:       d.Visual,
		Grabbable:    d.Grabbable,
		Depth:        d.Depth,
		InitialDepth: d.Depth,
		DriveAxis:    rl.NewVector3(d.DriveAxis[0], d.DriveAxis[1], d.DriveAxis[2]),
	}, nil
}

// Spawn registers every entity of the layout in reg, in file order.
func (l Layout) Spawn(reg *entity.Registry) ([]*entity.Interactable, error) {
	out := make([]*entity.Interactable, 0, len(l.Entities))
	for i, d := range l.Entities {
		e, err := d.Interactable()
		if err != nil {
			return out, fmt.Errorf("entity %d (%s): %w", i, d.label(), err)
		}
		if err := reg.Register(e); err != nil {
			return out, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Color returns the draw color for a visual tag, falling back to fallback when the layout has
// none.
func (l Layout) Color(tag string, fallback rl.Color) rl.Color {
	c, ok := l.Colors[tag]
	if !ok {
		return fallback
	}
	col, err := ParseColor(c)
	if err != nil {
		return fallback
	}
	return col
}

// ParseColor parses "#rrggbb" or "#rrggbbaa".
func ParseColor(s string) (rl.Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return rl.Color{}, fmt.Errorf("bad color %q", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return rl.Color{}, fmt.Errorf("bad color %q", s)
	}
	return rl.NewColor(uint8(v>>24), uint8(v>>16), uint8(v>>8), uint8(v)), nil
}
