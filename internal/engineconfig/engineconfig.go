package engineconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PolicyPath is the default interaction policy file, relative to the process working directory.
const PolicyPath = "config/interaction.yaml"

// Fire modes accepted by the *_mode fields.
const (
	ModeLevel = "level" // fires every tick the condition holds
	ModeEdge  = "edge"  // fires once each time the condition becomes true
	ModeGrab  = "grab"  // fires once when the entity is grabbed
)

// Policy holds the numeric interaction constants injected into a session. Nothing here is
// per-scene; the same policy drives every workshop layout.
type Policy struct {
	GrabRadius   float32 `yaml:"grab_radius"`
	CutRadius    float32 `yaml:"cut_radius"`
	HammerRadius float32 `yaml:"hammer_radius"`
	DepleteStep  float32 `yaml:"deplete_step"`
	SplitRatio   float32 `yaml:"split_ratio"`
	// Kerf is the gap a cut leaves between the two offcuts.
	Kerf float32 `yaml:"kerf"`

	DepleteMode  string `yaml:"deplete_mode"`
	EnergizeMode string `yaml:"energize_mode"`

	EnergizedState string `yaml:"energized_state"`
	NeutralState   string `yaml:"neutral_state"`
}

// Default returns the policy the stock workshop layout is tuned for.
func Default() Policy {
	return Policy{
		GrabRadius:     0.3,
		CutRadius:      0.3,
		HammerRadius:   0.15,
		DepleteStep:    0.05,
		SplitRatio:     0.5,
		Kerf:           0.05,
		DepleteMode:    ModeLevel,
		EnergizeMode:   ModeGrab,
		EnergizedState: "energized",
		NeutralState:   "neutral",
	}
}

// Validate reports every field that cannot drive a session, joined into one error.
func (p Policy) Validate() error {
	var errs []error
	positive := map[string]float32{
		"grab_radius":   p.GrabRadius,
		"cut_radius":    p.CutRadius,
		"hammer_radius": p.HammerRadius,
		"deplete_step":  p.DepleteStep,
	}
	for _, name := range []string{"grab_radius", "cut_radius", "hammer_radius", "deplete_step"} {
		if positive[name] <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", name, positive[name]))
		}
	}
	if p.SplitRatio <= 0 || p.SplitRatio >= 1 {
		errs = append(errs, fmt.Errorf("split_ratio must be in (0,1), got %v", p.SplitRatio))
	}
	if p.Kerf < 0 {
		errs = append(errs, fmt.Errorf("kerf must not be negative, got %v", p.Kerf))
	}
	if p.DepleteMode != ModeLevel && p.DepleteMode != ModeEdge {
		errs = append(errs, fmt.Errorf("deplete_mode: want %q or %q, got %q", ModeLevel, ModeEdge, p.DepleteMode))
	}
	if !validMode(p.EnergizeMode) {
		errs = append(errs, fmt.Errorf("energize_mode: unknown mode %q", p.EnergizeMode))
	}
	if p.EnergizedState == "" || p.NeutralState == "" || p.EnergizedState == p.NeutralState {
		errs = append(errs, fmt.Errorf("energized_state and neutral_state must be distinct and non-empty"))
	}
	return errors.Join(errs...)
}

func validMode(m string) bool {
	return m == ModeLevel || m == ModeEdge || m == ModeGrab
}

// Load reads a policy from path. Fields the file leaves out keep their Default values.
// A missing file returns Default() and no error; a malformed or invalid one is an error.
func Load(path string) (Policy, error) {
	p := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, err
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Save writes the policy to path, creating the directory if needed.
func Save(path string, p Policy) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
