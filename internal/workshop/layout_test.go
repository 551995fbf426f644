package workshop

import (
	"os"
	"path/filepath"
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xr-trade/internal/entity"
	"xr-trade/internal/geom"
)

func TestDefaultLayout(t *testing.T) {
	l := Default()
	require.Len(t, l.Entities, 5)

	reg := entity.NewRegistry()
	spawned, err := l.Spawn(reg)
	require.NoError(t, err)
	require.Len(t, spawned, 5)
	assert.Equal(t, 5, reg.Len())

	plank := reg.FindRole(entity.KindMaterial, "plank")
	require.Len(t, plank, 1)
	assert.Equal(t, rl.NewVector3(1.5, 0.1, 0.3), plank[0].Size)
	assert.InDelta(t, 0.05, plank[0].Position().Y, 1e-6)
	assert.True(t, plank[0].Grabbable)

	nail := reg.FindRole(entity.KindFixture, "nail")
	require.Len(t, nail, 1)
	assert.InDelta(t, 0.2, nail[0].Depth, 1e-6)
	assert.Equal(t, nail[0].Depth, nail[0].InitialDepth)
	assert.False(t, nail[0].Grabbable)

	wire := reg.FindRole(entity.KindTool, "wire")
	require.Len(t, wire, 1)
	assert.Equal(t, "neutral", wire[0].Visual)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed", "entities: [oops"},
		{"unknown kind", "entities:\n  - kind: gadget\n    role: x\n    size: [1, 1, 1]\n"},
		{"missing role", "entities:\n  - kind: tool\n    size: [1, 1, 1]\n"},
		{"zero size", "entities:\n  - kind: tool\n    role: saw\n    size: [1, 0, 1]\n"},
		{"negative depth", "entities:\n  - kind: fixture\n    role: nail\n    size: [1, 1, 1]\n    depth: -1\n"},
		{"bad color", "colors:\n  wood: brown\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	l, err := Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), l)

	path := filepath.Join(dir, "bench.yaml")
	data := []byte(`name: bench
entities:
  - kind: material
    role: plank
    size: [1, 0.1, 0.2]
    position: [0, 1, 0]
    rotation: [0, 90, 0]
    grabbable: true
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	l, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bench", l.Name)

	e, err := l.Entities[0].Interactable()
	require.NoError(t, err)
	// yawed a quarter turn, so the long side runs along -Z
	long := e.Pose.Axis(geom.LongAxis(e.Extent()))
	assert.InDelta(t, 0, long.X, 1e-5)
	assert.InDelta(t, -1, long.Z, 1e-5)
}

func TestColors(t *testing.T) {
	c, err := ParseColor("#8b5a2b")
	require.NoError(t, err)
	assert.Equal(t, rl.NewColor(0x8b, 0x5a, 0x2b, 0xff), c)

	c, err = ParseColor("ff000080")
	require.NoError(t, err)
	assert.Equal(t, rl.NewColor(255, 0, 0, 128), c)

	l := Default()
	assert.Equal(t, rl.NewColor(0xff, 0xd4, 0x00, 0xff), l.Color("energized", rl.Pink))
	assert.Equal(t, rl.Pink, l.Color("unknown", rl.Pink))
}
