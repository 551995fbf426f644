package attach

import (
	"errors"
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"xr-trade/internal/entity"
	"xr-trade/internal/geom"
	"xr-trade/internal/logger"
)

var (
	ErrInvalidController = errors.New("attach: controller id must not be empty")
	ErrControllerExists  = errors.New("attach: controller already connected")
	ErrUnknownController = errors.New("attach: unknown controller")
)

// Handedness says which physical hand a controller is.
type Handedness string

const (
	Left  Handedness = "left"
	Right Handedness = "right"
)

// Controller is one tracked hand. Pose is written by the input layer only.
type Controller struct {
	ID   string
	Hand Handedness
	Pose geom.Transform
	// Held is the entity this controller holds, NilID when empty.
	Held entity.ID
}

// Edge is the holds-relation between a controller and an entity.
type Edge struct {
	Controller string
	Entity     entity.ID
	// Offset is the entity's pose in the controller's frame, fixed at grab time.
	Offset geom.Transform
	// Grab numbers grabs across the session; a fresh grab of the same entity gets a new value.
	Grab uint64

	ent *entity.Interactable
}

// Manager maps controllers to the single entity each one holds. Controllers are kept in
// connection order, which is the order a session processes them in.
type Manager struct {
	reg         *entity.Registry
	log         *zap.SugaredLogger
	controllers map[string]*Controller
	order       []*Controller
	edges       map[string]*Edge
	holders     map[entity.ID]string
	grabs       uint64
}

// New returns a Manager resolving grabs against reg.
func New(reg *entity.Registry, log *zap.SugaredLogger) *Manager {
	return &Manager{
		reg:         reg,
		log:         logger.OrNop(log),
		controllers: make(map[string]*Controller),
		edges:       make(map[string]*Edge),
		holders:     make(map[entity.ID]string),
	}
}

// Connect adds a controller at the identity pose.
func (m *Manager) Connect(id string, hand Handedness) (*Controller, error) {
	if id == "" {
		return nil, ErrInvalidController
	}
	if _, ok := m.controllers[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrControllerExists, id)
	}
	c := &Controller{ID: id, Hand: hand, Pose: geom.Identity()}
	m.controllers[id] = c
	m.order = append(m.order, c)
	m.log.Debugw("controller connected", "controller", id, "hand", hand)
	return c, nil
}

// Disconnect releases whatever the controller holds and forgets it.
func (m *Manager) Disconnect(id string) error {
	c, ok := m.controllers[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownController, id)
	}
	m.Release(id)
	delete(m.controllers, id)
	for i, it := range m.order {
		if it == c {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.log.Debugw("controller disconnected", "controller", id)
	return nil
}

// Controller returns the connected controller with the given id.
func (m *Manager) Controller(id string) (*Controller, bool) {
	c, ok := m.controllers[id]
	return c, ok
}

// Controllers returns the connected controllers in connection order.
func (m *Manager) Controllers() []*Controller {
	out := make([]*Controller, len(m.order))
	copy(out, m.order)
	return out
}

// SetPose records the controller's current world pose.
func (m *Manager) SetPose(id string, pose geom.Transform) bool {
	c, ok := m.controllers[id]
	if !ok {
		return false
	}
	c.Pose = pose
	return true
}

// TryGrab attaches the nearest free entity within radius of point to the controller.
// It returns false, changing nothing, when the controller is unknown, already holds
// something, or nothing qualifies.
func (m *Manager) TryGrab(id string, point rl.Vector3, radius float32) bool {
	c, ok := m.controllers[id]
	if !ok || c.Held != entity.NilID {
		return false
	}
	e := m.reg.Nearest(point, radius, entity.Free)
	if e == nil {
		return false
	}
	if !e.TryClaim(id) {
		return false
	}
	m.assertFree(e.ID, id)
	m.grabs++
	m.edges[id] = &Edge{
		Controller: id,
		Entity:     e.ID,
		Offset:     geom.Relative(c.Pose, e.Pose),
		Grab:       m.grabs,
		ent:        e,
	}
	m.holders[e.ID] = id
	c.Held = e.ID
	m.log.Debugw("grab", "controller", id, "entity", e.String())
	return true
}

// assertFree panics if any edge other than holder's already references eid. With claims going
// through TryClaim this cannot happen; reaching it means the edge table is corrupt.
func (m *Manager) assertFree(eid entity.ID, holder string) {
	if other, ok := m.holders[eid]; ok && other != holder {
		m.log.Errorw("exclusive hold violated", "entity", eid, "holder", other, "claimant", holder)
		panic(fmt.Sprintf("attach: entity %d held by %q and %q", eid, other, holder))
	}
}

// Release detaches the held entity, leaving it at its last tracked pose. It returns the entity
// that was released; releasing an empty or unknown controller is a no-op.
func (m *Manager) Release(id string) (entity.ID, bool) {
	c, ok := m.controllers[id]
	if !ok {
		return entity.NilID, false
	}
	edge, ok := m.edges[id]
	if !ok {
		return entity.NilID, false
	}
	m.drop(c, edge)
	m.log.Debugw("release", "controller", id, "entity", edge.ent.String())
	return edge.Entity, true
}

func (m *Manager) drop(c *Controller, edge *Edge) {
	delete(m.edges, c.ID)
	delete(m.holders, edge.Entity)
	c.Held = entity.NilID
	edge.ent.Unclaim(c.ID)
}

// HeldBy returns the live entity the controller holds, or nil.
func (m *Manager) HeldBy(id string) *entity.Interactable {
	edge, ok := m.edges[id]
	if !ok {
		return nil
	}
	e, ok := m.reg.Get(edge.Entity)
	if !ok || !e.Alive {
		return nil
	}
	return e
}

// Edge returns the controller's current attachment.
func (m *Manager) Edge(id string) (Edge, bool) {
	edge, ok := m.edges[id]
	if !ok {
		return Edge{}, false
	}
	return *edge, true
}

// HolderOf returns the controller holding eid.
func (m *Manager) HolderOf(eid entity.ID) (string, bool) {
	id, ok := m.holders[eid]
	return id, ok
}

// Track moves the held entity to follow the controller: controller pose composed with the
// grab offset. An edge whose entity has died is dropped instead.
func (m *Manager) Track(id string) bool {
	c, ok := m.controllers[id]
	if !ok {
		return false
	}
	edge, ok := m.edges[id]
	if !ok {
		return false
	}
	e, ok := m.reg.Get(edge.Entity)
	if !ok || !e.Alive {
		m.Invalidate(edge.Entity)
		return false
	}
	return m.reg.SetPose(e.ID, geom.Compose(c.Pose, edge.Offset))
}

// Invalidate drops the edge pointing at eid, if any. Mutations that destroy a held entity call
// it so the holder goes back to empty-handed. It reports whether an edge was dropped.
func (m *Manager) Invalidate(eid entity.ID) bool {
	id, ok := m.holders[eid]
	if !ok {
		return false
	}
	m.drop(m.controllers[id], m.edges[id])
	m.log.Debugw("edge invalidated", "controller", id, "entity", eid)
	return true
}
