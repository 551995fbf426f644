package entity

import (
	"errors"
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"xr-trade/internal/geom"
)

var (
	ErrNilEntity   = errors.New("entity: nil entity")
	ErrDuplicateID = errors.New("entity: duplicate id")
)

// Registry owns every interactable in a session. Order is preserved: All and FindRole return
// entities in registration order, which is also the proximity tie-break order.
type Registry struct {
	byID    map[ID]*Interactable
	order   []*Interactable
	index   Index
	nextID  ID
	nextSeq uint64
}

// NewRegistry returns an empty registry backed by a LinearIndex.
func NewRegistry() *Registry {
	return NewRegistryWithIndex(NewLinearIndex())
}

// NewRegistryWithIndex returns an empty registry that answers Nearest through idx.
func NewRegistryWithIndex(idx Index) *Registry {
	return &Registry{
		byID:   make(map[ID]*Interactable),
		index:  idx,
		nextID: 1,
	}
}

// Register adds e and marks it alive. An entity with NilID is assigned the next free ID.
func (r *Registry) Register(e *Interactable) error {
	if e == nil {
		return ErrNilEntity
	}
	if e.ID == NilID {
		e.ID = r.nextID
	}
	if _, ok := r.byID[e.ID]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateID, e.ID)
	}
	if e.ID >= r.nextID {
		r.nextID = e.ID + 1
	}
	r.nextSeq++
	e.seq = r.nextSeq
	e.Alive = true
	r.byID[e.ID] = e
	r.order = append(r.order, e)
	r.index.Insert(e)
	return nil
}

// Unregister removes the entity and marks it not alive. It reports whether id was present.
func (r *Registry) Unregister(id ID) bool {
	e, ok := r.byID[id]
	if !ok {
		return false
	}
	e.Alive = false
	delete(r.byID, id)
	for i, it := range r.order {
		if it == e {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.index.Remove(e)
	return true
}

// Get returns the registered entity with the given id.
func (r *Registry) Get(id ID) (*Interactable, bool) {
	e, ok := r.byID[id]
	return e, ok
}

// Len returns the number of registered entities.
func (r *Registry) Len() int {
	return len(r.order)
}

// All returns the registered entities in registration order.
func (r *Registry) All() []*Interactable {
	out := make([]*Interactable, len(r.order))
	copy(out, r.order)
	return out
}

// FindRole returns the registered entities of the given kind and role in registration order.
// A zero kind or empty role matches any.
func (r *Registry) FindRole(kind Kind, role string) []*Interactable {
	match := HasRole(kind, role)
	var out []*Interactable
	for _, e := range r.order {
		if match(e) {
			out = append(out, e)
		}
	}
	return out
}

// SetPose moves a registered entity and tells the index about it.
func (r *Registry) SetPose(id ID, pose geom.Transform) bool {
	e, ok := r.byID[id]
	if !ok {
		return false
	}
	e.Pose = pose
	r.index.Moved(e)
	return true
}

// Nearest returns the closest registered entity to point within maxRadius that satisfies
// pred, or nil.
func (r *Registry) Nearest(point rl.Vector3, maxRadius float32, pred Predicate) *Interactable {
	return r.index.Nearest(point, maxRadius, pred)
}
