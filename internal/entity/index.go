package entity

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"xr-trade/internal/geom"
)

// Index answers nearest-neighbour queries over registered entities.
// The registry calls Insert, Remove and Moved so an implementation can keep its own
// spatial structure; callers only ever use Nearest.
type Index interface {
	Insert(e *Interactable)
	Remove(e *Interactable)
	Moved(e *Interactable)
	// Nearest returns the closest entity to point within maxRadius (inclusive) that satisfies
	// pred, or nil. Equidistant candidates resolve to the lowest registration order.
	Nearest(point rl.Vector3, maxRadius float32, pred Predicate) *Interactable
}

// LinearIndex scans every entity on each query. Scenes hold tens of entities, so this is
// what the registry uses unless told otherwise.
type LinearIndex struct {
	items []*Interactable
}

// NewLinearIndex returns an empty scan index.
func NewLinearIndex() *LinearIndex {
	return &LinearIndex{}
}

func (x *LinearIndex) Insert(e *Interactable) {
	x.items = append(x.items, e)
}

func (x *LinearIndex) Remove(e *Interactable) {
	for i, it := range x.items {
		if it == e {
			x.items = append(x.items[:i], x.items[i+1:]...)
			return
		}
	}
}

// Moved is a no-op: positions are read live during the scan.
func (x *LinearIndex) Moved(*Interactable) {}

func (x *LinearIndex) Nearest(point rl.Vector3, maxRadius float32, pred Predicate) *Interactable {
	var best *Interactable
	var bestDist float32
	for _, e := range x.items {
		if pred != nil && !pred(e) {
			continue
		}
		d := geom.Distance(point, e.Position())
		if d > maxRadius+geom.Epsilon {
			continue
		}
		switch {
		case best == nil:
		case geom.NearlyEqual(d, bestDist):
			if e.seq >= best.seq {
				continue
			}
		case d > bestDist:
			continue
		}
		best, bestDist = e, d
	}
	return best
}
