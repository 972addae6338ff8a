// Package setback implements the geometric compliance checker: it
// classifies drawing entities into buildings and property boundaries and
// evaluates whether building footprints keep the required clearance from
// the boundaries.
package setback

import (
	"math"

	"github.com/plancheck/plancheck/internal/errors"
)

// Recognized layer labels in the source drawing. Matching is exact and
// case-sensitive.
const (
	LayerNameBuilding = "BUILDING"
	LayerNameBoundary = "BOUNDARY"
)

// Layer discriminates the semantic group of an entity.
type Layer int

const (
	// LayerOther marks entities on layers the checker ignores.
	LayerOther Layer = iota
	LayerBuilding
	LayerBoundary
)

// ParseLayer maps a raw layer label to its semantic group. Labels that are
// not an exact match for a recognized name map to LayerOther.
func ParseLayer(label string) Layer {
	switch label {
	case LayerNameBuilding:
		return LayerBuilding
	case LayerNameBoundary:
		return LayerBoundary
	default:
		return LayerOther
	}
}

// String returns the canonical label for the layer.
func (l Layer) String() string {
	switch l {
	case LayerBuilding:
		return LayerNameBuilding
	case LayerBoundary:
		return LayerNameBoundary
	default:
		return "OTHER"
	}
}

// Entity is a drawing primitive reduced to its axis-aligned bounding
// footprint: a center position and extents, tagged with a layer. Entities
// are immutable once produced by the parser.
type Entity struct {
	Layer  Layer   `json:"layer"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Validate checks that the entity's numeric fields are usable for distance
// computation. Zero extents are valid (the entity is a point); NaN or
// infinite values and negative extents are not.
func (e Entity) Validate() error {
	for _, v := range []float64{e.X, e.Y, e.Width, e.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Newf("entity on layer %s has non-finite geometry", e.Layer).
				Category(errors.CategoryValidation).
				Component("setback").
				Context("layer", e.Layer.String()).
				Build()
		}
	}
	if e.Width < 0 || e.Height < 0 {
		return errors.Newf("entity on layer %s has negative extents", e.Layer).
			Category(errors.CategoryValidation).
			Component("setback").
			Context("layer", e.Layer.String()).
			Context("width", e.Width).
			Context("height", e.Height).
			Build()
	}
	return nil
}

// ValidateEntities validates every entity in the slice, returning the first
// failure. The evaluator itself does not validate; callers that want to
// distinguish malformed input from a genuine non-compliant result run this
// first.
func ValidateEntities(entities []Entity) error {
	for i := range entities {
		if err := entities[i].Validate(); err != nil {
			return errors.New(err).
				Category(errors.CategoryValidation).
				Component("setback").
				Context("entity_index", i).
				Build()
		}
	}
	return nil
}

// Classify partitions entities into buildings and boundaries, preserving
// input order. Entities on any other layer are dropped. It never fails:
// empty input yields two empty groups.
func Classify(entities []Entity) (buildings, boundaries []Entity) {
	for _, e := range entities {
		switch e.Layer {
		case LayerBuilding:
			buildings = append(buildings, e)
		case LayerBoundary:
			boundaries = append(boundaries, e)
		}
	}
	return buildings, boundaries
}
