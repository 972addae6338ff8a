package setback

import "fmt"

// DefaultMinDistance is the default minimum setback clearance, in the same
// linear unit as the drawing's coordinates. Configuration may override it
// per deployment and callers may override it per call.
const DefaultMinDistance = 10.0

// NonCompliantMessage is returned when no building-boundary pair clears the
// minimum setback distance, including when either group is empty.
const NonCompliantMessage = "no building maintains the minimum setback distance from a property boundary"

// Verdict is the outcome of a compliance evaluation.
type Verdict struct {
	Compliant bool   `json:"compliant"`
	Message   string `json:"message"`
}

// Evaluate checks building-boundary clearances against minDistance and
// returns a verdict on the first pair that meets it, quoting that pair's
// distance. Pairs are visited with buildings as the outer loop and
// boundaries as the inner loop, both in the given order.
//
// The policy is deliberately existential: one qualifying pair certifies the
// drawing, even if other pairs encroach. Callers relying on the verdict
// must not assume every pair was checked.
//
// A NaN distance (from unvalidated input) compares false against any
// threshold and therefore folds into the non-compliant verdict; run
// ValidateEntities first to surface malformed entities as errors instead.
func Evaluate(buildings, boundaries []Entity, minDistance float64) Verdict {
	for _, building := range buildings {
		for _, boundary := range boundaries {
			c := Clearance{
				Building: building,
				Boundary: boundary,
				Distance: Distance(building, boundary),
			}
			if c.Distance >= minDistance {
				return Verdict{
					Compliant: true,
					Message: fmt.Sprintf("setback distance of %.2f meets the minimum requirement of %.2f",
						c.Distance, minDistance),
				}
			}
		}
	}
	return Verdict{Compliant: false, Message: NonCompliantMessage}
}

// EvaluateSetback classifies the entities and evaluates compliance in one
// call. This is the single operation the service layer consumes.
func EvaluateSetback(entities []Entity, minDistance float64) Verdict {
	buildings, boundaries := Classify(entities)
	return Evaluate(buildings, boundaries, minDistance)
}
