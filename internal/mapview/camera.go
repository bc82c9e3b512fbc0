package mapview

import (
	"math"

	"tgstorefront/internal/domain"
	"tgstorefront/internal/geo"
)

// Zoom levels by view intent
const (
	ZoomSelected = 14
	ZoomHint     = 12
	ZoomOverview = 10
)

// centerEpsilon is the smallest center change, in degrees, worth a camera move
const centerEpsilon = 1e-6

// Intent is where the camera should be for the current view state
type Intent struct {
	Center geo.Coordinate
	Zoom   int
	// Explicit is false when neither a selection nor a hint is present
	Explicit bool
}

// DesiredView derives the camera intent: a selected point wins over a
// coordinate hint, and with neither the default city overview is returned
// as a non-explicit intent.
func DesiredView(v ViewState, lookup func(id string) (domain.PickupPoint, bool)) Intent {
	if v.PointID != "" && lookup != nil {
		if p, ok := lookup(v.PointID); ok {
			return Intent{
				Center:   geo.Coordinate{Lat: p.Lat, Lon: p.Lon},
				Zoom:     ZoomSelected,
				Explicit: true,
			}
		}
	}

	if v.Hint != nil {
		return Intent{Center: *v.Hint, Zoom: ZoomHint, Explicit: true}
	}

	return Intent{Center: geo.Moscow, Zoom: ZoomOverview}
}

// Move is a planned camera change
type Move struct {
	Center geo.Coordinate
	Zoom   int
	Needed bool
}

// PlanCamera decides whether and where to move the camera.
// The camera never zooms out and holds still without an explicit intent.
func PlanCamera(current geo.Coordinate, currentZoom int, intent Intent) Move {
	if !intent.Explicit {
		return Move{Center: current, Zoom: currentZoom}
	}

	zoom := currentZoom
	if intent.Zoom > zoom {
		zoom = intent.Zoom
	}

	moved := math.Abs(intent.Center.Lat-current.Lat) > centerEpsilon ||
		math.Abs(intent.Center.Lon-current.Lon) > centerEpsilon

	if !moved && zoom == currentZoom {
		return Move{Center: current, Zoom: currentZoom}
	}

	return Move{Center: intent.Center, Zoom: zoom, Needed: true}
}
