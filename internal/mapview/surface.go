package mapview

import (
	"context"
	"errors"
	"net/url"
	"time"

	"tgstorefront/internal/domain"
	"tgstorefront/internal/geo"
)

// Library loads the map library (and its clustering plugin) and creates a
// map instance. NewMap may take a while and must honour ctx.
type Library interface {
	NewMap(ctx context.Context, center geo.Coordinate, zoom int) (Map, error)
}

// Map is a live map instance. Any method may fail or panic when the
// underlying library is in a bad state; the controller guards every call.
type Map interface {
	Center() geo.Coordinate
	Zoom() int
	SetView(center geo.Coordinate, zoom int)
	PanTo(center geo.Coordinate)

	// NewMarker creates a pickup-point marker. It is not shown until it is
	// added to a cluster group. onClick may be called from any goroutine.
	NewMarker(p domain.PickupPoint, onClick func()) (Marker, error)
	NewClusterGroup() (ClusterGroup, error)
	// NewPin shows a plain marker at a searched address
	NewPin(at geo.Coordinate) (Layer, error)
	NewLocationMarker(at geo.Coordinate) (Layer, error)
	NewAccuracyCircle(at geo.Coordinate, radiusM float64) (AccuracyCircle, error)

	Remove() error
}

// Marker is a pickup-point marker
type Marker interface {
	SetSelected(selected bool) error
	Remove() error
}

// ClusterGroup aggregates markers into count badges
type ClusterGroup interface {
	Clear()
	Add(markers []Marker)
	Remove() error
}

// LayerRevealer is implemented by cluster groups that can zoom or spiderfy
// until a marker is individually visible
type LayerRevealer interface {
	RevealLayer(m Marker) error
}

// Layer is a movable overlay
type Layer interface {
	SetPosition(at geo.Coordinate)
	Remove() error
}

// AccuracyCircle is the radius overlay around the user's position
type AccuracyCircle interface {
	Layer
	SetRadius(radiusM float64)
}

// Fix is a single geolocation reading
type Fix struct {
	Coordinate geo.Coordinate
	AccuracyM  float64
}

// WatchOptions mirror the browser geolocation watch options
type WatchOptions struct {
	HighAccuracy bool
	MaximumAge   time.Duration
}

// WatchID identifies a running position watch
type WatchID int64

var (
	ErrPermissionDenied       = errors.New("geolocation permission denied")
	ErrPositionUnavailable    = errors.New("position unavailable")
	ErrGeolocationUnsupported = errors.New("geolocation is not supported")
)

// Geolocator delivers continuous position updates.
// Callbacks must not be invoked synchronously from WatchPosition.
type Geolocator interface {
	WatchPosition(opts WatchOptions, onFix func(Fix), onError func(error)) (WatchID, error)
	ClearWatch(id WatchID)
}

// Navigator writes the page query without adding a history entry
type Navigator interface {
	Replace(query url.Values)
}
