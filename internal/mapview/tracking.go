package mapview

import (
	"errors"
	"time"

	"tgstorefront/internal/geo"

	"go.uber.org/zap"
)

const (
	// JitterThresholdM is the minimum movement before the user location is updated
	JitterThresholdM = 30.0
	trackingMaxAge   = 10 * time.Second
)

// Messages shown when a position watch fails
const (
	MsgGeoUnsupported = "Geolocation is not supported on this device"
	MsgGeoDenied      = "Location access denied. Allow it in the app settings to see nearby points"
	MsgGeoUnavailable = "Unable to determine your location"
)

type tracker struct {
	active   bool
	gen      uint64
	watchID  WatchID
	hasWatch bool

	marker Layer
	circle AccuracyCircle

	lastFix  *geo.Coordinate
	centered bool
}

// StartTracking begins following the user's position on the map. The first
// fix recenters the map, later fixes pan. Selected-point panning is
// suspended while tracking is active.
func (c *Controller) StartTracking() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.unmounted {
		return ErrUnmounted
	}
	if c.track.active {
		return nil
	}

	if c.locator == nil {
		c.geoErr = MsgGeoUnsupported
		return ErrGeolocationUnsupported
	}

	c.geoErr = ""
	c.track.gen++
	gen := c.track.gen

	id, err := c.locator.WatchPosition(
		WatchOptions{HighAccuracy: true, MaximumAge: trackingMaxAge},
		func(fix Fix) { c.onFix(gen, fix) },
		func(err error) { c.onGeoError(gen, err) },
	)
	if err != nil {
		c.geoErr = geoMessage(err)
		return err
	}

	c.track.active = true
	c.track.watchID = id
	c.track.hasWatch = true
	c.track.centered = false

	c.logger.Debug("Tracking started", zap.Int64("watch_id", int64(id)))
	return nil
}

// StopTracking returns to idle and removes the position overlays.
// The camera then follows the view state again.
func (c *Controller) StopTracking() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.track.active {
		return
	}
	c.stopTrackingLocked()
	c.applyCameraLocked()
}

// ToggleTracking starts tracking when idle and stops it otherwise
func (c *Controller) ToggleTracking() error {
	c.mu.Lock()
	active := c.track.active
	c.mu.Unlock()

	if active {
		c.StopTracking()
		return nil
	}
	return c.StartTracking()
}

// Tracking reports whether a position watch is active
func (c *Controller) Tracking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.track.active
}

// UserLocation returns the last accepted user position
func (c *Controller) UserLocation() (geo.Coordinate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.userLocation == nil {
		return geo.Coordinate{}, false
	}
	return *c.userLocation, true
}

// GeoError returns the message of the last geolocation failure
func (c *Controller) GeoError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.geoErr
}

func (c *Controller) onFix(gen uint64, fix Fix) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.track.gen || !c.track.active {
		return
	}

	at := fix.Coordinate
	if c.track.lastFix == nil || geo.DistanceM(*c.track.lastFix, at) > JitterThresholdM {
		loc := at
		c.track.lastFix = &loc
		c.userLocation = &loc
	}

	if c.m == nil {
		return
	}

	c.syncOverlaysLocked(at, fix.AccuracyM)

	if !c.track.centered {
		zoom := ZoomSelected
		c.safely("read zoom", func() error {
			if z := c.m.Zoom(); z > zoom {
				zoom = z
			}
			return nil
		})
		c.safely("center on user", func() error {
			c.m.SetView(at, zoom)
			return nil
		})
		c.track.centered = true
		return
	}

	c.safely("pan to user", func() error {
		c.m.PanTo(at)
		return nil
	})
}

func (c *Controller) syncOverlaysLocked(at geo.Coordinate, accuracyM float64) {
	if c.track.marker == nil {
		c.safely("create location marker", func() error {
			marker, err := c.m.NewLocationMarker(at)
			if err != nil {
				return err
			}
			c.track.marker = marker
			return nil
		})
	} else {
		c.safely("move location marker", func() error {
			c.track.marker.SetPosition(at)
			return nil
		})
	}

	if c.track.circle == nil {
		c.safely("create accuracy circle", func() error {
			circle, err := c.m.NewAccuracyCircle(at, accuracyM)
			if err != nil {
				return err
			}
			c.track.circle = circle
			return nil
		})
		return
	}

	c.safely("update accuracy circle", func() error {
		c.track.circle.SetPosition(at)
		c.track.circle.SetRadius(accuracyM)
		return nil
	})
}

func (c *Controller) onGeoError(gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.track.gen || !c.track.active {
		return
	}

	c.geoErr = geoMessage(err)
	c.logger.Debug("Geolocation failed", zap.Error(err))
	c.stopTrackingLocked()
}

// stopTrackingLocked clears the watch and overlays. Callbacks from the old
// watch are ignored afterwards.
func (c *Controller) stopTrackingLocked() {
	c.track.gen++

	if c.track.hasWatch && c.locator != nil {
		id := c.track.watchID
		c.safely("clear watch", func() error {
			c.locator.ClearWatch(id)
			return nil
		})
	}
	if c.track.marker != nil {
		c.safely("remove location marker", c.track.marker.Remove)
	}
	if c.track.circle != nil {
		c.safely("remove accuracy circle", c.track.circle.Remove)
	}

	c.track = tracker{gen: c.track.gen}
}

func geoMessage(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return MsgGeoDenied
	case errors.Is(err, ErrGeolocationUnsupported):
		return MsgGeoUnsupported
	default:
		return MsgGeoUnavailable
	}
}
