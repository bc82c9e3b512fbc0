package mapview

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"tgstorefront/internal/domain"
	"tgstorefront/internal/geo"
	"tgstorefront/internal/points"

	"go.uber.org/zap"
)

var (
	ErrUnmounted       = errors.New("map controller is unmounted")
	ErrUnknownProvider = errors.New("unknown provider filter")
)

// Deps are the collaborators of a Controller
type Deps struct {
	Library Library
	// Geolocator may be nil when the platform has no geolocation
	Geolocator Geolocator
	Navigator  Navigator
	Catalog    *points.Catalog
	Logger     *zap.Logger
}

// Controller owns the map instance, its markers and the view state.
// All mutation happens under one mutex; callbacks from the map library and
// the geolocator re-enter through the public methods.
type Controller struct {
	mu sync.Mutex

	lib     Library
	locator Geolocator
	nav     Navigator
	catalog *points.Catalog
	logger  *zap.Logger

	query  url.Values
	state  ViewState
	filter string

	m         Map
	loading   bool
	initSeq   uint64
	unmounted bool

	markers     map[string]Marker
	cluster     ClusterGroup
	selectedRef string
	pin         Layer

	track        tracker
	userLocation *geo.Coordinate
	geoErr       string
}

// NewController creates a controller for the page opened with query q.
// Nothing is rendered until Sync is called.
func NewController(deps Deps, q url.Values) *Controller {
	catalog := deps.Catalog
	if catalog == nil {
		catalog = points.Default()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Controller{
		lib:     deps.Library,
		locator: deps.Geolocator,
		nav:     deps.Navigator,
		catalog: catalog,
		logger:  logger,
		query:   cloneQuery(q),
		state:   ParseViewState(q),
		filter:  points.FilterAll,
	}
}

// Sync reconciles the map with the URL query q. It is the single entry
// point for URL changes: deep links, back/forward and every intent below.
// Leaving the map step tears the map down; entering it creates the map once.
func (c *Controller) Sync(ctx context.Context, q url.Values) error {
	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return ErrUnmounted
	}

	prevStep := c.state.Step
	c.query = cloneQuery(q)
	c.state = ParseViewState(q)

	if prevStep == StepMap && c.state.Step != StepMap {
		c.teardownLocked()
	}

	if c.state.Step != StepMap || c.m != nil || c.loading {
		c.reconcileLocked()
		c.mu.Unlock()
		return nil
	}

	c.loading = true
	seq := c.initSeq
	intent := DesiredView(c.state, c.catalog.ByID)
	c.mu.Unlock()

	m, err := c.lib.NewMap(ctx, intent.Center, intent.Zoom)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.initSeq || c.unmounted || c.state.Step != StepMap {
		// a newer sync or a teardown superseded this init
		if m != nil {
			c.safely("remove stale map", m.Remove)
		}
		if seq == c.initSeq {
			c.loading = false
		}
		return nil
	}
	c.loading = false

	if err != nil {
		c.logger.Warn("Failed to load map", zap.Error(err))
		return fmt.Errorf("failed to load map: %w", err)
	}

	c.m = m
	c.buildMarkersLocked()
	c.reconcileLocked()

	c.logger.Debug("Map mounted", zap.Int("markers", len(c.markers)))
	return nil
}

// PickAddress opens the map at a searched address. coord may be nil when
// the suggestion has no coordinates. Any selected point is cleared.
func (c *Controller) PickAddress(ctx context.Context, address string, coord *geo.Coordinate) error {
	return c.navigate(ctx, func(v *ViewState) {
		v.Step = StepMap
		v.PointID = ""
		v.Address = address
		if coord != nil {
			hint := *coord
			v.Hint = &hint
		} else {
			v.Hint = nil
		}
	})
}

// SelectPoint opens the map at a point picked from the list.
// Live tracking stops so the camera can move to the point.
func (c *Controller) SelectPoint(ctx context.Context, id string) error {
	c.mu.Lock()
	c.stopTrackingLocked()
	c.mu.Unlock()

	return c.navigate(ctx, func(v *ViewState) {
		v.Step = StepMap
		v.PointID = id
	})
}

// ClickMarker selects the point of a clicked marker and opens its detail.
// The selection replaces any raw address or coordinate in the URL.
func (c *Controller) ClickMarker(ctx context.Context, id string) error {
	return c.navigate(ctx, func(v *ViewState) {
		v.Step = StepMap
		v.PointID = id
		v.Address = ""
		v.Hint = nil
	})
}

// CloseDetail clears the selection. The camera keeps its position.
func (c *Controller) CloseDetail(ctx context.Context) error {
	return c.navigate(ctx, func(v *ViewState) {
		v.PointID = ""
	})
}

// SetStep switches the page mode without touching other state
func (c *Controller) SetStep(ctx context.Context, step Step) error {
	return c.navigate(ctx, func(v *ViewState) {
		v.Step = step
	})
}

// SetProviderFilter shows only markers of one provider, or all of them.
// The selected point stays visible whatever its provider.
func (c *Controller) SetProviderFilter(filter string) error {
	if filter == "" {
		filter = points.FilterAll
	}
	if filter != points.FilterAll && !domain.Provider(filter).Valid() {
		return ErrUnknownProvider
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.filter == filter {
		return nil
	}
	c.filter = filter
	c.refreshClusterLocked()
	return nil
}

// Unmount stops tracking and destroys the map. The controller is unusable afterwards.
func (c *Controller) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.unmounted {
		return
	}
	c.unmounted = true
	c.teardownLocked()
}

// Snapshot is the UI-visible state of the controller
type Snapshot struct {
	Step            Step                `json:"step"`
	SelectedPointID string              `json:"selectedPointId,omitempty"`
	Selected        *domain.PickupPoint `json:"selected,omitempty"`
	Address         string              `json:"address,omitempty"`
	Filter          string              `json:"filter"`
	MapReady        bool                `json:"mapReady"`
	Tracking        bool                `json:"tracking"`
	UserLocation    *geo.Coordinate     `json:"userLocation,omitempty"`
	GeoError        string              `json:"geoError,omitempty"`
}

// Snapshot returns the current UI-visible state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Step:            c.state.Step,
		SelectedPointID: c.state.PointID,
		Address:         c.state.Address,
		Filter:          c.filter,
		MapReady:        c.m != nil,
		Tracking:        c.track.active,
		GeoError:        c.geoErr,
	}
	if p, ok := c.catalog.ByID(c.state.PointID); ok {
		s.Selected = &p
	}
	if c.userLocation != nil {
		loc := *c.userLocation
		s.UserLocation = &loc
	}
	return s
}

// State returns the current URL-backed view state
func (c *Controller) State() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Selected returns the point whose detail is open
func (c *Controller) Selected() (domain.PickupPoint, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.catalog.ByID(c.state.PointID)
}

// ListPoints returns the points of the active filter, nearest to the user
// first once a location is known
func (c *Controller) ListPoints(limit int) []points.Ranked {
	c.mu.Lock()
	filter := c.filter
	var origin *geo.Coordinate
	if c.userLocation != nil {
		loc := *c.userLocation
		origin = &loc
	}
	c.mu.Unlock()

	if origin != nil {
		return c.catalog.Nearest(*origin, filter, limit)
	}

	pts := c.catalog.Filter(filter)
	if limit > 0 && limit < len(pts) {
		pts = pts[:limit]
	}
	ranked := make([]points.Ranked, len(pts))
	for i, p := range pts {
		ranked[i] = points.Ranked{PickupPoint: p}
	}
	return ranked
}

func (c *Controller) navigate(ctx context.Context, mutate func(v *ViewState)) error {
	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return ErrUnmounted
	}
	next := c.state
	mutate(&next)
	q := next.Apply(c.query)
	c.mu.Unlock()

	if c.nav != nil {
		c.nav.Replace(cloneQuery(q))
	}
	return c.Sync(ctx, q)
}

func (c *Controller) buildMarkersLocked() {
	c.markers = make(map[string]Marker)
	for _, p := range c.catalog.All() {
		id := p.ID
		mk, err := c.m.NewMarker(p, func() {
			if err := c.ClickMarker(context.Background(), id); err != nil && !errors.Is(err, ErrUnmounted) {
				c.logger.Warn("Marker click failed", zap.String("point_id", id), zap.Error(err))
			}
		})
		if err != nil {
			c.logger.Debug("Failed to create marker", zap.String("point_id", id), zap.Error(err))
			continue
		}
		c.markers[id] = mk
	}

	cluster, err := c.m.NewClusterGroup()
	if err != nil {
		c.logger.Warn("Clustering unavailable, markers hidden", zap.Error(err))
		return
	}
	c.cluster = cluster
	c.refreshClusterLocked()
}

// refreshClusterLocked re-adds the markers matching the filter, plus the
// selected one, to the existing cluster group
func (c *Controller) refreshClusterLocked() {
	if c.cluster == nil {
		return
	}

	visible := make([]Marker, 0, len(c.markers))
	for _, p := range c.catalog.All() {
		mk, ok := c.markers[p.ID]
		if !ok {
			continue
		}
		if c.filter == points.FilterAll || string(p.Provider) == c.filter || p.ID == c.state.PointID {
			visible = append(visible, mk)
		}
	}

	c.safely("refresh cluster", func() error {
		c.cluster.Clear()
		c.cluster.Add(visible)
		return nil
	})
}

func (c *Controller) reconcileLocked() {
	if c.m == nil {
		return
	}

	if c.syncSelectionLocked() && c.filter != points.FilterAll {
		c.refreshClusterLocked()
	}
	c.syncPinLocked()
	c.applyCameraLocked()
}

// syncSelectionLocked moves the selected look from the previous marker to
// the new one. Reports whether the selection changed.
func (c *Controller) syncSelectionLocked() bool {
	next := c.state.PointID
	if next == c.selectedRef {
		return false
	}

	if prev, ok := c.markers[c.selectedRef]; ok {
		c.safely("unselect marker", func() error { return prev.SetSelected(false) })
	}
	if mk, ok := c.markers[next]; ok {
		c.safely("select marker", func() error { return mk.SetSelected(true) })
	}

	c.selectedRef = next
	return true
}

func (c *Controller) syncPinLocked() {
	hint := c.state.Hint
	if hint == nil {
		if c.pin != nil {
			c.safely("remove pin", c.pin.Remove)
			c.pin = nil
		}
		return
	}

	if c.pin != nil {
		c.safely("move pin", func() error {
			c.pin.SetPosition(*hint)
			return nil
		})
		return
	}

	c.safely("create pin", func() error {
		pin, err := c.m.NewPin(*hint)
		if err != nil {
			return err
		}
		c.pin = pin
		return nil
	})
}

// applyCameraLocked moves the camera to the view intent. While tracking is
// active the user's position owns the camera and nothing happens here.
func (c *Controller) applyCameraLocked() {
	if c.m == nil || c.track.active {
		return
	}

	var current geo.Coordinate
	var zoom int
	c.safely("read camera", func() error {
		current, zoom = c.m.Center(), c.m.Zoom()
		return nil
	})

	move := PlanCamera(current, zoom, DesiredView(c.state, c.catalog.ByID))
	if !move.Needed {
		return
	}

	if mk, ok := c.markers[c.state.PointID]; ok && c.cluster != nil {
		if revealer, ok := c.cluster.(LayerRevealer); ok {
			c.safely("reveal marker", func() error { return revealer.RevealLayer(mk) })
		}
	}

	c.safely("set view", func() error {
		c.m.SetView(move.Center, move.Zoom)
		return nil
	})
}

// teardownLocked stops tracking, then removes the pin, the cluster group and
// its markers, then the map. Each step runs even if an earlier one failed.
func (c *Controller) teardownLocked() {
	c.initSeq++
	c.loading = false

	c.stopTrackingLocked()

	if c.pin != nil {
		c.safely("remove pin", c.pin.Remove)
		c.pin = nil
	}

	if c.cluster != nil {
		cluster := c.cluster
		c.safely("clear cluster", func() error {
			cluster.Clear()
			return nil
		})
		c.safely("remove cluster", cluster.Remove)
		c.cluster = nil
	}
	c.markers = nil
	c.selectedRef = ""

	if c.m != nil {
		c.safely("remove map", c.m.Remove)
		c.m = nil
	}
}

// safely runs a best-effort map operation, logging errors and panics
func (c *Controller) safely(op string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("Map operation panicked", zap.String("op", op), zap.Any("panic", r))
		}
	}()

	if err := fn(); err != nil {
		c.logger.Debug("Map operation failed", zap.String("op", op), zap.Error(err))
	}
}

func cloneQuery(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	return out
}
