package mapsession

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"tgstorefront/internal/domain"
	"tgstorefront/internal/geo"
	"tgstorefront/internal/mapview"
)

// remoteLibrary creates maps in the browser. NewMap returns once the
// browser reports the map as ready.
type remoteLibrary struct {
	s *session
}

func (l remoteLibrary) NewMap(ctx context.Context, center geo.Coordinate, zoom int) (mapview.Map, error) {
	ref := l.s.nextRef("map")
	ready := l.s.expectReady(ref)
	defer l.s.dropReady(ref)

	if err := l.s.command(CmdCreateMap, viewCmd{Ref: ref, Lat: center.Lat, Lon: center.Lon, Zoom: zoom}); err != nil {
		return nil, err
	}

	select {
	case <-ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.s.done:
		return nil, ErrClosed
	}

	m := &remoteMap{s: l.s, ref: ref, center: center, zoom: zoom}
	l.s.trackMap(m)
	return m, nil
}

type remoteMap struct {
	s   *session
	ref string

	mu      sync.Mutex
	center  geo.Coordinate
	zoom    int
	markers []string
}

func (m *remoteMap) Center() geo.Coordinate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.center
}

func (m *remoteMap) Zoom() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.zoom
}

// moved records a camera change made by the user in the browser
func (m *remoteMap) moved(center geo.Coordinate, zoom int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.center = center
	m.zoom = zoom
}

func (m *remoteMap) SetView(center geo.Coordinate, zoom int) {
	m.moved(center, zoom)
	_ = m.s.command(CmdSetView, viewCmd{Ref: m.ref, Lat: center.Lat, Lon: center.Lon, Zoom: zoom})
}

func (m *remoteMap) PanTo(center geo.Coordinate) {
	m.mu.Lock()
	m.center = center
	m.mu.Unlock()
	_ = m.s.command(CmdPanTo, viewCmd{Ref: m.ref, Lat: center.Lat, Lon: center.Lon})
}

func (m *remoteMap) NewMarker(p domain.PickupPoint, onClick func()) (mapview.Marker, error) {
	ref := m.s.nextRef("marker")
	if err := m.s.command(CmdAddMarker, markerCmd{Ref: ref, Map: m.ref, Point: p}); err != nil {
		return nil, err
	}
	m.s.onClick(ref, onClick)
	m.mu.Lock()
	m.markers = append(m.markers, ref)
	m.mu.Unlock()
	return &remoteMarker{s: m.s, ref: ref}, nil
}

func (m *remoteMap) NewClusterGroup() (mapview.ClusterGroup, error) {
	ref := m.s.nextRef("cluster")
	if err := m.s.command(CmdCreateCluster, clusterCmd{Ref: ref, Map: m.ref}); err != nil {
		return nil, err
	}
	return &remoteCluster{s: m.s, ref: ref}, nil
}

func (m *remoteMap) NewPin(at geo.Coordinate) (mapview.Layer, error) {
	return m.newLayer(CmdAddPin, "pin", at, 0)
}

func (m *remoteMap) NewLocationMarker(at geo.Coordinate) (mapview.Layer, error) {
	return m.newLayer(CmdAddLocation, "location", at, 0)
}

func (m *remoteMap) NewAccuracyCircle(at geo.Coordinate, radiusM float64) (mapview.AccuracyCircle, error) {
	return m.newLayer(CmdAddCircle, "circle", at, radiusM)
}

func (m *remoteMap) newLayer(cmd, kind string, at geo.Coordinate, radiusM float64) (*remoteLayer, error) {
	ref := m.s.nextRef(kind)
	if err := m.s.command(cmd, layerCmd{Ref: ref, Map: m.ref, Lat: at.Lat, Lon: at.Lon, RadiusM: radiusM}); err != nil {
		return nil, err
	}
	return &remoteLayer{s: m.s, ref: ref}, nil
}

// Remove drops the click handlers of every marker created on the map
func (m *remoteMap) Remove() error {
	m.s.untrackMap(m)

	m.mu.Lock()
	refs := m.markers
	m.markers = nil
	m.mu.Unlock()
	for _, ref := range refs {
		m.s.onClick(ref, nil)
	}

	return m.s.command(CmdRemoveMap, refCmd{Ref: m.ref})
}

type remoteMarker struct {
	s   *session
	ref string
}

func (mk *remoteMarker) SetSelected(selected bool) error {
	return mk.s.command(CmdSetSelected, selectCmd{Ref: mk.ref, Selected: selected})
}

func (mk *remoteMarker) Remove() error {
	mk.s.onClick(mk.ref, nil)
	return mk.s.command(CmdRemoveLayer, refCmd{Ref: mk.ref})
}

type remoteCluster struct {
	s   *session
	ref string
}

func (c *remoteCluster) Clear() {
	_ = c.s.command(CmdClusterReset, clusterCmd{Ref: c.ref})
}

func (c *remoteCluster) Add(markers []mapview.Marker) {
	refs := make([]string, 0, len(markers))
	for _, mk := range markers {
		if rm, ok := mk.(*remoteMarker); ok {
			refs = append(refs, rm.ref)
		}
	}
	_ = c.s.command(CmdClusterAdd, clusterCmd{Ref: c.ref, Markers: refs})
}

func (c *remoteCluster) RevealLayer(mk mapview.Marker) error {
	rm, ok := mk.(*remoteMarker)
	if !ok {
		return fmt.Errorf("foreign marker %T", mk)
	}
	return c.s.command(CmdRevealLayer, clusterCmd{Ref: c.ref, Marker: rm.ref})
}

func (c *remoteCluster) Remove() error {
	return c.s.command(CmdRemoveLayer, refCmd{Ref: c.ref})
}

type remoteLayer struct {
	s   *session
	ref string
}

func (l *remoteLayer) SetPosition(at geo.Coordinate) {
	_ = l.s.command(CmdMoveLayer, layerCmd{Ref: l.ref, Lat: at.Lat, Lon: at.Lon})
}

func (l *remoteLayer) SetRadius(radiusM float64) {
	_ = l.s.command(CmdSetRadius, layerCmd{Ref: l.ref, RadiusM: radiusM})
}

func (l *remoteLayer) Remove() error {
	return l.s.command(CmdRemoveLayer, refCmd{Ref: l.ref})
}

// remoteGeolocator runs watchPosition in the browser. Fixes and errors
// arrive as events and are dispatched on the session worker.
type remoteGeolocator struct {
	s *session
}

func (g remoteGeolocator) WatchPosition(opts mapview.WatchOptions, onFix func(mapview.Fix), onError func(error)) (mapview.WatchID, error) {
	id := g.s.addWatch(onFix, onError)
	err := g.s.command(CmdWatchPosition, watchCmd{
		WatchID:      int64(id),
		HighAccuracy: opts.HighAccuracy,
		MaximumAgeMs: opts.MaximumAge.Milliseconds(),
	})
	if err != nil {
		g.s.removeWatch(id)
		return 0, err
	}
	return id, nil
}

func (g remoteGeolocator) ClearWatch(id mapview.WatchID) {
	g.s.removeWatch(id)
	_ = g.s.command(CmdClearWatch, watchCmd{WatchID: int64(id)})
}

type remoteNavigator struct {
	s *session
}

func (n remoteNavigator) Replace(q url.Values) {
	_ = n.s.command(CmdReplaceURL, replaceCmd{Query: q.Encode()})
}
