package mapview

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"tgstorefront/internal/domain"
	"tgstorefront/internal/geo"
)

// recorder collects the calls made on the fake map library in order
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

type fakeLibrary struct {
	rec     *recorder
	maps    []*fakeMap
	err     error
	started chan struct{}
	release chan struct{}
}

func newFakeLibrary() *fakeLibrary {
	return &fakeLibrary{rec: &recorder{}}
}

func (l *fakeLibrary) NewMap(ctx context.Context, center geo.Coordinate, zoom int) (Map, error) {
	if l.started != nil {
		l.started <- struct{}{}
	}
	if l.release != nil {
		select {
		case <-l.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if l.err != nil {
		return nil, l.err
	}

	m := &fakeMap{
		rec:     l.rec,
		center:  center,
		zoom:    zoom,
		markers: make(map[string]*fakeMarker),
	}
	l.maps = append(l.maps, m)
	l.rec.add("newMap")
	return m, nil
}

func (l *fakeLibrary) last() *fakeMap {
	if len(l.maps) == 0 {
		return nil
	}
	return l.maps[len(l.maps)-1]
}

type fakeMap struct {
	rec     *recorder
	center  geo.Coordinate
	zoom    int
	removed bool

	setViews int
	pans     int

	markers  map[string]*fakeMarker
	clusters []*fakeCluster
	pins     []*fakeLayer
	located  []*fakeLayer
	circles  []*fakeCircle

	panicOnRemove bool
	noCluster     bool
}

func (m *fakeMap) Center() geo.Coordinate { return m.center }
func (m *fakeMap) Zoom() int              { return m.zoom }

func (m *fakeMap) SetView(center geo.Coordinate, zoom int) {
	m.setViews++
	m.center = center
	m.zoom = zoom
	m.rec.add("setView")
}

func (m *fakeMap) PanTo(center geo.Coordinate) {
	m.pans++
	m.center = center
	m.rec.add("panTo")
}

func (m *fakeMap) NewMarker(p domain.PickupPoint, onClick func()) (Marker, error) {
	mk := &fakeMarker{rec: m.rec, id: p.ID, onClick: onClick}
	m.markers[p.ID] = mk
	return mk, nil
}

func (m *fakeMap) NewClusterGroup() (ClusterGroup, error) {
	if m.noCluster {
		return nil, errors.New("plugin missing")
	}
	cl := &fakeCluster{rec: m.rec}
	m.clusters = append(m.clusters, cl)
	return cl, nil
}

func (m *fakeMap) NewPin(at geo.Coordinate) (Layer, error) {
	pin := &fakeLayer{rec: m.rec, name: "pin", at: at}
	m.pins = append(m.pins, pin)
	return pin, nil
}

func (m *fakeMap) NewLocationMarker(at geo.Coordinate) (Layer, error) {
	l := &fakeLayer{rec: m.rec, name: "location", at: at}
	m.located = append(m.located, l)
	return l, nil
}

func (m *fakeMap) NewAccuracyCircle(at geo.Coordinate, radiusM float64) (AccuracyCircle, error) {
	c := &fakeCircle{fakeLayer: fakeLayer{rec: m.rec, name: "circle", at: at}, radius: radiusM}
	m.circles = append(m.circles, c)
	return c, nil
}

func (m *fakeMap) Remove() error {
	m.rec.add("removeMap")
	if m.panicOnRemove {
		panic("map already destroyed")
	}
	m.removed = true
	return nil
}

type fakeMarker struct {
	rec      *recorder
	id       string
	selected bool
	onClick  func()
}

func (mk *fakeMarker) SetSelected(selected bool) error {
	mk.selected = selected
	return nil
}

func (mk *fakeMarker) Remove() error { return nil }

type fakeCluster struct {
	rec      *recorder
	members  []Marker
	removed  bool
	revealed []Marker
}

func (c *fakeCluster) Clear() {
	c.members = nil
	c.rec.add("clearCluster")
}

func (c *fakeCluster) Add(markers []Marker) {
	c.members = append(c.members, markers...)
}

func (c *fakeCluster) Remove() error {
	c.removed = true
	c.rec.add("removeCluster")
	return nil
}

func (c *fakeCluster) RevealLayer(m Marker) error {
	c.revealed = append(c.revealed, m)
	c.rec.add("reveal")
	return nil
}

func (c *fakeCluster) ids() map[string]bool {
	out := make(map[string]bool, len(c.members))
	for _, m := range c.members {
		out[m.(*fakeMarker).id] = true
	}
	return out
}

type fakeLayer struct {
	rec     *recorder
	name    string
	at      geo.Coordinate
	moves   int
	removed bool
}

func (l *fakeLayer) SetPosition(at geo.Coordinate) {
	l.at = at
	l.moves++
}

func (l *fakeLayer) Remove() error {
	l.removed = true
	l.rec.add("remove " + l.name)
	return nil
}

type fakeCircle struct {
	fakeLayer
	radius float64
}

func (c *fakeCircle) SetRadius(radiusM float64) { c.radius = radiusM }

type fakeWatch struct {
	opts    WatchOptions
	onFix   func(Fix)
	onError func(error)
}

type fakeGeolocator struct {
	rec     *recorder
	next    WatchID
	watches map[WatchID]fakeWatch
	cleared []WatchID
	err     error
}

func newFakeGeolocator(rec *recorder) *fakeGeolocator {
	return &fakeGeolocator{rec: rec, watches: make(map[WatchID]fakeWatch)}
}

func (g *fakeGeolocator) WatchPosition(opts WatchOptions, onFix func(Fix), onError func(error)) (WatchID, error) {
	if g.err != nil {
		return 0, g.err
	}
	g.next++
	g.watches[g.next] = fakeWatch{opts: opts, onFix: onFix, onError: onError}
	return g.next, nil
}

func (g *fakeGeolocator) ClearWatch(id WatchID) {
	g.cleared = append(g.cleared, id)
	g.rec.add("clearWatch")
}

func (g *fakeGeolocator) watch() fakeWatch {
	return g.watches[g.next]
}

type fakeNavigator struct {
	queries []url.Values
}

func (n *fakeNavigator) Replace(q url.Values) {
	n.queries = append(n.queries, q)
}

func (n *fakeNavigator) last() url.Values {
	if len(n.queries) == 0 {
		return nil
	}
	return n.queries[len(n.queries)-1]
}
