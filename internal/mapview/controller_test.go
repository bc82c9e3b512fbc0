package mapview

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"tgstorefront/internal/domain"
	"tgstorefront/internal/geo"
	"tgstorefront/internal/points"
	"tgstorefront/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ctrl    *Controller
	lib     *fakeLibrary
	geo     *fakeGeolocator
	nav     *fakeNavigator
	catalog *points.Catalog
}

func newFixture(t *testing.T, query string) *fixture {
	t.Helper()

	q, err := url.ParseQuery(query)
	require.NoError(t, err)

	lib := newFakeLibrary()
	f := &fixture{
		lib:     lib,
		geo:     newFakeGeolocator(lib.rec),
		nav:     &fakeNavigator{},
		catalog: points.NewCatalog(40),
	}
	f.ctrl = NewController(Deps{
		Library:    f.lib,
		Geolocator: f.geo,
		Navigator:  f.nav,
		Catalog:    f.catalog,
		Logger:     testutil.NewTestLogger(),
	}, q)

	return f
}

func (f *fixture) sync(t *testing.T, query string) {
	t.Helper()
	q, err := url.ParseQuery(query)
	require.NoError(t, err)
	require.NoError(t, f.ctrl.Sync(context.Background(), q))
}

func (f *fixture) point(t *testing.T, i int) domain.PickupPoint {
	t.Helper()
	all := f.catalog.All()
	require.Greater(t, len(all), i)
	return all[i]
}

func coordOf(p domain.PickupPoint) geo.Coordinate {
	return geo.Coordinate{Lat: p.Lat, Lon: p.Lon}
}

func TestController_SearchStepCreatesNoMap(t *testing.T) {
	f := newFixture(t, "")
	f.sync(t, "step=search")

	assert.Empty(t, f.lib.maps)
	assert.False(t, f.ctrl.Snapshot().MapReady)
}

func TestController_DeepLinkToSelectedPoint(t *testing.T) {
	f := newFixture(t, "")
	p := f.point(t, 3)

	f.sync(t, "step=map&pvzId="+p.ID)

	m := f.lib.last()
	require.NotNil(t, m)
	assert.Len(t, m.markers, 40)
	assert.True(t, m.markers[p.ID].selected)
	assert.Equal(t, coordOf(p), m.center)
	assert.Equal(t, ZoomSelected, m.zoom)

	require.Len(t, m.clusters, 1)
	assert.Len(t, m.clusters[0].members, 40)

	snap := f.ctrl.Snapshot()
	assert.True(t, snap.MapReady)
	require.NotNil(t, snap.Selected)
	assert.Equal(t, p.ID, snap.Selected.ID)
}

func TestController_MapCreatedOnce(t *testing.T) {
	f := newFixture(t, "")
	f.sync(t, "step=map")
	f.sync(t, "step=map&address=x")
	f.sync(t, "step=map")

	assert.Len(t, f.lib.maps, 1)
}

func TestController_OverviewDoesNotMoveCamera(t *testing.T) {
	f := newFixture(t, "")
	f.sync(t, "step=map")

	m := f.lib.last()
	require.NotNil(t, m)
	assert.Equal(t, geo.Moscow, m.center)
	assert.Equal(t, ZoomOverview, m.zoom)
	assert.Zero(t, m.setViews)
}

func TestController_SelectionIsExclusive(t *testing.T) {
	f := newFixture(t, "")
	a, b := f.point(t, 0), f.point(t, 5)
	ctx := context.Background()

	f.sync(t, "step=map")
	require.NoError(t, f.ctrl.SelectPoint(ctx, a.ID))
	require.NoError(t, f.ctrl.SelectPoint(ctx, b.ID))

	m := f.lib.last()
	selected := 0
	for _, mk := range m.markers {
		if mk.selected {
			selected++
		}
	}
	assert.Equal(t, 1, selected)
	assert.True(t, m.markers[b.ID].selected)
	assert.False(t, m.markers[a.ID].selected)
}

func TestController_CloseDetailKeepsCamera(t *testing.T) {
	f := newFixture(t, "")
	p := f.point(t, 7)
	ctx := context.Background()

	f.sync(t, "step=map")
	require.NoError(t, f.ctrl.SelectPoint(ctx, p.ID))
	m := f.lib.last()
	views := m.setViews

	require.NoError(t, f.ctrl.CloseDetail(ctx))

	assert.Equal(t, views, m.setViews)
	assert.Equal(t, coordOf(p), m.center)
	assert.False(t, m.markers[p.ID].selected)
	assert.Empty(t, f.nav.last().Get(ParamPointID))
}

func TestController_NeverZoomsOut(t *testing.T) {
	f := newFixture(t, "")
	p := f.point(t, 2)
	f.sync(t, "step=map")

	m := f.lib.last()
	m.zoom = 17

	require.NoError(t, f.ctrl.SelectPoint(context.Background(), p.ID))

	assert.Equal(t, 17, m.zoom)
	assert.Equal(t, coordOf(p), m.center)
}

func TestController_PickAddress(t *testing.T) {
	f := newFixture(t, "")
	hint := geo.Coordinate{Lat: 59.93, Lon: 30.33}
	ctx := context.Background()

	f.sync(t, "step=search&pvzId=pvz-00-0000&ref=bot")
	require.NoError(t, f.ctrl.PickAddress(ctx, "Nevsky 1", &hint))

	q := f.nav.last()
	assert.Equal(t, "map", q.Get(ParamStep))
	assert.Equal(t, "Nevsky 1", q.Get(ParamAddress))
	assert.Equal(t, "59.93", q.Get(ParamLat))
	assert.Empty(t, q.Get(ParamPointID))
	assert.Equal(t, "bot", q.Get("ref"))

	m := f.lib.last()
	require.NotNil(t, m)
	require.Len(t, m.pins, 1)
	assert.Equal(t, hint, m.pins[0].at)
	assert.Equal(t, hint, m.center)
	assert.Equal(t, ZoomHint, m.zoom)

	// a second address moves the same pin
	other := geo.Coordinate{Lat: 55.7, Lon: 37.5}
	require.NoError(t, f.ctrl.PickAddress(ctx, "Arbat", &other))
	require.Len(t, m.pins, 1)
	assert.Equal(t, other, m.pins[0].at)

	// no coordinates removes it
	require.NoError(t, f.ctrl.PickAddress(ctx, "Somewhere", nil))
	assert.True(t, m.pins[0].removed)
}

func TestController_ClickMarkerClearsAddress(t *testing.T) {
	f := newFixture(t, "")
	p := f.point(t, 4)

	f.sync(t, "step=map&address=Arbat&lat=55.7&lon=37.5")
	m := f.lib.last()
	require.NotNil(t, m)

	m.markers[p.ID].onClick()

	q := f.nav.last()
	assert.Equal(t, p.ID, q.Get(ParamPointID))
	assert.Empty(t, q.Get(ParamAddress))
	assert.Empty(t, q.Get(ParamLat))
	assert.True(t, m.markers[p.ID].selected)
	assert.True(t, m.pins[0].removed)
}

func TestController_ProviderFilterKeepsSelected(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	var selected domain.PickupPoint
	for _, p := range f.catalog.All() {
		if p.Provider != domain.ProviderCDEK {
			selected = p
			break
		}
	}
	require.NotEmpty(t, selected.ID)

	f.sync(t, "step=map")
	require.NoError(t, f.ctrl.SelectPoint(ctx, selected.ID))
	require.NoError(t, f.ctrl.SetProviderFilter(string(domain.ProviderCDEK)))

	members := f.lib.last().clusters[0].ids()
	assert.True(t, members[selected.ID])
	for id := range members {
		p, ok := f.catalog.ByID(id)
		require.True(t, ok)
		if id != selected.ID {
			assert.Equal(t, domain.ProviderCDEK, p.Provider)
		}
	}
	assert.Len(t, members, len(f.catalog.Filter(string(domain.ProviderCDEK)))+1)

	// deselecting drops the foreign marker
	require.NoError(t, f.ctrl.CloseDetail(ctx))
	members = f.lib.last().clusters[0].ids()
	assert.False(t, members[selected.ID])

	assert.ErrorIs(t, f.ctrl.SetProviderFilter("dhl"), ErrUnknownProvider)
	assert.Equal(t, string(domain.ProviderCDEK), f.ctrl.Snapshot().Filter)
}

func TestController_LeavingMapTearsDownInOrder(t *testing.T) {
	f := newFixture(t, "")
	hint := geo.Coordinate{Lat: 55.7, Lon: 37.5}

	f.sync(t, "step=map")
	require.NoError(t, f.ctrl.PickAddress(context.Background(), "Arbat", &hint))
	require.NoError(t, f.ctrl.StartTracking())
	f.geo.watch().onFix(Fix{Coordinate: hint, AccuracyM: 20})

	m := f.lib.last()
	f.lib.rec.reset()

	require.NoError(t, f.ctrl.SetStep(context.Background(), StepList))

	assert.Equal(t, []string{
		"clearWatch",
		"remove location",
		"remove circle",
		"remove pin",
		"clearCluster",
		"removeCluster",
		"removeMap",
	}, f.lib.rec.all())
	assert.True(t, m.removed)
	assert.False(t, f.ctrl.Tracking())
	assert.False(t, f.ctrl.Snapshot().MapReady)

	// re-entering builds a fresh map
	f.sync(t, "step=map")
	assert.Len(t, f.lib.maps, 2)
}

func TestController_TeardownSurvivesPanics(t *testing.T) {
	f := newFixture(t, "")
	f.sync(t, "step=map")
	f.lib.last().panicOnRemove = true

	assert.NotPanics(t, func() {
		f.ctrl.Unmount()
	})
	assert.True(t, f.lib.last().clusters[0].removed)
	assert.ErrorIs(t, f.ctrl.Sync(context.Background(), url.Values{}), ErrUnmounted)
	assert.ErrorIs(t, f.ctrl.SelectPoint(context.Background(), "x"), ErrUnmounted)
}

func TestController_StaleInitDiscarded(t *testing.T) {
	f := newFixture(t, "")
	f.lib.started = make(chan struct{})
	f.lib.release = make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		q, _ := url.ParseQuery("step=map")
		_ = f.ctrl.Sync(context.Background(), q)
	}()

	<-f.lib.started
	f.sync(t, "step=search")
	close(f.lib.release)
	wg.Wait()

	require.Len(t, f.lib.maps, 1)
	assert.True(t, f.lib.maps[0].removed)
	assert.False(t, f.ctrl.Snapshot().MapReady)
	assert.Empty(t, f.lib.maps[0].clusters)
}

func TestController_MapLoadError(t *testing.T) {
	f := newFixture(t, "")
	f.lib.err = errors.New("script blocked")

	q, _ := url.ParseQuery("step=map")
	err := f.ctrl.Sync(context.Background(), q)
	require.Error(t, err)
	assert.False(t, f.ctrl.Snapshot().MapReady)

	// the next sync retries
	f.lib.err = nil
	f.sync(t, "step=map")
	assert.True(t, f.ctrl.Snapshot().MapReady)
}

func TestController_NoClusterPlugin(t *testing.T) {
	f := newFixture(t, "")
	lib := &noClusterLibrary{fakeLibrary: f.lib}
	f.ctrl.lib = lib

	f.sync(t, "step=map&pvzId="+f.point(t, 0).ID)

	assert.True(t, f.ctrl.Snapshot().MapReady)
	assert.Empty(t, f.lib.last().clusters)
}

type noClusterLibrary struct {
	*fakeLibrary
}

func (l *noClusterLibrary) NewMap(ctx context.Context, center geo.Coordinate, zoom int) (Map, error) {
	m, err := l.fakeLibrary.NewMap(ctx, center, zoom)
	if err != nil {
		return nil, err
	}
	m.(*fakeMap).noCluster = true
	return m, nil
}

func TestController_ListPoints(t *testing.T) {
	f := newFixture(t, "")

	all := f.ctrl.ListPoints(0)
	assert.Len(t, all, 40)
	assert.Len(t, f.ctrl.ListPoints(5), 5)

	require.NoError(t, f.ctrl.SetProviderFilter(string(domain.ProviderPochta)))
	for _, r := range f.ctrl.ListPoints(0) {
		assert.Equal(t, domain.ProviderPochta, r.Provider)
	}
}
