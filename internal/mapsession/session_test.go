package mapsession

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tgstorefront/internal/mapview"
	"tgstorefront/internal/points"
	"tgstorefront/internal/testutil"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type client struct {
	t    *testing.T
	conn *websocket.Conn
}

func dial(t *testing.T, catalog *points.Catalog) *client {
	t.Helper()

	h := NewHandler(Options{Catalog: catalog, Logger: testutil.NewTestLogger()})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &client{t: t, conn: conn}
}

func (c *client) send(event string, data interface{}) {
	c.t.Helper()

	raw, err := json.Marshal(data)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteJSON(Envelope{Type: event, Data: raw}))
}

func (c *client) read() Envelope {
	c.t.Helper()

	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var env Envelope
	require.NoError(c.t, c.conn.ReadJSON(&env))
	return env
}

// until reads frames up to and including the first of type cmd. Frames of
// type createMap are acknowledged as the browser would.
func (c *client) until(cmd string) ([]Envelope, Envelope) {
	c.t.Helper()

	var seen []Envelope
	for {
		env := c.read()
		if env.Type == CmdCreateMap {
			var v viewCmd
			require.NoError(c.t, json.Unmarshal(env.Data, &v))
			c.send(EvtMapReady, Event{Ref: v.Ref})
		}
		if env.Type == cmd {
			return seen, env
		}
		seen = append(seen, env)
	}
}

func (c *client) state() State {
	c.t.Helper()

	_, env := c.until(CmdState)
	var st State
	require.NoError(c.t, json.Unmarshal(env.Data, &st))
	return st
}

func types(envs []Envelope) []string {
	out := make([]string, len(envs))
	for i, e := range envs {
		out[i] = e.Type
	}
	return out
}

func TestSession_DeepLinkBuildsMap(t *testing.T) {
	catalog := points.NewCatalog(8)
	target := catalog.All()[2]
	c := dial(t, catalog)

	c.send(EvtSync, Event{Query: "?step=map&pvzId=" + target.ID})
	seen, env := c.until(CmdState)

	var st State
	require.NoError(t, json.Unmarshal(env.Data, &st))

	sent := types(seen)
	assert.Equal(t, CmdCreateMap, sent[0])
	assert.Contains(t, sent, CmdCreateCluster)
	assert.Contains(t, sent, CmdClusterAdd)
	assert.Contains(t, sent, CmdSetSelected)

	markers := 0
	for _, s := range sent {
		if s == CmdAddMarker {
			markers++
		}
	}
	assert.Equal(t, 8, markers)

	assert.True(t, st.MapReady)
	assert.Equal(t, mapview.StepMap, st.Step)
	require.NotNil(t, st.Selected)
	assert.Equal(t, target.ID, st.Selected.ID)
}

func TestSession_SelectPointReplacesURL(t *testing.T) {
	catalog := points.NewCatalog(8)
	target := catalog.All()[5]
	c := dial(t, catalog)

	c.send(EvtSync, Event{Query: "step=list&ref=bot"})
	st := c.state()
	assert.Equal(t, mapview.StepList, st.Step)
	assert.Len(t, st.Points, 8)

	c.send(EvtSelectPoint, Event{PointID: target.ID})
	seen, _ := c.until(CmdState)

	require.NotEmpty(t, seen)
	var replaced replaceCmd
	for _, env := range seen {
		if env.Type == CmdReplaceURL {
			require.NoError(t, json.Unmarshal(env.Data, &replaced))
		}
	}
	assert.Contains(t, replaced.Query, "pvzId="+target.ID)
	assert.Contains(t, replaced.Query, "ref=bot")
	assert.Contains(t, replaced.Query, "step=map")
}

func TestSession_MarkerClick(t *testing.T) {
	catalog := points.NewCatalog(4)
	c := dial(t, catalog)

	c.send(EvtSync, Event{Query: "step=map"})
	seen, _ := c.until(CmdState)

	var marker markerCmd
	for _, env := range seen {
		if env.Type == CmdAddMarker {
			require.NoError(t, json.Unmarshal(env.Data, &marker))
			break
		}
	}
	require.NotEmpty(t, marker.Ref)

	c.send(EvtMarkerClick, Event{Ref: marker.Ref})
	st := c.state()

	assert.Equal(t, marker.Point.ID, st.SelectedPointID)
}

func TestSession_MarkerClickAfterTeardown(t *testing.T) {
	catalog := points.NewCatalog(4)
	c := dial(t, catalog)

	c.send(EvtSync, Event{Query: "step=map"})
	seen, _ := c.until(CmdState)

	var marker markerCmd
	for _, env := range seen {
		if env.Type == CmdAddMarker {
			require.NoError(t, json.Unmarshal(env.Data, &marker))
			break
		}
	}
	require.NotEmpty(t, marker.Ref)

	c.send(EvtSetStep, Event{Step: string(mapview.StepList)})
	assert.False(t, c.state().MapReady)

	c.send(EvtMarkerClick, Event{Ref: marker.Ref})
	_, env := c.until(CmdError)
	var e errorCmd
	require.NoError(t, json.Unmarshal(env.Data, &e))
	assert.Equal(t, EvtMarkerClick, e.Event)
	assert.Contains(t, e.Message, ErrUnknownRef.Error())

	st := c.state()
	assert.Empty(t, st.SelectedPointID)
	assert.Equal(t, mapview.StepList, st.Step)
}

func TestSession_Tracking(t *testing.T) {
	c := dial(t, points.NewCatalog(4))

	c.send(EvtSync, Event{Query: "step=map"})
	c.state()

	c.send(EvtToggleTracking, nil)
	_, env := c.until(CmdWatchPosition)
	var w watchCmd
	require.NoError(t, json.Unmarshal(env.Data, &w))
	assert.True(t, w.HighAccuracy)
	assert.Equal(t, int64(10000), w.MaximumAgeMs)
	assert.True(t, c.state().Tracking)

	lat, lon := 55.75, 37.62
	c.send(EvtFix, Event{WatchID: w.WatchID, Lat: &lat, Lon: &lon, Accuracy: 25})
	seen, stEnv := c.until(CmdState)
	assert.Contains(t, types(seen), CmdSetView)
	assert.Contains(t, types(seen), CmdAddLocation)
	assert.Contains(t, types(seen), CmdAddCircle)

	var st State
	require.NoError(t, json.Unmarshal(stEnv.Data, &st))
	require.NotNil(t, st.UserLocation)
	assert.Equal(t, lat, st.UserLocation.Lat)

	c.send(EvtGeoError, Event{WatchID: w.WatchID, Code: GeoDenied})
	seen, stEnv = c.until(CmdState)
	assert.Contains(t, types(seen), CmdClearWatch)

	require.NoError(t, json.Unmarshal(stEnv.Data, &st))
	assert.False(t, st.Tracking)
	assert.Equal(t, mapview.MsgGeoDenied, st.GeoError)
}

func TestSession_Errors(t *testing.T) {
	c := dial(t, points.NewCatalog(4))

	c.send("teleport", Event{})
	_, env := c.until(CmdError)
	var e errorCmd
	require.NoError(t, json.Unmarshal(env.Data, &e))
	assert.Equal(t, "teleport", e.Event)
	assert.Contains(t, e.Message, "unknown event")
	c.state()

	c.send(EvtSetFilter, Event{Filter: "dhl"})
	_, env = c.until(CmdError)
	require.NoError(t, json.Unmarshal(env.Data, &e))
	assert.Equal(t, EvtSetFilter, e.Event)
	assert.Equal(t, points.FilterAll, c.state().Filter)

	// still serving after errors
	c.send(EvtSetFilter, Event{Filter: "pochta"})
	assert.Equal(t, "pochta", c.state().Filter)
}
