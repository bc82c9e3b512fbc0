// Package mapsession hosts a mapview.Controller per websocket connection.
//
// The browser renders the map and reports user input as events; the server
// owns the state machine and drives the map with commands. Both directions
// use the envelope {"type": ..., "data": {...}}.
package mapsession

import (
	"encoding/json"

	"tgstorefront/internal/domain"
	"tgstorefront/internal/mapview"
	"tgstorefront/internal/points"
)

// Commands sent to the browser
const (
	CmdCreateMap     = "createMap"
	CmdRemoveMap     = "removeMap"
	CmdSetView       = "setView"
	CmdPanTo         = "panTo"
	CmdAddMarker     = "addMarker"
	CmdSetSelected   = "setSelected"
	CmdCreateCluster = "createCluster"
	CmdClusterReset  = "clusterReset"
	CmdClusterAdd    = "clusterAdd"
	CmdRevealLayer   = "revealLayer"
	CmdAddPin        = "addPin"
	CmdAddLocation   = "addLocation"
	CmdAddCircle     = "addCircle"
	CmdMoveLayer     = "moveLayer"
	CmdSetRadius     = "setRadius"
	CmdRemoveLayer   = "removeLayer"
	CmdWatchPosition = "watchPosition"
	CmdClearWatch    = "clearWatch"
	CmdReplaceURL    = "replaceUrl"
	CmdState         = "state"
	CmdError         = "error"
)

// Events received from the browser
const (
	EvtSync           = "sync"
	EvtMapReady       = "mapReady"
	EvtViewChanged    = "viewChanged"
	EvtPickAddress    = "pickAddress"
	EvtSelectPoint    = "selectPoint"
	EvtMarkerClick    = "markerClick"
	EvtSetStep        = "setStep"
	EvtCloseDetail    = "closeDetail"
	EvtSetFilter      = "setFilter"
	EvtToggleTracking = "toggleTracking"
	EvtFix            = "fix"
	EvtGeoError       = "geoError"
)

// Geolocation error codes reported with EvtGeoError
const (
	GeoDenied      = "denied"
	GeoUnavailable = "unavailable"
	GeoUnsupported = "unsupported"
)

// Envelope is the wire frame in both directions
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Event is the union of every event payload. Unused fields are omitted by the client.
type Event struct {
	Query    string   `json:"query,omitempty"`
	Ref      string   `json:"ref,omitempty"`
	Address  string   `json:"address,omitempty"`
	Lat      *float64 `json:"lat,omitempty"`
	Lon      *float64 `json:"lon,omitempty"`
	Zoom     int      `json:"zoom,omitempty"`
	PointID  string   `json:"pointId,omitempty"`
	Step     string   `json:"step,omitempty"`
	Filter   string   `json:"filter,omitempty"`
	WatchID  int64    `json:"watchId,omitempty"`
	Accuracy float64  `json:"accuracy,omitempty"`
	Code     string   `json:"code,omitempty"`
}

// Command payloads

type viewCmd struct {
	Ref  string  `json:"ref"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Zoom int     `json:"zoom,omitempty"`
}

type refCmd struct {
	Ref string `json:"ref"`
}

type markerCmd struct {
	Ref   string             `json:"ref"`
	Map   string             `json:"map"`
	Point domain.PickupPoint `json:"point"`
}

type selectCmd struct {
	Ref      string `json:"ref"`
	Selected bool   `json:"selected"`
}

type clusterCmd struct {
	Ref     string   `json:"ref"`
	Map     string   `json:"map,omitempty"`
	Markers []string `json:"markers,omitempty"`
	Marker  string   `json:"marker,omitempty"`
}

type layerCmd struct {
	Ref     string  `json:"ref"`
	Map     string  `json:"map,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	RadiusM float64 `json:"radius,omitempty"`
}

type watchCmd struct {
	WatchID      int64 `json:"watchId"`
	HighAccuracy bool  `json:"highAccuracy,omitempty"`
	MaximumAgeMs int64 `json:"maximumAge,omitempty"`
}

type replaceCmd struct {
	Query string `json:"query"`
}

type errorCmd struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

// State is pushed after every handled event
type State struct {
	mapview.Snapshot
	Points []points.Ranked `json:"points,omitempty"`
}
