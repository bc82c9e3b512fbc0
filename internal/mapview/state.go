// Package mapview is the pickup-point map state machine.
//
// A Controller mediates between the page URL, an imperative map library
// (markers, cluster groups, overlays) and the selection, filter and
// geolocation state shown to the user. The map library, geolocation and
// navigation are interfaces so the state machine runs without a browser.
package mapview

import (
	"math"
	"net/url"
	"strconv"

	"tgstorefront/internal/geo"
)

// Step is the active page mode
type Step string

const (
	StepSearch Step = "search"
	StepList   Step = "list"
	StepMap    Step = "map"
)

// URL query parameters
const (
	ParamStep    = "step"
	ParamPointID = "pvzId"
	ParamAddress = "address"
	ParamLat     = "lat"
	ParamLon     = "lon"
)

// ParseStep returns the step named by s, StepSearch for anything unknown
func ParseStep(s string) Step {
	switch Step(s) {
	case StepList, StepMap:
		return Step(s)
	default:
		return StepSearch
	}
}

// ViewState is the part of the page state persisted in the URL
type ViewState struct {
	Step    Step
	PointID string
	Address string
	// Hint is the raw coordinate of a searched address, if any
	Hint *geo.Coordinate
}

// ParseViewState reads the view state from query parameters.
// A hint needs both lat and lon to be finite numbers.
func ParseViewState(q url.Values) ViewState {
	v := ViewState{
		Step:    ParseStep(q.Get(ParamStep)),
		PointID: q.Get(ParamPointID),
		Address: q.Get(ParamAddress),
	}

	lat, latErr := strconv.ParseFloat(q.Get(ParamLat), 64)
	lon, lonErr := strconv.ParseFloat(q.Get(ParamLon), 64)
	if latErr == nil && lonErr == nil && finite(lat) && finite(lon) {
		v.Hint = &geo.Coordinate{Lat: lat, Lon: lon}
	}

	return v
}

// Apply writes v into a copy of base, keeping unrelated parameters
func (v ViewState) Apply(base url.Values) url.Values {
	q := make(url.Values, len(base)+5)
	for k, vals := range base {
		q[k] = append([]string(nil), vals...)
	}

	q.Set(ParamStep, string(v.Step))
	setOrDel(q, ParamPointID, v.PointID)
	setOrDel(q, ParamAddress, v.Address)

	if v.Hint != nil {
		q.Set(ParamLat, strconv.FormatFloat(v.Hint.Lat, 'f', -1, 64))
		q.Set(ParamLon, strconv.FormatFloat(v.Hint.Lon, 'f', -1, 64))
	} else {
		q.Del(ParamLat)
		q.Del(ParamLon)
	}

	return q
}

func setOrDel(q url.Values, key, value string) {
	if value == "" {
		q.Del(key)
		return
	}
	q.Set(key, value)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
