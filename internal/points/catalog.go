package points

import (
	"sort"
	"sync"

	"tgstorefront/internal/domain"
	"tgstorefront/internal/geo"
)

// DefaultCount is the size of the process-wide fixture set
const DefaultCount = 500

// FilterAll matches every provider
const FilterAll = "all"

// Catalog is an immutable, lazily generated point set with an id index
type Catalog struct {
	count int

	pointsOnce sync.Once
	points     []domain.PickupPoint

	indexOnce sync.Once
	byID      map[string]int
}

// NewCatalog creates a catalog that generates count points on first use
func NewCatalog(count int) *Catalog {
	return &Catalog{count: count}
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the process-wide catalog
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCatalog = NewCatalog(DefaultCount)
	})
	return defaultCatalog
}

// All returns every point. Callers must not modify the returned slice.
func (c *Catalog) All() []domain.PickupPoint {
	c.pointsOnce.Do(func() {
		c.points = Generate(c.count)
	})
	return c.points
}

// ByID looks a point up by its id
func (c *Catalog) ByID(id string) (domain.PickupPoint, bool) {
	all := c.All()
	c.indexOnce.Do(func() {
		c.byID = make(map[string]int, len(all))
		for i, p := range all {
			c.byID[p.ID] = i
		}
	})

	i, ok := c.byID[id]
	if !ok {
		return domain.PickupPoint{}, false
	}
	return all[i], true
}

// Filter returns points of the given provider; FilterAll or "" returns everything
func (c *Catalog) Filter(provider string) []domain.PickupPoint {
	all := c.All()
	if provider == "" || provider == FilterAll {
		out := make([]domain.PickupPoint, len(all))
		copy(out, all)
		return out
	}

	var out []domain.PickupPoint
	for _, p := range all {
		if string(p.Provider) == provider {
			out = append(out, p)
		}
	}
	return out
}

// Ranked is a point together with its distance from a reference location
type Ranked struct {
	domain.PickupPoint
	DistanceKm float64 `json:"distanceKm"`
}

// Nearest returns up to limit points of the provider sorted by distance from origin.
// A non-positive limit returns all matching points.
func (c *Catalog) Nearest(origin geo.Coordinate, provider string, limit int) []Ranked {
	return SortByDistance(c.Filter(provider), origin, limit)
}

// SortByDistance ranks pts by proximity to origin. Ties keep the input order.
func SortByDistance(pts []domain.PickupPoint, origin geo.Coordinate, limit int) []Ranked {
	ranked := make([]Ranked, len(pts))
	for i, p := range pts {
		ranked[i] = Ranked{
			PickupPoint: p,
			DistanceKm:  geo.DistanceKm(origin, geo.Coordinate{Lat: p.Lat, Lon: p.Lon}),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})

	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked
}
