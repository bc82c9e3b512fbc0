package service

import (
	"errors"

	"tgstorefront/internal/domain"
	"tgstorefront/internal/geo"
	"tgstorefront/internal/points"
)

var (
	ErrPointNotFound   = errors.New("pickup point not found")
	ErrUnknownProvider = errors.New("unknown provider")
)

// PickupService serves the pickup-point catalog
type PickupService struct {
	catalog *points.Catalog
}

// NewPickupService creates a new pickup service
func NewPickupService(catalog *points.Catalog) *PickupService {
	return &PickupService{catalog: catalog}
}

// ListQuery selects pickup points
type ListQuery struct {
	Provider string
	// Origin enables proximity sorting when set
	Origin *geo.Coordinate
	Limit  int
}

// List returns points of the provider, nearest first when an origin is given
func (s *PickupService) List(q ListQuery) ([]points.Ranked, error) {
	if q.Provider != "" && q.Provider != points.FilterAll && !domain.Provider(q.Provider).Valid() {
		return nil, ErrUnknownProvider
	}

	if q.Origin != nil {
		return s.catalog.Nearest(*q.Origin, q.Provider, q.Limit), nil
	}

	pts := s.catalog.Filter(q.Provider)
	if q.Limit > 0 && q.Limit < len(pts) {
		pts = pts[:q.Limit]
	}

	result := make([]points.Ranked, len(pts))
	for i, p := range pts {
		result[i] = points.Ranked{PickupPoint: p}
	}
	return result, nil
}

// Get returns a single point by id
func (s *PickupService) Get(id string) (domain.PickupPoint, error) {
	p, ok := s.catalog.ByID(id)
	if !ok {
		return domain.PickupPoint{}, ErrPointNotFound
	}
	return p, nil
}

// Nearest returns the closest points of any provider
func (s *PickupService) Nearest(origin geo.Coordinate, limit int) []points.Ranked {
	return s.catalog.Nearest(origin, points.FilterAll, limit)
}
