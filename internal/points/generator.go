// Package points generates and indexes the pickup-point fixture set.
//
// The set is synthetic but fully deterministic: the same count always yields
// the same points in the same order, so the map and list views can refer to
// points by id without a shared fetch.
package points

import (
	"fmt"
	"math"

	"tgstorefront/internal/domain"
)

const (
	minRadiusKm = 1.0
	maxRadiusKm = 20.0

	// kmPerDegreeLat is the length of one degree of latitude
	kmPerDegreeLat = 111.32
)

// Generate builds count pickup points spread across the fixed city list.
// Every city gets count/len(cities) points, the remainder goes to the first
// cities, and providers are assigned round-robin within each city.
func Generate(count int) []domain.PickupPoint {
	if count <= 0 {
		return []domain.PickupPoint{}
	}

	perCity := count / len(cities)
	remainder := count % len(cities)

	result := make([]domain.PickupPoint, 0, count)
	for ci, c := range cities {
		n := perCity
		if ci < remainder {
			n++
		}

		for j := 0; j < n; j++ {
			result = append(result, newPoint(ci, c, j))
		}
	}

	return result
}

func newPoint(cityIndex int, c city, j int) domain.PickupPoint {
	provider := domain.Providers[j%len(domain.Providers)]
	rnd := NewSeededRandom(uint32(cityIndex*10000 + j + 1))

	angle := rnd() * 2 * math.Pi
	radiusKm := minRadiusKm + rnd()*(maxRadiusKm-minRadiusKm)

	dLat := radiusKm / kmPerDegreeLat * math.Cos(angle)
	dLon := radiusKm / (kmPerDegreeLat * math.Cos(c.Center.Lat*math.Pi/180)) * math.Sin(angle)

	return domain.PickupPoint{
		ID:           fmt.Sprintf("pvz-%02d-%04d", cityIndex, j),
		Provider:     provider,
		Address:      address(cityIndex, c, j),
		DeliveryText: deliveryText(provider, j),
		PriceText:    priceText(provider, j),
		Lat:          c.Center.Lat + dLat,
		Lon:          c.Center.Lon + dLon,
	}
}

// address is derived from loop position only
func address(cityIndex int, c city, j int) string {
	street := streets[(cityIndex*7+j)%len(streets)]
	house := 1 + (j*13+cityIndex*3)%120

	if j%3 == 0 {
		building := 1 + (j/3)%4
		return fmt.Sprintf("%s, %s, д. %d, корп. %d", c.Name, street, house, building)
	}
	return fmt.Sprintf("%s, %s, д. %d", c.Name, street, house)
}

func providerOffset(p domain.Provider) int {
	for i, known := range domain.Providers {
		if known == p {
			return i
		}
	}
	return 0
}

func deliveryText(p domain.Provider, j int) string {
	from := 1 + (j+providerOffset(p))%3
	to := from + 1 + j%2
	return fmt.Sprintf("Доставка %d–%d дн.", from, to)
}

func priceText(p domain.Provider, j int) string {
	base := []int{149, 129, 99, 0}[providerOffset(p)]
	price := base + (j*37)%5*20
	if price == 0 {
		return "Бесплатно"
	}
	return fmt.Sprintf("%d ₽", price)
}
