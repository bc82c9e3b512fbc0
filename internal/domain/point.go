package domain

// Provider is a pickup-point carrier
type Provider string

const (
	ProviderCDEK     Provider = "cdek"
	ProviderBoxberry Provider = "boxberry"
	ProviderPochta   Provider = "pochta"
	ProviderYandex   Provider = "yandex"
)

// Providers lists every carrier in display order
var Providers = []Provider{
	ProviderCDEK,
	ProviderBoxberry,
	ProviderPochta,
	ProviderYandex,
}

// Valid reports whether p is one of the known carriers
func (p Provider) Valid() bool {
	for _, known := range Providers {
		if p == known {
			return true
		}
	}
	return false
}

// DisplayName returns carrier name shown to the user
func (p Provider) DisplayName() string {
	switch p {
	case ProviderCDEK:
		return "СДЭК"
	case ProviderBoxberry:
		return "Boxberry"
	case ProviderPochta:
		return "Почта России"
	case ProviderYandex:
		return "Яндекс Маркет"
	default:
		return string(p)
	}
}

// PickupPoint represents a point of delivery (PVZ)
type PickupPoint struct {
	ID           string   `json:"id"`
	Provider     Provider `json:"provider"`
	Address      string   `json:"address"`
	DeliveryText string   `json:"deliveryText"`
	PriceText    string   `json:"priceText"`
	Lat          float64  `json:"lat"`
	Lon          float64  `json:"lon"`
}
