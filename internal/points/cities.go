package points

import "tgstorefront/internal/geo"

type city struct {
	Name   string
	Center geo.Coordinate
}

var cities = []city{
	{"Москва", geo.Coordinate{Lat: 55.7558, Lon: 37.6173}},
	{"Санкт-Петербург", geo.Coordinate{Lat: 59.9343, Lon: 30.3351}},
	{"Новосибирск", geo.Coordinate{Lat: 55.0084, Lon: 82.9357}},
	{"Екатеринбург", geo.Coordinate{Lat: 56.8389, Lon: 60.6057}},
	{"Казань", geo.Coordinate{Lat: 55.7961, Lon: 49.1064}},
	{"Нижний Новгород", geo.Coordinate{Lat: 56.2965, Lon: 43.9361}},
	{"Челябинск", geo.Coordinate{Lat: 55.1644, Lon: 61.4368}},
	{"Самара", geo.Coordinate{Lat: 53.1959, Lon: 50.1002}},
	{"Омск", geo.Coordinate{Lat: 54.9885, Lon: 73.3242}},
	{"Ростов-на-Дону", geo.Coordinate{Lat: 47.2357, Lon: 39.7015}},
	{"Уфа", geo.Coordinate{Lat: 54.7388, Lon: 55.9721}},
	{"Красноярск", geo.Coordinate{Lat: 56.0153, Lon: 92.8932}},
	{"Воронеж", geo.Coordinate{Lat: 51.6608, Lon: 39.2003}},
	{"Пермь", geo.Coordinate{Lat: 58.0105, Lon: 56.2502}},
	{"Волгоград", geo.Coordinate{Lat: 48.7080, Lon: 44.5133}},
	{"Краснодар", geo.Coordinate{Lat: 45.0355, Lon: 38.9753}},
	{"Саратов", geo.Coordinate{Lat: 51.5336, Lon: 46.0343}},
	{"Тюмень", geo.Coordinate{Lat: 57.1522, Lon: 65.5272}},
	{"Тольятти", geo.Coordinate{Lat: 53.5078, Lon: 49.4204}},
	{"Ижевск", geo.Coordinate{Lat: 56.8526, Lon: 53.2045}},
	{"Барнаул", geo.Coordinate{Lat: 53.3548, Lon: 83.7698}},
	{"Ульяновск", geo.Coordinate{Lat: 54.3142, Lon: 48.4031}},
	{"Иркутск", geo.Coordinate{Lat: 52.2870, Lon: 104.3050}},
	{"Хабаровск", geo.Coordinate{Lat: 48.4802, Lon: 135.0719}},
	{"Ярославль", geo.Coordinate{Lat: 57.6261, Lon: 39.8845}},
	{"Владивосток", geo.Coordinate{Lat: 43.1155, Lon: 131.8855}},
	{"Махачкала", geo.Coordinate{Lat: 42.9849, Lon: 47.5047}},
	{"Томск", geo.Coordinate{Lat: 56.4846, Lon: 84.9476}},
}

var streets = []string{
	"ул. Ленина",
	"ул. Гагарина",
	"ул. Мира",
	"ул. Советская",
	"пр-т Победы",
	"ул. Пушкина",
	"ул. Садовая",
	"ул. Молодёжная",
	"ул. Лесная",
	"ул. Школьная",
	"ул. Набережная",
	"ул. Кирова",
	"пр-т Строителей",
	"ул. Октябрьская",
	"ул. Центральная",
	"ул. Заводская",
	"ул. Чехова",
	"ул. Комсомольская",
}
