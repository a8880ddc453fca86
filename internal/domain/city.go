package domain

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCityNotFound is returned when no information exists for a city ID.
var ErrCityNotFound = errors.New("city not found")

// City is a highlighted city on the India map.
type City struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Geo  Geo    `json:"geo"`
}

// CityInfo is the detail shown when a city marker is selected.
type CityInfo struct {
	Population  string   `json:"population"`
	Description string   `json:"description"`
	Famous      []string `json:"famous"`
}

//go:embed data/cities.json
var citiesJSON []byte

//go:embed data/city_info.json
var cityInfoJSON []byte

var (
	cities   []City
	cityInfo map[string]CityInfo
)

func init() {
	if err := json.Unmarshal(citiesJSON, &cities); err != nil {
		panic(fmt.Sprintf("domain: decode embedded cities: %v", err))
	}
	if err := json.Unmarshal(cityInfoJSON, &cityInfo); err != nil {
		panic(fmt.Sprintf("domain: decode embedded city info: %v", err))
	}
}

// Cities returns the highlighted cities in display order.
func Cities() []City {
	out := make([]City, len(cities))
	copy(out, cities)
	return out
}

// LookupCityInfo returns the details for a city ID.
func LookupCityInfo(id string) (CityInfo, error) {
	info, ok := cityInfo[id]
	if !ok {
		return CityInfo{}, ErrCityNotFound
	}
	return info, nil
}
