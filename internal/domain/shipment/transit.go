package shipment

import (
	"strings"
	"time"
)

// TransportMode is the primary means of carriage
type TransportMode string

const (
	TransportAir        TransportMode = "AIR_FREIGHT"
	TransportSea        TransportMode = "SEA_FREIGHT"
	TransportRoad       TransportMode = "ROAD_FREIGHT"
	TransportRail       TransportMode = "RAIL_FREIGHT"
	TransportMultimodal TransportMode = "MULTIMODAL"
)

// defaultTransitDays applies to modes missing from the table
const defaultTransitDays = 15

var baseTransitDays = map[TransportMode]int{
	TransportAir:        7,
	TransportRoad:       10,
	TransportRail:       12,
	TransportMultimodal: 18,
	TransportSea:        25,
}

// IsValid checks if the transport mode is valid
func (m TransportMode) IsValid() bool {
	_, ok := baseTransitDays[m]
	return ok
}

// String returns the string representation of TransportMode
func (m TransportMode) String() string {
	return string(m)
}

// BaseTransitDays returns the planned door-to-door days for m
func (m TransportMode) BaseTransitDays() int {
	if days, ok := baseTransitDays[m]; ok {
		return days
	}
	return defaultTransitDays
}

var countryAdjustments = map[string]int{
	// North America
	"usa": 5, "us": 5, "united states": 5, "united states of america": 5,
	"canada": 5, "mexico": 5,
	// Western Europe
	"uk": 3, "united kingdom": 3, "great britain": 3,
	"germany": 3, "france": 3, "italy": 3, "spain": 3,
	// Major Asian hubs
	"china": 2, "japan": 2, "south korea": 2, "singapore": 2,
}

// CountryAdjustmentDays returns the extra transit days for a destination country
func CountryAdjustmentDays(country string) int {
	return countryAdjustments[strings.ToLower(strings.TrimSpace(country))]
}

// EstimateTransitDays returns base days for mode plus the destination adjustment
func EstimateTransitDays(mode TransportMode, destinationCountry string) int {
	return mode.BaseTransitDays() + CountryAdjustmentDays(destinationCountry)
}

// EstimateDeliveryDate adds the estimated transit days to from
func EstimateDeliveryDate(mode TransportMode, destinationCountry string, from time.Time) time.Time {
	return from.AddDate(0, 0, EstimateTransitDays(mode, destinationCountry))
}
