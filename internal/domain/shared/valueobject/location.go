package valueobject

import (
	"errors"
	"strings"
)

// Location is a point on a shipment route
type Location struct {
	Name       string   `json:"name,omitempty"`
	Address    string   `json:"address,omitempty"`
	City       string   `json:"city"`
	State      string   `json:"state,omitempty"`
	Country    string   `json:"country"`
	PostalCode string   `json:"postal_code,omitempty"`
	PortCode   string   `json:"port_code,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
}

// NewLocation creates a Location; city and country are required
func NewLocation(city, country string) (Location, error) {
	loc := Location{City: strings.TrimSpace(city), Country: strings.TrimSpace(country)}
	if err := loc.Validate(); err != nil {
		return Location{}, err
	}
	return loc, nil
}

// Validate checks the required fields
func (l Location) Validate() error {
	if strings.TrimSpace(l.City) == "" {
		return errors.New("location city is required")
	}
	if strings.TrimSpace(l.Country) == "" {
		return errors.New("location country is required")
	}
	return nil
}

// IsZero reports whether the location carries no data
func (l Location) IsZero() bool {
	return l.City == "" && l.Country == "" && l.Name == "" && l.Address == ""
}

// Public returns the location reduced to city and country, safe to show customers
func (l Location) Public() Location {
	return Location{City: l.City, Country: l.Country}
}

// String renders "City, Country"
func (l Location) String() string {
	switch {
	case l.City == "":
		return l.Country
	case l.Country == "":
		return l.City
	default:
		return l.City + ", " + l.Country
	}
}
