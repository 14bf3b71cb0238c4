package models

import "strings"

// Station is the preparation area responsible for an order item.
type Station string

const (
	StationKitchen Station = "KITCHEN"
	StationBar     Station = "BAR"
)

// ParseStation accepts "kitchen"/"bar" in any case.
func ParseStation(s string) (Station, bool) {
	switch Station(strings.ToUpper(strings.TrimSpace(s))) {
	case StationKitchen:
		return StationKitchen, true
	case StationBar:
		return StationBar, true
	}
	return "", false
}

// Label is the lower-case display name.
func (s Station) Label() string {
	return strings.ToLower(string(s))
}
