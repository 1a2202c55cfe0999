package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidFix = errors.New("invalid location fix")

// LocationFix is one reported location sample. It is forwarded once and never stored.
type LocationFix struct {
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	Accuracy        float64 `json:"accuracy"`
	TimestampMillis int64   `json:"timestamp"`
}

// Time returns the fix timestamp as a UTC time.
func (f LocationFix) Time() time.Time {
	return time.UnixMilli(f.TimestampMillis).UTC()
}

// Validate checks the coordinate ranges and accuracy sign.
func (f LocationFix) Validate() error {
	switch {
	case f.Latitude < -90 || f.Latitude > 90:
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidFix, f.Latitude)
	case f.Longitude < -180 || f.Longitude > 180:
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidFix, f.Longitude)
	case f.Accuracy < 0:
		return fmt.Errorf("%w: negative accuracy", ErrInvalidFix)
	}
	return nil
}

// LocationResult is the payload of a single provider callback. Providers may
// batch several fixes into one result when updates are delayed.
type LocationResult struct {
	Locations []LocationFix
}

// LastLocation returns the most recent fix in the result.
func (r LocationResult) LastLocation() (LocationFix, bool) {
	if len(r.Locations) == 0 {
		return LocationFix{}, false
	}
	return r.Locations[len(r.Locations)-1], true
}
