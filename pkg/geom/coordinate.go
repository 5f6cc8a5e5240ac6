package geom

import "math"

// Coordinate is a geographic position. It is constructed latitude first but
// every wire format writes it as (x=longitude, y=latitude). Codecs convert
// only through Pair and CoordinateFromPair.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// NewCoordinate builds a coordinate in construction order.
func NewCoordinate(latitude, longitude float64) Coordinate {
	return Coordinate{Latitude: latitude, Longitude: longitude}
}

// CoordinateFromPair builds a coordinate from a serialized (x, y) pair.
func CoordinateFromPair(x, y float64) Coordinate {
	return Coordinate{Latitude: y, Longitude: x}
}

// Pair returns the coordinate in serialization order.
func (c Coordinate) Pair() (x, y float64) {
	return c.Longitude, c.Latitude
}

func (c Coordinate) validate() error {
	if !isFinite(c.Latitude) || !isFinite(c.Longitude) {
		return errorf(ErrCodeInvalidGeometry, "coordinate (%v, %v) is not finite", c.Latitude, c.Longitude)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func validateCoordinates(coords []Coordinate) error {
	for _, c := range coords {
		if err := c.validate(); err != nil {
			return err
		}
	}
	return nil
}

func validateSRID(srid int) error {
	if srid < 0 || int64(srid) > math.MaxUint32 {
		return errorf(ErrCodeInvalidGeometry, "srid %d out of range", srid)
	}
	return nil
}

func coordsEqual(a, b []Coordinate) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func ringsEqual(a, b [][]Coordinate) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !coordsEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func copyCoords(coords []Coordinate) []Coordinate {
	out := make([]Coordinate, len(coords))
	copy(out, coords)
	return out
}
