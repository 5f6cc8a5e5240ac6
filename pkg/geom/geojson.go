package geom

import (
	"bytes"
	"encoding/json"
	"strings"
)

// geoJSONGeometry is the output shape of every coordinate-bearing variant.
// Field order is fixed so encoding is byte-deterministic.
type geoJSONGeometry struct {
	Type        string      `json:"type"`
	Coordinates interface{} `json:"coordinates"`
}

type geoJSONCollection struct {
	Type       string            `json:"type"`
	Geometries []json.RawMessage `json:"geometries"`
}

type geoJSONFeature struct {
	Type       string          `json:"type"`
	Properties json.RawMessage `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

type geoJSONFeatureCollection struct {
	Type     string           `json:"type"`
	Features []geoJSONFeature `json:"features"`
}

// geoJSONObject is the permissive input shape: any of the geometry, feature
// or feature collection members may be present.
type geoJSONObject struct {
	Type        string            `json:"type"`
	Coordinates json.RawMessage   `json:"coordinates"`
	Geometries  []json.RawMessage `json:"geometries"`
	Geometry    json.RawMessage   `json:"geometry"`
	Features    []json.RawMessage `json:"features"`
}

var emptyProperties = json.RawMessage("[]")

// ==================== GeoJSON Writer ====================

// MarshalGeoJSON serializes g as a GeoJSON geometry object with positions in
// [longitude, latitude] order.
func MarshalGeoJSON(g Geometry) string {
	return string(appendGeoJSON(g))
}

// MarshalFeatureCollection wraps g in a single-feature FeatureCollection with
// empty properties.
func MarshalFeatureCollection(g Geometry) string {
	fc := geoJSONFeatureCollection{
		Type: "FeatureCollection",
		Features: []geoJSONFeature{{
			Type:       "Feature",
			Properties: emptyProperties,
			Geometry:   appendGeoJSON(g),
		}},
	}
	return string(mustMarshal(fc))
}

func appendGeoJSON(g Geometry) []byte {
	if c, ok := g.(*GeometryCollection); ok {
		members := make([]json.RawMessage, len(c.geometries))
		for i, member := range c.geometries {
			members[i] = appendGeoJSON(member)
		}
		return mustMarshal(geoJSONCollection{Type: c.Kind().String(), Geometries: members})
	}
	return mustMarshal(geoJSONGeometry{Type: g.Kind().String(), Coordinates: geoJSONCoordinates(g)})
}

func geoJSONCoordinates(g Geometry) interface{} {
	switch v := g.(type) {
	case *Point:
		return position(v.coord)
	case *LineString:
		return positions(v.coords)
	case *Polygon:
		return positionRings(v.rings)
	case *MultiPoint:
		return positions(v.coords)
	case *MultiLineString:
		return positionRings(v.lines)
	case *MultiPolygon:
		out := make([][][][]float64, len(v.polygons))
		for i, rings := range v.polygons {
			out[i] = positionRings(rings)
		}
		return out
	}
	return nil
}

func position(c Coordinate) []float64 {
	x, y := c.Pair()
	return []float64{x, y}
}

func positions(coords []Coordinate) [][]float64 {
	out := make([][]float64, len(coords))
	for i, c := range coords {
		out[i] = position(c)
	}
	return out
}

func positionRings(rings [][]Coordinate) [][][]float64 {
	out := make([][][]float64, len(rings))
	for i, ring := range rings {
		out[i] = positions(ring)
	}
	return out
}

// mustMarshal encodes values built from validated geometries. Coordinates are
// finite by construction, which is the only way encoding can fail here.
func mustMarshal(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// ==================== GeoJSON Reader ====================

// UnmarshalGeoJSON parses a GeoJSON geometry. A Feature, or a FeatureCollection
// holding exactly one feature, is unwrapped to its geometry. GeoJSON carries
// no SRID, so srid is applied to the result.
func UnmarshalGeoJSON(text string, srid int) (Geometry, error) {
	if err := validateSRID(srid); err != nil {
		return nil, err
	}
	return parseGeoJSON([]byte(text), srid, 0)
}

func parseGeoJSON(data []byte, srid, depth int) (Geometry, error) {
	if depth > maxNestingDepth {
		return nil, errorf(ErrCodeInvalidGeometry, "geojson nesting exceeds %d levels", maxNestingDepth)
	}
	if isJSONNull(data) {
		return nil, errorf(ErrCodeInvalidGeometry, "geojson geometry is null")
	}
	obj, err := decodeGeoJSONObject(data)
	if err != nil {
		return nil, err
	}

	switch obj.Type {
	case "":
		return nil, errorf(ErrCodeInvalidGeometry, "geojson object has no type")
	case "Feature":
		if isJSONNull(obj.Geometry) {
			return nil, errorf(ErrCodeInvalidGeometry, "feature has no geometry")
		}
		return parseGeoJSON(obj.Geometry, srid, depth+1)
	case "FeatureCollection":
		if len(obj.Features) != 1 {
			return nil, errorf(ErrCodeInvalidGeometry, "feature collection must hold exactly 1 feature, got %d", len(obj.Features))
		}
		return parseGeoJSON(obj.Features[0], srid, depth+1)
	}

	kind, ok := kindFromName(obj.Type)
	if !ok {
		return nil, errorf(ErrCodeInvalidGeometry, "unknown geojson type %q", obj.Type)
	}
	if kind == KindGeometryCollection {
		if obj.Geometries == nil {
			return nil, errorf(ErrCodeInvalidGeometry, "GeometryCollection requires a geometries member")
		}
		members := make([]Geometry, len(obj.Geometries))
		for i, raw := range obj.Geometries {
			member, err := parseGeoJSON(raw, srid, depth+1)
			if err != nil {
				return nil, wrapError(err, ErrCodeInvalidGeometry, "geometry collection member %d", i)
			}
			members[i] = member
		}
		return NewGeometryCollection(members, srid)
	}

	if isJSONNull(obj.Coordinates) {
		return nil, errorf(ErrCodeInvalidGeometry, "%s requires a coordinates member", kind)
	}
	switch kind {
	case KindPoint:
		c, err := decodePosition(obj.Coordinates)
		if err != nil {
			return nil, err
		}
		return newPoint(c, srid)
	case KindLineString, KindMultiPoint:
		coords, err := decodePositions(obj.Coordinates)
		if err != nil {
			return nil, err
		}
		if kind == KindLineString {
			return newLineString(coords, srid)
		}
		return newMultiPoint(coords, srid)
	case KindPolygon, KindMultiLineString:
		rings, err := decodeRings(obj.Coordinates)
		if err != nil {
			return nil, err
		}
		if kind == KindPolygon {
			return newPolygon(rings, srid)
		}
		return newMultiLineString(rings, srid)
	case KindMultiPolygon:
		elems, err := decodeArray(obj.Coordinates)
		if err != nil {
			return nil, err
		}
		polygons := make([][][]Coordinate, len(elems))
		for i, elem := range elems {
			rings, err := decodeRings(elem)
			if err != nil {
				return nil, err
			}
			polygons[i] = rings
		}
		return newMultiPolygon(polygons, srid)
	}
	return nil, errorf(ErrCodeInvalidGeometry, "unsupported geojson type %q", obj.Type)
}

var geoJSONMembers = []string{"type", "coordinates", "geometries", "geometry", "features"}

// decodeGeoJSONObject decodes data, rejecting member names that differ from
// the GeoJSON ones only by case. encoding/json would otherwise fold them.
func decodeGeoJSONObject(data []byte) (geoJSONObject, error) {
	var obj geoJSONObject
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return obj, NewError(ErrCodeInvalidGeometry, "invalid geojson", err)
	}
	for name := range members {
		for _, member := range geoJSONMembers {
			if name != member && strings.EqualFold(name, member) {
				return obj, errorf(ErrCodeInvalidGeometry, "geojson member %q must be spelled %q", name, member)
			}
		}
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return obj, NewError(ErrCodeInvalidGeometry, "invalid geojson", err)
	}
	return obj, nil
}

func isJSONNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// decodeArray splits a JSON array into its elements. null is not an array.
func decodeArray(raw json.RawMessage) ([]json.RawMessage, error) {
	if isJSONNull(raw) {
		return nil, errorf(ErrCodeInvalidGeometry, "coordinates array expected, got null")
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, NewError(ErrCodeInvalidGeometry, "coordinates have the wrong shape", err)
	}
	return elems, nil
}

func decodePosition(raw json.RawMessage) (Coordinate, error) {
	if isJSONNull(raw) {
		return Coordinate{}, errorf(ErrCodeInvalidGeometry, "position expected, got null")
	}
	var pos []*float64
	if err := json.Unmarshal(raw, &pos); err != nil {
		return Coordinate{}, NewError(ErrCodeInvalidGeometry, "position has the wrong shape", err)
	}
	if len(pos) != 2 {
		return Coordinate{}, errorf(ErrCodeInvalidGeometry, "position requires exactly 2 values, got %d", len(pos))
	}
	if pos[0] == nil || pos[1] == nil {
		return Coordinate{}, errorf(ErrCodeInvalidGeometry, "position values must be numbers, got null")
	}
	return CoordinateFromPair(*pos[0], *pos[1]), nil
}

func decodePositions(raw json.RawMessage) ([]Coordinate, error) {
	elems, err := decodeArray(raw)
	if err != nil {
		return nil, err
	}
	coords := make([]Coordinate, len(elems))
	for i, elem := range elems {
		if coords[i], err = decodePosition(elem); err != nil {
			return nil, err
		}
	}
	return coords, nil
}

func decodeRings(raw json.RawMessage) ([][]Coordinate, error) {
	elems, err := decodeArray(raw)
	if err != nil {
		return nil, err
	}
	rings := make([][]Coordinate, len(elems))
	for i, elem := range elems {
		if rings[i], err = decodePositions(elem); err != nil {
			return nil, err
		}
	}
	return rings, nil
}
