package geom

// ==================== Parsing ====================

// FromWKT parses Well-Known Text. The concrete variant follows the keyword.
func FromWKT(text string, srid int) (Geometry, error) {
	return UnmarshalWKT(text, srid)
}

// FromWKB parses Well-Known Binary. The concrete variant follows the type
// code and the SRID comes from the header.
func FromWKB(data []byte) (Geometry, error) {
	return UnmarshalWKB(data)
}

// FromJSON parses a GeoJSON geometry and applies srid to it.
func FromJSON(text string, srid int) (Geometry, error) {
	return UnmarshalGeoJSON(text, srid)
}

// ==================== Typed Extraction ====================

// As returns g as the concrete variant T, or a TYPE_MISMATCH error.
func As[T Geometry](g Geometry) (T, error) {
	var zero T
	if IsNil(g) {
		return zero, errorf(ErrCodeTypeMismatch, "expected %s, got nil geometry", kindOf[T]())
	}
	v, ok := g.(T)
	if !ok {
		return zero, errorf(ErrCodeTypeMismatch, "expected %s, got %s", kindOf[T](), g.Kind())
	}
	return v, nil
}

// Expect passes through a parse result, narrowing it to T:
//
//	line, err := geom.Expect[*geom.LineString](geom.FromJSON(text, 0))
func Expect[T Geometry](g Geometry, err error) (T, error) {
	if err != nil {
		var zero T
		return zero, err
	}
	return As[T](g)
}

func AsPoint(g Geometry) (*Point, error)                     { return As[*Point](g) }
func AsLineString(g Geometry) (*LineString, error)           { return As[*LineString](g) }
func AsPolygon(g Geometry) (*Polygon, error)                 { return As[*Polygon](g) }
func AsMultiPoint(g Geometry) (*MultiPoint, error)           { return As[*MultiPoint](g) }
func AsMultiLineString(g Geometry) (*MultiLineString, error) { return As[*MultiLineString](g) }
func AsMultiPolygon(g Geometry) (*MultiPolygon, error)       { return As[*MultiPolygon](g) }

func AsGeometryCollection(g Geometry) (*GeometryCollection, error) {
	return As[*GeometryCollection](g)
}

// KindOf returns the kind of the concrete variant T.
func KindOf[T Geometry]() Kind {
	return kindOf[T]()
}

func kindOf[T Geometry]() Kind {
	var zero T
	switch any(zero).(type) {
	case *Point:
		return KindPoint
	case *LineString:
		return KindLineString
	case *Polygon:
		return KindPolygon
	case *MultiPoint:
		return KindMultiPoint
	case *MultiLineString:
		return KindMultiLineString
	case *MultiPolygon:
		return KindMultiPolygon
	case *GeometryCollection:
		return KindGeometryCollection
	}
	return 0
}

// ==================== Serialization ====================

func (p *Point) WKT() string                   { return MarshalWKT(p) }
func (p *Point) WKB() []byte                   { return MarshalWKB(p) }
func (p *Point) JSON() string                  { return MarshalGeoJSON(p) }
func (p *Point) FeatureCollectionJSON() string { return MarshalFeatureCollection(p) }

func (l *LineString) WKT() string                   { return MarshalWKT(l) }
func (l *LineString) WKB() []byte                   { return MarshalWKB(l) }
func (l *LineString) JSON() string                  { return MarshalGeoJSON(l) }
func (l *LineString) FeatureCollectionJSON() string { return MarshalFeatureCollection(l) }

func (p *Polygon) WKT() string                   { return MarshalWKT(p) }
func (p *Polygon) WKB() []byte                   { return MarshalWKB(p) }
func (p *Polygon) JSON() string                  { return MarshalGeoJSON(p) }
func (p *Polygon) FeatureCollectionJSON() string { return MarshalFeatureCollection(p) }

func (m *MultiPoint) WKT() string                   { return MarshalWKT(m) }
func (m *MultiPoint) WKB() []byte                   { return MarshalWKB(m) }
func (m *MultiPoint) JSON() string                  { return MarshalGeoJSON(m) }
func (m *MultiPoint) FeatureCollectionJSON() string { return MarshalFeatureCollection(m) }

func (m *MultiLineString) WKT() string                   { return MarshalWKT(m) }
func (m *MultiLineString) WKB() []byte                   { return MarshalWKB(m) }
func (m *MultiLineString) JSON() string                  { return MarshalGeoJSON(m) }
func (m *MultiLineString) FeatureCollectionJSON() string { return MarshalFeatureCollection(m) }

func (m *MultiPolygon) WKT() string                   { return MarshalWKT(m) }
func (m *MultiPolygon) WKB() []byte                   { return MarshalWKB(m) }
func (m *MultiPolygon) JSON() string                  { return MarshalGeoJSON(m) }
func (m *MultiPolygon) FeatureCollectionJSON() string { return MarshalFeatureCollection(m) }

func (c *GeometryCollection) WKT() string                   { return MarshalWKT(c) }
func (c *GeometryCollection) WKB() []byte                   { return MarshalWKB(c) }
func (c *GeometryCollection) JSON() string                  { return MarshalGeoJSON(c) }
func (c *GeometryCollection) FeatureCollectionJSON() string { return MarshalFeatureCollection(c) }
