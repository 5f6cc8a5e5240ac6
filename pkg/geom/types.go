package geom

import (
	"fmt"
	"math"
	"strings"
)

// ==================== Kind ====================

// Kind identifies one of the seven geometry variants. The numeric value is
// the WKB type code.
type Kind int

const (
	KindPoint Kind = iota + 1
	KindLineString
	KindPolygon
	KindMultiPoint
	KindMultiLineString
	KindMultiPolygon
	KindGeometryCollection
)

var kindNames = [...]string{
	KindPoint:              "Point",
	KindLineString:         "LineString",
	KindPolygon:            "Polygon",
	KindMultiPoint:         "MultiPoint",
	KindMultiLineString:    "MultiLineString",
	KindMultiPolygon:       "MultiPolygon",
	KindGeometryCollection: "GeometryCollection",
}

func (k Kind) valid() bool {
	return k >= KindPoint && k <= KindGeometryCollection
}

// String returns the GeoJSON type name.
func (k Kind) String() string {
	if !k.valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Keyword returns the upper-case WKT keyword.
func (k Kind) Keyword() string {
	return strings.ToUpper(k.String())
}

func kindFromKeyword(word string) (Kind, bool) {
	for k := KindPoint; k <= KindGeometryCollection; k++ {
		if strings.EqualFold(word, kindNames[k]) {
			return k, true
		}
	}
	return 0, false
}

func kindFromName(name string) (Kind, bool) {
	for k := KindPoint; k <= KindGeometryCollection; k++ {
		if name == kindNames[k] {
			return k, true
		}
	}
	return 0, false
}

// ==================== Geometry Interface ====================

// Geometry is implemented by the seven variant types of this package only.
type Geometry interface {
	Kind() Kind
	SRID() int             // 0 means no reference system declared
	IsEmpty() bool         // true for collections without members
	NumPoints() int        // total number of coordinates
	Envelope() BoundingBox // minimum bounding rectangle in x/y order
	Equal(other Geometry) bool
	WKT() string
	WKB() []byte
	JSON() string
	FeatureCollectionJSON() string

	stamp(srid int) Geometry
	eachCoordinate(fn func(Coordinate))
}

// IsNil reports whether g is nil or a typed nil pointer.
func IsNil(g Geometry) bool {
	switch v := g.(type) {
	case nil:
		return true
	case *Point:
		return v == nil
	case *LineString:
		return v == nil
	case *Polygon:
		return v == nil
	case *MultiPoint:
		return v == nil
	case *MultiLineString:
		return v == nil
	case *MultiPolygon:
		return v == nil
	case *GeometryCollection:
		return v == nil
	}
	return false
}

// WithSRID returns a copy of g carrying srid. Members of collections are
// restamped as well.
func WithSRID[T Geometry](g T, srid int) (T, error) {
	var zero T
	if IsNil(g) {
		return zero, errorf(ErrCodeInvalidGeometry, "nil geometry")
	}
	if err := validateSRID(srid); err != nil {
		return zero, err
	}
	return g.stamp(srid).(T), nil
}

func describe(g Geometry) string {
	if IsNil(g) {
		return "nil"
	}
	return g.Kind().String()
}

// ==================== Bounding Box ====================

// BoundingBox is a minimum bounding rectangle with X as longitude and Y as
// latitude.
type BoundingBox struct {
	MinX, MinY, MaxX, MaxY float64
}

// Intersects returns true if this box overlaps with another box.
func (b BoundingBox) Intersects(other BoundingBox) bool {
	return b.MinX <= other.MaxX && b.MaxX >= other.MinX &&
		b.MinY <= other.MaxY && b.MaxY >= other.MinY
}

// Expand returns a new BoundingBox that contains both this and the other box.
func (b BoundingBox) Expand(other BoundingBox) BoundingBox {
	return BoundingBox{
		MinX: math.Min(b.MinX, other.MinX),
		MinY: math.Min(b.MinY, other.MinY),
		MaxX: math.Max(b.MaxX, other.MaxX),
		MaxY: math.Max(b.MaxY, other.MaxY),
	}
}

func envelopeOf(g Geometry) BoundingBox {
	var (
		bb    BoundingBox
		found bool
	)
	g.eachCoordinate(func(c Coordinate) {
		x, y := c.Pair()
		pt := BoundingBox{MinX: x, MinY: y, MaxX: x, MaxY: y}
		if !found {
			bb, found = pt, true
			return
		}
		bb = bb.Expand(pt)
	})
	return bb
}

func countPoints(g Geometry) int {
	n := 0
	g.eachCoordinate(func(Coordinate) { n++ })
	return n
}

// ==================== Point ====================

// Point is a single position.
type Point struct {
	coord Coordinate
	srid  int
}

// NewPoint creates a point from latitude and longitude, in that order.
func NewPoint(latitude, longitude float64, srid int) (*Point, error) {
	return newPoint(NewCoordinate(latitude, longitude), srid)
}

func newPoint(c Coordinate, srid int) (*Point, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	if err := validateSRID(srid); err != nil {
		return nil, err
	}
	return &Point{coord: c, srid: srid}, nil
}

func (p *Point) Kind() Kind             { return KindPoint }
func (p *Point) SRID() int              { return p.srid }
func (p *Point) IsEmpty() bool          { return false }
func (p *Point) NumPoints() int         { return 1 }
func (p *Point) Envelope() BoundingBox  { return envelopeOf(p) }
func (p *Point) Coordinate() Coordinate { return p.coord }
func (p *Point) Latitude() float64      { return p.coord.Latitude }
func (p *Point) Longitude() float64     { return p.coord.Longitude }

func (p *Point) Equal(other Geometry) bool {
	o, ok := other.(*Point)
	if !ok || p == nil || o == nil {
		return ok && p == nil && o == nil
	}
	return p.srid == o.srid && p.coord == o.coord
}

func (p *Point) stamp(srid int) Geometry {
	cp := *p
	cp.srid = srid
	return &cp
}

func (p *Point) eachCoordinate(fn func(Coordinate)) { fn(p.coord) }

// ==================== LineString ====================

// LineString is an ordered sequence of at least two points.
type LineString struct {
	coords []Coordinate
	srid   int
}

// NewLineString creates a line string. It fails with INVALID_GEOMETRY when
// fewer than two points are given.
func NewLineString(points []*Point, srid int) (*LineString, error) {
	coords := make([]Coordinate, len(points))
	for i, p := range points {
		if p == nil {
			return nil, errorf(ErrCodeInvalidGeometry, "line string point %d is nil", i)
		}
		coords[i] = p.coord
	}
	return newLineString(coords, srid)
}

// NewLineStringFromGeometries creates a line string from loosely typed
// members. Any member that is not a Point fails with TYPE_MISMATCH.
func NewLineStringFromGeometries(geometries []Geometry, srid int) (*LineString, error) {
	points := make([]*Point, len(geometries))
	for i, g := range geometries {
		p, ok := g.(*Point)
		if !ok || p == nil {
			return nil, errorf(ErrCodeTypeMismatch, "line string expects Point at index %d, got %s", i, describe(g))
		}
		points[i] = p
	}
	return NewLineString(points, srid)
}

func newLineString(coords []Coordinate, srid int) (*LineString, error) {
	if len(coords) < 2 {
		return nil, errorf(ErrCodeInvalidGeometry, "line string requires at least 2 points, got %d", len(coords))
	}
	if err := validateCoordinates(coords); err != nil {
		return nil, err
	}
	if err := validateSRID(srid); err != nil {
		return nil, err
	}
	return &LineString{coords: coords, srid: srid}, nil
}

func (l *LineString) Kind() Kind            { return KindLineString }
func (l *LineString) SRID() int             { return l.srid }
func (l *LineString) IsEmpty() bool         { return false }
func (l *LineString) NumPoints() int        { return len(l.coords) }
func (l *LineString) Envelope() BoundingBox { return envelopeOf(l) }

// Coordinates returns a copy of the vertices.
func (l *LineString) Coordinates() []Coordinate { return copyCoords(l.coords) }

// Points returns the vertices as points sharing the line string's SRID.
func (l *LineString) Points() []*Point {
	points := make([]*Point, len(l.coords))
	for i, c := range l.coords {
		points[i] = &Point{coord: c, srid: l.srid}
	}
	return points
}

func (l *LineString) Equal(other Geometry) bool {
	o, ok := other.(*LineString)
	if !ok || l == nil || o == nil {
		return ok && l == nil && o == nil
	}
	return l.srid == o.srid && coordsEqual(l.coords, o.coords)
}

func (l *LineString) stamp(srid int) Geometry {
	cp := *l
	cp.srid = srid
	return &cp
}

func (l *LineString) eachCoordinate(fn func(Coordinate)) {
	for _, c := range l.coords {
		fn(c)
	}
}

// ==================== Polygon ====================

// Polygon is a sequence of rings: Rings[0] is the exterior, the rest are
// holes. Ring closure is not enforced.
type Polygon struct {
	rings [][]Coordinate
	srid  int
}

// NewPolygon creates a polygon from at least one ring.
func NewPolygon(rings []*LineString, srid int) (*Polygon, error) {
	coords := make([][]Coordinate, len(rings))
	for i, r := range rings {
		if r == nil {
			return nil, errorf(ErrCodeInvalidGeometry, "polygon ring %d is nil", i)
		}
		coords[i] = r.coords
	}
	return newPolygon(coords, srid)
}

func newPolygon(rings [][]Coordinate, srid int) (*Polygon, error) {
	if len(rings) == 0 {
		return nil, errorf(ErrCodeInvalidGeometry, "polygon requires at least 1 ring")
	}
	for i, ring := range rings {
		if len(ring) < 2 {
			return nil, errorf(ErrCodeInvalidGeometry, "polygon ring %d requires at least 2 points, got %d", i, len(ring))
		}
		if err := validateCoordinates(ring); err != nil {
			return nil, err
		}
	}
	if err := validateSRID(srid); err != nil {
		return nil, err
	}
	return &Polygon{rings: rings, srid: srid}, nil
}

func (p *Polygon) Kind() Kind            { return KindPolygon }
func (p *Polygon) SRID() int             { return p.srid }
func (p *Polygon) IsEmpty() bool         { return false }
func (p *Polygon) NumPoints() int        { return countPoints(p) }
func (p *Polygon) Envelope() BoundingBox { return envelopeOf(p) }

// Rings returns the rings as line strings sharing the polygon's SRID.
func (p *Polygon) Rings() []*LineString {
	rings := make([]*LineString, len(p.rings))
	for i, r := range p.rings {
		rings[i] = &LineString{coords: r, srid: p.srid}
	}
	return rings
}

func (p *Polygon) Equal(other Geometry) bool {
	o, ok := other.(*Polygon)
	if !ok || p == nil || o == nil {
		return ok && p == nil && o == nil
	}
	return p.srid == o.srid && ringsEqual(p.rings, o.rings)
}

func (p *Polygon) stamp(srid int) Geometry {
	cp := *p
	cp.srid = srid
	return &cp
}

func (p *Polygon) eachCoordinate(fn func(Coordinate)) {
	for _, ring := range p.rings {
		for _, c := range ring {
			fn(c)
		}
	}
}

// ==================== MultiPoint ====================

// MultiPoint is a possibly empty collection of points.
type MultiPoint struct {
	coords []Coordinate
	srid   int
}

// NewMultiPoint creates a multi point.
func NewMultiPoint(points []*Point, srid int) (*MultiPoint, error) {
	coords := make([]Coordinate, len(points))
	for i, p := range points {
		if p == nil {
			return nil, errorf(ErrCodeInvalidGeometry, "multi point member %d is nil", i)
		}
		coords[i] = p.coord
	}
	return newMultiPoint(coords, srid)
}

func newMultiPoint(coords []Coordinate, srid int) (*MultiPoint, error) {
	if err := validateCoordinates(coords); err != nil {
		return nil, err
	}
	if err := validateSRID(srid); err != nil {
		return nil, err
	}
	return &MultiPoint{coords: coords, srid: srid}, nil
}

func (m *MultiPoint) Kind() Kind            { return KindMultiPoint }
func (m *MultiPoint) SRID() int             { return m.srid }
func (m *MultiPoint) IsEmpty() bool         { return len(m.coords) == 0 }
func (m *MultiPoint) NumPoints() int        { return len(m.coords) }
func (m *MultiPoint) Envelope() BoundingBox { return envelopeOf(m) }

// Points returns the members sharing the collection's SRID.
func (m *MultiPoint) Points() []*Point {
	points := make([]*Point, len(m.coords))
	for i, c := range m.coords {
		points[i] = &Point{coord: c, srid: m.srid}
	}
	return points
}

func (m *MultiPoint) Equal(other Geometry) bool {
	o, ok := other.(*MultiPoint)
	if !ok || m == nil || o == nil {
		return ok && m == nil && o == nil
	}
	return m.srid == o.srid && coordsEqual(m.coords, o.coords)
}

func (m *MultiPoint) stamp(srid int) Geometry {
	cp := *m
	cp.srid = srid
	return &cp
}

func (m *MultiPoint) eachCoordinate(fn func(Coordinate)) {
	for _, c := range m.coords {
		fn(c)
	}
}

// ==================== MultiLineString ====================

// MultiLineString is a possibly empty collection of line strings.
type MultiLineString struct {
	lines [][]Coordinate
	srid  int
}

// NewMultiLineString creates a multi line string.
func NewMultiLineString(lines []*LineString, srid int) (*MultiLineString, error) {
	coords := make([][]Coordinate, len(lines))
	for i, l := range lines {
		if l == nil {
			return nil, errorf(ErrCodeInvalidGeometry, "multi line string member %d is nil", i)
		}
		coords[i] = l.coords
	}
	return newMultiLineString(coords, srid)
}

func newMultiLineString(lines [][]Coordinate, srid int) (*MultiLineString, error) {
	for i, line := range lines {
		if len(line) < 2 {
			return nil, errorf(ErrCodeInvalidGeometry, "multi line string member %d requires at least 2 points, got %d", i, len(line))
		}
		if err := validateCoordinates(line); err != nil {
			return nil, err
		}
	}
	if err := validateSRID(srid); err != nil {
		return nil, err
	}
	return &MultiLineString{lines: lines, srid: srid}, nil
}

func (m *MultiLineString) Kind() Kind            { return KindMultiLineString }
func (m *MultiLineString) SRID() int             { return m.srid }
func (m *MultiLineString) IsEmpty() bool         { return len(m.lines) == 0 }
func (m *MultiLineString) NumPoints() int        { return countPoints(m) }
func (m *MultiLineString) Envelope() BoundingBox { return envelopeOf(m) }

// LineStrings returns the members sharing the collection's SRID.
func (m *MultiLineString) LineStrings() []*LineString {
	lines := make([]*LineString, len(m.lines))
	for i, l := range m.lines {
		lines[i] = &LineString{coords: l, srid: m.srid}
	}
	return lines
}

func (m *MultiLineString) Equal(other Geometry) bool {
	o, ok := other.(*MultiLineString)
	if !ok || m == nil || o == nil {
		return ok && m == nil && o == nil
	}
	return m.srid == o.srid && ringsEqual(m.lines, o.lines)
}

func (m *MultiLineString) stamp(srid int) Geometry {
	cp := *m
	cp.srid = srid
	return &cp
}

func (m *MultiLineString) eachCoordinate(fn func(Coordinate)) {
	for _, line := range m.lines {
		for _, c := range line {
			fn(c)
		}
	}
}

// ==================== MultiPolygon ====================

// MultiPolygon is a possibly empty collection of polygons.
type MultiPolygon struct {
	polygons [][][]Coordinate
	srid     int
}

// NewMultiPolygon creates a multi polygon.
func NewMultiPolygon(polygons []*Polygon, srid int) (*MultiPolygon, error) {
	coords := make([][][]Coordinate, len(polygons))
	for i, p := range polygons {
		if p == nil {
			return nil, errorf(ErrCodeInvalidGeometry, "multi polygon member %d is nil", i)
		}
		coords[i] = p.rings
	}
	return newMultiPolygon(coords, srid)
}

func newMultiPolygon(polygons [][][]Coordinate, srid int) (*MultiPolygon, error) {
	for i, rings := range polygons {
		if _, err := newPolygon(rings, srid); err != nil {
			return nil, wrapError(err, ErrCodeInvalidGeometry, "multi polygon member %d", i)
		}
	}
	if err := validateSRID(srid); err != nil {
		return nil, err
	}
	return &MultiPolygon{polygons: polygons, srid: srid}, nil
}

func (m *MultiPolygon) Kind() Kind            { return KindMultiPolygon }
func (m *MultiPolygon) SRID() int             { return m.srid }
func (m *MultiPolygon) IsEmpty() bool         { return len(m.polygons) == 0 }
func (m *MultiPolygon) NumPoints() int        { return countPoints(m) }
func (m *MultiPolygon) Envelope() BoundingBox { return envelopeOf(m) }

// Polygons returns the members sharing the collection's SRID.
func (m *MultiPolygon) Polygons() []*Polygon {
	polygons := make([]*Polygon, len(m.polygons))
	for i, rings := range m.polygons {
		polygons[i] = &Polygon{rings: rings, srid: m.srid}
	}
	return polygons
}

func (m *MultiPolygon) Equal(other Geometry) bool {
	o, ok := other.(*MultiPolygon)
	if !ok || m == nil || o == nil {
		return ok && m == nil && o == nil
	}
	if m.srid != o.srid || len(m.polygons) != len(o.polygons) {
		return false
	}
	for i := range m.polygons {
		if !ringsEqual(m.polygons[i], o.polygons[i]) {
			return false
		}
	}
	return true
}

func (m *MultiPolygon) stamp(srid int) Geometry {
	cp := *m
	cp.srid = srid
	return &cp
}

func (m *MultiPolygon) eachCoordinate(fn func(Coordinate)) {
	for _, rings := range m.polygons {
		for _, ring := range rings {
			for _, c := range ring {
				fn(c)
			}
		}
	}
}

// ==================== GeometryCollection ====================

// GeometryCollection is a heterogeneous, possibly nested, collection.
type GeometryCollection struct {
	geometries []Geometry
	srid       int
}

// NewGeometryCollection creates a collection. Members are copied with the
// collection's SRID.
func NewGeometryCollection(geometries []Geometry, srid int) (*GeometryCollection, error) {
	if err := validateSRID(srid); err != nil {
		return nil, err
	}
	members := make([]Geometry, len(geometries))
	for i, g := range geometries {
		if IsNil(g) {
			return nil, errorf(ErrCodeInvalidGeometry, "geometry collection member %d is nil", i)
		}
		members[i] = g.stamp(srid)
	}
	return &GeometryCollection{geometries: members, srid: srid}, nil
}

func (c *GeometryCollection) Kind() Kind            { return KindGeometryCollection }
func (c *GeometryCollection) SRID() int             { return c.srid }
func (c *GeometryCollection) IsEmpty() bool         { return len(c.geometries) == 0 }
func (c *GeometryCollection) NumPoints() int        { return countPoints(c) }
func (c *GeometryCollection) Envelope() BoundingBox { return envelopeOf(c) }

// Geometries returns the members.
func (c *GeometryCollection) Geometries() []Geometry {
	out := make([]Geometry, len(c.geometries))
	copy(out, c.geometries)
	return out
}

func (c *GeometryCollection) Equal(other Geometry) bool {
	o, ok := other.(*GeometryCollection)
	if !ok || c == nil || o == nil {
		return ok && c == nil && o == nil
	}
	if c.srid != o.srid || len(c.geometries) != len(o.geometries) {
		return false
	}
	for i := range c.geometries {
		if !c.geometries[i].Equal(o.geometries[i]) {
			return false
		}
	}
	return true
}

func (c *GeometryCollection) stamp(srid int) Geometry {
	members := make([]Geometry, len(c.geometries))
	for i, g := range c.geometries {
		members[i] = g.stamp(srid)
	}
	return &GeometryCollection{geometries: members, srid: srid}
}

func (c *GeometryCollection) eachCoordinate(fn func(Coordinate)) {
	for _, g := range c.geometries {
		g.eachCoordinate(fn)
	}
}
