package geom

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPoint(t *testing.T, lat, lng float64, srid int) *Point {
	t.Helper()
	p, err := NewPoint(lat, lng, srid)
	require.NoError(t, err)
	return p
}

func mustLineString(t *testing.T, srid int, coords ...float64) *LineString {
	t.Helper()
	points := make([]*Point, 0, len(coords)/2)
	for i := 0; i+1 < len(coords); i += 2 {
		points = append(points, mustPoint(t, coords[i], coords[i+1], srid))
	}
	l, err := NewLineString(points, srid)
	require.NoError(t, err)
	return l
}

func TestCoordinate_AxisOrder(t *testing.T) {
	c := NewCoordinate(10, 20)
	x, y := c.Pair()
	assert.Equal(t, 20.0, x)
	assert.Equal(t, 10.0, y)
	assert.Equal(t, c, CoordinateFromPair(x, y))
}

func TestNewPoint(t *testing.T) {
	p := mustPoint(t, 1.5, -2.5, 4326)
	assert.Equal(t, KindPoint, p.Kind())
	assert.Equal(t, 1.5, p.Latitude())
	assert.Equal(t, -2.5, p.Longitude())
	assert.Equal(t, 4326, p.SRID())
	assert.Equal(t, 1, p.NumPoints())
	assert.False(t, p.IsEmpty())
}

func TestNewPoint_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng float64
		srid     int
	}{
		{"nan latitude", math.NaN(), 0, 0},
		{"inf longitude", 0, math.Inf(1), 0},
		{"negative srid", 0, 0, -1},
		{"srid overflow", 0, 0, math.MaxUint32 + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPoint(tt.lat, tt.lng, tt.srid)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidGeometry))
		})
	}
}

func TestNewLineString_TooFewPoints(t *testing.T) {
	_, err := NewLineString([]*Point{mustPoint(t, 0, 0, 0)}, 0)
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidGeometry, GetErrorCode(err))

	_, err = NewLineString(nil, 0)
	assert.True(t, IsErrorCode(err, ErrCodeInvalidGeometry))
}

func TestNewLineStringFromGeometries_TypeMismatch(t *testing.T) {
	ring := mustLineString(t, 0, 0, 0, 0, 1, 1, 1, 0, 0)
	poly, err := NewPolygon([]*LineString{ring}, 0)
	require.NoError(t, err)

	_, err = NewLineStringFromGeometries([]Geometry{mustPoint(t, 0, 0, 0), poly}, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	line, err := NewLineStringFromGeometries([]Geometry{mustPoint(t, 0, 180, 0), mustPoint(t, 1, 179, 0)}, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, line.NumPoints())
}

func TestNewPolygon(t *testing.T) {
	outer := mustLineString(t, 0, 0, 0, 0, 10, 10, 10, 10, 0, 0, 0)
	hole := mustLineString(t, 0, 2, 2, 2, 4, 4, 4, 2, 2)
	poly, err := NewPolygon([]*LineString{outer, hole}, 4326)
	require.NoError(t, err)

	assert.Len(t, poly.Rings(), 2)
	assert.Equal(t, 9, poly.NumPoints())
	for _, r := range poly.Rings() {
		assert.Equal(t, 4326, r.SRID())
	}

	_, err = NewPolygon(nil, 0)
	assert.True(t, IsErrorCode(err, ErrCodeInvalidGeometry))
	_, err = NewPolygon([]*LineString{nil}, 0)
	assert.True(t, IsErrorCode(err, ErrCodeInvalidGeometry))
}

func TestMultiGeometries_Empty(t *testing.T) {
	mp, err := NewMultiPoint(nil, 0)
	require.NoError(t, err)
	assert.True(t, mp.IsEmpty())

	ml, err := NewMultiLineString(nil, 0)
	require.NoError(t, err)
	assert.True(t, ml.IsEmpty())

	mpoly, err := NewMultiPolygon(nil, 0)
	require.NoError(t, err)
	assert.True(t, mpoly.IsEmpty())

	gc, err := NewGeometryCollection(nil, 0)
	require.NoError(t, err)
	assert.True(t, gc.IsEmpty())
	assert.Equal(t, 0, gc.NumPoints())
}

func TestGeometryCollection_StampsChildren(t *testing.T) {
	p := mustPoint(t, 1, 2, 0)
	gc, err := NewGeometryCollection([]Geometry{p}, 3857)
	require.NoError(t, err)

	members := gc.Geometries()
	require.Len(t, members, 1)
	assert.Equal(t, 3857, members[0].SRID())
	assert.Equal(t, 0, p.SRID(), "input member must not be modified")

	_, err = NewGeometryCollection([]Geometry{(*Point)(nil)}, 0)
	assert.True(t, IsErrorCode(err, ErrCodeInvalidGeometry))
}

func TestEqual(t *testing.T) {
	a := mustLineString(t, 0, 0, 180, 1, 179)
	b := mustLineString(t, 0, 0, 180, 1, 179)
	c := mustLineString(t, 4326, 0, 180, 1, 179)
	d := mustLineString(t, 0, 0, 180, 1, 178)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c), "srid is part of equality")
	assert.False(t, a.Equal(d))
	assert.False(t, a.Equal(mustPoint(t, 0, 180, 0)))
	assert.False(t, a.Equal(nil))
	assert.False(t, a.Equal((*LineString)(nil)))
}

func TestEqual_NilReceiver(t *testing.T) {
	p := mustPoint(t, 1, 2, 0)
	tests := []struct {
		name   string
		nilGeo Geometry
		same   Geometry
	}{
		{"point", (*Point)(nil), (*Point)(nil)},
		{"linestring", (*LineString)(nil), (*LineString)(nil)},
		{"polygon", (*Polygon)(nil), (*Polygon)(nil)},
		{"multipoint", (*MultiPoint)(nil), (*MultiPoint)(nil)},
		{"multilinestring", (*MultiLineString)(nil), (*MultiLineString)(nil)},
		{"multipolygon", (*MultiPolygon)(nil), (*MultiPolygon)(nil)},
		{"collection", (*GeometryCollection)(nil), (*GeometryCollection)(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, tt.nilGeo.Equal(p))
				assert.False(t, tt.nilGeo.Equal(nil))
				assert.True(t, tt.nilGeo.Equal(tt.same))
			})
		})
	}
	assert.False(t, p.Equal((*Point)(nil)))
}

func TestWithSRID(t *testing.T) {
	p := mustPoint(t, 1, 2, 0)
	gc, err := NewGeometryCollection([]Geometry{p}, 0)
	require.NoError(t, err)

	stamped, err := WithSRID(gc, 4326)
	require.NoError(t, err)
	assert.Equal(t, 4326, stamped.SRID())
	assert.Equal(t, 4326, stamped.Geometries()[0].SRID())
	assert.Equal(t, 0, gc.SRID())

	_, err = WithSRID(p, -5)
	assert.True(t, IsErrorCode(err, ErrCodeInvalidGeometry))

	_, err = WithSRID[*Point](nil, 0)
	assert.Error(t, err)
}

func TestEnvelope(t *testing.T) {
	line := mustLineString(t, 0, -10, 5, 20, -3, 4, 7)
	bb := line.Envelope()
	assert.Equal(t, BoundingBox{MinX: -3, MinY: -10, MaxX: 7, MaxY: 20}, bb)

	other := BoundingBox{MinX: 6, MinY: 19, MaxX: 30, MaxY: 30}
	assert.True(t, bb.Intersects(other))
	assert.False(t, bb.Intersects(BoundingBox{MinX: 8, MinY: 0, MaxX: 9, MaxY: 1}))
	assert.Equal(t, BoundingBox{MinX: -3, MinY: -10, MaxX: 30, MaxY: 30}, bb.Expand(other))
}

func TestAccessorsReturnCopies(t *testing.T) {
	line := mustLineString(t, 0, 0, 180, 1, 179)
	coords := line.Coordinates()
	coords[0].Latitude = 99
	assert.Equal(t, 0.0, line.Coordinates()[0].Latitude)
}

func TestKind(t *testing.T) {
	assert.Equal(t, "MultiLineString", KindMultiLineString.String())
	assert.Equal(t, "MULTILINESTRING", KindMultiLineString.Keyword())
	assert.Equal(t, "Kind(9)", Kind(9).String())

	k, ok := kindFromKeyword("geometrycollection")
	assert.True(t, ok)
	assert.Equal(t, KindGeometryCollection, k)

	_, ok = kindFromName("point")
	assert.False(t, ok, "geojson type names are case sensitive")
}

func TestIsNil(t *testing.T) {
	assert.True(t, IsNil(nil))
	assert.True(t, IsNil((*Polygon)(nil)))
	assert.False(t, IsNil(mustPoint(t, 0, 0, 0)))
}
